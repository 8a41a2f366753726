// Package filtering narrows down candidate records through a sequence of
// filtering steps, logging what each step dropped.
package filtering

import (
	"strings"

	"go.uber.org/zap"

	"github.com/talentscout/screener/internal/interview"
)

// Filter represents a single filtering step applied to candidate records.
type Filter interface {
	Name() string
	Apply(records []*interview.Record) ([]*interview.Record, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the supplied filters sequentially, returning the remaining
// records.
func Run(logger *zap.Logger, steps []Filter, records []*interview.Record) []*interview.Record {
	for _, step := range steps {
		next, info := step.Apply(records)

		if logger != nil {
			logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		records = next
	}

	return records
}

func keep(records []*interview.Record, pred func(*interview.Record) bool) ([]*interview.Record, Step) {
	initial := len(records)
	kept := make([]*interview.Record, 0, initial)
	for _, rec := range records {
		if pred(rec) {
			kept = append(kept, rec)
		}
	}
	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

type technologyFilter struct {
	tech string
}

// NewTechnology creates a filter that keeps candidates whose declared stack
// contains the given technology. Matching is case-insensitive.
func NewTechnology(tech string) Filter {
	return &technologyFilter{tech: strings.ToLower(strings.TrimSpace(tech))}
}

func (f *technologyFilter) Name() string { return "technology" }

func (f *technologyFilter) Apply(records []*interview.Record) ([]*interview.Record, Step) {
	if f.tech == "" {
		return records, Step{Initial: len(records), Dropped: 0, Left: len(records)}
	}

	return keep(records, func(rec *interview.Record) bool {
		for _, t := range rec.Profile.TechStack {
			if strings.ToLower(t) == f.tech {
				return true
			}
		}
		return false
	})
}

type minExperienceFilter struct {
	years int
}

// NewMinExperience creates a filter that keeps candidates with at least the
// given years of experience.
func NewMinExperience(years int) Filter {
	return &minExperienceFilter{years: years}
}

func (f *minExperienceFilter) Name() string { return "min_experience" }

func (f *minExperienceFilter) Apply(records []*interview.Record) ([]*interview.Record, Step) {
	if f.years <= 0 {
		return records, Step{Initial: len(records), Dropped: 0, Left: len(records)}
	}

	return keep(records, func(rec *interview.Record) bool {
		return rec.Profile.ExperienceYears >= f.years
	})
}

type completedOnlyFilter struct{}

// NewCompletedOnly creates a filter that keeps only fully completed
// screenings.
func NewCompletedOnly() Filter {
	return &completedOnlyFilter{}
}

func (f *completedOnlyFilter) Name() string { return "completed_only" }

func (f *completedOnlyFilter) Apply(records []*interview.Record) ([]*interview.Record, Step) {
	return keep(records, func(rec *interview.Record) bool {
		return rec.Status == interview.StatusCompleted
	})
}
