package filtering

import (
	"testing"

	"go.uber.org/zap"

	"github.com/talentscout/screener/internal/interview"
)

func record(email string, years int, status string, stack ...string) *interview.Record {
	return &interview.Record{
		Profile: interview.Profile{
			Email:           email,
			ExperienceYears: years,
			TechStack:       stack,
		},
		Status: status,
	}
}

func pool() []*interview.Record {
	return []*interview.Record{
		record("jane@example.com", 4, interview.StatusCompleted, "Python", "Django"),
		record("john@example.com", 8, interview.StatusCompleted, "Go", "Kubernetes"),
		record("kim@example.com", 1, interview.StatusPartial, "python"),
	}
}

func TestTechnologyFilter(t *testing.T) {
	records, step := NewTechnology("  PYTHON  ").Apply(pool())

	if step.Initial != 3 || step.Dropped != 1 || step.Left != 2 {
		t.Fatalf("unexpected step %+v", step)
	}
	for _, rec := range records {
		if rec.Profile.Email == "john@example.com" {
			t.Fatalf("expected john to be dropped")
		}
	}

	// An empty technology keeps everything.
	records, step = NewTechnology("").Apply(pool())
	if len(records) != 3 || step.Dropped != 0 {
		t.Fatalf("empty technology must be a no-op, got %+v", step)
	}
}

func TestMinExperienceFilter(t *testing.T) {
	records, step := NewMinExperience(4).Apply(pool())

	if step.Left != 2 {
		t.Fatalf("expected 2 records left, got %+v", step)
	}
	for _, rec := range records {
		if rec.Profile.ExperienceYears < 4 {
			t.Fatalf("record with %d years survived", rec.Profile.ExperienceYears)
		}
	}
}

func TestCompletedOnlyFilter(t *testing.T) {
	records, step := NewCompletedOnly().Apply(pool())

	if step.Left != 2 {
		t.Fatalf("expected 2 completed records, got %+v", step)
	}
	for _, rec := range records {
		if rec.Status != interview.StatusCompleted {
			t.Fatalf("non-completed record survived: %s", rec.Status)
		}
	}
}

func TestRunAppliesFiltersInOrder(t *testing.T) {
	steps := []Filter{
		NewTechnology("python"),
		NewMinExperience(2),
		NewCompletedOnly(),
	}

	records := Run(zap.NewNop(), steps, pool())

	if len(records) != 1 {
		t.Fatalf("expected a single record, got %d", len(records))
	}
	if records[0].Profile.Email != "jane@example.com" {
		t.Fatalf("unexpected survivor %s", records[0].Profile.Email)
	}
}

func TestRunWithoutFiltersReturnsInput(t *testing.T) {
	records := Run(nil, nil, pool())
	if len(records) != 3 {
		t.Fatalf("expected all records back, got %d", len(records))
	}
}
