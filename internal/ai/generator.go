package ai

import (
	"context"
	"strings"
	"time"
)

// Provenance records which path produced a question set.
type Provenance string

const (
	// ProvenancePrimary marks sets produced by the primary model.
	ProvenancePrimary Provenance = "primary"
	// ProvenanceFallbackModel marks sets produced by the fallback model.
	ProvenanceFallbackModel Provenance = "fallback-model"
	// ProvenanceStatic marks sets taken from the built-in question bank.
	ProvenanceStatic Provenance = "static"
)

// Level buckets years of experience into interview difficulty tiers.
type Level string

const (
	LevelJunior Level = "junior"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
)

// LevelForYears maps years of experience to a Level.
func LevelForYears(years int) Level {
	switch {
	case years <= 2:
		return LevelJunior
	case years <= 5:
		return LevelMid
	default:
		return LevelSenior
	}
}

// Question is a single technical interview question.
type Question struct {
	Text       string `json:"question" mapstructure:"question"`
	Category   string `json:"category" mapstructure:"category"`
	Difficulty string `json:"difficulty" mapstructure:"difficulty"`
}

// QuestionSet is an immutable, bounded list of technical questions generated
// for one candidate profile.
type QuestionSet struct {
	TechStack   []string   `json:"tech_stack"`
	Level       Level      `json:"level"`
	Questions   []Question `json:"questions"`
	GeneratedAt time.Time  `json:"generated_at"`
	Provenance  Provenance `json:"provenance"`
}

// Len returns the number of questions in the set.
func (s *QuestionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Questions)
}

// QuestionGenerator produces a question set for the given tech stack and
// experience. Implementations must always return a non-empty set unless the
// context is cancelled.
type QuestionGenerator interface {
	Generate(ctx context.Context, techStack []string, experienceYears int) (*QuestionSet, error)
}

// StaticGenerator serves questions from the built-in bank only. It is used
// when no model backend is configured.
type StaticGenerator struct {
	Count int
}

// Generate selects category-matched questions from the static bank.
func (g *StaticGenerator) Generate(_ context.Context, techStack []string, experienceYears int) (*QuestionSet, error) {
	return StaticQuestions(techStack, experienceYears, g.Count), nil
}

// NormalizeStack trims and deduplicates stack tokens, preserving order.
func NormalizeStack(techStack []string) []string {
	seen := make(map[string]bool, len(techStack))
	result := make([]string, 0, len(techStack))
	for _, token := range techStack {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		key := strings.ToLower(token)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, token)
	}
	return result
}
