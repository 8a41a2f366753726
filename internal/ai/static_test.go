package ai

import (
	"context"
	"strings"
	"testing"
)

func TestLevelForYears(t *testing.T) {
	tests := []struct {
		years int
		want  Level
	}{
		{years: 0, want: LevelJunior},
		{years: 2, want: LevelJunior},
		{years: 3, want: LevelMid},
		{years: 5, want: LevelMid},
		{years: 6, want: LevelSenior},
		{years: 25, want: LevelSenior},
	}

	for _, tt := range tests {
		if got := LevelForYears(tt.years); got != tt.want {
			t.Fatalf("LevelForYears(%d) = %s, want %s", tt.years, got, tt.want)
		}
	}
}

func TestStaticQuestionsMatchesCategories(t *testing.T) {
	set := StaticQuestions([]string{"Python", "PostgreSQL"}, 4, 5)

	if set.Len() < MinQuestions {
		t.Fatalf("expected at least %d questions, got %d", MinQuestions, set.Len())
	}
	if set.Provenance != ProvenanceStatic {
		t.Fatalf("expected static provenance, got %s", set.Provenance)
	}
	if set.Level != LevelMid {
		t.Fatalf("expected mid level for 4 years, got %s", set.Level)
	}
}

func TestStaticQuestionsNeverEmpty(t *testing.T) {
	inputs := [][]string{
		nil,
		{},
		{"COBOL", "Fortran"},
		{"  "},
	}

	for _, stack := range inputs {
		set := StaticQuestions(stack, 1, 5)
		if set.Len() < MinQuestions {
			t.Fatalf("expected generic fallback for %v, got %d questions", stack, set.Len())
		}
		for _, q := range set.Questions {
			if strings.TrimSpace(q.Text) == "" {
				t.Fatalf("empty question text for stack %v", stack)
			}
		}
	}
}

func TestStaticQuestionsClampsLimit(t *testing.T) {
	if set := StaticQuestions([]string{"Python"}, 4, 0); set.Len() < MinQuestions {
		t.Fatalf("zero limit must clamp up, got %d", set.Len())
	}
	if set := StaticQuestions([]string{"Python"}, 4, 50); set.Len() > MaxQuestions {
		t.Fatalf("oversized limit must clamp down, got %d", set.Len())
	}
}

func TestStaticGenerator(t *testing.T) {
	gen := &StaticGenerator{Count: 3}

	set, err := gen.Generate(context.Background(), []string{"Go"}, 7)
	if err != nil {
		t.Fatalf("static generation must not fail: %v", err)
	}
	if set.Len() == 0 {
		t.Fatalf("expected questions")
	}
	if set.Level != LevelSenior {
		t.Fatalf("expected senior level, got %s", set.Level)
	}
}

func TestNormalizeStack(t *testing.T) {
	got := NormalizeStack([]string{" Python ", "python", "", "Django", "PYTHON"})
	want := []string{"Python", "Django"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
