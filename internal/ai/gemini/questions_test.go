package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/talentscout/screener/internal/ai"
)

type fakeCompleter struct {
	completion *Completion
	err        error
	system     string
	prompt     string
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string) (*Completion, error) {
	f.system = system
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.completion, nil
}

func TestGenerateParsesJSONResponse(t *testing.T) {
	completer := &fakeCompleter{completion: &Completion{
		Text: `{"questions": [
			{"question": "What is a Python decorator?", "category": "backend", "difficulty": "mid"},
			{"question": "Explain Django middleware.", "category": "backend"},
			{"question": "What is a database index?"}
		]}`,
		Model:      "primary-model",
		Provenance: ai.ProvenancePrimary,
	}}

	generator := newQuestionGenerator(completer, 5, zap.NewNop())

	set, err := generator.Generate(context.Background(), []string{"Python", "Django"}, 4)
	if err != nil {
		t.Fatalf("generating questions: %v", err)
	}

	if set.Len() != 3 {
		t.Fatalf("expected 3 questions, got %d", set.Len())
	}
	if set.Provenance != ai.ProvenancePrimary {
		t.Fatalf("expected primary provenance, got %s", set.Provenance)
	}
	if set.Level != ai.LevelMid {
		t.Fatalf("expected mid level, got %s", set.Level)
	}

	// Missing fields are defaulted, not dropped.
	third := set.Questions[2]
	if third.Category != "general" || third.Difficulty != string(ai.LevelMid) {
		t.Fatalf("expected defaults on sparse entry, got %+v", third)
	}
}

func TestGenerateStripsCodeFences(t *testing.T) {
	completer := &fakeCompleter{completion: &Completion{
		Text: "```json\n" +
			`{"questions": [{"question": "What is a goroutine?"}, {"question": "Explain channels."}, {"question": "What does defer do?"}]}` +
			"\n```",
		Model:      "primary-model",
		Provenance: ai.ProvenancePrimary,
	}}

	generator := newQuestionGenerator(completer, 5, zap.NewNop())

	set, err := generator.Generate(context.Background(), []string{"Go"}, 7)
	if err != nil {
		t.Fatalf("generating questions: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("expected 3 questions from fenced JSON, got %d", set.Len())
	}
}

func TestGenerateParsesEnumeratedList(t *testing.T) {
	completer := &fakeCompleter{completion: &Completion{
		Text: "Here are your questions:\n" +
			"1. What is a closure?\n" +
			"2) Explain event delegation.\n" +
			"- How does prototypal inheritance work?\n",
		Model:      "primary-model",
		Provenance: ai.ProvenancePrimary,
	}}

	generator := newQuestionGenerator(completer, 5, zap.NewNop())

	set, err := generator.Generate(context.Background(), []string{"JavaScript"}, 2)
	if err != nil {
		t.Fatalf("generating questions: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("expected 3 questions from the list, got %d", set.Len())
	}
	if set.Questions[0].Text != "What is a closure?" {
		t.Fatalf("expected marker to be stripped, got %q", set.Questions[0].Text)
	}
}

func TestGenerateCapsQuestionCount(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, "1. Question number "+strings.Repeat("x", i+1)+"?")
	}
	completer := &fakeCompleter{completion: &Completion{
		Text:       strings.Join(lines, "\n"),
		Provenance: ai.ProvenancePrimary,
	}}

	generator := newQuestionGenerator(completer, 4, zap.NewNop())

	set, err := generator.Generate(context.Background(), []string{"Python"}, 4)
	if err != nil {
		t.Fatalf("generating questions: %v", err)
	}
	if set.Len() != 4 {
		t.Fatalf("expected the configured cap of 4, got %d", set.Len())
	}
}

func TestGenerateFallsBackOnGatewayError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("both models failed")}
	generator := newQuestionGenerator(completer, 5, zap.NewNop())

	set, err := generator.Generate(context.Background(), []string{"Python"}, 4)
	if err != nil {
		t.Fatalf("gateway failure must not surface: %v", err)
	}
	if set.Len() == 0 {
		t.Fatalf("expected the static bank to fill in")
	}
	if set.Provenance != ai.ProvenanceStatic {
		t.Fatalf("expected static provenance, got %s", set.Provenance)
	}
}

func TestGenerateFallsBackOnUnparseableResponse(t *testing.T) {
	completer := &fakeCompleter{completion: &Completion{
		Text:       "I am sorry, I cannot help with that.",
		Provenance: ai.ProvenancePrimary,
	}}
	generator := newQuestionGenerator(completer, 5, zap.NewNop())

	set, err := generator.Generate(context.Background(), []string{"Python"}, 4)
	if err != nil {
		t.Fatalf("unparseable output must not surface: %v", err)
	}
	if set.Provenance != ai.ProvenanceStatic {
		t.Fatalf("expected static provenance, got %s", set.Provenance)
	}
}

func TestGeneratePropagatesCancellation(t *testing.T) {
	completer := &fakeCompleter{completion: &Completion{Text: "{}"}}
	generator := newQuestionGenerator(completer, 5, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := generator.Generate(ctx, []string{"Python"}, 4); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildQuestionPromptFillsPlaceholders(t *testing.T) {
	prompt := buildQuestionPrompt([]string{"Python", "Django"}, 4, ai.LevelMid, 5)

	for _, want := range []string{"Python, Django", "4", "mid", "3-5"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "{{") {
		t.Fatalf("unfilled placeholder left in prompt:\n%s", prompt)
	}
}
