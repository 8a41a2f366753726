package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/talentscout/screener/internal/ai"
	"github.com/talentscout/screener/internal/utils"
	"go.uber.org/zap"
)

//go:embed questions_prompt.md
var questionPromptTemplate string

const questionSystemInstruction = `You are an expert technical interviewer for a recruitment agency. ` +
	`Generate relevant, fair technical questions matched to the candidate's experience level and tech stack. ` +
	`Avoid trick questions. Respond with JSON only, no prose around it.`

// enumerated list markers like "1.", "2)", "-", "*".
var listMarkerPattern = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+`)

type completer interface {
	Complete(ctx context.Context, system, prompt string) (*Completion, error)
}

// QuestionGenerator asks the model for a bounded question list tailored to a
// candidate and absorbs every gateway failure into the static bank. It never
// returns an error except on context cancellation.
type QuestionGenerator struct {
	gateway   completer
	count     int
	logger    *zap.Logger
	maxLogLen int
}

// NewQuestionGenerator wires a generator to the given gateway. count is
// clamped to the allowed question range.
func NewQuestionGenerator(gateway *Gateway, count int, logger *zap.Logger) *QuestionGenerator {
	return newQuestionGenerator(gateway, count, logger)
}

func newQuestionGenerator(gateway completer, count int, logger *zap.Logger) *QuestionGenerator {
	if count < ai.MinQuestions {
		count = ai.MinQuestions
	}
	if count > ai.MaxQuestions {
		count = ai.MaxQuestions
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &QuestionGenerator{
		gateway:   gateway,
		count:     count,
		logger:    logger,
		maxLogLen: 200,
	}
}

// Generate produces a question set for the given stack and experience.
func (q *QuestionGenerator) Generate(ctx context.Context, techStack []string, experienceYears int) (*ai.QuestionSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stack := ai.NormalizeStack(techStack)
	level := ai.LevelForYears(experienceYears)
	prompt := buildQuestionPrompt(stack, experienceYears, level, q.count)

	q.logger.Debug("requesting technical questions",
		zap.Strings("tech_stack", stack),
		zap.String("level", string(level)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, q.maxLogLen)),
	)

	completion, err := q.gateway.Complete(ctx, questionSystemInstruction, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		q.logger.Warn("question generation failed, using static bank", zap.Error(err))
		return ai.StaticQuestions(stack, experienceYears, q.count), nil
	}

	questions := parseQuestions(completion.Text, string(level), q.count)
	if len(questions) == 0 {
		q.logger.Warn("model response was not parseable, using static bank",
			zap.String("model", completion.Model),
			zap.String("response_preview", utils.TruncateForLog(completion.Text, q.maxLogLen)),
		)
		return ai.StaticQuestions(stack, experienceYears, q.count), nil
	}

	q.logger.Debug("technical questions generated",
		zap.String("model", completion.Model),
		zap.Int("question_count", len(questions)),
	)

	return &ai.QuestionSet{
		TechStack:   stack,
		Level:       level,
		Questions:   questions,
		GeneratedAt: time.Now(),
		Provenance:  completion.Provenance,
	}, nil
}

func buildQuestionPrompt(stack []string, years int, level ai.Level, count int) string {
	template := questionPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Generate {{QUESTION_COUNT}} technical interview questions for a {{EXPERIENCE_LEVEL}} candidate ({{EXPERIENCE_YEARS}} years) working with: {{TECH_STACK}}. JSON response:"
	}

	prompt := strings.ReplaceAll(template, "{{TECH_STACK}}", strings.Join(stack, ", "))
	prompt = strings.ReplaceAll(prompt, "{{EXPERIENCE_YEARS}}", strconv.Itoa(years))
	prompt = strings.ReplaceAll(prompt, "{{EXPERIENCE_LEVEL}}", string(level))
	prompt = strings.ReplaceAll(prompt, "{{QUESTION_COUNT}}", fmt.Sprintf("%d-%d", ai.MinQuestions, count))
	return prompt
}

// parseQuestions tries the structured JSON shape first, then falls back to
// splitting an enumerated plain-text list. Malformed entries are dropped and
// the result is capped at limit.
func parseQuestions(raw, defaultDifficulty string, limit int) []ai.Question {
	questions := parseJSONQuestions(raw)
	if len(questions) == 0 {
		questions = parseEnumeratedQuestions(raw)
	}

	result := make([]ai.Question, 0, limit)
	for _, question := range questions {
		question.Text = strings.TrimSpace(question.Text)
		if question.Text == "" {
			continue
		}
		if question.Category == "" {
			question.Category = "general"
		}
		if question.Difficulty == "" {
			question.Difficulty = defaultDifficulty
		}
		result = append(result, question)
		if len(result) == limit {
			break
		}
	}

	return result
}

func parseJSONQuestions(raw string) []ai.Question {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil
	}

	// The model emits loosely typed JSON, so decode the entries weakly
	// instead of failing the whole batch on one bad field.
	var questions []ai.Question
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &questions,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil
	}
	if err := decoder.Decode(data["questions"]); err != nil {
		return nil
	}

	return questions
}

func parseEnumeratedQuestions(raw string) []ai.Question {
	var questions []ai.Question
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		marked := listMarkerPattern.MatchString(trimmed)
		text := strings.TrimSpace(listMarkerPattern.ReplaceAllString(trimmed, ""))
		if text == "" {
			continue
		}
		if !marked && !strings.HasSuffix(text, "?") {
			continue
		}

		questions = append(questions, ai.Question{Text: text})
	}
	return questions
}

// extractJSON strips markdown code fences and surrounding backticks the
// model tends to wrap its JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
