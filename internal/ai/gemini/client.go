package gemini

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/talentscout/screener/internal/ai"
	"github.com/talentscout/screener/internal/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// Provider is the backend name used in logs and provenance fields.
	Provider = "gemini"

	defaultModel         = "gemini-2.5-flash"
	defaultFallbackModel = "gemini-2.5-flash-lite"

	// Quota errors that ask for a longer pause than this are not worth
	// retrying within a conversation turn.
	maxQuotaRetryDelay = 30 * time.Second
)

var errEmptyResponse = errors.New("model returned empty response")

var quotaDelayPattern = regexp.MustCompile(`retry after (\d+)`)

// RetryPolicy bounds every remote call made by the gateway. The sum of all
// retry, backoff and per-request windows never exceeds TotalTimeout.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RequestTimeout time.Duration
	TotalTimeout   time.Duration
}

// DefaultRetryPolicy returns the policy used when the configuration does not
// override it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		RequestTimeout: 20 * time.Second,
		TotalTimeout:   60 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = def.MaxBackoff
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = def.RequestTimeout
	}
	if p.TotalTimeout <= 0 {
		p.TotalTimeout = def.TotalTimeout
	}
	return p
}

// backoff returns the wait before the given attempt (attempt 1 is the first
// retry), doubling from InitialBackoff up to MaxBackoff.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// modelCaller is the seam between the gateway and the genai SDK.
type modelCaller interface {
	generate(ctx context.Context, model string, config *genai.GenerateContentConfig, prompt string) (*genai.GenerateContentResponse, error)
}

type apiCaller struct {
	client *genai.Client
}

func (c *apiCaller) generate(ctx context.Context, model string, config *genai.GenerateContentConfig, prompt string) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
}

// Completion is a normalized model response.
type Completion struct {
	Text       string
	Model      string
	Provenance ai.Provenance
}

// Gateway wraps the Google GenAI client with timeouts, bounded retries and
// primary-to-fallback model escalation.
type Gateway struct {
	caller        modelCaller
	model         string
	fallbackModel string
	policy        RetryPolicy
	temperature   float32
	logger        *zap.Logger
	maxLogLen     int
}

// NewGateway creates a Gateway backed by the Gemini API.
func NewGateway(ctx context.Context, apiKey, model, fallbackModel string, policy RetryPolicy, logger *zap.Logger) (*Gateway, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if fallbackModel = strings.TrimSpace(fallbackModel); fallbackModel == "" {
		fallbackModel = defaultFallbackModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Gateway{
		caller:        &apiCaller{client: client},
		model:         model,
		fallbackModel: fallbackModel,
		policy:        policy.withDefaults(),
		temperature:   0.8,
		logger:        logger,
		maxLogLen:     200,
	}, nil
}

// SetMaxLogLength bounds how much of prompts and completions is written to
// the log.
func (g *Gateway) SetMaxLogLength(n int) {
	if n > 0 {
		g.maxLogLen = n
	}
}

// Model returns the primary model identifier.
func (g *Gateway) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Complete sends the prompt to the primary model with bounded retries, then
// makes a single attempt against the fallback model before giving up. The
// call never blocks past the policy's total timeout and honors cancellation.
func (g *Gateway) Complete(ctx context.Context, system, prompt string) (*Completion, error) {
	if g == nil || g.caller == nil {
		return nil, errors.New("gemini gateway is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, g.policy.TotalTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	text, primaryErr := g.attempt(ctx, g.model, config, prompt, g.policy.MaxAttempts)
	if primaryErr == nil {
		return &Completion{Text: text, Model: g.model, Provenance: ai.ProvenancePrimary}, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("generate content: %w", ctx.Err())
	}

	g.logger.Warn("primary model exhausted, trying fallback model",
		zap.String("model", g.model),
		zap.String("fallback_model", g.fallbackModel),
		zap.Error(primaryErr),
	)

	text, fallbackErr := g.attempt(ctx, g.fallbackModel, config, prompt, 1)
	if fallbackErr != nil {
		return nil, fmt.Errorf("generate content: %w", errors.Join(primaryErr, fallbackErr))
	}

	return &Completion{Text: text, Model: g.fallbackModel, Provenance: ai.ProvenanceFallbackModel}, nil
}

func (g *Gateway) attempt(ctx context.Context, model string, config *genai.GenerateContentConfig, prompt string, attempts int) (string, error) {
	var lastErr error

	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := utils.WaitFor(ctx, g.policy.backoff(i)); err != nil {
				return "", err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.policy.RequestTimeout)
		resp, err := g.caller.generate(callCtx, model, config, prompt)
		cancel()

		if err == nil {
			text := flattenResponse(resp)
			if text != "" {
				return text, nil
			}
			err = errEmptyResponse
		}

		lastErr = err

		if !retryable(err) {
			return "", err
		}

		g.logger.Debug("model call failed, will retry",
			zap.String("model", model),
			zap.Int("attempt", i+1),
			zap.String("error_preview", utils.TruncateForLog(err.Error(), g.maxLogLen)),
		)
	}

	return "", lastErr
}

// flattenResponse joins all textual parts of all candidates into a single
// trimmed string.
func flattenResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// retryable classifies errors the way the Gemini API reports them: server
// errors and short-lived quota pauses are retried, everything the client did
// wrong is not. Cancellation is never retried.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, errEmptyResponse) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			delay, ok := quotaRetryDelay(apiErr.Message)
			return !ok || delay <= maxQuotaRetryDelay
		}
		return apiErr.Code >= 500
	}

	// Transport-level failures without an API shape.
	return true
}

func quotaRetryDelay(message string) (time.Duration, bool) {
	match := quotaDelayPattern.FindStringSubmatch(strings.ToLower(message))
	if len(match) != 2 {
		return 0, false
	}
	seconds, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}
