package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/talentscout/screener/internal/ai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeCaller struct {
	mu    sync.Mutex
	calls map[string]int
	queue map[string][]fakeResponse
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		calls: make(map[string]int),
		queue: make(map[string][]fakeResponse),
	}
}

func (f *fakeCaller) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeResponse{resp: resp, err: err})
}

func (f *fakeCaller) generate(_ context.Context, model string, _ *genai.GenerateContentConfig, _ string) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[model]++
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func newTestGateway(caller modelCaller) *Gateway {
	return &Gateway{
		caller:        caller,
		model:         "primary-model",
		fallbackModel: "fallback-model",
		policy: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			RequestTimeout: time.Second,
			TotalTimeout:   5 * time.Second,
		},
		temperature: 0.8,
		logger:      zap.NewNop(),
		maxLogLen:   200,
	}
}

func TestCompleteRetriesOnServerError(t *testing.T) {
	caller := newFakeCaller()
	caller.enqueue("primary-model", nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	caller.enqueue("primary-model", textResponse("hello"), nil)

	gateway := newTestGateway(caller)

	completion, err := gateway.Complete(context.Background(), "system", "prompt")
	if err != nil {
		t.Fatalf("expected success after retry: %v", err)
	}
	if completion.Text != "hello" {
		t.Fatalf("unexpected text %q", completion.Text)
	}
	if completion.Provenance != ai.ProvenancePrimary {
		t.Fatalf("expected primary provenance, got %s", completion.Provenance)
	}
	if caller.calls["primary-model"] != 2 {
		t.Fatalf("expected 2 primary calls, got %d", caller.calls["primary-model"])
	}
	if caller.calls["fallback-model"] != 0 {
		t.Fatalf("fallback must not be called on primary success")
	}
}

func TestCompleteEscalatesToFallbackModel(t *testing.T) {
	caller := newFakeCaller()
	serverErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	for i := 0; i < 3; i++ {
		caller.enqueue("primary-model", nil, serverErr)
	}
	caller.enqueue("fallback-model", textResponse("from fallback"), nil)

	gateway := newTestGateway(caller)

	completion, err := gateway.Complete(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("expected fallback success: %v", err)
	}
	if completion.Model != "fallback-model" {
		t.Fatalf("expected fallback model, got %s", completion.Model)
	}
	if completion.Provenance != ai.ProvenanceFallbackModel {
		t.Fatalf("expected fallback provenance, got %s", completion.Provenance)
	}
	if caller.calls["primary-model"] != 3 {
		t.Fatalf("expected 3 primary attempts, got %d", caller.calls["primary-model"])
	}
	if caller.calls["fallback-model"] != 1 {
		t.Fatalf("expected a single fallback attempt, got %d", caller.calls["fallback-model"])
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	caller := newFakeCaller()
	caller.enqueue("primary-model", nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})
	caller.enqueue("fallback-model", textResponse("recovered"), nil)

	gateway := newTestGateway(caller)

	completion, err := gateway.Complete(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("expected fallback to recover: %v", err)
	}
	if completion.Provenance != ai.ProvenanceFallbackModel {
		t.Fatalf("expected fallback provenance, got %s", completion.Provenance)
	}
	if caller.calls["primary-model"] != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", caller.calls["primary-model"])
	}
}

func TestCompleteFailsWhenBothModelsFail(t *testing.T) {
	caller := newFakeCaller()
	serverErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	for i := 0; i < 3; i++ {
		caller.enqueue("primary-model", nil, serverErr)
	}
	caller.enqueue("fallback-model", nil, serverErr)

	gateway := newTestGateway(caller)

	_, err := gateway.Complete(context.Background(), "", "prompt")
	if err == nil {
		t.Fatalf("expected an error when both models fail")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected the underlying api error to be preserved, got %v", err)
	}
}

func TestCompleteRetriesEmptyResponses(t *testing.T) {
	caller := newFakeCaller()
	caller.enqueue("primary-model", &genai.GenerateContentResponse{}, nil)
	caller.enqueue("primary-model", textResponse("filled"), nil)

	gateway := newTestGateway(caller)

	completion, err := gateway.Complete(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("expected retry after empty response: %v", err)
	}
	if completion.Text != "filled" {
		t.Fatalf("unexpected text %q", completion.Text)
	}
}

func TestCompleteHonorsCancellation(t *testing.T) {
	caller := newFakeCaller()
	gateway := newTestGateway(caller)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := gateway.Complete(ctx, "", "prompt"); err == nil {
		t.Fatalf("expected an error for a cancelled context")
	}
}

func TestRetryableQuotaClassification(t *testing.T) {
	shortPause := genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Quota exceeded, retry after 10 seconds"}
	if !retryable(shortPause) {
		t.Fatalf("short quota pauses must be retryable")
	}

	longPause := genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Quota exceeded, retry after 3600 seconds"}
	if retryable(longPause) {
		t.Fatalf("long quota pauses must not be retryable")
	}

	noHint := genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Quota exceeded"}
	if !retryable(noHint) {
		t.Fatalf("quota errors without a delay hint must be retryable")
	}
}

func TestBackoffDoublesUpToCap(t *testing.T) {
	policy := RetryPolicy{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}

	if got := policy.backoff(1); got != time.Second {
		t.Fatalf("expected 1s, got %s", got)
	}
	if got := policy.backoff(2); got != 2*time.Second {
		t.Fatalf("expected 2s, got %s", got)
	}
	if got := policy.backoff(4); got != 5*time.Second {
		t.Fatalf("expected cap at 5s, got %s", got)
	}
}

func TestFlattenResponseJoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: " first "}, {Text: ""}}}},
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "second"}}}},
		},
	}

	if got := flattenResponse(resp); got != "first\nsecond" {
		t.Fatalf("unexpected flattened text %q", got)
	}
	if got := flattenResponse(nil); got != "" {
		t.Fatalf("expected empty string for nil response, got %q", got)
	}
}
