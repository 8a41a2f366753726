package interview

import (
	"testing"
	"time"

	"github.com/talentscout/screener/internal/ai"
)

func TestNewSessionStartsAtGreeting(t *testing.T) {
	sess := NewSession()

	if sess.ID == "" {
		t.Fatalf("expected a session id")
	}
	if sess.State != StateGreeting {
		t.Fatalf("expected %s, got %s", StateGreeting, sess.State)
	}
	if sess.Profile.HasExperience() {
		t.Fatalf("experience must start unset")
	}
	if sess.Expired(time.Minute) {
		t.Fatalf("fresh session must not be expired")
	}
}

func TestTransitionResetsRetryCounter(t *testing.T) {
	sess := NewSession()
	sess.transition(StateCollectEmail)

	sess.incrementRetry(FieldEmail)
	sess.incrementRetry(FieldEmail)
	if got := sess.retryCount(FieldEmail); got != 2 {
		t.Fatalf("expected 2 retries, got %d", got)
	}

	sess.transition(StateCollectPhone)
	sess.transition(StateCollectEmail)
	if got := sess.retryCount(FieldEmail); got != 0 {
		t.Fatalf("expected reset counter, got %d", got)
	}
}

func TestSkipRecordsFieldOnce(t *testing.T) {
	sess := NewSession()
	sess.skip(FieldPhone)
	sess.skip(FieldPhone)

	if len(sess.Skipped) != 1 {
		t.Fatalf("expected one skipped entry, got %v", sess.Skipped)
	}
}

func TestCurrentQuestionBounds(t *testing.T) {
	sess := NewSession()
	if sess.CurrentQuestion() != nil {
		t.Fatalf("expected nil question before generation")
	}

	sess.Questions = &ai.QuestionSet{Questions: []ai.Question{{Text: "q1"}, {Text: "q2"}}}
	if q := sess.CurrentQuestion(); q == nil || q.Text != "q1" {
		t.Fatalf("expected first question, got %+v", q)
	}

	sess.QuestionIndex = 2
	if sess.CurrentQuestion() != nil {
		t.Fatalf("expected nil question past the end")
	}
}

func TestExpired(t *testing.T) {
	sess := NewSession()
	sess.LastActivity = time.Now().Add(-31 * time.Minute)

	if !sess.Expired(30 * time.Minute) {
		t.Fatalf("expected idle session to be expired")
	}

	sess.Touch()
	if sess.Expired(30 * time.Minute) {
		t.Fatalf("touch must refresh the activity window")
	}
}
