package interview

import (
	"time"

	"github.com/google/uuid"
	"github.com/talentscout/screener/internal/ai"
)

// Speaker identifies who produced a transcript turn.
type Speaker string

const (
	SpeakerCandidate Speaker = "candidate"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one utterance in the conversation transcript.
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Answer records the candidate's response to one technical question.
type Answer struct {
	Question string    `json:"question"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// Session is the complete, serializable state of one screening conversation.
// The session store owns it between turns; the engine receives it by value
// of this handle, mutates it, and saves it back after every turn.
type Session struct {
	ID            string          `json:"id"`
	State         State           `json:"state"`
	Profile       Profile         `json:"profile"`
	Questions     *ai.QuestionSet `json:"questions,omitempty"`
	QuestionIndex int             `json:"question_index"`
	Answers       []Answer        `json:"answers,omitempty"`
	Retries       map[string]int  `json:"retries,omitempty"`
	Skipped       []string        `json:"skipped,omitempty"`
	Transcript    []Turn          `json:"transcript,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	LastActivity  time.Time       `json:"last_activity"`
}

// NewSession creates a fresh session in the greeting state.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		State:        StateGreeting,
		Profile:      NewProfile(),
		Retries:      make(map[string]int),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Touch updates the inactivity clock.
func (s *Session) Touch() {
	s.LastActivity = time.Now()
}

// Expired reports whether the session has been idle longer than timeout.
func (s *Session) Expired(timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return time.Since(s.LastActivity) > timeout
}

// AddTurn appends an utterance to the transcript.
func (s *Session) AddTurn(speaker Speaker, text string) {
	s.Transcript = append(s.Transcript, Turn{
		Speaker: speaker,
		Text:    text,
		At:      time.Now(),
	})
}

// transition moves the session to a new state and resets the retry counter
// of the field collected there, keeping state and profile consistent.
func (s *Session) transition(to State) {
	s.State = to
	if field := to.field(); field != "" {
		delete(s.Retries, field)
	}
}

// retryCount returns the bounded retry counter for the given field.
func (s *Session) retryCount(field string) int {
	return s.Retries[field]
}

// incrementRetry bumps the retry counter for the given field and returns
// the new value.
func (s *Session) incrementRetry(field string) int {
	if s.Retries == nil {
		s.Retries = make(map[string]int)
	}
	s.Retries[field]++
	return s.Retries[field]
}

// skip marks a non-identity field as skipped after retries were exhausted.
func (s *Session) skip(field string) {
	delete(s.Retries, field)
	for _, skipped := range s.Skipped {
		if skipped == field {
			return
		}
	}
	s.Skipped = append(s.Skipped, field)
}

// CurrentQuestion returns the technical question awaiting an answer, or nil
// when the sub-loop is finished.
func (s *Session) CurrentQuestion() *ai.Question {
	if s.Questions == nil || s.QuestionIndex >= s.Questions.Len() {
		return nil
	}
	return &s.Questions.Questions[s.QuestionIndex]
}
