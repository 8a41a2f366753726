package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/talentscout/screener/internal/ai"
)

// Record statuses stored with each candidate.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
)

// Record is the finalized outcome of one screening, handed to the
// persistence gateway when the conversation closes. Records are keyed by the
// candidate's email; a later screening for the same email replaces the
// earlier record.
type Record struct {
	SessionID     string    `json:"session_id"`
	Profile       Profile   `json:"profile"`
	QuestionCount int       `json:"question_count"`
	AnswerCount   int       `json:"answer_count"`
	Completion    float64   `json:"completion"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
	Transcript    []Turn    `json:"transcript,omitempty"`
	InterviewedAt time.Time `json:"interviewed_at"`
}

// Recorder is the persistence gateway as seen by the engine. Upsert must be
// idempotent per email.
type Recorder interface {
	Upsert(ctx context.Context, rec *Record) error
}

// buildRecord freezes the session into a Record.
func buildRecord(sess *Session) *Record {
	status := StatusPartial
	if sess.Profile.Complete() && sess.Questions != nil && len(sess.Answers) >= sess.Questions.Len() {
		status = StatusCompleted
	}

	return &Record{
		SessionID:     sess.ID,
		Profile:       sess.Profile,
		QuestionCount: sess.Questions.Len(),
		AnswerCount:   len(sess.Answers),
		Completion:    completionPercentage(sess),
		Status:        status,
		Notes:         interviewNotes(sess),
		Transcript:    sess.Transcript,
		InterviewedAt: time.Now(),
	}
}

// completionPercentage weighs the profile fields at 80% and answered
// questions at the remaining 20%.
func completionPercentage(sess *Session) float64 {
	fields := 0
	if sess.Profile.FullName != "" {
		fields++
	}
	if sess.Profile.Email != "" {
		fields++
	}
	if sess.Profile.Phone != "" {
		fields++
	}
	if sess.Profile.HasExperience() {
		fields++
	}
	if len(sess.Profile.TechStack) > 0 {
		fields++
	}

	percentage := float64(fields) / 5 * 80

	if total := sess.Questions.Len(); total > 0 {
		percentage += float64(len(sess.Answers)) / float64(total) * 20
	}

	if percentage > 100 {
		percentage = 100
	}
	return percentage
}

// interviewNotes produces the short summary recruiters see in listings.
func interviewNotes(sess *Session) string {
	var notes []string

	if sess.Profile.HasExperience() {
		switch ai.LevelForYears(sess.Profile.ExperienceYears) {
		case ai.LevelJunior:
			notes = append(notes, "junior level candidate")
		case ai.LevelMid:
			notes = append(notes, "mid-level candidate")
		case ai.LevelSenior:
			notes = append(notes, "senior level candidate")
		}
	}

	for _, highlight := range []string{"python", "javascript", "react", "go", "java"} {
		for _, token := range sess.Profile.TechStack {
			if strings.Contains(strings.ToLower(token), highlight) {
				notes = append(notes, fmt.Sprintf("%s experience", highlight))
				break
			}
		}
	}

	if total := sess.Questions.Len(); total > 0 {
		rate := float64(len(sess.Answers)) / float64(total)
		switch {
		case rate >= 1:
			notes = append(notes, "completed all technical questions")
		case rate >= 0.5:
			notes = append(notes, "completed most technical questions")
		default:
			notes = append(notes, "partially completed technical questions")
		}
	}

	if len(sess.Skipped) > 0 {
		notes = append(notes, "skipped: "+strings.Join(sess.Skipped, ", "))
	}

	if len(notes) == 0 {
		return "standard screening completed"
	}
	return strings.Join(notes, "; ")
}
