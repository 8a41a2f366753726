package interview

import (
	"fmt"

	"github.com/talentscout/screener/internal/ai"
)

// User-facing message builders. Every reply the engine emits is natural
// language; raw error codes never reach the candidate.

func greetingMessage() string {
	return "Welcome to TalentScout! I'm your screening assistant. " +
		"I'll collect a few details about you and then ask a handful of technical questions " +
		"based on your skills. You can type \"exit\" at any time to stop.\n\n" +
		"To begin, what is your full name?"
}

func promptFor(state State) string {
	switch state {
	case StateCollectName:
		return "What is your full name?"
	case StateCollectEmail:
		return "What email address can we reach you at?"
	case StateCollectPhone:
		return "What is your phone number?"
	case StateCollectExperience:
		return "How many years of professional experience do you have?"
	case StateCollectTechStack:
		return "Which technologies do you work with? List languages, frameworks and tools, separated by commas."
	default:
		return "Please provide the requested information."
	}
}

func emailPrompt(name string) string {
	if name == "" {
		return promptFor(StateCollectEmail)
	}
	return fmt.Sprintf("Nice to meet you, %s! %s", name, promptFor(StateCollectEmail))
}

func techStackPrompt(years int) string {
	return fmt.Sprintf("Great, %d %s of experience noted. %s",
		years, plural(years, "year", "years"), promptFor(StateCollectTechStack))
}

func retryMessage(reason string, nextPrompt string) string {
	return fmt.Sprintf("Sorry, %s. %s", reason, nextPrompt)
}

func skipMessage(field string, nextPrompt string) string {
	var what string
	switch field {
	case FieldPhone:
		what = "your phone number"
	case FieldExperience:
		what = "your years of experience"
	case FieldTechStack:
		what = "your tech stack"
	default:
		what = "that question"
	}
	return fmt.Sprintf("No problem, let's skip %s for now and move on. %s", what, nextPrompt)
}

func identityGiveUpMessage(field string) string {
	what := "your name"
	if field == FieldEmail {
		what = "your email address"
	}
	return fmt.Sprintf("I wasn't able to record %s, and I cannot continue the screening without it. "+
		"Please start a new session when you're ready. Thank you for your time!", what)
}

func questionIntro(name string, count int) string {
	lead := "Perfect, that's everything I need!"
	if name != "" {
		lead = fmt.Sprintf("Thanks, %s, that's everything I need!", name)
	}
	return fmt.Sprintf("%s I've prepared %d technical %s based on your background. "+
		"Answer in your own words; a few sentences are enough.",
		lead, count, plural(count, "question", "questions"))
}

func questionMessage(q *ai.Question, number, total int) string {
	return fmt.Sprintf("Question %d of %d: %s", number, total, q.Text)
}

func encouragement(index int) string {
	phrases := []string{
		"Thanks, noted.",
		"Got it, thank you.",
		"Great, moving on.",
		"Thanks for the detail.",
	}
	return phrases[index%len(phrases)]
}

func closingMessage(name string) string {
	who := ""
	if name != "" {
		who = ", " + name
	}
	return fmt.Sprintf("That completes your screening%s! Your responses have been recorded "+
		"and will be reviewed by our recruiting team. We'll be in touch soon. Have a great day!", who)
}

func unsavedNotice() string {
	return "Please note: we could not save your record right now, but your interview is complete " +
		"and our team has been notified."
}

func incompleteNotice() string {
	return "Since some details were skipped, your profile is incomplete and was not stored. " +
		"A recruiter may follow up to fill in the gaps."
}

func exitMessage() string {
	return "Thanks for your time! Your session has ended. Feel free to start again whenever you're ready."
}

func terminatedMessage() string {
	return "Your screening is already complete. Thank you for your time with TalentScout!"
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
