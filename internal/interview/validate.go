package interview

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Limits holds the configurable validation bounds. The zero value is usable;
// withDefaults fills in the documented defaults.
type Limits struct {
	MaxNameLength      int
	PhoneMinDigits     int
	PhoneMaxDigits     int
	MaxExperienceYears int
}

// DefaultLimits returns the standard validation bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxNameLength:      100,
		PhoneMinDigits:     7,
		PhoneMaxDigits:     15,
		MaxExperienceYears: 60,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxNameLength <= 0 {
		l.MaxNameLength = def.MaxNameLength
	}
	if l.PhoneMinDigits <= 0 {
		l.PhoneMinDigits = def.PhoneMinDigits
	}
	if l.PhoneMaxDigits <= 0 {
		l.PhoneMaxDigits = def.PhoneMaxDigits
	}
	if l.MaxExperienceYears <= 0 {
		l.MaxExperienceYears = def.MaxExperienceYears
	}
	return l
}

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	letterPattern     = regexp.MustCompile(`[a-zA-Z]`)
	nameCharPattern   = regexp.MustCompile(`^[a-zA-Z\s\-.']+$`)
	phoneStripPattern = regexp.MustCompile(`[\s\-().]`)
	numberPattern     = regexp.MustCompile(`\d+`)
	stackSplitPattern = regexp.MustCompile(`[,;/\n]| and `)
)

// ValidationError carries the specific, user-readable reason an input was
// rejected. The engine repeats Reason verbatim in the corrective prompt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidateName normalizes internal whitespace and checks the name shape.
func ValidateName(raw string, limits Limits) (string, *ValidationError) {
	limits = limits.withDefaults()

	name := strings.Join(strings.Fields(raw), " ")
	switch {
	case name == "":
		return "", invalid(FieldName, "the name cannot be empty")
	case !letterPattern.MatchString(name):
		return "", invalid(FieldName, "the name must contain at least one letter")
	case len([]rune(name)) > limits.MaxNameLength:
		return "", invalid(FieldName, fmt.Sprintf("the name must be at most %d characters", limits.MaxNameLength))
	case !nameCharPattern.MatchString(name):
		return "", invalid(FieldName, "the name may only contain letters, spaces, hyphens, dots and apostrophes")
	}

	return name, nil
}

// ValidateEmail checks the local@domain shape and lowercases the address.
// Uniqueness is a persistence-layer concern, not checked here.
func ValidateEmail(raw string) (string, *ValidationError) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid(FieldEmail, "the email address cannot be empty")
	}
	if !emailPattern.MatchString(email) {
		return "", invalid(FieldEmail, "that does not look like a valid email address (expected something like name@example.com)")
	}

	return email, nil
}

// ValidatePhone strips common separators and checks the remaining digits.
func ValidatePhone(raw string, limits Limits) (string, *ValidationError) {
	limits = limits.withDefaults()

	phone := phoneStripPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	if phone == "" {
		return "", invalid(FieldPhone, "the phone number cannot be empty")
	}

	digits := phone
	if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", invalid(FieldPhone, "the phone number may only contain digits and an optional leading +")
		}
	}
	if len(digits) < limits.PhoneMinDigits || len(digits) > limits.PhoneMaxDigits {
		return "", invalid(FieldPhone, fmt.Sprintf("the phone number must have between %d and %d digits", limits.PhoneMinDigits, limits.PhoneMaxDigits))
	}

	return phone, nil
}

// ValidateExperience extracts the first number from free text and bounds it.
// "about 4 years" is accepted as 4.
func ValidateExperience(raw string, limits Limits) (int, *ValidationError) {
	limits = limits.withDefaults()

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, invalid(FieldExperience, "please tell me your years of experience as a number")
	}
	if strings.HasPrefix(trimmed, "-") {
		return 0, invalid(FieldExperience, "years of experience cannot be negative")
	}

	match := numberPattern.FindString(trimmed)
	if match == "" {
		return 0, invalid(FieldExperience, "I could not find a number in that answer; please reply with your years of experience")
	}

	years, err := strconv.Atoi(match)
	if err != nil || years > limits.MaxExperienceYears {
		return 0, invalid(FieldExperience, fmt.Sprintf("years of experience must be between 0 and %d", limits.MaxExperienceYears))
	}

	return years, nil
}

// ValidateTechStack splits the input on common delimiters into an ordered,
// non-empty list of skill tokens.
func ValidateTechStack(raw string) ([]string, *ValidationError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, invalid(FieldTechStack, "the tech stack cannot be empty")
	}

	var tokens []string
	for _, part := range stackSplitPattern.Split(trimmed, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	if len(tokens) == 0 {
		return nil, invalid(FieldTechStack, "please list at least one technology, separated by commas")
	}

	return tokens, nil
}

// ValidateAnswer requires a non-empty technical answer.
func ValidateAnswer(raw string) (string, *ValidationError) {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return "", invalid(FieldAnswer, "the answer cannot be empty; a short answer is fine")
	}
	return answer, nil
}

// Exit keywords end the conversation from any non-terminal state.
var exitKeywords = map[string]bool{
	"quit": true, "exit": true, "bye": true, "goodbye": true,
	"stop": true, "end": true, "cancel": true, "terminate": true,
}

// IsExitKeyword reports whether the input is a request to end the interview.
func IsExitKeyword(input string) bool {
	return exitKeywords[strings.ToLower(strings.TrimSpace(input))]
}
