package interview

// State identifies where the conversation is in the screening flow. The
// collection states form a strict linear order; TechnicalQA is a sub-loop
// over the generated question list.
type State string

const (
	StateGreeting          State = "greeting"
	StateCollectName       State = "collecting_name"
	StateCollectEmail      State = "collecting_email"
	StateCollectPhone      State = "collecting_phone"
	StateCollectExperience State = "collecting_experience"
	StateCollectTechStack  State = "collecting_tech_stack"
	StateTechnicalQA       State = "technical_qa"
	StateClosing           State = "closing"
	StateTerminated        State = "terminated"
)

// collectionOrder is the strict order in which fields are gathered.
var collectionOrder = []State{
	StateGreeting,
	StateCollectName,
	StateCollectEmail,
	StateCollectPhone,
	StateCollectExperience,
	StateCollectTechStack,
	StateTechnicalQA,
	StateClosing,
	StateTerminated,
}

// next returns the state that follows s in the linear order. Terminal states
// map to themselves.
func (s State) next() State {
	for i, state := range collectionOrder {
		if state == s && i+1 < len(collectionOrder) {
			return collectionOrder[i+1]
		}
	}
	return s
}

// Terminal reports whether no further input is processed in this state.
func (s State) Terminal() bool {
	return s == StateTerminated
}

// Field names used for retry accounting and skip tracking.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldExperience = "experience_years"
	FieldTechStack  = "tech_stack"
	FieldAnswer     = "answer"
)

// field returns the profile field collected in this state, or "".
func (s State) field() string {
	switch s {
	case StateCollectName:
		return FieldName
	case StateCollectEmail:
		return FieldEmail
	case StateCollectPhone:
		return FieldPhone
	case StateCollectExperience:
		return FieldExperience
	case StateCollectTechStack:
		return FieldTechStack
	case StateTechnicalQA:
		return FieldAnswer
	default:
		return ""
	}
}

// identityField reports whether the state collects a field the screening
// cannot proceed without. Exhausting retries on one of these terminates the
// session instead of skipping.
func (s State) identityField() bool {
	return s == StateCollectName || s == StateCollectEmail
}
