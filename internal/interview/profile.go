package interview

// experienceUnset marks ExperienceYears before a valid answer is collected.
const experienceUnset = -1

// Profile accumulates the candidate's personal and professional data
// field-by-field as the conversation advances. It is frozen and handed to
// the persistence gateway only once Complete reports true.
type Profile struct {
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	ExperienceYears int      `json:"experience_years"`
	TechStack       []string `json:"tech_stack"`
}

// NewProfile returns an empty profile with the experience marker unset.
func NewProfile() Profile {
	return Profile{ExperienceYears: experienceUnset}
}

// Complete reports whether every field has passed validation. Skipped fields
// keep the profile incomplete.
func (p Profile) Complete() bool {
	return p.FullName != "" &&
		p.Email != "" &&
		p.Phone != "" &&
		p.ExperienceYears >= 0 &&
		len(p.TechStack) > 0
}

// HasExperience reports whether the experience field was collected.
func (p Profile) HasExperience() bool {
	return p.ExperienceYears >= 0
}
