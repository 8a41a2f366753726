package ai

import (
	"strings"
	"time"
)

const (
	// MinQuestions and MaxQuestions bound every generated set.
	MinQuestions = 3
	MaxQuestions = 5
)

type category struct {
	name         string
	technologies []string
	questions    []string
}

// The bank mirrors the screening categories the recruiting team works with.
// Matching is a best-effort keyword scan over the candidate's stack tokens.
var questionBank = []category{
	{
		name:         "frontend",
		technologies: []string{"react", "vue", "angular", "javascript", "typescript", "html", "css", "sass", "bootstrap", "tailwind"},
		questions: []string{
			"What is the difference between React hooks and class components?",
			"How do you handle state management in a large frontend application?",
			"Explain the Virtual DOM and its benefits.",
			"What are TypeScript generics and when would you use them?",
			"How do you optimize CSS for better performance?",
		},
	},
	{
		name:         "backend",
		technologies: []string{"python", "java", "node", "node.js", "c#", "ruby", "go", "golang", "php", "scala", "kotlin", "django", "flask", "spring", "rails"},
		questions: []string{
			"Explain the difference between SQL and NoSQL databases.",
			"How do you handle authentication and authorization in web applications?",
			"What are design patterns, and can you explain a few commonly used ones?",
			"How do you optimize database queries for better performance?",
			"Explain microservices architecture and its advantages.",
		},
	},
	{
		name:         "database",
		technologies: []string{"mysql", "postgresql", "postgres", "mongodb", "redis", "elasticsearch", "sqlite", "oracle", "sql server", "sql"},
		questions: []string{
			"What is database normalization and why is it important?",
			"Explain ACID properties in databases.",
			"How do you handle database migrations in production?",
			"What are indexes and how do they improve query performance?",
			"Explain the CAP theorem in distributed databases.",
		},
	},
	{
		name:         "cloud",
		technologies: []string{"aws", "azure", "google cloud", "gcp", "docker", "kubernetes", "terraform", "jenkins"},
		questions: []string{
			"What are the benefits of containerization?",
			"How do you implement CI/CD pipelines?",
			"Explain Infrastructure as Code and its advantages.",
			"What are the key considerations for cloud security?",
			"How do you monitor and log applications in the cloud?",
		},
	},
	{
		name:         "mobile",
		technologies: []string{"react native", "flutter", "ios", "android", "swift", "xamarin"},
		questions: []string{
			"What are the differences between native and cross-platform development?",
			"How do you handle app state management on mobile?",
			"Explain mobile app security best practices.",
			"How do you optimize app performance for different devices?",
			"What are Progressive Web Apps and their advantages?",
		},
	},
	{
		name:         "data",
		technologies: []string{"pandas", "numpy", "tensorflow", "pytorch", "scikit-learn", "spark", "r"},
		questions: []string{
			"Explain the difference between supervised and unsupervised learning.",
			"How do you handle missing data in a dataset?",
			"What is overfitting and how do you prevent it?",
			"Explain the bias-variance tradeoff.",
			"How do you evaluate the performance of a machine learning model?",
		},
	},
}

// Generic questions asked when no category matches, bucketed by level.
var genericQuestions = map[Level][]string{
	LevelJunior: {
		"What motivated you to pursue a career in technology?",
		"How do you approach learning new technologies?",
		"Describe a challenging problem you solved recently.",
		"What development tools do you use daily?",
		"How do you debug your code?",
	},
	LevelMid: {
		"How do you ensure code quality in your projects?",
		"Describe your experience with version control systems.",
		"How do you handle technical debt?",
		"What testing strategies do you employ?",
		"How do you stay updated with industry trends?",
	},
	LevelSenior: {
		"How do you mentor junior developers?",
		"Describe your approach to system design.",
		"How do you handle technical decision-making?",
		"What strategies do you use for scaling applications?",
		"How do you contribute to technical architecture decisions?",
	},
}

// StaticQuestions builds a question set from the built-in bank by matching
// stack tokens against known technologies. It always returns a non-empty set:
// when nothing matches, level-appropriate generic questions are used.
func StaticQuestions(techStack []string, experienceYears int, limit int) *QuestionSet {
	if limit < MinQuestions {
		limit = MinQuestions
	}
	if limit > MaxQuestions {
		limit = MaxQuestions
	}

	level := LevelForYears(experienceYears)
	stack := NormalizeStack(techStack)

	questions := make([]Question, 0, limit)
	for _, cat := range matchCategories(stack) {
		for _, text := range cat.questions {
			if len(questions) == limit {
				break
			}
			questions = append(questions, Question{
				Text:       text,
				Category:   cat.name,
				Difficulty: string(level),
			})
		}
	}

	if len(questions) == 0 {
		for _, text := range genericQuestions[level] {
			if len(questions) == limit {
				break
			}
			questions = append(questions, Question{
				Text:       text,
				Category:   "general",
				Difficulty: string(level),
			})
		}
	}

	return &QuestionSet{
		TechStack:   stack,
		Level:       level,
		Questions:   questions,
		GeneratedAt: time.Now(),
		Provenance:  ProvenanceStatic,
	}
}

func matchCategories(stack []string) []category {
	matched := make([]category, 0, len(questionBank))
	for _, cat := range questionBank {
		if categoryMatches(cat, stack) {
			matched = append(matched, cat)
		}
	}
	return matched
}

func categoryMatches(cat category, stack []string) bool {
	for _, token := range stack {
		lower := strings.ToLower(token)
		for _, tech := range cat.technologies {
			// Substring matching only for longer names, so "r" or "go"
			// cannot match inside unrelated tokens.
			if lower == tech || (len(tech) >= 3 && strings.Contains(lower, tech)) {
				return true
			}
		}
	}
	return false
}
