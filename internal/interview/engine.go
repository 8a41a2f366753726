package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/talentscout/screener/internal/ai"
	"github.com/talentscout/screener/internal/logger"
	"github.com/talentscout/screener/internal/utils"
	"go.uber.org/zap"
)

// SessionStore holds sessions between turns. Load returns (nil, nil) for
// identifiers that are unknown or already expired.
type SessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
}

// Config tunes the engine. Zero values fall back to the defaults below.
type Config struct {
	MaxFieldRetries int
	QuestionCount   int
	MaxTurns        int
	SessionTimeout  time.Duration
	Limits          Limits
}

// WithDefaults returns the config with zero values resolved. Callers that
// need a resolved value before constructing the engine, such as the question
// count handed to the generator or the session timeout used for the expiry
// sweep, apply it themselves.
func (c Config) WithDefaults() Config {
	if c.MaxFieldRetries <= 0 {
		c.MaxFieldRetries = 3
	}
	if c.QuestionCount <= 0 {
		c.QuestionCount = ai.MaxQuestions
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = 50
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 30 * time.Minute
	}
	c.Limits = c.Limits.withDefaults()
	return c
}

// Result is one engine reply.
type Result struct {
	Reply string
	State State
	Done  bool
}

// Engine drives the screening conversation: it validates raw input,
// advances the state machine, triggers question generation at the right
// transition and hands the finalized record to the persistence gateway.
type Engine struct {
	store     SessionStore
	recorder  Recorder
	generator ai.QuestionGenerator
	cfg       Config
	log       *zap.Logger

	// one mutex per live session id; turns for the same session are
	// serialized, distinct sessions run in parallel.
	locks sync.Map
}

// New creates an engine. recorder may be nil when persistence is disabled.
func New(store SessionStore, recorder Recorder, generator ai.QuestionGenerator, cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:     store,
		recorder:  recorder,
		generator: generator,
		cfg:       cfg.WithDefaults(),
		log:       log,
	}
}

// Start creates a new session and returns it together with the greeting.
func (e *Engine) Start(ctx context.Context) (*Session, string, error) {
	sess := NewSession()

	greeting := greetingMessage()
	sess.AddTurn(SpeakerAssistant, greeting)
	sess.transition(StateCollectName)

	if err := e.store.Save(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("save new session: %w", err)
	}

	e.log.Info("session started", zap.String(logger.FieldSession, sess.ID))
	return sess, greeting, nil
}

// ProcessInput applies one turn of candidate input to the identified session
// and returns the next prompt. The session is saved after every turn, so a
// crash mid-conversation loses at most one turn. Input for an expired or
// unknown session fails with ErrSessionExpired.
func (e *Engine) ProcessInput(ctx context.Context, sessionID, rawInput string) (*Result, error) {
	mu := e.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionExpired
	}
	if sess.Expired(e.cfg.SessionTimeout) {
		e.log.Info("rejecting input for idle session", zap.String(logger.FieldSession, sessionID))
		return nil, ErrSessionExpired
	}

	log := logger.WithSession(e.log, sess.ID, string(sess.State))

	if sess.State.Terminal() {
		return &Result{Reply: terminatedMessage(), State: sess.State, Done: true}, nil
	}

	input := strings.TrimSpace(rawInput)

	var reply string
	if IsExitKeyword(input) {
		log.Info("candidate requested exit")
		sess.AddTurn(SpeakerCandidate, input)
		sess.transition(StateTerminated)
		reply = exitMessage()
	} else {
		sess.AddTurn(SpeakerCandidate, input)
		reply, err = e.handle(ctx, sess, input, log)
		if err != nil {
			// Cancelled mid-turn: leave the stored session untouched.
			return nil, err
		}
	}

	sess.AddTurn(SpeakerAssistant, reply)
	sess.Touch()

	if err := e.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &Result{Reply: reply, State: sess.State, Done: sess.State.Terminal()}, nil
}

func (e *Engine) sessionLock(id string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// handle dispatches on the current state. It only returns an error when the
// context was cancelled; every other failure is absorbed into a reply.
func (e *Engine) handle(ctx context.Context, sess *Session, input string, log *zap.Logger) (string, error) {
	switch sess.State {
	case StateGreeting:
		// Nothing is collected here; move straight to name collection.
		sess.transition(StateCollectName)
		return promptFor(StateCollectName), nil

	case StateCollectName:
		name, verr := ValidateName(input, e.cfg.Limits)
		if verr != nil {
			return e.reject(ctx, sess, verr, log)
		}
		sess.Profile.FullName = name
		sess.transition(StateCollectEmail)
		return emailPrompt(name), nil

	case StateCollectEmail:
		email, verr := ValidateEmail(input)
		if verr != nil {
			return e.reject(ctx, sess, verr, log)
		}
		sess.Profile.Email = email
		sess.transition(StateCollectPhone)
		return promptFor(StateCollectPhone), nil

	case StateCollectPhone:
		phone, verr := ValidatePhone(input, e.cfg.Limits)
		if verr != nil {
			return e.reject(ctx, sess, verr, log)
		}
		sess.Profile.Phone = phone
		sess.transition(StateCollectExperience)
		return promptFor(StateCollectExperience), nil

	case StateCollectExperience:
		years, verr := ValidateExperience(input, e.cfg.Limits)
		if verr != nil {
			return e.reject(ctx, sess, verr, log)
		}
		sess.Profile.ExperienceYears = years
		sess.transition(StateCollectTechStack)
		return techStackPrompt(years), nil

	case StateCollectTechStack:
		stack, verr := ValidateTechStack(input)
		if verr != nil {
			return e.reject(ctx, sess, verr, log)
		}
		sess.Profile.TechStack = stack
		return e.enterTechnicalQA(ctx, sess, log)

	case StateTechnicalQA:
		return e.collectAnswer(ctx, sess, input, log)

	default:
		// Closing is transient and Terminated is handled by the caller;
		// reaching here means the stored state is corrupt.
		return "", fmt.Errorf("invalid session state %q", sess.State)
	}
}

// reject handles a failed validation: re-prompt with the specific reason
// until the retry budget is exhausted, then take the escape path: skip the
// field when the screening can proceed without it, terminate otherwise.
func (e *Engine) reject(ctx context.Context, sess *Session, verr *ValidationError, log *zap.Logger) (string, error) {
	retries := sess.incrementRetry(verr.Field)

	log.Debug("input rejected",
		zap.String("field", verr.Field),
		zap.String("reason", verr.Reason),
		zap.Int("retries", retries),
	)

	if retries < e.cfg.MaxFieldRetries {
		return retryMessage(verr.Reason, promptFor(sess.State)), nil
	}

	if sess.State.identityField() {
		log.Warn("retries exhausted on identity field, terminating session",
			zap.String("field", verr.Field))
		sess.transition(StateTerminated)
		return identityGiveUpMessage(verr.Field), nil
	}

	log.Info("retries exhausted, skipping field", zap.String("field", verr.Field))
	sess.skip(verr.Field)

	if sess.State == StateCollectTechStack {
		// Without a stack the generator degrades to generic questions.
		reply, err := e.enterTechnicalQA(ctx, sess, log)
		if err != nil {
			return "", err
		}
		return skipMessage(verr.Field, reply), nil
	}

	next := sess.State.next()
	sess.transition(next)
	return skipMessage(verr.Field, promptFor(next)), nil
}

// enterTechnicalQA generates the question set exactly once per session and
// opens the question sub-loop. Generation failures degrade to the static
// bank; this transition never fails except on cancellation.
func (e *Engine) enterTechnicalQA(ctx context.Context, sess *Session, log *zap.Logger) (string, error) {
	years := sess.Profile.ExperienceYears
	if !sess.Profile.HasExperience() {
		years = 1
	}

	questions, err := e.generator.Generate(ctx, sess.Profile.TechStack, years)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn("question generator failed, using static bank", zap.Error(err))
		questions = nil
	}
	if questions.Len() == 0 {
		questions = ai.StaticQuestions(sess.Profile.TechStack, years, e.cfg.QuestionCount)
	}

	sess.Questions = questions
	sess.QuestionIndex = 0
	sess.transition(StateTechnicalQA)

	log.Info("technical questions ready",
		zap.Int("question_count", questions.Len()),
		zap.String("provenance", string(questions.Provenance)),
	)

	intro := questionIntro(sess.Profile.FullName, questions.Len())
	first := questionMessage(sess.CurrentQuestion(), 1, questions.Len())
	return intro + "\n\n" + first, nil
}

// collectAnswer advances the question sub-loop by one valid answer.
func (e *Engine) collectAnswer(ctx context.Context, sess *Session, input string, log *zap.Logger) (string, error) {
	question := sess.CurrentQuestion()
	if question == nil {
		return e.finalize(ctx, sess, log)
	}

	answer, verr := ValidateAnswer(input)
	if verr != nil {
		retries := sess.incrementRetry(verr.Field)
		if retries < e.cfg.MaxFieldRetries {
			total := sess.Questions.Len()
			return retryMessage(verr.Reason, questionMessage(question, sess.QuestionIndex+1, total)), nil
		}
		// Skip the unanswered question rather than looping forever.
		log.Info("skipping unanswered technical question", zap.Int("question_index", sess.QuestionIndex))
		sess.QuestionIndex++
		delete(sess.Retries, verr.Field)
	} else {
		sess.Answers = append(sess.Answers, Answer{
			Question: question.Text,
			Text:     answer,
			At:       time.Now(),
		})
		sess.QuestionIndex++
		delete(sess.Retries, FieldAnswer)
	}

	if len(sess.Transcript) >= e.cfg.MaxTurns {
		log.Info("maximum conversation length reached", zap.Int("turns", len(sess.Transcript)))
		return e.finalize(ctx, sess, log)
	}

	next := sess.CurrentQuestion()
	if next == nil {
		return e.finalize(ctx, sess, log)
	}

	total := sess.Questions.Len()
	return encouragement(sess.QuestionIndex) + "\n\n" + questionMessage(next, sess.QuestionIndex+1, total), nil
}

// finalize hands the frozen profile and transcript to the persistence
// gateway and terminates the conversation. Persistence failures surface as
// a non-fatal notice; the session still terminates.
func (e *Engine) finalize(ctx context.Context, sess *Session, log *zap.Logger) (string, error) {
	sess.transition(StateClosing)

	reply := closingMessage(sess.Profile.FullName)

	switch {
	case !sess.Profile.Complete():
		log.Info("profile incomplete, skipping persistence",
			zap.Strings("skipped_fields", sess.Skipped))
		reply += "\n\n" + incompleteNotice()

	case e.recorder == nil:
		log.Warn("no persistence gateway configured, record discarded")

	default:
		record := buildRecord(sess)
		if err := e.recorder.Upsert(ctx, record); err != nil {
			log.Warn("persisting candidate record failed",
				zap.String("email", utils.Mask(record.Profile.Email, 3)),
				zap.Error(err),
			)
			reply += "\n\n" + unsavedNotice()
		} else {
			log.Info("candidate record persisted",
				zap.String("email", utils.Mask(record.Profile.Email, 3)),
				zap.Float64("completion", record.Completion),
			)
		}
	}

	sess.transition(StateTerminated)
	return reply, nil
}
