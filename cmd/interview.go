package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentscout/screener/internal/ai"
	"github.com/talentscout/screener/internal/ai/gemini"
	"github.com/talentscout/screener/internal/candidates"
	"github.com/talentscout/screener/internal/interview"
	"github.com/talentscout/screener/internal/logger"
	"github.com/talentscout/screener/internal/secrets"
	"github.com/talentscout/screener/internal/session"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a screening interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().Bool("no-persist", false, "do not store the candidate record when the interview completes")
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talentscout screening", zap.String("version", version))

	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	dbPath, err := storagePath(config)
	if err != nil {
		logger.Fatal("resolving storage path", zap.Error(err))
	}

	engineCfg := engineConfig(config).WithDefaults()

	sessions, err := session.NewStore(dbPath)
	if err != nil {
		logger.Fatal("opening session store", zap.Error(err))
	}
	defer sessions.Close()

	purgeExpiredSessions(ctx, sessions, engineCfg.SessionTimeout, logger)

	var recorder interview.Recorder
	if cmd.Flag("no-persist").Value.String() != "true" {
		store, err := candidates.NewStore(dbPath)
		if err != nil {
			logger.Fatal("opening candidate store", zap.Error(err))
		}
		defer store.Close()
		recorder = store
	}

	generator := newGenerator(ctx, config, engineCfg.QuestionCount, logger)

	engine := interview.New(sessions, recorder, generator, engineCfg, logger)

	sess, greeting, err := engine.Start(ctx)
	if err != nil {
		logger.Fatal("starting session", zap.Error(err))
	}

	fmt.Println(greeting)

	input := promptui.Prompt{Label: "You"}

	for {
		raw, err := input.Run()
		if err != nil {
			// Ctrl-C or closed stdin ends the conversation.
			logger.Info("exiting", zap.Error(err))
			return
		}

		result, err := engine.ProcessInput(ctx, sess.ID, raw)
		if err != nil {
			if errors.Is(err, interview.ErrSessionExpired) {
				fmt.Println("This session has expired. Please start a new interview.")
				return
			}
			logger.Fatal("processing input", zap.Error(err))
		}

		fmt.Println(result.Reply)

		if result.Done {
			discardSession(ctx, sessions, sess.ID, logger)
			return
		}
	}
}

// purgeExpiredSessions sweeps sessions idle past the timeout before a new
// conversation starts. Abandoned conversations would otherwise accumulate
// in the store.
func purgeExpiredSessions(ctx context.Context, sessions *session.Store, timeout time.Duration, log *zap.Logger) {
	purged, err := sessions.Expire(ctx, timeout)
	if err != nil {
		log.Warn("purging expired sessions failed", zap.Error(err))
		return
	}
	if purged > 0 {
		log.Debug("purged expired sessions", zap.Int64("count", purged))
	}
}

// discardSession drops a finished session row. The candidate record is the
// durable artifact; conversation state is not kept once it is terminal.
func discardSession(ctx context.Context, sessions *session.Store, id string, log *zap.Logger) {
	if err := sessions.Delete(ctx, id); err != nil {
		log.Warn("removing finished session failed",
			zap.Error(err), zap.String(logger.FieldSession, id))
	}
}

// engineConfig maps the interview section of the config onto the engine.
// Unset keys stay zero and are resolved by Config.WithDefaults.
func engineConfig(config *Config) interview.Config {
	cfg := interview.Config{}
	if config == nil || config.Interview == nil {
		return cfg
	}

	ic := config.Interview
	cfg.MaxFieldRetries = ic.MaxFieldRetries
	cfg.QuestionCount = ic.QuestionCount
	cfg.SessionTimeout = ic.SessionTimeout
	cfg.Limits = interview.Limits{
		MaxNameLength:      ic.MaxNameLength,
		PhoneMinDigits:     ic.PhoneMinDigits,
		PhoneMaxDigits:     ic.PhoneMaxDigits,
		MaxExperienceYears: ic.MaxExperienceYears,
	}
	return cfg
}

// newGenerator builds the Gemini-backed question generator, or falls back
// to the built-in question bank when no API key is configured.
func newGenerator(ctx context.Context, config *Config, count int, log *zap.Logger) ai.QuestionGenerator {
	var gcfg *GeminiConfig
	if config != nil && config.AI != nil {
		gcfg = config.AI.Gemini
	}
	if gcfg == nil {
		gcfg = &GeminiConfig{APIKeyFile: viper.GetString("ai.gemini.api-key-file")}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gcfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		log.Warn("no gemini api key, questions come from the built-in bank",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY"))
		return &ai.StaticGenerator{Count: count}
	}

	policy := gemini.RetryPolicy{
		MaxAttempts:    gcfg.MaxRetries,
		RequestTimeout: gcfg.RequestTimeout,
		TotalTimeout:   gcfg.TotalTimeout,
	}

	gateway, err := gemini.NewGateway(ctx, apiKey, gcfg.Model, gcfg.FallbackModel, policy, logger.WithProvider(log, gemini.Provider, gcfg.Model))
	if err != nil {
		log.Warn("creating gemini client failed, questions come from the built-in bank", zap.Error(err))
		return &ai.StaticGenerator{Count: count}
	}
	gateway.SetMaxLogLength(gcfg.MaxLogLength)

	return gemini.NewQuestionGenerator(gateway, count, log)
}
