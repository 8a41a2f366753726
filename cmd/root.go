package cmd

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "talentscout"
)

type Config struct {
	AI        *AIConfig        `mapstructure:"ai"`
	Interview *InterviewConfig `mapstructure:"interview"`
	Storage   *StorageConfig   `mapstructure:"storage"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile     string        `mapstructure:"api-key-file"`
	Model          string        `mapstructure:"model"`
	FallbackModel  string        `mapstructure:"fallback-model"`
	MaxRetries     int           `mapstructure:"max-retries"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	TotalTimeout   time.Duration `mapstructure:"total-timeout"`
	MaxLogLength   int           `mapstructure:"max-log-length"`
}

type InterviewConfig struct {
	MaxFieldRetries    int           `mapstructure:"max-field-retries"`
	QuestionCount      int           `mapstructure:"question-count"`
	MaxNameLength      int           `mapstructure:"max-name-length"`
	PhoneMinDigits     int           `mapstructure:"phone-min-digits"`
	PhoneMaxDigits     int           `mapstructure:"phone-max-digits"`
	MaxExperienceYears int           `mapstructure:"max-experience-years"`
	SessionTimeout     time.Duration `mapstructure:"session-timeout"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentscout is a cli for running automated candidate screening interviews",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// .env is optional; viper picks up anything it exported.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// The cli runs with built-in defaults when no config file exists.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// storagePath resolves the database path, defaulting to a dotfile directory
// in the user's home.
func storagePath(config *Config) (string, error) {
	if config != nil && config.Storage != nil && config.Storage.Path != "" {
		return config.Storage.Path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, "."+app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return filepath.Join(dir, app+".db"), nil
}
