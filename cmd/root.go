package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "navigara"
)

type Config struct {
	Server    *ServerConfig    `mapstructure:"server"`
	Provider  *ProviderConfig  `mapstructure:"provider"`
	Scoring   *ScoringConfig   `mapstructure:"scoring"`
	Candidate *CandidateConfig `mapstructure:"candidate"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
	MaxBodyBytes   int64    `mapstructure:"max-body-bytes"`
	CacheSize      int      `mapstructure:"cache-size"`
}

type ProviderConfig struct {
	Kind      string        `mapstructure:"kind"`
	File      string        `mapstructure:"file"`
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	TokenFile string        `mapstructure:"token-file"`
}

type ScoringConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Kind      string        `mapstructure:"kind"`
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	TokenFile string        `mapstructure:"token-file"`
	Gemini    *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type CandidateConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "navigara analyzes collaboration graphs of an organization and simulates unit transfers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("provider.token-file", "NAVIGARA_PROVIDER_TOKEN_FILE"); err != nil {
		log.Fatalf("binding NAVIGARA_PROVIDER_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("scoring.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is navigara.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("server.addr", ":5001")
	viper.SetDefault("server.allowed-origins", []string{"http://localhost:5173"})
	viper.SetDefault("server.max-body-bytes", 1<<20)
	viper.SetDefault("server.cache-size", 128)

	viper.SetDefault("provider.kind", "file")
	viper.SetDefault("provider.file", "dummy_data_v2.json")
	viper.SetDefault("provider.url", "http://localhost:5001")
	viper.SetDefault("provider.timeout", 10*time.Second)

	viper.SetDefault("scoring.kind", "http")
	viper.SetDefault("scoring.url", "http://localhost:5001/api/score")
	viper.SetDefault("scoring.timeout", 60*time.Second)
	viper.SetDefault("scoring.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("scoring.gemini.max-log-length", 200)

	viper.SetDefault("candidate.name", "Candidate")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so only an explicitly given or broken file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Provider == nil {
		config.Provider = &ProviderConfig{}
	}
	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{}
	}
	if config.Scoring.Gemini == nil {
		config.Scoring.Gemini = &GeminiConfig{}
	}
	if config.Candidate == nil {
		config.Candidate = &CandidateConfig{}
	}

	return config, nil
}
