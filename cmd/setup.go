package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/logger"
	"github.com/mmbarrys/navigara/internal/provider"
	"github.com/mmbarrys/navigara/internal/scoring"
	"github.com/mmbarrys/navigara/internal/scoring/gemini"
	"github.com/mmbarrys/navigara/internal/secrets"
)

// bootstrap builds the logger and reads the configuration. Failures here
// are fatal since nothing can run without them.
func bootstrap(command string) (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the navigara", zap.String("command", command), zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

func newGraphProvider(cfg *ProviderConfig, log *zap.Logger) (provider.GraphProvider, error) {
	switch kind := strings.ToLower(strings.TrimSpace(cfg.Kind)); kind {
	case "", "file":
		if strings.TrimSpace(cfg.File) == "" {
			return nil, fmt.Errorf("provider.file is required for the file provider")
		}
		return provider.NewFileStore(cfg.File, log), nil
	case "http":
		token, err := secrets.Optional(secrets.Source{
			Name: "graph provider token",
			File: cfg.TokenFile,
			Env:  "NAVIGARA_PROVIDER_TOKEN_FILE",
		})
		if err != nil {
			return nil, err
		}
		return provider.NewClient(cfg.URL, token, cfg.Timeout, log), nil
	default:
		return nil, fmt.Errorf("unsupported graph provider: %s", cfg.Kind)
	}
}

func newScorer(ctx context.Context, cfg *ScoringConfig, log *zap.Logger) (scoring.Provider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch kind := strings.ToLower(strings.TrimSpace(cfg.Kind)); kind {
	case "", "http":
		token, err := secrets.Optional(secrets.Source{
			Name: "scoring token",
			File: cfg.TokenFile,
		})
		if err != nil {
			return nil, err
		}
		return scoring.NewClient(cfg.URL, token, cfg.Timeout, log), nil
	case "gemini":
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY_FILE",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set scoring.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}

		return gemini.NewScorer(generator, log, cfg.Gemini.MaxLogLength), nil
	default:
		return nil, fmt.Errorf("unsupported scoring provider: %s", cfg.Kind)
	}
}
