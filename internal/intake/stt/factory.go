package stt

import (
	"context"
	"fmt"

	"github.com/msto63/intake/pkg/core/config"
	"github.com/msto63/intake/pkg/core/logging"
)

// New creates the recognizer selected by cfg.Engine
func New(ctx context.Context, cfg config.RecognitionConfig, logger *logging.Logger) (Recognizer, error) {
	switch cfg.Engine {
	case "", "google":
		return NewGoogleRecognizer(ctx, GoogleConfig{
			APIKey:          cfg.Google.APIKey,
			CredentialsFile: cfg.Google.CredentialsFile,
			Endpoint:        cfg.Google.Endpoint,
			Language:        cfg.Language,
			Model:           cfg.Google.Model,
			Timeout:         cfg.Timeout.Duration,
		}, logger)
	case "http":
		return NewHTTPRecognizer(HTTPConfig{
			BaseURL:  cfg.HTTP.BaseURL,
			Model:    cfg.HTTP.Model,
			APIKey:   cfg.HTTP.APIKey,
			Language: cfg.Language,
			Timeout:  cfg.Timeout.Duration,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown recognition engine %q", cfg.Engine)
	}
}
