// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     stt
// Description: Google Cloud Speech-to-Text recognizer
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"

	"github.com/msto63/intake/internal/intake/audio"
	"github.com/msto63/intake/pkg/core/logging"
)

const (
	// DefaultLanguageCode is the default recognition language
	DefaultLanguageCode = "en-US"

	// DefaultGoogleModel is the default recognition model
	DefaultGoogleModel = "default"

	googleEngine = "google"
)

// speechClient is the subset of the Speech client used here
type speechClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type cloudSpeechClient struct {
	client *speech.Client
}

func (c cloudSpeechClient) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

func (c cloudSpeechClient) Close() error {
	return c.client.Close()
}

// GoogleConfig holds Google Speech-to-Text configuration
type GoogleConfig struct {
	// APIKey authenticates with an API key
	APIKey string

	// CredentialsFile is a service account JSON file
	CredentialsFile string

	// Endpoint overrides the service endpoint (e.g. a regional one)
	Endpoint string

	// Language is the BCP-47 language code
	Language string

	// Model is the recognition model
	Model string

	// Timeout bounds one request
	Timeout time.Duration
}

// GoogleRecognizer implements Recognizer using Google Cloud Speech-to-Text
type GoogleRecognizer struct {
	client   speechClient
	language string
	model    string
	timeout  time.Duration
	logger   *logging.Logger
}

// NewGoogleRecognizer creates a recognizer backed by the Speech v1 API.
// Without an API key or credentials file, application default credentials
// are used.
func NewGoogleRecognizer(ctx context.Context, cfg GoogleConfig, logger *logging.Logger) (*GoogleRecognizer, error) {
	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return newGoogleRecognizer(cloudSpeechClient{client: client}, cfg, logger), nil
}

func newGoogleRecognizer(client speechClient, cfg GoogleConfig, logger *logging.Logger) *GoogleRecognizer {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguageCode
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGoogleModel
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GoogleRecognizer{
		client:   client,
		language: cfg.Language,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Recognize sends the phrase as LINEAR16 and returns the top alternative
func (g *GoogleRecognizer) Recognize(ctx context.Context, sample audio.Sample) (string, error) {
	if sample.Empty() {
		return "", unintelligible(googleEngine, ErrEmptySample)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(sample.SampleRate),
			AudioChannelCount:          1,
			LanguageCode:               g.language,
			Model:                      g.model,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: sample.PCM()},
		},
	}

	g.logger.Debug("Sending recognition request", "duration", sample.Duration(), "language", g.language)
	start := time.Now()

	resp, err := g.client.Recognize(ctx, req)
	if err != nil {
		st, _ := status.FromError(err)
		g.logger.Warn("Recognition request failed", "code", st.Code().String(), "error", err)
		return "", unavailable(googleEngine, err)
	}

	text := strings.TrimSpace(topTranscript(resp))
	g.logger.Debug("Recognition complete", "elapsed", time.Since(start), "text_length", len(text))
	if text == "" {
		return "", unintelligible(googleEngine, ErrEmptyTranscript)
	}
	return text, nil
}

// topTranscript joins the first alternative of every result
func topTranscript(resp *speechpb.RecognizeResponse) string {
	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Close releases the client connection
func (g *GoogleRecognizer) Close() error {
	return g.client.Close()
}
