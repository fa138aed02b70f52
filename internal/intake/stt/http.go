// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     stt
// Description: Transcription client for OpenAI-compatible servers (vLLM, whisper)
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/msto63/intake/internal/intake/audio"
	"github.com/msto63/intake/pkg/core/logging"
)

const (
	// DefaultHTTPBaseURL is the default transcription server
	DefaultHTTPBaseURL = "http://localhost:8100"

	// DefaultHTTPModel is the default model name sent with each request
	DefaultHTTPModel = "whisper-1"

	transcriptionsPath = "/v1/audio/transcriptions"
	httpEngine         = "http"
)

// HTTPConfig holds transcription server configuration
type HTTPConfig struct {
	// BaseURL is the server URL (e.g., "http://localhost:8100")
	BaseURL string

	// Model is the model name
	Model string

	// APIKey is sent as a bearer token when set
	APIKey string

	// Language is the target language (e.g., "en", "de"); "auto" or empty lets the server detect
	Language string

	// Timeout is the request timeout
	Timeout time.Duration
}

// HTTPRecognizer implements Recognizer against /v1/audio/transcriptions
type HTTPRecognizer struct {
	client   *resty.Client
	model    string
	language string
	logger   *logging.Logger
}

// NewHTTPRecognizer creates a new transcription client
func NewHTTPRecognizer(cfg HTTPConfig, logger *logging.Logger) *HTTPRecognizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHTTPBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultHTTPModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &HTTPRecognizer{
		client:   client,
		model:    cfg.Model,
		language: toISO639(cfg.Language),
		logger:   logger,
	}
}

// Recognize uploads the phrase as WAV and returns the transcript
func (c *HTTPRecognizer) Recognize(ctx context.Context, sample audio.Sample) (string, error) {
	if sample.Empty() {
		return "", unintelligible(httpEngine, ErrEmptySample)
	}

	wavData, err := sample.WAV()
	if err != nil {
		return "", unintelligible(httpEngine, fmt.Errorf("failed to convert samples to WAV: %w", err))
	}

	form := map[string]string{
		"model":           c.model,
		"response_format": "json",
		"temperature":     "0",
	}
	if c.language != "" && c.language != "auto" {
		form["language"] = c.language
	}

	c.logger.Debug("Sending transcription request", "size", len(wavData))
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetFileReader("file", "audio.wav", bytes.NewReader(wavData)).
		SetFormData(form).
		Post(transcriptionsPath)
	if err != nil {
		c.logger.Warn("Transcription request failed", "error", err)
		return "", unavailable(httpEngine, fmt.Errorf("request failed: %w", err))
	}

	switch {
	case resp.StatusCode() == http.StatusUnprocessableEntity:
		return "", unintelligible(httpEngine, fmt.Errorf("API error (status %d): %s", resp.StatusCode(), resp.String()))
	case !resp.IsSuccess():
		c.logger.Warn("Transcription server error", "status", resp.StatusCode())
		return "", unavailable(httpEngine, fmt.Errorf("API error (status %d): %s", resp.StatusCode(), resp.String()))
	}

	var apiResp transcriptionResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return "", unavailable(httpEngine, fmt.Errorf("failed to parse response: %w", err))
	}

	text := strings.TrimSpace(apiResp.Text)
	c.logger.Debug("Transcription complete",
		"duration", time.Since(start),
		"text_length", len(text),
	)
	if text == "" {
		return "", unintelligible(httpEngine, ErrEmptyTranscript)
	}
	return text, nil
}

// IsAvailable checks if the transcription server answers its health endpoint
func (c *HTTPRecognizer) IsAvailable(ctx context.Context) bool {
	resp, err := c.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return false
	}
	return resp.StatusCode() == http.StatusOK
}

// Close releases idle connections
func (c *HTTPRecognizer) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// toISO639 reduces a BCP-47 tag like "en-US" to "en"
func toISO639(lang string) string {
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		return strings.ToLower(lang[:i])
	}
	return strings.ToLower(lang)
}

type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float32 `json:"duration,omitempty"`
}
