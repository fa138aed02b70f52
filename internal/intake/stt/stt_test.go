package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/msto63/intake/internal/intake/audio"
	"github.com/msto63/intake/pkg/core/config"
)

func testSample() audio.Sample {
	data := make([]int16, 1600)
	for i := range data {
		data[i] = int16(i % 200)
	}
	return audio.Sample{Data: data, SampleRate: 16000}
}

type fakeSpeechClient struct {
	resp   *speechpb.RecognizeResponse
	err    error
	req    *speechpb.RecognizeRequest
	calls  int
	closed bool
}

func (f *fakeSpeechClient) Recognize(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	f.calls++
	f.req = req
	return f.resp, f.err
}

func (f *fakeSpeechClient) Close() error {
	f.closed = true
	return nil
}

func response(transcripts ...string) *speechpb.RecognizeResponse {
	resp := &speechpb.RecognizeResponse{}
	for _, t := range transcripts {
		resp.Results = append(resp.Results, &speechpb.SpeechRecognitionResult{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: t, Confidence: 0.9}},
		})
	}
	return resp
}

func TestGoogleRecognizer(t *testing.T) {
	tests := []struct {
		name     string
		resp     *speechpb.RecognizeResponse
		err      error
		wantText string
		wantKind FailureKind
	}{
		{"transcript", response("Jane Doe"), nil, "Jane Doe", Unknown},
		{"multiple results joined", response("headache", "and fever"), nil, "headache and fever", Unknown},
		{"no results", response(), nil, "", Unintelligible},
		{"blank transcript", response("   "), nil, "", Unintelligible},
		{"rpc unavailable", nil, status.Error(codes.Unavailable, "connection refused"), "", ServiceUnavailable},
		{"rpc deadline", nil, status.Error(codes.DeadlineExceeded, "timeout"), "", ServiceUnavailable},
		{"plain error", nil, errors.New("dial tcp: no route"), "", ServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeSpeechClient{resp: tt.resp, err: tt.err}
			r := newGoogleRecognizer(client, GoogleConfig{}, nil)

			text, err := r.Recognize(context.Background(), testSample())
			if text != tt.wantText {
				t.Errorf("Recognize() text = %q, want %q", text, tt.wantText)
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf(err) = %v, want %v (err = %v)", got, tt.wantKind, err)
			}
			if client.calls != 1 {
				t.Errorf("client called %d times, want exactly 1", client.calls)
			}
		})
	}
}

func TestGoogleRecognizer_Request(t *testing.T) {
	client := &fakeSpeechClient{resp: response("ok")}
	r := newGoogleRecognizer(client, GoogleConfig{Language: "de-DE", Model: "latest_short"}, nil)

	sample := testSample()
	if _, err := r.Recognize(context.Background(), sample); err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	cfg := client.req.GetConfig()
	if cfg.GetEncoding() != speechpb.RecognitionConfig_LINEAR16 {
		t.Errorf("Encoding = %v, want LINEAR16", cfg.GetEncoding())
	}
	if cfg.GetSampleRateHertz() != 16000 {
		t.Errorf("SampleRateHertz = %d, want 16000", cfg.GetSampleRateHertz())
	}
	if cfg.GetLanguageCode() != "de-DE" || cfg.GetModel() != "latest_short" {
		t.Errorf("LanguageCode/Model = %s/%s", cfg.GetLanguageCode(), cfg.GetModel())
	}
	if got := len(client.req.GetAudio().GetContent()); got != len(sample.Data)*2 {
		t.Errorf("audio content = %d bytes, want %d", got, len(sample.Data)*2)
	}

	r.Close()
	if !client.closed {
		t.Error("Close() should close the client")
	}
}

func TestGoogleRecognizer_EmptySample(t *testing.T) {
	client := &fakeSpeechClient{resp: response("never")}
	r := newGoogleRecognizer(client, GoogleConfig{}, nil)

	_, err := r.Recognize(context.Background(), audio.Sample{SampleRate: 16000})
	if KindOf(err) != Unintelligible || !errors.Is(err, ErrEmptySample) {
		t.Errorf("Recognize(empty) error = %v, want unintelligible ErrEmptySample", err)
	}
	if client.calls != 0 {
		t.Error("empty sample should not reach the service")
	}
}

func TestHTTPRecognizer(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
		wantKind FailureKind
	}{
		{"transcript", http.StatusOK, `{"text":" 42 years "}`, "42 years", Unknown},
		{"empty text", http.StatusOK, `{"text":""}`, "", Unintelligible},
		{"unprocessable", http.StatusUnprocessableEntity, `{"error":"no speech"}`, "", Unintelligible},
		{"server error", http.StatusInternalServerError, `boom`, "", ServiceUnavailable},
		{"bad gateway", http.StatusBadGateway, ``, "", ServiceUnavailable},
		{"malformed json", http.StatusOK, `not json`, "", ServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			r := NewHTTPRecognizer(HTTPConfig{BaseURL: srv.URL}, nil)
			defer r.Close()

			text, err := r.Recognize(context.Background(), testSample())
			if text != tt.wantText {
				t.Errorf("Recognize() text = %q, want %q", text, tt.wantText)
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf(err) = %v, want %v (err = %v)", got, tt.wantKind, err)
			}
			if calls != 1 {
				t.Errorf("server called %d times, want exactly 1", calls)
			}
		})
	}
}

func TestHTTPRecognizer_Request(t *testing.T) {
	var (
		path, model, language, format, auth string
		wavHeader                           []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			return
		}
		model = r.FormValue("model")
		language = r.FormValue("language")
		format = r.FormValue("response_format")
		f, _, err := r.FormFile("file")
		if err == nil {
			wavHeader = make([]byte, 4)
			io.ReadFull(f, wavHeader)
			f.Close()
		}
		io.WriteString(w, `{"text":"ok"}`)
	}))
	defer srv.Close()

	r := NewHTTPRecognizer(HTTPConfig{BaseURL: srv.URL + "/", Model: "voxtral", APIKey: "secret", Language: "en-US"}, nil)
	if _, err := r.Recognize(context.Background(), testSample()); err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	if path != "/v1/audio/transcriptions" {
		t.Errorf("path = %q", path)
	}
	if model != "voxtral" || language != "en" || format != "json" {
		t.Errorf("form model/language/format = %q/%q/%q", model, language, format)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
	if string(wavHeader) != "RIFF" {
		t.Errorf("file header = %q, want RIFF", wavHeader)
	}
}

func TestHTTPRecognizer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewHTTPRecognizer(HTTPConfig{BaseURL: url}, nil)
	_, err := r.Recognize(context.Background(), testSample())
	if KindOf(err) != ServiceUnavailable {
		t.Errorf("KindOf(err) = %v, want ServiceUnavailable (err = %v)", KindOf(err), err)
	}
	if r.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = true for a closed server")
	}
}

func TestRecognitionError(t *testing.T) {
	cause := errors.New("socket closed")
	err := unavailable("google", cause)

	if !errors.Is(err, cause) {
		t.Error("RecognitionError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "service_unavailable") {
		t.Errorf("Error() = %q", err.Error())
	}
	if KindOf(errors.New("other")) != Unknown {
		t.Error("KindOf(plain error) should be Unknown")
	}
}

func TestNew(t *testing.T) {
	cfg := config.Default().Recognition
	cfg.Engine = "http"

	r, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New(http) error = %v", err)
	}
	if _, ok := r.(*HTTPRecognizer); !ok {
		t.Errorf("New(http) = %T, want *HTTPRecognizer", r)
	}

	cfg.Engine = "carrier-pigeon"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Error("New(unknown engine) expected error")
	}
}

func TestToISO639(t *testing.T) {
	for in, want := range map[string]string{"en-US": "en", "de_DE": "de", "auto": "auto", "": ""} {
		if got := toISO639(in); got != want {
			t.Errorf("toISO639(%q) = %q, want %q", in, got, want)
		}
	}
}
