package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/msto63/intake/internal/intake"
	"github.com/msto63/intake/internal/intake/audio"
	"github.com/msto63/intake/internal/intake/binder"
	"github.com/msto63/intake/internal/intake/notify"
	"github.com/msto63/intake/internal/intake/store"
	"github.com/msto63/intake/internal/intake/stt"
	"github.com/msto63/intake/internal/intake/vad"
	"github.com/msto63/intake/pkg/core/config"
	"github.com/msto63/intake/pkg/core/logging"
)

// app holds the configuration and resources shared by the commands
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	closers []func() error
}

// newApp loads the configuration and sets up logging. With quiet set, log
// output only goes to the configured log file so a full-screen UI stays intact.
func newApp(quiet bool) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	level := logging.ParseLevel(cfg.General.LogLevel)
	if verbose {
		level = logging.LevelDebug
	}

	var output io.Writer = os.Stderr
	if path := cfg.LogPath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = f
		a.closers = append(a.closers, f.Close)
	} else if quiet {
		output = io.Discard
	}

	a.logger = logging.NewLogger(logging.LoggerConfig{
		ServiceName: "intake",
		Level:       level.String(),
		Format:      cfg.General.LogFormat,
		Output:      output,
	})
	return a, nil
}

// Close releases everything the app opened, newest first
func (a *app) Close() {
	a.logger.Sync()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to release resource", "error", err)
		}
	}
}

// stores creates the flat and relational stores
func (a *app) stores() (*store.FlatStore, *store.RelationalStore, error) {
	flat := store.NewFlatStore(a.cfg.FlatPath(), a.logger.Named("flat"))
	rel, err := store.NewRelationalStore(store.RelationalConfig{
		Path:  a.cfg.DatabasePath(),
		Table: a.cfg.Storage.Table,
	}, a.logger.Named("sqlite"))
	if err != nil {
		return nil, nil, err
	}
	return flat, rel, nil
}

// notifier builds the operator notification chain
func (a *app) notifier(extra ...notify.Notifier) notify.Notifier {
	chain := notify.Multi{notify.NewLogNotifier(a.logger.Named("notify"))}
	if a.cfg.Notify.Desktop {
		chain = append(chain, notify.NewDesktopNotifier(a.cfg.General.Name, a.logger))
	}
	return append(chain, extra...)
}

// capture wires the input device and the speech detector
func (a *app) capture() (*audio.Capture, error) {
	ac := a.cfg.Audio

	device, err := openMicrophone(audio.DeviceConfig{
		SampleRate:      ac.SampleRate,
		FramesPerBuffer: ac.FramesPerBuffer,
		DeviceName:      ac.Device,
	})
	if err != nil {
		return nil, err
	}

	vadCfg := vad.Config{
		SampleRate:  ac.SampleRate,
		Mode:        ac.VADMode,
		EnergyRatio: ac.EnergyRatio,
		MinEnergy:   ac.MinEnergy,
	}
	var secondary vad.Detector
	if !ac.VADDisabled {
		w, err := vad.NewWebRTCVAD(vadCfg)
		if err != nil {
			a.logger.Warn("WebRTC VAD unavailable, using energy detection only", "error", err)
		} else {
			secondary = w
		}
	}
	detector := vad.NewGate(vad.NewEnergyDetector(vadCfg), secondary)

	cfg := audio.DefaultCaptureConfig()
	cfg.Calibration = ac.Calibration.Duration
	cfg.PauseThreshold = ac.PauseThreshold.Duration

	return audio.NewCapture(device, detector, cfg, a.logger.Named("audio")), nil
}

// binder wires capture and recognition into a voice binder
func (a *app) binder(ctx context.Context, notifier notify.Notifier) (*binder.Binder, error) {
	capture, err := a.capture()
	if err != nil {
		return nil, err
	}

	recognizer, err := stt.New(ctx, a.cfg.Recognition, a.logger.Named("stt"))
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}
	a.closers = append(a.closers, recognizer.Close)

	return binder.New(capture, recognizer, notifier, binder.Config{
		WaitTimeout: a.cfg.Audio.WaitTimeout.Duration,
		PhraseLimit: a.cfg.Audio.PhraseLimit.Duration,
	}, a.logger.Named("binder")), nil
}

// form builds the form controller. Without voice, or when the recognizer
// cannot be created, the form works for typed input only.
func (a *app) form(ctx context.Context, notifier notify.Notifier, withVoice bool) (*intake.Form, error) {
	flat, rel, err := a.stores()
	if err != nil {
		return nil, err
	}

	deps := intake.Deps{
		Persister: store.NewPersister(flat, rel, a.logger.Named("persist")),
		Viewer:    rel,
		Notifier:  notifier,
		Logger:    a.logger.Named("form"),
	}
	if withVoice {
		b, err := a.binder(ctx, notifier)
		if err != nil {
			a.logger.Warn("Voice input disabled", "error", err)
		} else {
			deps.Listener = b
		}
	}
	return intake.NewForm(deps), nil
}
