package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/intake/internal/intake/audio"
	"github.com/msto63/intake/internal/intake/stt"
	"github.com/msto63/intake/pkg/core/health"
	"github.com/msto63/intake/pkg/core/version"
)

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check microphone, recognizer and stores",
	Long: `Checks everything the form depends on: an input device, the
configured speech recognizer and both record stores. Exits non-zero when a
check is unhealthy.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 10*time.Second, "Overall check timeout")
}

// availability is implemented by recognizers that can probe their backend
type availability interface {
	IsAvailable(ctx context.Context) bool
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}
	defer a.Close()

	flat, rel, err := a.stores()
	if err != nil {
		return err
	}

	reg := health.NewRegistry("intake", version.App)

	reg.RegisterFunc("microphone", func(ctx context.Context) health.CheckResult {
		devices, err := listMicrophones()
		if err != nil {
			return health.Unhealthy("%v", err)
		}
		if len(devices) == 0 {
			return health.Unhealthy("no input devices")
		}
		want := audio.DeviceConfig{DeviceName: a.cfg.Audio.Device}
		if want.WantsDefault() {
			return health.Healthy("%d input devices", len(devices))
		}
		names := make([]string, len(devices))
		for i, d := range devices {
			names[i] = d.Name
		}
		if i := audio.MatchDevice(names, want.DeviceName); i >= 0 {
			return health.Healthy("using %s", names[i])
		}
		return health.Degraded("device %q not found, default will be used", want.DeviceName)
	})

	reg.RegisterFunc("recognition", func(ctx context.Context) health.CheckResult {
		engine := a.cfg.Recognition.Engine
		r, err := stt.New(ctx, a.cfg.Recognition, a.logger.Named("stt"))
		if err != nil {
			return health.Unhealthy("%s: %v", engine, err)
		}
		defer r.Close()
		if p, ok := r.(availability); ok && !p.IsAvailable(ctx) {
			return health.Unhealthy("%s: server not reachable", engine)
		}
		return health.Healthy("%s ready", engine)
	})

	reg.RegisterFunc("csv", func(ctx context.Context) health.CheckResult {
		if _, err := os.Stat(flat.Path()); os.IsNotExist(err) {
			return health.Healthy("%s not created yet", flat.Path())
		}
		recs, err := flat.ReadAll()
		if err != nil {
			return health.Unhealthy("%v", err)
		}
		return health.Healthy("%s: %d records", flat.Path(), len(recs))
	})

	reg.RegisterFunc("database", func(ctx context.Context) health.CheckResult {
		rows, err := rel.ListAll(ctx)
		if err != nil {
			return health.Unhealthy("%v", err)
		}
		return health.Healthy("%s: %d records", a.cfg.DatabasePath(), len(rows))
	})

	report := reg.CheckWithTimeout(statusTimeout)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.String())
	for _, c := range report.Checks {
		fmt.Fprintf(out, "  %-12s %-10s %s (%s)\n", c.Name, c.Status, c.Message, c.Duration.Round(time.Millisecond))
	}
	if !report.OK() {
		return fmt.Errorf("status %s", report.Status)
	}
	return nil
}
