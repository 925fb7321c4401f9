package commands

import (
	"context"
	"log/slog"
	"os"

	"emporium/lib/configutil"
	"emporium/lib/serviceutil"
	"emporium/lib/telemetry"
	"emporium/services/emporium"

	"github.com/spf13/cobra"
)

var (
	runConfig *string
	runState  *string
	runOutput *string
)

func init() {
	runConfig = runCmd.Flags().String("config", "config.json5", "The configuration file to read.")
	runState = runCmd.Flags().String("state", "latest.txt", "The file holding the last-seen store hash.")
	runOutput = runCmd.Flags().String("out", "store.png", "The file to write the store image to.")
	rootCmd.AddCommand(runCmd)
}

// loads config and telemetry shared by the run and render commands.
// missing telemetry.json5 is fine, spans just go nowhere.
func setup(ctx context.Context, configPath string) (emporium.Config, func()) {
	cfg, err := configutil.ReadConfig[emporium.Config](configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	tel, err := telemetry.SetupFromEnv(ctx, "emporium")
	if os.IsNotExist(err) {
		return cfg, func() {}
	}
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	return cfg, func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			slog.Error("failed to shutdown telemetry", "err", err)
		}
	}
}

var runCmd = &cobra.Command{
	Use:   "run [--config <path/to/config.json5>] [--state <path/to/latest.txt>] [--out <path/to/store.png>]",
	Short: "Performs a single store check, posting to social media on an update.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, cleanup := setup(ctx, *runConfig)
		defer cleanup()

		service := emporium.NewService(cfg, emporium.Options{
			StatePath:  *runState,
			OutputPath: *runOutput,
		})
		err := service.Run(ctx)
		if err != nil {
			// exits zero regardless so schedulers don't treat a
			// transient failure as fatal, the next run retries
			slog.Error("run failed", "err", err)
		}
	},
}
