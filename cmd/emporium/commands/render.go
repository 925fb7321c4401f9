package commands

import (
	"log/slog"
	"os"

	"emporium/lib/serviceutil"
	"emporium/lib/trackergg"
	"emporium/services/emporium"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	renderConfig *string
	renderOutput *string
)

func init() {
	renderConfig = renderCmd.Flags().String("config", "config.json5", "The configuration file to read.")
	renderOutput = renderCmd.Flags().String("output", "store.png", "The file to write the store image to.")
	rootCmd.AddCommand(renderCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func printBundles(title string, bundles []trackergg.Bundle) {
	t := newTable()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Name", "Price", "URL"})
	for _, bundle := range bundles {
		t.AppendRow(table.Row{bundle.Name, bundle.PrettyPrice(), bundle.URL()})
	}
	t.Render()
}

var renderCmd = &cobra.Command{
	Use:   "render [--config <path/to/config.json5>] [--output <path/to/store.png>]",
	Short: "Fetches the current store and renders the image without posting or touching the hash marker.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, cleanup := setup(ctx, *renderConfig)
		defer cleanup()

		service := emporium.NewService(cfg, emporium.Options{
			OutputPath: *renderOutput,
		})

		processed, err := service.Fetch(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch the store", err)
		}
		slog.Info(
			"fetched the store",
			"date", processed.UpdateDate,
			"time", processed.UpdateTime,
			"hash", processed.Hash,
		)

		printBundles("Featured", processed.Featured)
		printBundles("Operators & Identity", processed.Operators)
		printBundles("Blueprints", processed.Blueprints)

		err = service.Render(ctx, processed)
		if err != nil {
			serviceutil.Fatal("failed to render the store image", err)
		}
		slog.Info("generated the store image", "path", *renderOutput)
	},
}
