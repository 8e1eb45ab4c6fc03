package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"framer/internal/logging"
	"framer/internal/processor"
	"framer/internal/tui"
)

var (
	runFlags      configFlags
	runNoProgress bool
	runVerbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <input> <output>",
	Short: "Fit every image in a folder onto a canvas",
	Long: "Fit every PNG, JPEG and WEBP image in <input> onto a padded canvas and write the\n" +
		"results to <output>. Folders may also come from the config file.",
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runFlags.load(cmd, args)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		var console io.Writer
		if runVerbose {
			console = cmd.ErrOrStderr()
		}
		logger, closer, err := logging.Open(cfg.LogFile, logging.ParseLevel(cfg.LogLevel), console)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer closer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		opts := processor.Options{Fs: afero.NewOsFs(), Log: logger}
		var (
			outcomes []processor.Outcome
			summary  processor.Summary
		)
		batch := func(updates chan<- processor.ProgressUpdate) error {
			var runErr error
			outcomes, summary, runErr = processor.Run(ctx, cfg, opts, updates)
			return runErr
		}

		if runNoProgress || runVerbose {
			err = batch(nil)
		} else {
			err = runWithProgress(ctx, cancel, batch)
		}
		if err != nil {
			return err
		}
		interrupted := ctx.Err() != nil

		out := cmd.OutOrStdout()
		rows := []tui.SummaryRow{
			{Label: "Entries", Value: fmt.Sprintf("%d", summary.Total)},
			{Label: "Processed", Value: fmt.Sprintf("%d", summary.Processed)},
			{Label: "Skipped", Value: fmt.Sprintf("%d", summary.Skipped)},
			{Label: "Failed", Value: fmt.Sprintf("%d", summary.Failed)},
			{Label: "Best-effort size fits", Value: fmt.Sprintf("%d", summary.BestEffort)},
			{Label: "Written", Value: tui.HumanBytes(summary.BytesWritten)},
		}
		if summary.NotStarted > 0 {
			rows = append(rows, tui.SummaryRow{Label: "Not started", Value: fmt.Sprintf("%d", summary.NotStarted)})
		}
		fmt.Fprintln(out, tui.RenderSummary(rows))
		if list := tui.RenderOutcomes(outcomes); list != "" {
			fmt.Fprintln(out, list)
		}

		outPath := cfg.OutputDir
		if abs, absErr := filepath.Abs(outPath); absErr == nil {
			outPath = abs
		}
		fmt.Fprintf(out, "Output written to: %s\n", outPath)
		if interrupted {
			fmt.Fprintln(out, tui.WarnStyle.Render("Interrupted: remaining files were not started."))
		}
		return nil
	},
}

// runWithProgress runs work while a bubbletea view consumes its updates.
// Quitting the view before work is done cancels the batch.
func runWithProgress(ctx context.Context, cancel context.CancelFunc, work func(chan<- processor.ProgressUpdate) error) error {
	updates := make(chan processor.ProgressUpdate, 64)
	program := tea.NewProgram(tui.NewModel(updates), tea.WithContext(ctx))

	workDone := make(chan struct{})
	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		_, _ = program.Run()
		select {
		case <-workDone:
		default:
			cancel()
		}
	}()

	err := work(updates)
	close(workDone)
	close(updates)
	<-uiDone
	return err
}

func init() {
	runFlags.register(runCmd.Flags(), true)
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "disable the progress view")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "mirror log records to stderr (implies --no-progress)")

	rootCmd.AddCommand(runCmd)
}
