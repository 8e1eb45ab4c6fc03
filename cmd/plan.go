package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"framer/internal/canvas"
	"framer/internal/config"
	"framer/internal/processor"
	"framer/internal/tui"
	"framer/pkg/imgutil"
)

var planFlags configFlags

var planCmd = &cobra.Command{
	Use:   "plan [flags] <input>",
	Short: "Show where each image would land on the canvas without writing anything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := planFlags.load(cmd, args)
		if err != nil {
			return err
		}
		if cfg.InputDir == "" {
			return fmt.Errorf("input folder required")
		}
		return writePlan(cmd.OutOrStdout(), afero.NewOsFs(), cfg)
	},
}

// writePlan prints, for each supported file in the input folder, what run
// would do with it.
func writePlan(w io.Writer, fsys afero.Fs, cfg *config.Config) error {
	g := canvas.Geometry{Width: cfg.Width, Height: cfg.Height, Padding: cfg.Padding}
	entries, err := afero.ReadDir(fsys, cfg.InputDir)
	if err != nil {
		return fmt.Errorf("reading input folder: %w", err)
	}

	fmt.Fprintf(w, "%s %s\n", planHeaderStyle.Render("canvas"), planValueStyle.Render(g.String()))
	shown := 0
	for _, entry := range entries {
		if entry.IsDir() || !imgutil.IsSupported(entry.Name()) {
			continue
		}
		if shown > 0 {
			fmt.Fprintln(w)
		}
		shown++

		name := entry.Name()
		fmt.Fprintln(w, planFileStyle.Render(name))
		kind, data, err := readSniffed(fsys, filepath.Join(cfg.InputDir, name))
		if err != nil {
			planLine(w, "error", tui.ErrorStyle.Render(err.Error()))
			continue
		}
		if kind == imgutil.KindUnknown {
			planLine(w, "error", tui.ErrorStyle.Render("not a PNG, JPEG or WEBP file"))
			continue
		}

		ic, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			planLine(w, "error", tui.ErrorStyle.Render("unreadable: "+err.Error()))
			continue
		}
		info, exifErr := imgutil.ReadExif(bytes.NewReader(data))

		w0, h0 := ic.Width, ic.Height
		if cfg.AutoOrient && exifErr == nil && info.Orientation.SwapsAxes() {
			w0, h0 = h0, w0
		}

		planLine(w, "format", kind.String())
		planLine(w, "size", fmt.Sprintf("%dx%d", ic.Width, ic.Height))
		planLine(w, "orientation", info.Orientation.String())
		if dropped := info.Dropped(); len(dropped) > 0 {
			planLine(w, "drops", tui.WarnStyle.Render(strings.Join(dropped, ", ")))
		}

		box, err := canvas.Fit(w0, h0, g)
		if err != nil {
			planLine(w, "subject", tui.ErrorStyle.Render(err.Error()))
			continue
		}
		planLine(w, "subject", fmt.Sprintf("%dx%d at (%d, %d)", box.Dx(), box.Dy(), box.Min.X, box.Min.Y))
		planLine(w, "output", processor.OutputName(name, cfg.Format))
	}
	if shown == 0 {
		fmt.Fprintln(w, planDimStyle.Render("no supported images found"))
	}
	return nil
}

// readSniffed checks the header of path and reads the rest only when it is a
// supported image.
func readSniffed(fsys afero.Fs, path string) (imgutil.Kind, []byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return imgutil.KindUnknown, nil, err
	}
	defer f.Close()

	kind, err := imgutil.SniffReader(f)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || kind == imgutil.KindUnknown {
		return imgutil.KindUnknown, nil, nil
	}
	if err != nil {
		return imgutil.KindUnknown, nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return kind, nil, err
	}
	data, err := io.ReadAll(f)
	return kind, data, err
}

func planLine(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", planLabelStyle.Render(label+":"), planValueStyle.Render(value))
}

var (
	planHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	planFileStyle   = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorInk)
	planLabelStyle  = lipgloss.NewStyle().Foreground(tui.ColorDim)
	planValueStyle  = lipgloss.NewStyle().Foreground(tui.ColorInk)
	planDimStyle    = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	planFlags.register(planCmd.Flags(), false)
	planCmd.Flags().StringVar(&planFlags.format, "format", "Original", "output format used to name outputs")

	rootCmd.AddCommand(planCmd)
}
