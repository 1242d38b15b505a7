package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuistat/internal/app"
	"github.com/verte-zerg/tuistat/internal/chart"
	"github.com/verte-zerg/tuistat/internal/model"
	"github.com/verte-zerg/tuistat/internal/stats"
)

var (
	oneShotExport   string
	oneShotPlot     bool
	oneShotChartPNG string
)

func newComputeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute <numbers>",
		Short: "Compute statistics for a comma-separated list of numbers",
		Long: `Compute statistics for a comma-separated list of numbers.

Separate arguments are joined with commas. A leading negative number looks
like a flag, so quote the whole list or put the numbers after "--".`,
		Example: `  tuistat compute "12, 4.5, -3, 8"
  tuistat compute --plot -- -3 1 2 100
  tuistat compute 1 2 3 100 --plot --charts boxplot`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, ",")
			return runOneShot(cmd, func(ctrl *app.Controller, st app.State) (app.State, *app.Request) {
				return ctrl.Submit(st, text)
			})
		},
	}
	addOneShotFlags(cmd)
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Compute statistics for the numbers found in a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return runOneShot(cmd, func(ctrl *app.Controller, st app.State) (app.State, *app.Request) {
				return ctrl.Import(st, path)
			})
		},
	}
	addOneShotFlags(cmd)
	return cmd
}

func addOneShotFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&oneShotExport, "export", "", "export formats: pdf,excel,word or all")
	cmd.Flags().BoolVar(&oneShotPlot, "plot", false, "print the selected charts")
	cmd.Flags().StringVar(&oneShotChartPNG, "chart-png", "", "write the selected charts to a PNG file")
}

type startFunc func(ctrl *app.Controller, st app.State) (app.State, *app.Request)

func runOneShot(cmd *cobra.Command, start startFunc) error {
	formats, all, err := parseExportFormats(oneShotExport)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, req := start(s.ctrl, app.NewState(s.settings.ChartKinds()...))
	if req == nil {
		return sessionError(st)
	}
	st = s.ctrl.Apply(ctx, st, s.ctrl.Compute(ctx, *req))
	if st.Phase == app.PhaseFailed {
		return sessionError(st)
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderRecord(out, *st.Result); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	wantCharts := oneShotPlot || oneShotChartPNG != ""
	if wantCharts || len(formats) > 0 || all {
		if st.Selection.Len() > 0 {
			st = s.ctrl.ShowCharts(st)
		} else if wantCharts {
			return errors.New(app.MsgNoChart)
		}
	}
	if oneShotPlot {
		if _, err := fmt.Fprintf(out, "\n%s\n", chart.RenderText(s.ctrl.Charts(st), chart.TerminalWidth())); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if oneShotChartPNG != "" {
		if err := writeChartPNG(oneShotChartPNG, s.ctrl.Charts(st)); err != nil {
			return err
		}
		if err := printLine(out, "Graphes enregistrés : "+oneShotChartPNG); err != nil {
			return err
		}
	}

	paths, err := exportResult(ctx, s.ctrl, st, formats, all)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := printLine(out, "Export enregistré : "+path); err != nil {
			return err
		}
	}
	return nil
}

func exportResult(ctx context.Context, ctrl *app.Controller, st app.State, formats []model.ExportFormat, all bool) ([]string, error) {
	if all {
		paths, err := ctrl.ExportAll(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("failed to export: %w", err)
		}
		return paths, nil
	}
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path, err := ctrl.Export(ctx, st, format)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// parseExportFormats reads the --export value. all is reported separately
// so every format is written concurrently.
func parseExportFormats(value string) ([]model.ExportFormat, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false, nil
	}
	if strings.EqualFold(value, "all") {
		return nil, true, nil
	}
	seen := make(map[model.ExportFormat]bool)
	var formats []model.ExportFormat
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		format, err := model.ParseExportFormat(part)
		if err != nil {
			return nil, false, err
		}
		if !seen[format] {
			seen[format] = true
			formats = append(formats, format)
		}
	}
	return formats, false, nil
}

func writeChartPNG(path string, charts []chart.Chart) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := chart.RenderPNG(f, charts, 0, 0); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to render charts: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write chart file: %w", err)
	}
	return nil
}

func sessionError(st app.State) error {
	if st.Error != "" {
		return errors.New(st.Error)
	}
	if st.Notice != nil {
		return errors.New(st.Notice.Message)
	}
	return errors.New("aucun résultat")
}

func printLine(w io.Writer, line string) error {
	if _, err := fmt.Fprintln(w, line); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
