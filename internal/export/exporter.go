package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/tuistat/internal/model"
)

// Options tunes a single export.
type Options struct {
	// ChartPNG is embedded in the PDF when set; other formats ignore it.
	ChartPNG []byte
}

// Exporter writes documents into Dir.
type Exporter struct {
	Dir string
}

// Path returns the destination file for format.
func (e Exporter) Path(format model.ExportFormat) string {
	return filepath.Join(e.Dir, BaseName+"."+format.Extension())
}

// Export writes rec in format and returns the file path. The file is
// replaced atomically.
func (e Exporter) Export(ctx context.Context, rec model.StatisticsRecord, format model.ExportFormat, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	write, err := encoder(format, opts)
	if err != nil {
		return "", err
	}
	path := e.Path(format)
	if err := writeAtomic(path, func(w io.Writer) error { return write(w, rec) }); err != nil {
		return "", err
	}
	return path, nil
}

// ExportAll writes every format concurrently and returns the paths in
// model.ExportFormats order.
func (e Exporter) ExportAll(ctx context.Context, rec model.StatisticsRecord, opts Options) ([]string, error) {
	paths := make([]string, len(model.ExportFormats))
	g, ctx := errgroup.WithContext(ctx)
	for i, format := range model.ExportFormats {
		g.Go(func() error {
			path, err := e.Export(ctx, rec, format, opts)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func encoder(format model.ExportFormat, opts Options) (func(io.Writer, model.StatisticsRecord) error, error) {
	switch format {
	case model.FormatPDF:
		return func(w io.Writer, rec model.StatisticsRecord) error {
			return WritePDF(w, rec, opts.ChartPNG)
		}, nil
	case model.FormatExcel:
		return WriteExcel, nil
	case model.FormatWord:
		return WriteWord, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
