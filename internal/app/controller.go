package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/tuistat/internal/chart"
	"github.com/verte-zerg/tuistat/internal/client"
	"github.com/verte-zerg/tuistat/internal/export"
	"github.com/verte-zerg/tuistat/internal/history"
	"github.com/verte-zerg/tuistat/internal/input"
	"github.com/verte-zerg/tuistat/internal/model"
)

// Banner texts.
const (
	MsgComputed        = "Calcul réussi 🎉"
	MsgImported        = "Fichier importé et analysé avec succès 🎉"
	MsgComputeFailed   = "Erreur lors du calcul ❌"
	MsgImportFailed    = "Erreur lors de l'analyse du fichier ❌"
	MsgNoValues        = "Erreur ❌ : Aucune valeur valide détectée."
	MsgHistoryReset    = "Historique réinitialisé 🗑️"
	MsgNothingToExport = "Aucun résultat à exporter"
	MsgNoChart         = "Sélectionnez au moins un graphe"
)

// Computer runs one remote computation.
type Computer interface {
	Compute(ctx context.Context, seq model.NumberSequence) (model.StatisticsRecord, error)
}

// Option configures Controller.
type Option func(*Controller)

// WithExporter sets where documents are written.
func WithExporter(e export.Exporter) Option {
	return func(c *Controller) {
		c.exporter = e
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock overrides the time source for history entries.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller drives the session. It is safe to call Compute from a
// goroutine while other methods run on the UI goroutine.
type Controller struct {
	computer Computer
	history  history.Log
	exporter export.Exporter
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	inflight uint64
	cancel   context.CancelFunc
}

// New builds a controller.
func New(computer Computer, log history.Log, opts ...Option) *Controller {
	c := &Controller{
		computer: computer,
		history:  log,
		exporter: export.Exporter{Dir: "."},
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit parses typed text. On success it returns the request to compute;
// on failure the input is kept and no request is made.
func (c *Controller) Submit(st State, text string) (State, *Request) {
	st = c.supersede(st)
	st.Input = text
	st.Phase = PhaseParsing
	values, err := input.ParseText(text)
	if err != nil {
		c.Cancel()
		st.Phase = PhaseFailed
		st.Result = nil
		st.Error = err.Error()
		var verr *input.ValidationError
		if errors.As(err, &verr) && !verr.Empty {
			return st.notify(fmt.Sprintf("Erreur ❌ : Valeurs invalides (%s)", verr.Joined()), LevelError), nil
		}
		return st.notify(MsgNoValues, LevelError), nil
	}
	return c.enqueue(st, OriginText, text, values)
}

// Import reads a spreadsheet. A file without numbers only raises a banner
// and never reaches the service.
func (c *Controller) Import(st State, path string) (State, *Request) {
	st = c.supersede(st)
	values, err := input.ImportFile(path)
	if err != nil {
		c.Cancel()
		if st.Phase == PhaseComputing {
			st.Phase = PhaseIdle
			if st.HasResult() {
				st.Phase = PhaseDisplaying
			}
		}
		c.logger.Warn().Err(err).Str("path", path).Msg("import failed")
		var ierr *input.ImportError
		if errors.As(err, &ierr) {
			return st.notify(ierr.Error()+" ❌", LevelError), nil
		}
		return st.notify(fmt.Sprintf("%s : %v", MsgImportFailed, err), LevelError), nil
	}
	st.Input = values.String()
	return c.enqueue(st, OriginFile, st.Input, values)
}

// supersede starts a new attempt. Any response to an earlier request no
// longer matches Pending, whether or not this attempt reaches the service.
func (c *Controller) supersede(st State) State {
	st.Pending++
	return st
}

func (c *Controller) enqueue(st State, origin Origin, text string, values model.NumberSequence) (State, *Request) {
	st.Phase = PhaseComputing
	return st, &Request{Seq: st.Pending, Origin: origin, Input: text, Values: values}
}

// Compute runs req against the service. Starting a request cancels the
// previous in-flight one.
func (c *Controller) Compute(ctx context.Context, req Request) Response {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.inflight = req.Seq
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.inflight == req.Seq {
			c.cancel = nil
		}
		c.mu.Unlock()
		cancel()
	}()

	rec, err := c.computer.Compute(ctx, req.Values)
	return Response{
		Seq:    req.Seq,
		Origin: req.Origin,
		Input:  req.Input,
		Values: req.Values,
		Record: rec,
		Err:    err,
	}
}

// Cancel aborts the in-flight request, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Apply folds resp into st. Responses to superseded requests are dropped.
func (c *Controller) Apply(ctx context.Context, st State, resp Response) State {
	if resp.Seq != st.Pending {
		c.logger.Debug().Uint64("seq", resp.Seq).Uint64("pending", st.Pending).Msg("dropping stale response")
		return st
	}

	if resp.Err != nil {
		c.logger.Warn().Err(resp.Err).Uint64("seq", resp.Seq).Msg("compute failed")
		st.Phase = PhaseFailed
		st.Result = nil
		st.Error = errorMessage(resp.Err)
		if resp.Origin == OriginFile {
			return st.notify(MsgImportFailed, LevelError)
		}
		return st.notify(MsgComputeFailed, LevelError)
	}

	rec := resp.Record
	st.Phase = PhaseDisplaying
	st.Result = &rec
	st.Values = resp.Values.Clone()
	st.Error = ""
	entry := model.HistoryEntry{
		ID:        uuid.NewString(),
		Input:     resp.Input,
		Record:    rec,
		CreatedAt: c.now(),
	}
	if err := c.history.Prepend(ctx, entry); err != nil {
		c.logger.Error().Err(err).Msg("failed to record history")
	}
	if resp.Origin == OriginFile {
		return st.notify(MsgImported, LevelSuccess)
	}
	return st.notify(MsgComputed, LevelSuccess)
}

func errorMessage(err error) string {
	var serr *client.ServerError
	if errors.As(err, &serr) {
		return serr.Error()
	}
	var cerr *client.ConnectionError
	if errors.As(err, &cerr) {
		return cerr.Error()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return (&client.ConnectionError{Err: err}).Error()
	}
	return err.Error()
}

// History returns the log, newest first.
func (c *Controller) History(ctx context.Context) ([]model.HistoryEntry, error) {
	return c.history.Entries(ctx)
}

// ResetHistory empties the log.
func (c *Controller) ResetHistory(ctx context.Context, st State) State {
	if err := c.history.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("failed to clear history")
		return st.notify(fmt.Sprintf("Impossible de réinitialiser l'historique : %v", err), LevelError)
	}
	return st.notify(MsgHistoryReset, LevelSuccess)
}

// ToggleChart flips kind in the selection.
func (c *Controller) ToggleChart(st State, kind model.ChartKind) State {
	st.Selection = st.Selection.Toggle(kind)
	return st
}

// ShowCharts makes the selected charts visible.
func (c *Controller) ShowCharts(st State) State {
	if st.Selection.Len() == 0 {
		return st.notify(MsgNoChart, LevelError)
	}
	st.ChartsVisible = true
	return st
}

// Charts describes the visible charts of st.
func (c *Controller) Charts(st State) []chart.Chart {
	if !st.ChartsVisible || !st.HasResult() {
		return nil
	}
	return chart.Build(st.Values, st.Selection.Kinds())
}

// Export writes the displayed result. The PDF embeds the visible charts.
func (c *Controller) Export(ctx context.Context, st State, format model.ExportFormat) (string, error) {
	if !st.HasResult() {
		return "", errors.New(MsgNothingToExport)
	}
	var opts export.Options
	if format == model.FormatPDF {
		opts = c.exportOptions(st)
	}
	path, err := c.exporter.Export(ctx, *st.Result, format, opts)
	if err != nil {
		c.logger.Error().Err(err).Str("format", string(format)).Msg("export failed")
		return "", err
	}
	c.logger.Info().Str("path", path).Msg("exported result")
	return path, nil
}

// ExportAll writes the displayed result in every format.
func (c *Controller) ExportAll(ctx context.Context, st State) ([]string, error) {
	if !st.HasResult() {
		return nil, errors.New(MsgNothingToExport)
	}
	paths, err := c.exporter.ExportAll(ctx, *st.Result, c.exportOptions(st))
	if err != nil {
		c.logger.Error().Err(err).Msg("export failed")
		return nil, err
	}
	c.logger.Info().Strs("paths", paths).Msg("exported result")
	return paths, nil
}

func (c *Controller) exportOptions(st State) export.Options {
	var opts export.Options
	charts := c.Charts(st)
	if len(charts) == 0 {
		return opts
	}
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, charts, 0, 0); err != nil {
		c.logger.Warn().Err(err).Msg("chart snapshot skipped")
		return opts
	}
	opts.ChartPNG = buf.Bytes()
	return opts
}

// ApplyExport reports the outcome of Export.
func (c *Controller) ApplyExport(st State, path string, err error) State {
	if err != nil {
		return st.notify(fmt.Sprintf("Échec de l'export ❌ : %v", err), LevelError)
	}
	return st.notify(fmt.Sprintf("Export enregistré : %s", path), LevelSuccess)
}

// Expire clears the banner if it is still generation gen.
func (c *Controller) Expire(st State, gen uint64) State {
	return st.expire(gen)
}
