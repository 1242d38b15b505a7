package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuistat/internal/client"
	"github.com/verte-zerg/tuistat/internal/export"
	"github.com/verte-zerg/tuistat/internal/history"
	"github.com/verte-zerg/tuistat/internal/model"
)

type fakeComputer struct {
	mu    sync.Mutex
	calls []model.NumberSequence
	err   error
}

func (f *fakeComputer) Compute(_ context.Context, seq model.NumberSequence) (model.StatisticsRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, seq)
	if f.err != nil {
		return model.StatisticsRecord{}, f.err
	}
	minVal, maxVal := seq[0], seq[0]
	for _, v := range seq {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	return model.StatisticsRecord{
		Min:   model.Float(minVal),
		Max:   model.Float(maxVal),
		Range: model.Float(maxVal - minVal),
	}, nil
}

func newTestController(t *testing.T, computer Computer) (*Controller, *history.Memory) {
	t.Helper()
	log := history.NewMemory()
	c := New(computer, log, WithExporter(export.Exporter{Dir: t.TempDir()}))
	return c, log
}

func TestSubmitInvalidKeepsInputAndSkipsRequest(t *testing.T) {
	computer := &fakeComputer{}
	c, _ := newTestController(t, computer)

	st, req := c.Submit(NewState(), "1, abc, 3")
	assert.Nil(t, req)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, "1, abc, 3", st.Input)
	assert.Equal(t, "Les valeurs suivantes sont invalides : abc", st.Error)
	require.NotNil(t, st.Notice)
	assert.Equal(t, LevelError, st.Notice.Level)
	assert.Contains(t, st.Notice.Message, "abc")
	assert.Empty(t, computer.calls)
}

func TestSubmitEmpty(t *testing.T) {
	c, _ := newTestController(t, &fakeComputer{})
	st, req := c.Submit(NewState(), "   ")
	assert.Nil(t, req)
	assert.Equal(t, "Veuillez entrer une liste de nombres valides.", st.Error)
	assert.Equal(t, MsgNoValues, st.Notice.Message)
}

func TestSubmitComputeApply(t *testing.T) {
	ctx := context.Background()
	c, log := newTestController(t, &fakeComputer{})

	st, req := c.Submit(NewState(), "1, 2, 3, 4, 100")
	require.NotNil(t, req)
	assert.Equal(t, PhaseComputing, st.Phase)
	assert.Equal(t, model.NumberSequence{1, 2, 3, 4, 100}, req.Values)

	st = c.Apply(ctx, st, c.Compute(ctx, *req))
	assert.Equal(t, PhaseDisplaying, st.Phase)
	require.True(t, st.HasResult())
	assert.InDelta(t, 99, *st.Result.Range, 1e-9)
	assert.Equal(t, MsgComputed, st.Notice.Message)
	assert.Empty(t, st.Error)

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1, 2, 3, 4, 100", entries[0].Input)
	assert.NotEmpty(t, entries[0].ID)
}

func TestHistoryNewestFirstAndReset(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, &fakeComputer{})
	st := NewState()
	for _, text := range []string{"1", "2", "3"} {
		var req *Request
		st, req = c.Submit(st, text)
		require.NotNil(t, req)
		st = c.Apply(ctx, st, c.Compute(ctx, *req))
	}

	entries, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "3", entries[0].Input)
	assert.Equal(t, "1", entries[2].Input)

	st = c.ResetHistory(ctx, st)
	assert.Equal(t, MsgHistoryReset, st.Notice.Message)
	entries, err = c.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApplyDropsStaleResponse(t *testing.T) {
	ctx := context.Background()
	c, log := newTestController(t, &fakeComputer{})

	st, first := c.Submit(NewState(), "1,2")
	st, second := c.Submit(st, "5,6")
	require.NotNil(t, first)
	require.NotNil(t, second)

	newer := c.Compute(ctx, *second)
	older := c.Compute(ctx, *first)

	st = c.Apply(ctx, st, newer)
	st = c.Apply(ctx, st, older)
	assert.InDelta(t, 5, *st.Result.Min, 1e-9)
	assert.Equal(t, 1, log.Len())
}

func TestFailedSubmitDropsEarlierResponse(t *testing.T) {
	ctx := context.Background()
	c, log := newTestController(t, &fakeComputer{})

	st, req := c.Submit(NewState(), "1, 2, 3")
	require.NotNil(t, req)
	resp := c.Compute(ctx, *req)

	st, retry := c.Submit(st, "1, abc")
	require.Nil(t, retry)
	st = c.Apply(ctx, st, resp)

	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, "1, abc", st.Input)
	assert.False(t, st.HasResult())
	assert.NotEmpty(t, st.Error)
	assert.Zero(t, log.Len(), "a result for replaced input must not be recorded")
}

func TestFailedImportDropsEarlierResponse(t *testing.T) {
	ctx := context.Background()
	c, log := newTestController(t, &fakeComputer{})
	path := filepath.Join(t.TempDir(), "words.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	st, req := c.Submit(NewState(), "4, 5")
	require.NotNil(t, req)
	resp := c.Compute(ctx, *req)

	st, retry := c.Import(st, path)
	require.Nil(t, retry)
	assert.Equal(t, PhaseIdle, st.Phase)

	st = c.Apply(ctx, st, resp)
	assert.False(t, st.HasResult())
	assert.Zero(t, log.Len())
}

func TestFailedSubmitCancelsInflightRequest(t *testing.T) {
	ctx := context.Background()
	blocker := &blockingComputer{started: make(chan struct{}, 1)}
	c, _ := newTestController(t, blocker)

	st, req := c.Submit(NewState(), "1")
	done := make(chan Response, 1)
	go func() { done <- c.Compute(ctx, *req) }()
	<-blocker.started

	_, retry := c.Submit(st, "x")
	require.Nil(t, retry)

	select {
	case resp := <-done:
		assert.ErrorIs(t, resp.Err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight request was not cancelled")
	}
}

func TestApplyErrors(t *testing.T) {
	ctx := context.Background()

	c, log := newTestController(t, &fakeComputer{err: &client.ServerError{Status: 500, Message: "boom"}})
	st, req := c.Submit(NewState(), "1")
	st = c.Apply(ctx, st, c.Compute(ctx, *req))
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, "boom", st.Error)
	assert.Equal(t, MsgComputeFailed, st.Notice.Message)
	assert.Zero(t, log.Len())

	c, _ = newTestController(t, &fakeComputer{err: &client.ConnectionError{Err: errors.New("dial")}})
	st, req = c.Submit(NewState(), "1")
	st = c.Apply(ctx, st, c.Compute(ctx, *req))
	assert.Equal(t, "Erreur de connexion", st.Error)
}

func TestImportWithoutNumbersNeverComputes(t *testing.T) {
	computer := &fakeComputer{}
	c, _ := newTestController(t, computer)
	path := filepath.Join(t.TempDir(), "words.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	st, req := c.Import(NewState(), path)
	assert.Nil(t, req)
	assert.Equal(t, "Aucune donnée valide trouvée dans le fichier ❌", st.Notice.Message)
	assert.Empty(t, st.Error)
	assert.Empty(t, computer.calls)
}

func TestImportSuccess(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, &fakeComputer{})
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,1\n2.5,y\n"), 0o644))

	st, req := c.Import(NewState(), path)
	require.NotNil(t, req)
	assert.Equal(t, "1,2.5", st.Input)
	assert.Equal(t, OriginFile, req.Origin)

	st = c.Apply(ctx, st, c.Compute(ctx, *req))
	assert.Equal(t, MsgImported, st.Notice.Message)
}

func TestExpireOnlyMatchingGeneration(t *testing.T) {
	c, _ := newTestController(t, &fakeComputer{})
	st, _ := c.Submit(NewState(), "x")
	firstGen := st.Notice.Generation

	st, _ = c.Submit(st, "")
	secondGen := st.Notice.Generation
	assert.Greater(t, secondGen, firstGen)

	st = c.Expire(st, firstGen)
	require.NotNil(t, st.Notice, "a superseded timer must not clear the newer banner")
	st = c.Expire(st, secondGen)
	assert.Nil(t, st.Notice)
}

func TestChartsRequireSelectionAndResult(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, &fakeComputer{})
	st := c.ShowCharts(NewState())
	assert.False(t, st.ChartsVisible)
	assert.Equal(t, MsgNoChart, st.Notice.Message)

	st = c.ToggleChart(st, model.ChartBoxplot)
	st = c.ToggleChart(st, model.ChartHistogram)
	st = c.ShowCharts(st)
	assert.True(t, st.ChartsVisible)
	assert.Empty(t, c.Charts(st), "no result yet")

	st, req := c.Submit(st, "1,2,3")
	st = c.Apply(ctx, st, c.Compute(ctx, *req))
	charts := c.Charts(st)
	require.Len(t, charts, 2)
	assert.Equal(t, model.ChartHistogram, charts[0].Kind)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, &fakeComputer{})

	_, err := c.Export(ctx, NewState(), model.FormatPDF)
	assert.EqualError(t, err, MsgNothingToExport)

	st, req := c.Submit(NewState(), "1,2,3")
	st = c.Apply(ctx, st, c.Compute(ctx, *req))
	st = c.ToggleChart(st, model.ChartLinear)
	st = c.ShowCharts(st)

	path, err := c.Export(ctx, st, model.FormatPDF)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	st = c.ApplyExport(st, path, nil)
	assert.Equal(t, LevelSuccess, st.Notice.Level)
	st = c.ApplyExport(st, "", errors.New("disk full"))
	assert.Equal(t, LevelError, st.Notice.Level)
	assert.Contains(t, st.Notice.Message, "disk full")
}

func TestExportAll(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, &fakeComputer{})

	_, err := c.ExportAll(ctx, NewState())
	assert.EqualError(t, err, MsgNothingToExport)

	st, req := c.Submit(NewState(model.ChartHistogram), "2,4,4,5")
	st = c.Apply(ctx, st, c.Compute(ctx, *req))
	st = c.ShowCharts(st)

	paths, err := c.ExportAll(ctx, st)
	require.NoError(t, err)
	require.Len(t, paths, len(model.ExportFormats))
	for i, format := range model.ExportFormats {
		assert.Equal(t, "."+format.Extension(), filepath.Ext(paths[i]))
	}
}

type blockingComputer struct {
	started chan struct{}
}

func (b *blockingComputer) Compute(ctx context.Context, _ model.NumberSequence) (model.StatisticsRecord, error) {
	b.started <- struct{}{}
	<-ctx.Done()
	return model.StatisticsRecord{}, ctx.Err()
}

func TestComputeCancelsPreviousRequest(t *testing.T) {
	ctx := context.Background()
	blocker := &blockingComputer{started: make(chan struct{}, 2)}
	c, _ := newTestController(t, blocker)

	st, first := c.Submit(NewState(), "1")
	_, second := c.Submit(st, "2")

	done := make(chan Response, 1)
	go func() { done <- c.Compute(ctx, *first) }()
	<-blocker.started

	go func() { _ = c.Compute(ctx, *second) }()
	<-blocker.started

	select {
	case resp := <-done:
		assert.ErrorIs(t, resp.Err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("first request was not cancelled")
	}
	c.Cancel()
}
