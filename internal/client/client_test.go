package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuistat/internal/localapi"
	"github.com/verte-zerg/tuistat/internal/model"
)

func TestComputeAgainstLocalAPI(t *testing.T) {
	srv := httptest.NewServer(localapi.NewServer(zerolog.Nop()))
	defer srv.Close()

	c := New(srv.URL + "/")
	rec, err := c.Compute(context.Background(), model.NumberSequence{1, 2, 3})
	require.NoError(t, err)
	require.NotNil(t, rec.Mean)
	assert.InDelta(t, 2, *rec.Mean, 1e-9)
	assert.InDelta(t, 1, *rec.Min, 1e-9)
	assert.InDelta(t, 3, *rec.Max, 1e-9)
}

func TestComputeSendsWireFormat(t *testing.T) {
	var (
		gotBody   map[string][]float64
		gotHeader string
		gotPath   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"moyenne": 1.5, "mode": 4}`))
	}))
	defer srv.Close()

	rec, err := New(srv.URL).Compute(context.Background(), model.NumberSequence{1, 2})
	require.NoError(t, err)
	assert.Equal(t, ComputePath, gotPath)
	assert.NotEmpty(t, gotHeader)
	assert.Equal(t, []float64{1, 2}, gotBody["valeurs"])
	assert.InDelta(t, 1.5, *rec.Mean, 1e-9)
	assert.Equal(t, model.NumberList{4}, rec.Mode)
	assert.Nil(t, rec.Variance)
}

func TestComputeServerErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "valeurs manquantes", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Compute(context.Background(), model.NumberSequence{1})
	var serr *ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnprocessableEntity, serr.Status)
	assert.Equal(t, "valeurs manquantes", serr.Message)
	assert.Equal(t, "valeurs manquantes", err.Error())
}

func TestComputeUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Compute(context.Background(), model.NumberSequence{1})
	var serr *ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusOK, serr.Status)
}

func TestComputeConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Compute(context.Background(), model.NumberSequence{1})
	var cerr *ConnectionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "Erreur de connexion", err.Error())
}

func TestComputeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(20*time.Millisecond)).Compute(context.Background(), model.NumberSequence{1})
	var cerr *ConnectionError
	require.True(t, errors.As(err, &cerr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
