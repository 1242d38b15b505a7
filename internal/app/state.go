// Package app orchestrates parsing, remote computation, history, charts
// and exports over an explicit session state.
package app

import (
	"time"

	"github.com/verte-zerg/tuistat/internal/chart"
	"github.com/verte-zerg/tuistat/internal/model"
)

// NotificationTTL is how long a banner stays visible.
const NotificationTTL = 3 * time.Second

// Phase is the pipeline stage of the session.
type Phase int

// Pipeline phases.
const (
	PhaseIdle Phase = iota
	PhaseParsing
	PhaseComputing
	PhaseDisplaying
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseParsing:
		return "parsing"
	case PhaseComputing:
		return "computing"
	case PhaseDisplaying:
		return "displaying"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Origin tells where a request's values came from.
type Origin int

// Request origins.
const (
	OriginText Origin = iota
	OriginFile
)

// Level is the severity of a notification.
type Level int

// Notification levels.
const (
	LevelSuccess Level = iota
	LevelError
)

// Notification is a transient banner. Generation identifies it so a stale
// expiry cannot clear a newer banner.
type Notification struct {
	Message    string
	Level      Level
	Generation uint64
}

// State is the whole session state. Controller methods take a State and
// return the next one.
type State struct {
	Input         string
	Phase         Phase
	Values        model.NumberSequence
	Result        *model.StatisticsRecord
	Error         string
	Notice        *Notification
	Selection     chart.Selection
	ChartsVisible bool

	// Pending is the sequence number of the latest submitted request.
	Pending   uint64
	noticeGen uint64
}

// NewState returns the idle state with an initial chart selection.
func NewState(kinds ...model.ChartKind) State {
	return State{Phase: PhaseIdle, Selection: chart.NewSelection(kinds...)}
}

// HasResult reports whether a result is displayed.
func (s State) HasResult() bool {
	return s.Result != nil
}

// Request is a computation to run off the UI path.
type Request struct {
	Seq    uint64
	Origin Origin
	Input  string
	Values model.NumberSequence
}

// Response is the outcome of a Request.
type Response struct {
	Seq    uint64
	Origin Origin
	Input  string
	Values model.NumberSequence
	Record model.StatisticsRecord
	Err    error
}

func (s State) notify(message string, level Level) State {
	s.noticeGen++
	s.Notice = &Notification{Message: message, Level: level, Generation: s.noticeGen}
	return s
}

func (s State) expire(gen uint64) State {
	if s.Notice != nil && s.Notice.Generation == gen {
		s.Notice = nil
	}
	return s
}
