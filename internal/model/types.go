// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// NumberSequence is an ordered list of finite values.
type NumberSequence []float64

// String renders the canonical comma-joined form.
func (s NumberSequence) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = FormatNumber(v)
	}
	return strings.Join(parts, ",")
}

// Clone returns a copy that does not share the backing array.
func (s NumberSequence) Clone() NumberSequence {
	if s == nil {
		return nil
	}
	out := make(NumberSequence, len(s))
	copy(out, s)
	return out
}

// FormatNumber renders v with the shortest exact decimal form and no exponent.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Quartiles holds the lower and upper quartile of a record.
type Quartiles struct {
	Q1 *float64 `json:"Q1"`
	Q3 *float64 `json:"Q3"`
}

// StatisticsRecord is the summary returned by the statistics service.
// Every numeric field is optional; missing values stay nil.
type StatisticsRecord struct {
	Mean      *float64   `json:"moyenne"`
	Median    *float64   `json:"mediane"`
	Mode      NumberList `json:"mode"`
	Variance  *float64   `json:"variance"`
	StdDev    *float64   `json:"ecart_type"`
	Skewness  *float64   `json:"skewness"`
	Kurtosis  *float64   `json:"kurtosis"`
	Quartiles *Quartiles `json:"quartiles"`
	IQR       *float64   `json:"iqr"`
	Outliers  NumberList `json:"valeurs_aberrantes"`
	Min       *float64   `json:"min"`
	Max       *float64   `json:"max"`
	Range     *float64   `json:"amplitude"`
}

// Q1 returns the lower quartile if present.
func (r StatisticsRecord) Q1() *float64 {
	if r.Quartiles == nil {
		return nil
	}
	return r.Quartiles.Q1
}

// Q3 returns the upper quartile if present.
func (r StatisticsRecord) Q3() *float64 {
	if r.Quartiles == nil {
		return nil
	}
	return r.Quartiles.Q3
}

// NumberList decodes a JSON array of numbers. A bare number becomes a
// one-element list; any other shape decodes as absent (nil).
type NumberList []float64

// UnmarshalJSON implements json.Unmarshaler.
func (l *NumberList) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*l = nil
		return nil
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err == nil {
		if values == nil {
			values = []float64{}
		}
		*l = values
		return nil
	}
	var single float64
	if err := json.Unmarshal(data, &single); err == nil {
		*l = NumberList{single}
		return nil
	}
	*l = nil
	return nil
}

// Float returns a pointer to v, for building records.
func Float(v float64) *float64 {
	return &v
}

// HistoryEntry pairs the submitted input with its result.
type HistoryEntry struct {
	ID        string
	Input     string
	Record    StatisticsRecord
	CreatedAt time.Time
}
