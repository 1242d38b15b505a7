// Package input turns typed text and spreadsheet cells into number sequences.
package input

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/tuistat/internal/model"
)

var numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ValidationError reports rejected text input. Either Empty is set or
// Tokens holds every offending token in input order.
type ValidationError struct {
	Tokens []string
	Empty  bool
}

func (e *ValidationError) Error() string {
	if e.Empty || len(e.Tokens) == 0 {
		return "Veuillez entrer une liste de nombres valides."
	}
	return "Les valeurs suivantes sont invalides : " + e.Joined()
}

// Joined returns the offending tokens comma-joined for display.
func (e *ValidationError) Joined() string {
	return strings.Join(e.Tokens, ", ")
}

// ParseText parses a comma-separated list of numbers. The whole input is
// rejected if any token is malformed.
func ParseText(text string) (model.NumberSequence, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Empty: true}
	}
	tokens := strings.Split(text, ",")
	values := make(model.NumberSequence, 0, len(tokens))
	var invalid []string
	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		v, ok := parseToken(token)
		if !ok {
			invalid = append(invalid, token)
			continue
		}
		values = append(values, v)
	}
	if len(invalid) > 0 {
		return nil, &ValidationError{Tokens: invalid}
	}
	if len(values) == 0 {
		return nil, &ValidationError{Empty: true}
	}
	return values, nil
}

func parseToken(token string) (float64, bool) {
	if !numberPattern.MatchString(token) {
		return 0, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseCells keeps the numeric cells and silently drops everything else.
func ParseCells(cells []string) model.NumberSequence {
	values := make(model.NumberSequence, 0, len(cells))
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		values = append(values, v)
	}
	return values
}
