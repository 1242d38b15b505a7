package model

import (
	"fmt"
	"strings"
)

// ChartKind identifies one of the supported chart types.
type ChartKind int

// Chart kinds in their fixed render order.
const (
	ChartHistogram ChartKind = iota
	ChartTrend
	ChartBoxplot
	ChartLinear
)

// ChartKinds lists every kind in render order.
var ChartKinds = []ChartKind{ChartHistogram, ChartTrend, ChartBoxplot, ChartLinear}

var chartNames = map[ChartKind]string{
	ChartHistogram: "Histogramme",
	ChartTrend:     "Courbe de tendance",
	ChartBoxplot:   "Boxplot",
	ChartLinear:    "Linéaire",
}

var chartAliases = map[string]ChartKind{
	"histogramme":        ChartHistogram,
	"histogram":          ChartHistogram,
	"hist":               ChartHistogram,
	"courbe de tendance": ChartTrend,
	"courbe":             ChartTrend,
	"trend":              ChartTrend,
	"boxplot":            ChartBoxplot,
	"box":                ChartBoxplot,
	"linéaire":           ChartLinear,
	"lineaire":           ChartLinear,
	"linear":             ChartLinear,
	"line":               ChartLinear,
}

// String returns the display name.
func (k ChartKind) String() string {
	if name, ok := chartNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ChartKind(%d)", int(k))
}

// ParseChartKind accepts a display name or a short alias.
func ParseChartKind(s string) (ChartKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if kind, ok := chartAliases[key]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("unknown chart kind %q", s)
}

// ParseChartKinds parses a comma-separated list of kinds.
func ParseChartKinds(s string) ([]ChartKind, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]ChartKind, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		kind, err := ParseChartKind(part)
		if err != nil {
			return nil, err
		}
		out = append(out, kind)
	}
	return out, nil
}

// ExportFormat is one of the downloadable document formats.
type ExportFormat string

// Supported export formats.
const (
	FormatPDF   ExportFormat = "pdf"
	FormatExcel ExportFormat = "excel"
	FormatWord  ExportFormat = "word"
)

// ExportFormats lists every format.
var ExportFormats = []ExportFormat{FormatPDF, FormatExcel, FormatWord}

// Extension returns the file extension without the dot.
func (f ExportFormat) Extension() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatExcel:
		return "xlsx"
	case FormatWord:
		return "docx"
	default:
		return ""
	}
}

// ParseExportFormat accepts a format name or its file extension.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "word", "docx":
		return FormatWord, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use pdf, excel or word)", s)
	}
}
