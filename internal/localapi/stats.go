package localapi

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"
	gonumstat "gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/tuistat/internal/model"
)

// ErrNoValues is returned for an empty sequence.
var ErrNoValues = errors.New("aucune valeur fournie")

// OutlierFactor scales the IQR fences.
const OutlierFactor = 1.5

// Compute derives the full record for values, matching the service's wire shape.
func Compute(values []float64) (model.StatisticsRecord, error) {
	if len(values) == 0 {
		return model.StatisticsRecord{}, ErrNoValues
	}
	data := stats.Float64Data(values)

	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	mode, _ := stats.Mode(data)
	variance, _ := stats.PopulationVariance(data)
	stddev, _ := stats.StandardDeviationPopulation(data)
	minimum, _ := stats.Min(data)
	maximum, _ := stats.Max(data)
	q1, q3 := Quartiles(values)
	iqr := q3 - q1

	return model.StatisticsRecord{
		Mean:      nullable(mean),
		Median:    nullable(median),
		Mode:      model.NumberList(nonNil(mode)),
		Variance:  nullable(variance),
		StdDev:    nullable(stddev),
		Skewness:  nullable(gonumstat.Skew(values, nil)),
		Kurtosis:  nullable(gonumstat.ExKurtosis(values, nil)),
		Quartiles: &model.Quartiles{Q1: nullable(q1), Q3: nullable(q3)},
		IQR:       nullable(iqr),
		Outliers:  model.NumberList(Outliers(values, q1, q3)),
		Min:       nullable(minimum),
		Max:       nullable(maximum),
		Range:     nullable(maximum - minimum),
	}, nil
}

// Quartiles returns Q1 and Q3 using the median-of-halves method.
func Quartiles(values []float64) (float64, float64) {
	if len(values) == 1 {
		return values[0], values[0]
	}
	q, err := stats.Quartile(stats.Float64Data(values))
	if err != nil {
		return math.NaN(), math.NaN()
	}
	return q.Q1, q.Q3
}

// Outliers returns values outside the 1.5 IQR fences, in input order.
func Outliers(values []float64, q1, q3 float64) []float64 {
	iqr := q3 - q1
	low := q1 - OutlierFactor*iqr
	high := q3 + OutlierFactor*iqr
	out := []float64{}
	for _, v := range values {
		if v < low || v > high {
			out = append(out, v)
		}
	}
	return out
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return model.Float(v)
}

func nonNil(values []float64) []float64 {
	if values == nil {
		return []float64{}
	}
	return values
}
