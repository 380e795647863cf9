package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"undervalued-homes/models"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// PricesPerSqFt collects price per sqft from the records that carry one.
func PricesPerSqFt(records []*models.Record) []float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Has(models.FieldPricePerSqFt) {
			values = append(values, r.PricePerSqFt)
		}
	}
	return values
}

// MeanPricePerSqFt is the mean over records with a price per sqft; 0 if none.
func MeanPricePerSqFt(records []*models.Record) float64 {
	return Mean(PricesPerSqFt(records))
}

// DeviationPercent is |target - mean(population)| / mean(population) * 100,
// unrounded.
func DeviationPercent(target float64, population []float64) (float64, error) {
	if len(population) == 0 {
		return 0, fmt.Errorf("%w: deviation over an empty population", ErrEmptyPopulation)
	}
	return deviationFromMean(target, Mean(population))
}

func deviationFromMean(target, mean float64) (float64, error) {
	if !finite(mean) {
		return 0, fmt.Errorf("%w: mean price per sqft is %v", ErrOutOfRange, mean)
	}
	if mean == 0 {
		return 0, fmt.Errorf("%w: deviation from a zero mean is undefined", ErrEmptyPopulation)
	}
	dev := math.Abs(target-mean) / mean * 100
	if !finite(dev) {
		return 0, fmt.Errorf("%w: deviation of %v from %v", ErrOutOfRange, target, mean)
	}
	return dev, nil
}

// Percentile returns the p-th percentile (0..100) of values using linear
// interpolation between closest ranks.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: percentile of an empty population", ErrEmptyPopulation)
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, fmt.Errorf("percentile %v out of range [0, 100]", p)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}
	v := sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
	if !finite(v) {
		return 0, fmt.Errorf("%w: percentile %v between %v and %v", ErrOutOfRange, p, sorted[lo], sorted[hi])
	}
	return v, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// round2 rounds half away from zero to two decimal places. NaN and ±Inf
// are returned unchanged; decimal cannot represent them.
func round2(f float64) float64 {
	if !finite(f) {
		return f
	}
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// scale2 returns f * factor rounded to two decimal places. Non-finite
// operands fall back to plain float multiplication.
func scale2(f, factor float64) float64 {
	if !finite(f) || !finite(factor) {
		return f * factor
	}
	return decimal.NewFromFloat(f).Mul(decimal.NewFromFloat(factor)).Round(2).InexactFloat64()
}
