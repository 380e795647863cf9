package services

import (
	"fmt"
	"sort"

	"undervalued-homes/models"
	"undervalued-homes/utils"
)

// UnknownRegion names the region when no complete record exists.
const UnknownRegion = "Unknown"

// Curation is the outcome of ranking one set of canonical records.
type Curation struct {
	// Complete holds records eligible for ranking, ascending by price per sqft.
	Complete []*models.Record
	// Annotated is every record with a price per sqft, in input order.
	Annotated []*models.AnnotatedRecord
	// Undervalued is the lower-quartile subset of Annotated, ascending by
	// price per sqft.
	Undervalued []*models.AnnotatedRecord

	Threshold float64
	Region    string
	Summary   *models.Summary
}

// Curator ranks records by price per square foot and selects the cheapest
// quartile.
type Curator struct {
	logger     *utils.Logger
	percentile float64
	adjustment float64
}

// NewCurator creates a Curator selecting records at or below the given
// percentile, with adjusted prices scaled by adjustment (0.9 = 90%).
func NewCurator(logger *utils.Logger, percentile, adjustment float64) *Curator {
	return &Curator{logger: logger, percentile: percentile, adjustment: adjustment}
}

// Curate annotates, filters, sorts and cuts records. It fails with
// ErrEmptyPopulation when there is nothing to rank.
func (c *Curator) Curate(records []*models.Record) (*Curation, error) {
	annotated, err := c.Annotate(records)
	if err != nil {
		return nil, err
	}

	complete := CompleteRecords(records)

	region := RegionOf(complete)

	summary, err := Summarize(len(records), complete)
	if err != nil {
		return nil, err
	}

	threshold, undervalued, err := c.lowerQuartile(annotated)
	if err != nil {
		return nil, err
	}

	c.logger.Info("[curator] %d records, %d complete, %d at or below p%.0f ($%.2f/sqft) in %s",
		len(records), len(complete), len(undervalued), c.percentile, threshold, region)

	return &Curation{
		Complete:    complete,
		Annotated:   annotated,
		Undervalued: undervalued,
		Threshold:   threshold,
		Region:      region,
		Summary:     summary,
	}, nil
}

// Annotate computes deviation, market position and adjusted prices for
// every record with a price per sqft. The mean is taken over that same
// population.
func (c *Curator) Annotate(records []*models.Record) ([]*models.AnnotatedRecord, error) {
	population := PricesPerSqFt(records)
	if len(population) == 0 {
		return nil, fmt.Errorf("%w: no listing carries a price per sqft", ErrEmptyPopulation)
	}
	mean := Mean(population)

	out := make([]*models.AnnotatedRecord, 0, len(population))
	for _, r := range records {
		if !r.Has(models.FieldPricePerSqFt) {
			continue
		}
		dev, err := deviationFromMean(r.PricePerSqFt, mean)
		if err != nil {
			return nil, err
		}

		position := models.PositionBelow
		if r.PricePerSqFt > mean {
			position = models.PositionAbove
		}

		adjPrice, adjPPSF := scale2(r.Price, c.adjustment), scale2(r.PricePerSqFt, c.adjustment)
		if !finite(adjPrice) || !finite(adjPPSF) {
			return nil, fmt.Errorf("%w: adjusted price of %q", ErrOutOfRange, r.Address)
		}

		out = append(out, &models.AnnotatedRecord{
			Record:               *r,
			PercentDeviation:     round2(dev),
			MarketPosition:       position,
			AdjustedPrice:        adjPrice,
			AdjustedPricePerSqFt: adjPPSF,
		})
	}

	c.logger.Debug("[curator] Mean price per sqft %.2f over %d records", mean, len(population))
	return out, nil
}

func (c *Curator) lowerQuartile(annotated []*models.AnnotatedRecord) (float64, []*models.AnnotatedRecord, error) {
	values := make([]float64, len(annotated))
	for i, a := range annotated {
		values[i] = a.PricePerSqFt
	}

	threshold, err := Percentile(values, c.percentile)
	if err != nil {
		return 0, nil, err
	}

	selected := SelectAtOrBelow(annotated, threshold)
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].PricePerSqFt < selected[j].PricePerSqFt
	})
	return threshold, selected, nil
}

// RegionOf names the region after the cheapest complete record, or
// UnknownRegion when there is none. complete must already be sorted.
func RegionOf(complete []*models.Record) string {
	if len(complete) == 0 {
		return UnknownRegion
	}
	return complete[0].City
}

// SelectAtOrBelow keeps records whose price per sqft is <= threshold,
// preserving order.
func SelectAtOrBelow(annotated []*models.AnnotatedRecord, threshold float64) []*models.AnnotatedRecord {
	var out []*models.AnnotatedRecord
	for _, a := range annotated {
		if a.PricePerSqFt <= threshold {
			out = append(out, a)
		}
	}
	return out
}

// CompleteRecords returns the complete records sorted ascending by price per
// sqft. Equal prices keep their input order.
func CompleteRecords(records []*models.Record) []*models.Record {
	var complete []*models.Record
	for _, r := range records {
		if r.Complete() {
			complete = append(complete, r)
		}
	}
	sort.SliceStable(complete, func(i, j int) bool {
		return complete[i].PricePerSqFt < complete[j].PricePerSqFt
	})
	return complete
}

// Summarize computes region statistics over complete records. totalListings
// is the size of the whole canonical collection.
func Summarize(totalListings int, complete []*models.Record) (*models.Summary, error) {
	if len(complete) == 0 {
		return nil, fmt.Errorf("%w: no complete listings to summarize", ErrEmptyPopulation)
	}

	s := &models.Summary{
		TotalListings:   totalListings,
		TotalHomes:      len(complete),
		MaxPricePerSqFt: complete[0].PricePerSqFt,
		MinPricePerSqFt: complete[0].PricePerSqFt,
		MaxPrice:        complete[0].Price,
		MinPrice:        complete[0].Price,
	}

	var totalPPSF, totalPrice float64
	for _, r := range complete {
		totalPPSF += r.PricePerSqFt
		totalPrice += r.Price
		if r.PricePerSqFt > s.MaxPricePerSqFt {
			s.MaxPricePerSqFt = r.PricePerSqFt
		}
		if r.PricePerSqFt < s.MinPricePerSqFt {
			s.MinPricePerSqFt = r.PricePerSqFt
		}
		if r.Price > s.MaxPrice {
			s.MaxPrice = r.Price
		}
		if r.Price < s.MinPrice {
			s.MinPrice = r.Price
		}
	}

	if !finite(totalPPSF) || !finite(totalPrice) {
		return nil, fmt.Errorf("%w: totals over %d complete listings overflow", ErrOutOfRange, len(complete))
	}

	s.MeanPricePerSqFt = round2(totalPPSF / float64(len(complete)))
	s.MeanPrice = round2(totalPrice / float64(len(complete)))
	return s, nil
}
