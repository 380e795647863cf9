package services

import (
	"errors"
	"testing"

	"undervalued-homes/models"
)

func newTestCurator() *Curator {
	return NewCurator(newTestLogger(), 25, 0.9)
}

func TestCurateThreeListingMarket(t *testing.T) {
	noSqFt := home("4 Gone Ln", "Fort Worth", 400000.0, 1000.0, 400.0)
	delete(noSqFt, "sqFt")

	raw := []models.RawListing{
		home("1 Low St", "Fort Worth", 100000.0, 1000.0, 100.0),
		home("2 Mid St", "Fort Worth", 200000.0, 1000.0, 200.0),
		home("3 High St", "Fort Worth", 300000.0, 1000.0, 300.0),
		noSqFt,
	}

	records := NewNormalizer(newTestLogger(), "https://www.redfin.com").Normalize(raw)
	if len(records) != 3 {
		t.Fatalf("expected 3 canonical records, got %d", len(records))
	}

	c, err := newTestCurator().Curate(records)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}

	wantDev := []float64{50, 0, 50}
	wantPos := []models.MarketPosition{models.PositionBelow, models.PositionBelow, models.PositionAbove}
	for i, a := range c.Annotated {
		if a.PercentDeviation != wantDev[i] {
			t.Errorf("record %d deviation: got %v, want %v", i, a.PercentDeviation, wantDev[i])
		}
		if a.MarketPosition != wantPos[i] {
			t.Errorf("record %d position: got %v, want %v", i, a.MarketPosition, wantPos[i])
		}
	}

	if c.Threshold != 150 {
		t.Errorf("Threshold: got %v, want 150", c.Threshold)
	}
	if len(c.Undervalued) != 1 || c.Undervalued[0].Address != "1 Low St" {
		t.Fatalf("Undervalued: got %+v", c.Undervalued)
	}
	if got := c.Undervalued[0]; got.AdjustedPrice != 90000 || got.AdjustedPricePerSqFt != 90 {
		t.Errorf("adjusted: got %v / %v, want 90000 / 90", got.AdjustedPrice, got.AdjustedPricePerSqFt)
	}
	if c.Region != "Fort Worth" {
		t.Errorf("Region: got %q, want %q", c.Region, "Fort Worth")
	}

	s := c.Summary
	if s.TotalListings != 3 || s.TotalHomes != 3 {
		t.Errorf("totals: got %d / %d, want 3 / 3", s.TotalListings, s.TotalHomes)
	}
	if s.MeanPricePerSqFt != 200 || s.MeanPrice != 200000 {
		t.Errorf("means: got %v / %v", s.MeanPricePerSqFt, s.MeanPrice)
	}
	if s.MinPricePerSqFt != 100 || s.MaxPricePerSqFt != 300 || s.MinPrice != 100000 || s.MaxPrice != 300000 {
		t.Errorf("extremes: got %+v", s)
	}
}

func TestCurateAllPricesMissing(t *testing.T) {
	raw := []models.RawListing{
		home("1 A St", "Austin", nil, 1000.0, 100.0),
		home("2 B St", "Austin", nil, 1000.0, 200.0),
	}
	records := NewNormalizer(newTestLogger(), "").Normalize(raw)

	_, err := newTestCurator().Curate(records)
	if !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("got %v, want ErrEmptyPopulation", err)
	}
}

func TestCurateNoPricePerSqFt(t *testing.T) {
	raw := []models.RawListing{home("1 A St", "Austin", 100000.0, 1000.0, nil)}
	records := NewNormalizer(newTestLogger(), "").Normalize(raw)

	if _, err := newTestCurator().Curate(records); !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("got %v, want ErrEmptyPopulation", err)
	}
	if _, err := newTestCurator().Curate(nil); !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("nil records: got %v, want ErrEmptyPopulation", err)
	}
}

func TestCurateZeroMean(t *testing.T) {
	records := []*models.Record{record("Austin", 0, 0), record("Austin", 0, 0)}
	if _, err := newTestCurator().Curate(records); !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("got %v, want ErrEmptyPopulation", err)
	}
}

func TestCurateOverflowingValues(t *testing.T) {
	raw := []models.RawListing{
		home("1 Huge St", "Austin", 500000.0, 1000.0, 1e308),
		home("2 Huge St", "Austin", 500000.0, 1000.0, 1e308),
	}
	records := NewNormalizer(newTestLogger(), "").Normalize(raw)

	_, err := newTestCurator().Curate(records)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("huge price per sqft: got %v, want ErrOutOfRange", err)
	}

	// Means of price per sqft stay finite; the price totals do not.
	records = []*models.Record{record("Austin", 100, 1e308), record("Austin", 100, 1e308)}
	records[0].SqFt, records[1].SqFt = 1000, 1000
	_, err = newTestCurator().Curate(records)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("huge prices: got %v, want ErrOutOfRange", err)
	}
}

func TestCurateSingleRecord(t *testing.T) {
	records := []*models.Record{record("Dallas", 150, 300000)}

	c, err := newTestCurator().Curate(records)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}
	if len(c.Undervalued) != 1 {
		t.Fatalf("expected the single record to be selected, got %d", len(c.Undervalued))
	}
	if c.Undervalued[0].PercentDeviation != 0 || c.Undervalued[0].MarketPosition != models.PositionBelow {
		t.Errorf("single record: got %v %v", c.Undervalued[0].PercentDeviation, c.Undervalued[0].MarketPosition)
	}
	if c.Region != "Dallas" {
		t.Errorf("Region: got %q, want Dallas", c.Region)
	}
}

func TestCurateThresholdCoversIncompleteRecords(t *testing.T) {
	incomplete := record("Elsewhere", 100, 0)
	incomplete.Missing |= models.FieldPrice

	records := []*models.Record{
		incomplete,
		record("Austin", 200, 200000),
		record("Austin", 300, 300000),
		record("Austin", 400, 400000),
	}

	c, err := newTestCurator().Curate(records)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}

	if c.Threshold != 175 {
		t.Errorf("Threshold: got %v, want 175", c.Threshold)
	}
	if len(c.Undervalued) != 1 || c.Undervalued[0].City != "Elsewhere" {
		t.Errorf("Undervalued: got %+v", c.Undervalued)
	}
	if len(c.Complete) != 3 {
		t.Errorf("Complete: got %d, want 3", len(c.Complete))
	}
	if c.Region != "Austin" {
		t.Errorf("Region: got %q, want Austin", c.Region)
	}
	if c.Summary.TotalListings != 4 || c.Summary.MinPricePerSqFt != 200 {
		t.Errorf("Summary: got %+v", c.Summary)
	}
}

func TestCompleteRecordsSortIsStable(t *testing.T) {
	a := record("A", 200, 1)
	b := record("B", 100, 1)
	c := record("C", 200, 1)
	d := record("D", 100, 1)
	skipped := record("E", 50, 1)
	skipped.Missing |= models.FieldZip

	got := CompleteRecords([]*models.Record{a, b, c, skipped, d})
	want := []string{"B", "D", "A", "C"}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i, r := range got {
		if r.City != want[i] {
			t.Errorf("position %d: got %s, want %s", i, r.City, want[i])
		}
	}
}

func TestUndervaluedSubsetSortedAscending(t *testing.T) {
	records := []*models.Record{
		record("A", 120, 1),
		record("A", 90, 1),
		record("A", 300, 1),
		record("A", 100, 1),
		record("A", 500, 1),
		record("A", 95, 1),
		record("A", 400, 1),
		record("A", 350, 1),
	}

	c, err := newTestCurator().Curate(records)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}
	if len(c.Undervalued) == 0 {
		t.Fatal("expected a non-empty subset")
	}
	for i := 1; i < len(c.Undervalued); i++ {
		if c.Undervalued[i-1].PricePerSqFt > c.Undervalued[i].PricePerSqFt {
			t.Errorf("subset not ascending at %d: %v > %v", i,
				c.Undervalued[i-1].PricePerSqFt, c.Undervalued[i].PricePerSqFt)
		}
		if c.Undervalued[i].PricePerSqFt > c.Threshold {
			t.Errorf("record above threshold: %v > %v", c.Undervalued[i].PricePerSqFt, c.Threshold)
		}
	}
}

func TestSelectAtOrBelowMonotonic(t *testing.T) {
	var annotated []*models.AnnotatedRecord
	for _, v := range []float64{5, 1, 4, 2, 3, 2} {
		annotated = append(annotated, &models.AnnotatedRecord{Record: models.Record{PricePerSqFt: v}})
	}

	prev := -1
	for p := 0.0; p <= 100; p += 5 {
		values := make([]float64, len(annotated))
		for i, a := range annotated {
			values[i] = a.PricePerSqFt
		}
		threshold, err := Percentile(values, p)
		if err != nil {
			t.Fatal(err)
		}
		n := len(SelectAtOrBelow(annotated, threshold))
		if n < prev {
			t.Errorf("p=%v selected %d, fewer than %d at a lower percentile", p, n, prev)
		}
		prev = n
	}
	if prev != len(annotated) {
		t.Errorf("p=100 should select everything, got %d", prev)
	}
}

func TestCurateWithoutCompleteRecords(t *testing.T) {
	r := record("Austin", 100, 100000)
	r.Missing |= models.FieldAddress

	_, err := newTestCurator().Curate([]*models.Record{r})
	if !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("got %v, want ErrEmptyPopulation", err)
	}
	complete := CompleteRecords([]*models.Record{r})
	if len(complete) != 0 {
		t.Errorf("incomplete record kept: %+v", complete)
	}
	if got := RegionOf(complete); got != UnknownRegion {
		t.Errorf("RegionOf: got %q, want %q", got, UnknownRegion)
	}
}

func TestSummarizeRoundsMeans(t *testing.T) {
	s, err := Summarize(5, []*models.Record{
		record("A", 100, 100000),
		record("A", 100, 100000),
		record("A", 101, 100001),
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.MeanPricePerSqFt != 100.33 {
		t.Errorf("MeanPricePerSqFt: got %v, want 100.33", s.MeanPricePerSqFt)
	}
	if s.MeanPrice != 100000.33 {
		t.Errorf("MeanPrice: got %v, want 100000.33", s.MeanPrice)
	}
	if s.TotalListings != 5 || s.TotalHomes != 3 {
		t.Errorf("totals: got %d / %d", s.TotalListings, s.TotalHomes)
	}
}
