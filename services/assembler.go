package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"undervalued-homes/models"
)

// Assembler packages curated records into a ReportDataset.
type Assembler struct {
	adjustment float64
	now        func() time.Time
}

// NewAssembler creates an Assembler stamping datasets with the price
// adjustment factor (0.9 = 90%) the records were annotated with.
func NewAssembler(adjustment float64) *Assembler {
	return &Assembler{adjustment: adjustment, now: time.Now}
}

// Assemble copies the subset in order, attaching each display address.
// Nothing is filtered or recomputed.
func (a *Assembler) Assemble(subset []*models.AnnotatedRecord, region string, summary *models.Summary) *models.ReportDataset {
	records := make([]*models.AnnotatedRecord, len(subset))
	for i, r := range subset {
		rec := *r
		rec.DisplayAddress = DisplayAddress(&rec)
		records[i] = &rec
	}

	return &models.ReportDataset{
		Region:      region,
		Records:     records,
		Summary:     summary,
		GeneratedAt: a.now(),

		PriceAdjustment: a.adjustment,
	}
}

// DisplayAddress renders the address line with the market narrative, e.g.
// "12 Elm St, Austin, TX 78701  . . . 12.5% below market value."
func DisplayAddress(r *models.AnnotatedRecord) string {
	return fmt.Sprintf("%s, %s, %s %s  . . . %s%% %s market value.",
		r.Address, r.City, r.State, r.Zip,
		percentText(r.PercentDeviation), r.MarketPosition)
}

// percentText prints the shortest exact form of an already rounded
// percentage, keeping one decimal for whole numbers: 50 -> "50.0",
// 12.5 -> "12.5", 12.35 -> "12.35".
func percentText(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
