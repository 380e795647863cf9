package models

import "time"

// RawListing is one home object from the search payload, decoded without a
// schema. Nested keys may be missing entirely and must be checked before use.
type RawListing map[string]any

// Field identifies a Record field for missing-value tracking.
type Field uint16

const (
	FieldStatus Field = 1 << iota
	FieldBeds
	FieldBaths
	FieldCity
	FieldState
	FieldZip
	FieldPrice
	FieldPricePerSqFt
	FieldSqFt
	FieldAddress
)

// requiredForRanking lists the fields a record must carry to be ranked.
const requiredForRanking = FieldPrice | FieldSqFt | FieldPricePerSqFt | FieldAddress | FieldCity | FieldZip

// Record is the canonical, flat form of a listing. Every field holds a value;
// when the source had none, the default is stored and the field is flagged
// in Missing.
type Record struct {
	Status       string  `json:"status"`
	Beds         float64 `json:"beds"`
	Baths        float64 `json:"baths"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Zip          string  `json:"zip"`
	Price        float64 `json:"price"`
	PricePerSqFt float64 `json:"price_per_sqft"`
	SqFt         float64 `json:"sqft"`
	Address      string  `json:"address"`
	ListingURL   string  `json:"listing_url"`

	Missing Field `json:"-"`
}

// Has reports whether the source supplied a value for f.
func (r *Record) Has(f Field) bool {
	return r.Missing&f == 0
}

// Complete reports whether the record is eligible for ranking and statistics.
func (r *Record) Complete() bool {
	return r.Missing&requiredForRanking == 0
}

// MarketPosition says on which side of the mean price per sqft a record sits.
type MarketPosition string

const (
	PositionAbove MarketPosition = "above"
	PositionBelow MarketPosition = "below"
)

// AnnotatedRecord is a Record extended with its deviation from the market.
type AnnotatedRecord struct {
	Record

	PercentDeviation     float64        `json:"percent_deviation"`
	MarketPosition       MarketPosition `json:"market_position"`
	AdjustedPrice        float64        `json:"adjusted_price"`
	AdjustedPricePerSqFt float64        `json:"adjusted_price_per_sqft"`
	DisplayAddress       string         `json:"display_address"`
}

// Summary holds region-wide figures over the complete records.
type Summary struct {
	TotalListings    int     `json:"total_listings"`
	TotalHomes       int     `json:"total_homes"`
	MaxPricePerSqFt  float64 `json:"max_price_per_sqft"`
	MinPricePerSqFt  float64 `json:"min_price_per_sqft"`
	MaxPrice         float64 `json:"max_price"`
	MinPrice         float64 `json:"min_price"`
	MeanPricePerSqFt float64 `json:"mean_price_per_sqft"`
	MeanPrice        float64 `json:"mean_price"`
}

// ReportDataset is everything the renderers need for one report.
type ReportDataset struct {
	Region      string             `json:"region"`
	Records     []*AnnotatedRecord `json:"records"`
	Summary     *Summary           `json:"summary"`
	GeneratedAt time.Time          `json:"generated_at"`

	// PriceAdjustment is the factor applied to adjusted prices (0.9 = 90%).
	PriceAdjustment float64 `json:"price_adjustment"`
}

// TableRow is the tabular form of an undervalued record returned to callers.
// Keys match the column labels used by the report table.
type TableRow struct {
	Status               string  `json:"STATUS"`
	Address              string  `json:"ADDRESS"`
	Price                float64 `json:"PRICE"`
	AdjustedPrice        float64 `json:"ADJUSTED PRICE"`
	SqFt                 float64 `json:"SQUARE FEET"`
	PricePerSqFt         float64 `json:"$/SQUARE FEET"`
	AdjustedPricePerSqFt float64 `json:"ADJUSTED $/SQUARE FEET"`
	Beds                 float64 `json:"BEDS"`
	Baths                float64 `json:"BATHS"`
	URL                  string  `json:"URL"`
}

// Rows converts the dataset records to table rows, preserving order.
func (d *ReportDataset) Rows() []TableRow {
	rows := make([]TableRow, 0, len(d.Records))
	for _, r := range d.Records {
		rows = append(rows, TableRow{
			Status:               r.Status,
			Address:              r.DisplayAddress,
			Price:                r.Price,
			AdjustedPrice:        r.AdjustedPrice,
			SqFt:                 r.SqFt,
			PricePerSqFt:         r.PricePerSqFt,
			AdjustedPricePerSqFt: r.AdjustedPricePerSqFt,
			Beds:                 r.Beds,
			Baths:                r.Baths,
			URL:                  r.ListingURL,
		})
	}
	return rows
}

// Artifacts holds the public links of the files generated for one report.
type Artifacts struct {
	Document string `json:"document_path"`
	HTML     string `json:"html_path"`
	PDF      string `json:"pdf_path"`
	CSV      string `json:"csv_path"`
}

// ReportResult is what one successful report request produces.
type ReportResult struct {
	ID        string
	Dataset   *ReportDataset
	Artifacts Artifacts
}
