package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"undervalued-homes/models"
	"undervalued-homes/utils"
)

const (
	defaultText   = "NaN"
	defaultNumber = "0"
)

// numberRegexp captures the first numeric value in strings like "$1,200.50"
var numberRegexp = regexp.MustCompile(`-?[\d,]+(?:\.\d+)?`)

// requiredStructures must each be an object carrying a "value" key for a
// listing to be normalized at all.
var requiredStructures = []string{"price", "sqFt", "streetLine", "pricePerSqFt"}

// Normalizer maps raw search results onto canonical Records.
type Normalizer struct {
	logger  *utils.Logger
	baseURL string
}

// NewNormalizer creates a Normalizer that prefixes listing paths with baseURL.
func NewNormalizer(logger *utils.Logger, baseURL string) *Normalizer {
	return &Normalizer{logger: logger, baseURL: strings.TrimRight(baseURL, "/")}
}

// Normalize converts raw listings in order. Listings lacking any of the
// price, sqFt, streetLine or pricePerSqFt value structures are dropped;
// missing values inside retained listings are replaced by defaults.
func (n *Normalizer) Normalize(raw []models.RawListing) []*models.Record {
	result := make([]*models.Record, 0, len(raw))

	for i, r := range raw {
		if missing := missingStructure(r); missing != "" {
			n.logger.Debug("[normalizer] Dropping listing %d without %s.value", i, missing)
			continue
		}
		result = append(result, n.record(r))
	}

	n.logger.Info("[normalizer] Normalized %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

func (n *Normalizer) record(r models.RawListing) *models.Record {
	rec := &models.Record{}

	rec.Status = text(r["mlsStatus"], defaultText, models.FieldStatus, &rec.Missing)
	rec.Beds = number(r["beds"], models.FieldBeds, &rec.Missing)
	rec.Baths = number(r["baths"], models.FieldBaths, &rec.Missing)
	rec.City = text(r["city"], defaultNumber, models.FieldCity, &rec.Missing)
	rec.State = text(r["state"], defaultText, models.FieldState, &rec.Missing)
	rec.Zip = text(r["zip"], defaultNumber, models.FieldZip, &rec.Missing)
	rec.Price = number(nestedValue(r, "price"), models.FieldPrice, &rec.Missing)
	rec.PricePerSqFt = number(nestedValue(r, "pricePerSqFt"), models.FieldPricePerSqFt, &rec.Missing)
	rec.SqFt = number(nestedValue(r, "sqFt"), models.FieldSqFt, &rec.Missing)
	rec.Address = text(nestedValue(r, "streetLine"), defaultText, models.FieldAddress, &rec.Missing)

	path, _ := r["url"].(string)
	rec.ListingURL = n.baseURL + path

	return rec
}

// missingStructure returns the first required key whose value object is
// absent, or "" when all are present.
func missingStructure(r models.RawListing) string {
	for _, key := range requiredStructures {
		obj, ok := r[key].(map[string]any)
		if !ok {
			return key
		}
		if _, ok := obj["value"]; !ok {
			return key
		}
	}
	return ""
}

func nestedValue(r models.RawListing, key string) any {
	obj, _ := r[key].(map[string]any)
	return obj["value"]
}

// text renders v as a string, flagging f and returning fallback when v is
// absent, null or blank.
func text(v any, fallback string, f models.Field, missing *models.Field) string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	}
	if s == "" {
		*missing |= f
		return fallback
	}
	return s
}

// number reads v as a float, flagging f and returning 0 when v is absent,
// null or not numeric.
func number(v any, f models.Field, missing *models.Field) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case json.Number:
		if n, err := t.Float64(); err == nil {
			return n
		}
	case string:
		if n, ok := parseNumber(t); ok {
			return n
		}
	}
	*missing |= f
	return 0
}

func parseNumber(raw string) (float64, bool) {
	match := numberRegexp.FindString(raw)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
