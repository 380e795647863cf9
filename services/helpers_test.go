package services

import (
	"time"

	"undervalued-homes/models"
	"undervalued-homes/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerWithLevel("error") }

func valueOf(v any) map[string]any { return map[string]any{"value": v} }

// home builds a raw listing carrying all four required structures.
func home(street, city string, price, sqft, ppsf any) models.RawListing {
	return models.RawListing{
		"mlsStatus":    "Active",
		"beds":         3.0,
		"baths":        2.0,
		"city":         city,
		"state":        "TX",
		"zip":          "76104",
		"url":          "/TX/" + city + "/home/1",
		"price":        valueOf(price),
		"sqFt":         valueOf(sqft),
		"pricePerSqFt": valueOf(ppsf),
		"streetLine":   valueOf(street),
	}
}

// record builds a complete canonical record.
func record(city string, ppsf, price float64) *models.Record {
	return &models.Record{
		Status:       "Active",
		City:         city,
		State:        "TX",
		Zip:          "76104",
		Price:        price,
		PricePerSqFt: ppsf,
		SqFt:         price / ppsf,
		Address:      "1 Main St",
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}
