package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"undervalued-homes/models"
)

var csvHeader = []string{
	"STATUS", "ADDRESS", "PRICE", "ADJUSTED PRICE", "SQUARE FEET",
	"$/SQUARE FEET", "ADJUSTED $/SQUARE FEET", "BEDS", "BATHS", "URL",
}

// CSVWriter writes report table rows as CSV.
type CSVWriter struct {
	writer *csv.Writer
}

// NewCSVWriter wraps w and writes the header row.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	return &CSVWriter{writer: cw}, nil
}

// WriteRows appends rows in order and flushes.
func (c *CSVWriter) WriteRows(rows []models.TableRow) error {
	for _, r := range rows {
		row := []string{
			r.Status,
			r.Address,
			formatFloat(r.Price),
			formatFloat(r.AdjustedPrice),
			formatFloat(r.SqFt),
			formatFloat(r.PricePerSqFt),
			formatFloat(r.AdjustedPricePerSqFt),
			formatFloat(r.Beds),
			formatFloat(r.Baths),
			r.URL,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// EncodeCSV renders rows, header included, into a byte slice.
func EncodeCSV(rows []models.TableRow) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf)
	if err != nil {
		return nil, err
	}
	if err := w.WriteRows(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
