package models

// SearchQuery carries the caller's search parameters. Values are opaque and
// forwarded verbatim to the listings search endpoint.
type SearchQuery struct {
	NumHomes     string
	PropertyType string
	RegionID     string
}
