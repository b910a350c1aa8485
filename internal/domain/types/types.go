// Package types contains common types used across the application.
package types

// Entry represents a standings row.
type Entry struct {
	Rank       int     `json:"rank"`
	ItemID     string  `json:"item_id"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	MatchCount int     `json:"match_count"`
}

// Match is the pair of item IDs the judge should compare next.
type Match struct {
	ItemA string `json:"item_a"`
	ItemB string `json:"item_b"`
}
