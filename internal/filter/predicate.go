// Package filter holds the one predicate implementation shared by every
// caller that needs listing matching: the server applies the same
// semantics remotely, and the client re-applies them here whenever a
// predicate has to be combined with already-fetched search results.
package filter

import (
	"strings"

	"github.com/uptwnp/deal-network-sub001/internal/property"
)

// Predicate is a sparse constraint set over listing records. A nil
// pointer or empty string means the field imposes no constraint; a
// predicate with no fields set matches every record.
type Predicate struct {
	City          string   `json:"city,omitempty"`
	Area          string   `json:"area,omitempty"`
	Type          string   `json:"type,omitempty"`
	MinPrice      *float64 `json:"min_price,omitempty"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
	MinSize       *float64 `json:"min_size,omitempty"`
	MaxSize       *float64 `json:"max_size,omitempty"`
	Description   string   `json:"description,omitempty"`
	Note          string   `json:"note,omitempty"`
	Location      string   `json:"location,omitempty"`
	TagTerm       string   `json:"tag,omitempty"`
	HighlightTerm string   `json:"highlight,omitempty"`
}

// IsZero reports whether no constraint is present.
func (p Predicate) IsZero() bool {
	return p == Predicate{}
}

// Matches evaluates the predicate against one record. Every present
// field must pass: enumerated fields match exactly (case-insensitive),
// text fields match by case-insensitive substring, numeric bounds are
// inclusive. No side effects.
func (p Predicate) Matches(record property.Property) bool {
	if !matchExact(p.City, record.City) {
		return false
	}
	if !matchExact(p.Area, record.Area) {
		return false
	}
	if !matchExact(p.Type, record.Type) {
		return false
	}
	if p.MinPrice != nil && record.PriceMin < *p.MinPrice {
		return false
	}
	if p.MaxPrice != nil && record.PriceMax > *p.MaxPrice {
		return false
	}
	if p.MinSize != nil && record.SizeMin < *p.MinSize {
		return false
	}
	if p.MaxSize != nil && record.SizeMax > *p.MaxSize {
		return false
	}
	if !matchSubstring(p.Description, record.Description) {
		return false
	}
	if !matchSubstring(p.Note, record.Note) {
		return false
	}
	if !matchSubstring(p.Location, record.Location) {
		return false
	}
	if !matchSubstring(p.TagTerm, record.Tags) {
		return false
	}
	if !matchSubstring(p.HighlightTerm, record.Highlights) {
		return false
	}
	return true
}

// Apply returns the records satisfying the predicate, preserving order.
func (p Predicate) Apply(records []property.Property) []property.Property {
	if p.IsZero() {
		return records
	}
	matched := make([]property.Property, 0, len(records))
	for _, record := range records {
		if p.Matches(record) {
			matched = append(matched, record)
		}
	}
	return matched
}

func matchExact(want, have string) bool {
	if strings.TrimSpace(want) == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(have))
}

func matchSubstring(term, text string) bool {
	if strings.TrimSpace(term) == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(strings.TrimSpace(term)))
}
