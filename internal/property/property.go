package property

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPropertyID indicates a non-positive property identifier.
	ErrInvalidPropertyID = errors.New("property: invalid property id")
	// ErrInvalidOwnerID indicates a non-positive owner identifier.
	ErrInvalidOwnerID = errors.New("property: invalid owner id")
)

// PropertyID represents a validated, server-assigned property identifier.
type PropertyID int64

// NewPropertyID validates the raw value and returns a PropertyID.
func NewPropertyID(value int64) (PropertyID, error) {
	if value <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPropertyID, value)
	}
	return PropertyID(value), nil
}

// Int64 exposes the raw identifier value.
func (id PropertyID) Int64() int64 {
	return int64(id)
}

// OwnerID represents a validated dealer (owner) identifier.
type OwnerID int64

// NewOwnerID validates the raw value and returns an OwnerID.
func NewOwnerID(value int64) (OwnerID, error) {
	if value <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOwnerID, value)
	}
	return OwnerID(value), nil
}

// Int64 exposes the raw identifier value.
func (id OwnerID) Int64() int64 {
	return int64(id)
}

// Property models one listing record as served by the remote API.
//
// Highlights and Tags are comma-joined lists. Location and
// LandmarkLocation hold either free text or a strict "<lat>,<lng>"
// pair; the two forms are told apart by ParseCoordinates, not by a
// separate field. IsPublic travels over the wire as 0/1.
type Property struct {
	ID               int64
	OwnerID          int64
	City             string
	Area             string
	Location         string
	LandmarkLocation string
	Type             string
	SizeMin          float64
	SizeMax          float64
	SizeUnit         string
	PriceMin         float64
	PriceMax         float64
	Description      string
	Note             string
	Highlights       string
	Tags             string
	IsPublic         bool
	ContactName      string
	ContactPhone     string
	CreatedAt        string
	UpdatedAt        string
}

// PublicView returns a copy of the record with dealer-private fields
// cleared, suitable for the unauthenticated deep-link rendering.
func (p Property) PublicView() Property {
	view := p
	view.Note = ""
	return view
}

// TagList returns the record's tags as a trimmed slice.
func (p Property) TagList() []string {
	return SplitList(p.Tags)
}

// HighlightList returns the record's highlights as a trimmed slice.
func (p Property) HighlightList() []string {
	return SplitList(p.Highlights)
}

// SplitList splits a comma-joined field into trimmed, non-empty items.
func SplitList(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		items = append(items, trimmed)
	}
	return items
}

// JoinList joins items into the comma-joined wire form, dropping empties.
func JoinList(items []string) string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, ",")
}
