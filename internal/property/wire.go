package property

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The remote API is loosely typed: numeric fields arrive as numbers or
// quoted strings, and the public flag arrives as 0/1, "0"/"1" or a
// bool. The wire form below absorbs all of those and normalizes on
// decode; encoding always emits the canonical 0/1 integer flag.

type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = 0
		return nil
	}
	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*f = 0
			return nil
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("property: malformed numeric value %q", raw)
		}
		*f = looseFloat(value)
		return nil
	}
	var value float64
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return err
	}
	*f = looseFloat(value)
	return nil
}

type looseInt int64

func (i *looseInt) UnmarshalJSON(data []byte) error {
	var f looseFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*i = looseInt(f)
	return nil
}

type looseFlag bool

func (b *looseFlag) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch string(trimmed) {
	case "true":
		*b = true
		return nil
	case "false", "null":
		*b = false
		return nil
	}
	var i looseInt
	if err := i.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("property: malformed flag value %s", trimmed)
	}
	*b = i != 0
	return nil
}

type propertyWire struct {
	ID               looseInt   `json:"id"`
	OwnerID          looseInt   `json:"owner_id"`
	City             string     `json:"city"`
	Area             string     `json:"area"`
	Location         string     `json:"location"`
	LandmarkLocation string     `json:"landmark_location"`
	Type             string     `json:"type"`
	SizeMin          looseFloat `json:"size_min"`
	SizeMax          looseFloat `json:"size_max"`
	SizeUnit         string     `json:"size_unit"`
	PriceMin         looseFloat `json:"price_min"`
	PriceMax         looseFloat `json:"price_max"`
	Description      string     `json:"description"`
	Note             string     `json:"note"`
	Highlights       string     `json:"highlights"`
	Tags             string     `json:"tags"`
	IsPublic         looseFlag  `json:"is_public"`
	ContactName      string     `json:"contact_name"`
	ContactPhone     string     `json:"contact_phone"`
	CreatedAt        string     `json:"created_at"`
	UpdatedAt        string     `json:"updated_at"`
}

// UnmarshalJSON decodes the loose wire form into normalized field types.
func (p *Property) UnmarshalJSON(data []byte) error {
	var wire propertyWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Property{
		ID:               int64(wire.ID),
		OwnerID:          int64(wire.OwnerID),
		City:             wire.City,
		Area:             wire.Area,
		Location:         wire.Location,
		LandmarkLocation: wire.LandmarkLocation,
		Type:             wire.Type,
		SizeMin:          float64(wire.SizeMin),
		SizeMax:          float64(wire.SizeMax),
		SizeUnit:         wire.SizeUnit,
		PriceMin:         float64(wire.PriceMin),
		PriceMax:         float64(wire.PriceMax),
		Description:      wire.Description,
		Note:             wire.Note,
		Highlights:       wire.Highlights,
		Tags:             wire.Tags,
		IsPublic:         bool(wire.IsPublic),
		ContactName:      wire.ContactName,
		ContactPhone:     wire.ContactPhone,
		CreatedAt:        wire.CreatedAt,
		UpdatedAt:        wire.UpdatedAt,
	}
	return nil
}

// MarshalJSON encodes the canonical wire form, with the public flag as 0/1.
func (p Property) MarshalJSON() ([]byte, error) {
	type encoded struct {
		ID               int64   `json:"id"`
		OwnerID          int64   `json:"owner_id"`
		City             string  `json:"city"`
		Area             string  `json:"area"`
		Location         string  `json:"location"`
		LandmarkLocation string  `json:"landmark_location"`
		Type             string  `json:"type"`
		SizeMin          float64 `json:"size_min"`
		SizeMax          float64 `json:"size_max"`
		SizeUnit         string  `json:"size_unit"`
		PriceMin         float64 `json:"price_min"`
		PriceMax         float64 `json:"price_max"`
		Description      string  `json:"description"`
		Note             string  `json:"note"`
		Highlights       string  `json:"highlights"`
		Tags             string  `json:"tags"`
		IsPublic         int     `json:"is_public"`
		ContactName      string  `json:"contact_name"`
		ContactPhone     string  `json:"contact_phone"`
		CreatedAt        string  `json:"created_at"`
		UpdatedAt        string  `json:"updated_at"`
	}
	flag := 0
	if p.IsPublic {
		flag = 1
	}
	return json.Marshal(encoded{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		City:             p.City,
		Area:             p.Area,
		Location:         p.Location,
		LandmarkLocation: p.LandmarkLocation,
		Type:             p.Type,
		SizeMin:          p.SizeMin,
		SizeMax:          p.SizeMax,
		SizeUnit:         p.SizeUnit,
		PriceMin:         p.PriceMin,
		PriceMax:         p.PriceMax,
		Description:      p.Description,
		Note:             p.Note,
		Highlights:       p.Highlights,
		Tags:             p.Tags,
		IsPublic:         flag,
		ContactName:      p.ContactName,
		ContactPhone:     p.ContactPhone,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	})
}
