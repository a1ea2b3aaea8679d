// Package share composes the outbound deep links the application hands
// to the platform: WhatsApp chat links, Google Maps locations and the
// native share-sheet payload.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/uptwnp/deal-network-sub001/internal/property"
)

const (
	whatsAppBase = "https://wa.me/"
	mapsBase     = "https://www.google.com/maps"

	// Ten-digit numbers are treated as Indian mobiles.
	defaultCountryCode = "91"
)

var (
	ErrMissingPhone       = errors.New("share: phone number required")
	ErrInvalidPhone       = errors.New("share: phone number must contain at least 10 digits")
	ErrLocationNotMapLink = errors.New("share: location is not a coordinate pair")
)

// NormalizePhone strips formatting from a phone number and prefixes the
// default country code when the number is a bare ten-digit mobile.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	normalized := digits.String()
	if normalized == "" {
		return "", ErrMissingPhone
	}
	if len(normalized) < 10 {
		return "", ErrInvalidPhone
	}
	if len(normalized) == 10 {
		normalized = defaultCountryCode + normalized
	}
	return normalized, nil
}

// WhatsAppLink builds a wa.me chat link carrying the prefilled text.
func WhatsAppLink(phone, text string) (string, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	link := whatsAppBase + normalized
	if text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link, nil
}

// MapsLink builds a Google Maps link for a coordinate-form location.
func MapsLink(location string) (string, error) {
	latitude, longitude, ok := property.ParseCoordinates(location)
	if !ok {
		return "", ErrLocationNotMapLink
	}
	return fmt.Sprintf("%s?q=%s", mapsBase, url.QueryEscape(property.FormatCoordinates(latitude, longitude))), nil
}

// Payload is what the native share sheet receives.
type Payload struct {
	Title string
	Text  string
	URL   string
}

// PropertyText renders the share-text template for a record.
func PropertyText(record property.Property) string {
	var lines []string
	header := strings.TrimSpace(record.Type)
	if header == "" {
		header = "Property"
	}
	if record.City != "" {
		header += " in " + record.City
	}
	lines = append(lines, header)

	if record.Area != "" {
		lines = append(lines, "Area: "+record.Area)
	}
	if size := formatRange(record.SizeMin, record.SizeMax, record.SizeUnit); size != "" {
		lines = append(lines, "Size: "+size)
	}
	if price := formatRange(record.PriceMin, record.PriceMax, ""); price != "" {
		lines = append(lines, "Price: "+price)
	}
	if record.Description != "" {
		lines = append(lines, record.Description)
	}
	return strings.Join(lines, "\n")
}

// PropertyPayload builds the share-sheet payload for a record and its
// deep-link URL.
func PropertyPayload(record property.Property, deepLink string) Payload {
	title := strings.TrimSpace(record.Type)
	if title == "" {
		title = "Property"
	}
	if record.City != "" {
		title += " in " + record.City
	}
	return Payload{
		Title: title,
		Text:  PropertyText(record),
		URL:   deepLink,
	}
}

// PropertyLink builds the inbound deep-link URL for a record.
func PropertyLink(baseURL string, id property.PropertyID) string {
	return fmt.Sprintf("%s/p/%d", strings.TrimRight(baseURL, "/"), id.Int64())
}

func formatRange(minimum, maximum float64, unit string) string {
	suffix := ""
	if unit != "" {
		suffix = " " + unit
	}
	switch {
	case minimum > 0 && maximum > 0 && minimum != maximum:
		return fmt.Sprintf("%s-%s%s", trimNumber(minimum), trimNumber(maximum), suffix)
	case maximum > 0:
		return trimNumber(maximum) + suffix
	case minimum > 0:
		return trimNumber(minimum) + suffix
	default:
		return ""
	}
}

func trimNumber(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}
