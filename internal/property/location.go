package property

import (
	"regexp"
	"strconv"
	"strings"
)

// coordinatePattern recognizes the strict "<lat>,<lng>" form. Anything
// that does not match is treated as free-text location.
var coordinatePattern = regexp.MustCompile(`^\s*(-?\d{1,3}(?:\.\d+)?)\s*,\s*(-?\d{1,3}(?:\.\d+)?)\s*$`)

// IsCoordinates reports whether the location string is a lat,lng pair.
func IsCoordinates(location string) bool {
	return coordinatePattern.MatchString(location)
}

// ParseCoordinates extracts the latitude/longitude pair from a
// coordinate-form location string. ok is false for free-text locations
// and for pairs outside the valid geographic range.
func ParseCoordinates(location string) (lat, lng float64, ok bool) {
	match := coordinatePattern.FindStringSubmatch(location)
	if match == nil {
		return 0, 0, false
	}
	lat, latErr := strconv.ParseFloat(match[1], 64)
	lng, lngErr := strconv.ParseFloat(match[2], 64)
	if latErr != nil || lngErr != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

// FormatCoordinates renders a lat/lng pair in the canonical wire form.
func FormatCoordinates(lat, lng float64) string {
	return strings.Join([]string{
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lng, 'f', -1, 64),
	}, ",")
}
