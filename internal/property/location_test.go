package property

import "testing"

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name        string
		location    string
		expectOK    bool
		expectedLat float64
		expectedLng float64
	}{
		{name: "plain-pair", location: "29.3909,76.9635", expectOK: true, expectedLat: 29.3909, expectedLng: 76.9635},
		{name: "spaced-pair", location: " 29.39 , 76.96 ", expectOK: true, expectedLat: 29.39, expectedLng: 76.96},
		{name: "negative-pair", location: "-33.86,151.21", expectOK: true, expectedLat: -33.86, expectedLng: 151.21},
		{name: "integer-pair", location: "29,77", expectOK: true, expectedLat: 29, expectedLng: 77},
		{name: "free-text", location: "Near the old bus stand", expectOK: false},
		{name: "free-text-with-comma", location: "Sector 12, Model Town", expectOK: false},
		{name: "latitude-out-of-range", location: "91.0,76.9", expectOK: false},
		{name: "longitude-out-of-range", location: "29.0,181.0", expectOK: false},
		{name: "empty", location: "", expectOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lng, ok := ParseCoordinates(tt.location)
			if ok != tt.expectOK {
				t.Fatalf("ok mismatch for %q: want %v got %v", tt.location, tt.expectOK, ok)
			}
			if !tt.expectOK {
				return
			}
			if lat != tt.expectedLat || lng != tt.expectedLng {
				t.Fatalf("coordinates mismatch: got %v,%v want %v,%v", lat, lng, tt.expectedLat, tt.expectedLng)
			}
			if !IsCoordinates(tt.location) {
				t.Fatalf("IsCoordinates should agree with ParseCoordinates for %q", tt.location)
			}
		})
	}
}

func TestFormatCoordinatesRoundTrip(t *testing.T) {
	formatted := FormatCoordinates(29.3909, 76.9635)
	lat, lng, ok := ParseCoordinates(formatted)
	if !ok {
		t.Fatalf("formatted pair %q should parse", formatted)
	}
	if lat != 29.3909 || lng != 76.9635 {
		t.Fatalf("round trip mismatch: got %v,%v", lat, lng)
	}
}

func TestSplitAndJoinList(t *testing.T) {
	items := SplitList(" corner plot , gated,, near park ")
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %#v", items)
	}
	if items[0] != "corner plot" || items[1] != "gated" || items[2] != "near park" {
		t.Fatalf("unexpected items: %#v", items)
	}
	if joined := JoinList(items); joined != "corner plot,gated,near park" {
		t.Fatalf("unexpected joined form: %q", joined)
	}
	if SplitList("  ") != nil {
		t.Fatalf("blank input should split to nil")
	}
}
