package geo

import (
	"math"
	"testing"
)

func TestDecodePolyline(t *testing.T) {
	// Reference example from the polyline algorithm documentation.
	coords := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")

	if len(coords) != 3 {
		t.Fatalf("expected 3 coordinates, got %d", len(coords))
	}

	expected := []Coordinate{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	}

	for i, want := range expected {
		if math.Abs(coords[i].Lat-want.Lat) > 1e-5 {
			t.Errorf("coord %d: expected lat %f, got %f", i, want.Lat, coords[i].Lat)
		}
		if math.Abs(coords[i].Lon-want.Lon) > 1e-5 {
			t.Errorf("coord %d: expected lon %f, got %f", i, want.Lon, coords[i].Lon)
		}
	}
}

func TestEncodePolyline_RoundTrip(t *testing.T) {
	original := []Coordinate{
		{Lat: 28.6139, Lon: 77.2090}, // Delhi
		{Lat: 26.9124, Lon: 75.7873}, // Jaipur
		{Lat: 19.0760, Lon: 72.8777}, // Mumbai
	}

	decoded := DecodePolyline(EncodePolyline(original))
	if len(decoded) != len(original) {
		t.Fatalf("expected %d coordinates, got %d", len(original), len(decoded))
	}

	for i := range original {
		if math.Abs(decoded[i].Lat-original[i].Lat) > 1e-5 {
			t.Errorf("coord %d: lat mismatch: %f vs %f", i, decoded[i].Lat, original[i].Lat)
		}
		if math.Abs(decoded[i].Lon-original[i].Lon) > 1e-5 {
			t.Errorf("coord %d: lon mismatch: %f vs %f", i, decoded[i].Lon, original[i].Lon)
		}
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Coordinate
		wantErr bool
	}{
		{name: "valid", input: "28.6139,77.2090", want: Coordinate{Lat: 28.6139, Lon: 77.2090}},
		{name: "with spaces", input: "28.6139, 77.2090", want: Coordinate{Lat: 28.6139, Lon: 77.2090}},
		{name: "missing lon", input: "28.6139", wantErr: true},
		{name: "not numeric", input: "delhi,mumbai", wantErr: true},
		{name: "lat out of range", input: "91.0,10.0", wantErr: true},
		{name: "lon out of range", input: "10.0,181.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCoordinate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	delhi := Coordinate{Lat: 28.6139, Lon: 77.2090}
	mumbai := Coordinate{Lat: 19.0760, Lon: 72.8777}

	d := Distance(delhi, mumbai)

	// Great-circle distance Delhi-Mumbai is roughly 1150km.
	if d < 1_100_000 || d > 1_200_000 {
		t.Errorf("expected ~1150km, got %.0fm", d)
	}

	if Distance(delhi, delhi) != 0 {
		t.Error("distance from a point to itself should be 0")
	}
}

func TestDistanceToPath(t *testing.T) {
	// A roughly west-east path along latitude 52.0.
	path := []Coordinate{
		{Lat: 52.0, Lon: 4.0},
		{Lat: 52.0, Lon: 4.1},
		{Lat: 52.0, Lon: 4.2},
	}

	t.Run("point on path", func(t *testing.T) {
		d := DistanceToPath(Coordinate{Lat: 52.0, Lon: 4.05}, path)
		if d > 1 {
			t.Errorf("expected ~0m for a point on the path, got %.1fm", d)
		}
	})

	t.Run("point beside path", func(t *testing.T) {
		// ~0.001 degrees of latitude is ~111m.
		d := DistanceToPath(Coordinate{Lat: 52.001, Lon: 4.05}, path)
		if d < 100 || d > 125 {
			t.Errorf("expected ~111m, got %.1fm", d)
		}
	})

	t.Run("closest point is interior to a segment", func(t *testing.T) {
		// Perpendicular distance must beat the distance to any vertex.
		p := Coordinate{Lat: 52.002, Lon: 4.05}
		d := DistanceToPath(p, path)
		toVertex := Distance(p, path[0])
		if d >= toVertex {
			t.Errorf("segment distance %.1fm should be less than vertex distance %.1fm", d, toVertex)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if d := DistanceToPath(Coordinate{Lat: 52, Lon: 4}, nil); !math.IsInf(d, 1) {
			t.Errorf("expected +Inf for empty path, got %f", d)
		}
	})
}
