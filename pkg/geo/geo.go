// Package geo provides geographic primitives: polyline encoding/decoding
// (Google's algorithm, precision 5) and distance calculations used by
// route scoring and live-tracking deviation checks.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String formats the coordinate as "lat,lon" with 6 decimal places,
// the format accepted by mapping providers as an origin/destination.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lon, 'f', 6, 64)
}

// ParseCoordinate parses a "lat,lon" string into a Coordinate.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: expected lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("latitude %f out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, fmt.Errorf("longitude %f out of range [-180, 180]", lon)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// DecodePolyline decodes a polyline-encoded string into a slice of coordinates.
func DecodePolyline(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	var coords []Coordinate
	index := 0
	lat := 0
	lon := 0

	for index < len(encoded) {
		latDelta, newIndex := decodeValue(encoded, index)
		index = newIndex
		lat += latDelta

		lonDelta, newIndex := decodeValue(encoded, index)
		index = newIndex
		lon += lonDelta

		coords = append(coords, Coordinate{
			Lat: float64(lat) / 1e5,
			Lon: float64(lon) / 1e5,
		})
	}

	return coords
}

// decodeValue decodes a single delta value from the polyline at the given index.
func decodeValue(encoded string, index int) (int, int) {
	shift := 0
	result := 0

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	// Two's complement for negative values
	if result&1 != 0 {
		return ^(result >> 1), index
	}
	return result >> 1, index
}

// EncodePolyline encodes a slice of coordinates into a polyline-encoded string.
func EncodePolyline(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	encoded := make([]byte, 0, len(coords)*4)
	prevLat := 0
	prevLon := 0

	for _, coord := range coords {
		lat := int(math.Round(coord.Lat * 1e5))
		lon := int(math.Round(coord.Lon * 1e5))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat = lat
		prevLon = lon
	}

	return string(encoded)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	buf = append(buf, byte(value)+63)

	return buf
}

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000

// Distance calculates the haversine distance between two coordinates in meters.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// PathLength calculates the total length of a path in meters.
func PathLength(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(coords); i++ {
		total += Distance(coords[i-1], coords[i])
	}
	return total
}

// DistanceToPath returns the minimum distance in meters from a point to a
// path, considering each segment of the path (not just its vertices). For
// the short segments of an overview polyline an equirectangular projection
// around the point is accurate enough.
func DistanceToPath(p Coordinate, path []Coordinate) float64 {
	switch len(path) {
	case 0:
		return math.Inf(1)
	case 1:
		return Distance(p, path[0])
	}

	min := math.Inf(1)
	for i := 1; i < len(path); i++ {
		if d := distanceToSegment(p, path[i-1], path[i]); d < min {
			min = d
		}
	}
	return min
}

// distanceToSegment returns the distance in meters from p to the segment ab.
func distanceToSegment(p, a, b Coordinate) float64 {
	// Project onto a local flat plane centred on p.
	cosLat := math.Cos(p.Lat * math.Pi / 180)
	ax := (a.Lon - p.Lon) * cosLat
	ay := a.Lat - p.Lat
	bx := (b.Lon - p.Lon) * cosLat
	by := b.Lat - p.Lat

	dx := bx - ax
	dy := by - ay

	t := 0.0
	if lenSq := dx*dx + dy*dy; lenSq > 0 {
		t = -(ax*dx + ay*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}

	nearest := Coordinate{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lon: a.Lon + t*(b.Lon-a.Lon),
	}
	return Distance(p, nearest)
}
