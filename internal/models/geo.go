// internal/models/geo.go
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a WGS84 coordinate pair. The wire form is "lat,lon".
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ParsePoint parses a "lat,lon" string.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("a valid comma separated point is required")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("a valid comma separated point is required")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("a valid comma separated point is required")
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("point coordinates out of range")
	}

	return Point{Lat: lat, Lon: lon}, nil
}

func (p Point) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lon)
}

// BoundingBox normalizes two arbitrary corner points into the
// ((south, west), (north, east)) form geo filters expect.
func BoundingBox(p1, p2 Point) (south, west, north, east float64) {
	south, north = p1.Lat, p2.Lat
	if south > north {
		south, north = north, south
	}
	west, east = p1.Lon, p2.Lon
	if west > east {
		west, east = east, west
	}
	return south, west, north, east
}
