package entities

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Valid reports whether the coordinates fall in the WGS84 range
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// BoundingBox is a non-wrapping geographic bounding box in degrees.
// Boxes crossing the antimeridian are not supported.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Valid reports whether the box is well-formed
func (b BoundingBox) Valid() bool {
	if b.South > b.North || b.West > b.East {
		return false
	}
	return b.North <= 90 && b.South >= -90 && b.East <= 180 && b.West >= -180
}

// Contains reports whether a point lies inside the box (inclusive)
func (b BoundingBox) Contains(l Location) bool {
	return l.Latitude >= b.South && l.Latitude <= b.North &&
		l.Longitude >= b.West && l.Longitude <= b.East
}
