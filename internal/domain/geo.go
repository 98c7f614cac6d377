package domain

import "math"

const EarthRadiusKm = 6371.0

type Location struct {
	Lat     float64 `json:"lat" validate:"min=-90,max=90"`
	Lon     float64 `json:"lon" validate:"min=-180,max=180"`
	Address string  `json:"address,omitempty" validate:"max=255"`
}

// BoundingBox is a lat/lon rectangle holding every point within a radius of
// its centre. It can hold points outside the radius too.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoundingBoxAround returns the box around center for radiusKm. Near a pole
// or across the antimeridian it spans every longitude.
func BoundingBoxAround(center Location, radiusKm float64) BoundingBox {
	angular := radiusKm / EarthRadiusKm
	dLat := angular * 180 / math.Pi
	box := BoundingBox{
		MinLat: math.Max(center.Lat-dLat, -90),
		MaxLat: math.Min(center.Lat+dLat, 90),
		MinLon: -180,
		MaxLon: 180,
	}
	if box.MinLat == -90 || box.MaxLat == 90 {
		return box
	}
	s := math.Sin(angular) / math.Cos(center.Lat*math.Pi/180)
	if s >= 1 {
		return box
	}
	dLon := math.Asin(s) * 180 / math.Pi
	if center.Lon-dLon < -180 || center.Lon+dLon > 180 {
		return box
	}
	box.MinLon, box.MaxLon = center.Lon-dLon, center.Lon+dLon
	return box
}

func (b BoundingBox) Contains(l Location) bool {
	return l.Lat >= b.MinLat && l.Lat <= b.MaxLat && l.Lon >= b.MinLon && l.Lon <= b.MaxLon
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(a, b Location) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
