package domain

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	nyc := Location{Lat: 40.7128, Lon: -74.0060}
	london := Location{Lat: 51.5074, Lon: -0.1278}
	sydney := Location{Lat: -33.8688, Lon: 151.2093}

	if d := HaversineKm(nyc, nyc); d != 0 {
		t.Errorf("HaversineKm(p, p) = %v, want 0", d)
	}

	pairs := [][2]Location{{nyc, london}, {london, sydney}, {sydney, nyc}}
	for _, p := range pairs {
		if a, b := HaversineKm(p[0], p[1]), HaversineKm(p[1], p[0]); math.Abs(a-b) > 1e-9 {
			t.Errorf("HaversineKm not symmetric: %v != %v", a, b)
		}
	}

	// NYC to London is about 5570 km.
	if d := HaversineKm(nyc, london); math.Abs(d-5570) > 10 {
		t.Errorf("HaversineKm(nyc, london) = %.1f, want about 5570", d)
	}
}

// destination returns the point distanceKm from p along bearing (degrees).
func destination(p Location, bearing, distanceKm float64) Location {
	rad := math.Pi / 180
	d := distanceKm / EarthRadiusKm
	lat1, lon1, b := p.Lat*rad, p.Lon*rad, bearing*rad
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(b))
	lon2 := lon1 + math.Atan2(math.Sin(b)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	return Location{Lat: lat2 / rad, Lon: lon2 / rad}
}

func TestBoundingBoxAround(t *testing.T) {
	tests := []struct {
		name     string
		center   Location
		radiusKm float64
		fullLon  bool
	}{
		{"new york", Location{Lat: 40.7128, Lon: -74.0060}, 10, false},
		{"equator", Location{Lat: 0, Lon: 0}, 200, false},
		{"far south", Location{Lat: -70, Lon: 20}, 150, false},
		{"antimeridian", Location{Lat: 10, Lon: 179.9}, 50, true},
		{"pole", Location{Lat: 89.5, Lon: 0}, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := BoundingBoxAround(tt.center, tt.radiusKm)
			if !box.Contains(tt.center) {
				t.Fatalf("box %+v misses its centre", box)
			}
			if full := box.MinLon == -180 && box.MaxLon == 180; full != tt.fullLon {
				t.Errorf("full longitude range = %v, want %v", full, tt.fullLon)
			}
			for bearing := 0.0; bearing < 360; bearing += 15 {
				p := destination(tt.center, bearing, tt.radiusKm*0.999)
				if p.Lon > 180 {
					p.Lon -= 360
				}
				if !box.Contains(p) {
					t.Errorf("point at bearing %.0f (%+v) outside box %+v", bearing, p, box)
				}
			}
			far := destination(tt.center, 0, tt.radiusKm*1.5)
			if !tt.fullLon && box.Contains(far) {
				t.Errorf("point 1.5 radii north inside box %+v", box)
			}
		})
	}
}
