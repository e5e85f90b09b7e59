package sim

import (
	"math"

	"github.com/wroge/wgs84"

	"drone-city-sim/internal/geometry/vector"
)

// GeoRef anchors the city on the globe. Local X grows east and local Z grows north;
// both are scaled by MetersPerUnit and offset from the origin in EPSG:3857, corrected
// by the Mercator scale factor at the origin latitude.
type GeoRef struct {
	OriginLat     float64
	OriginLon     float64
	MetersPerUnit float64

	toMercator   func(a, b, c float64) (float64, float64, float64)
	fromMercator func(a, b, c float64) (float64, float64, float64)
	ox, oy       float64
	k            float64 // Mercator meters per ground meter
}

func NewGeoRef(originLat, originLon, metersPerUnit float64) GeoRef {
	if metersPerUnit <= 0 {
		metersPerUnit = 1
	}
	epsg := wgs84.EPSG()
	g := GeoRef{
		OriginLat:     originLat,
		OriginLon:     originLon,
		MetersPerUnit: metersPerUnit,
		toMercator:    epsg.Transform(4326, 3857),
		fromMercator:  epsg.Transform(3857, 4326),
		k:             1 / math.Cos(originLat*math.Pi/180),
	}
	g.ox, g.oy, _ = g.toMercator(originLon, originLat, 0)
	return g
}

// LocalToGeo converts a city position into latitude, longitude and altitude in meters.
// Altitude is positive up.
func (g GeoRef) LocalToGeo(p vector.Vec3) (lat, lon, alt float64) {
	if g.fromMercator == nil {
		return g.OriginLat, g.OriginLon, -p.Y
	}
	x := g.ox + p.X*g.MetersPerUnit*g.k
	y := g.oy + p.Z*g.MetersPerUnit*g.k
	lon, lat, _ = g.fromMercator(x, y, 0)
	return lat, lon, -p.Y * g.MetersPerUnit
}

// LonLat converts a ground point (x, z) to longitude and latitude.
func (g GeoRef) LonLat(x, z float64) (lon, lat float64) {
	lat, lon, _ = g.LocalToGeo(vector.Vec3{X: x, Z: z})
	return lon, lat
}

// GeoToLocal is the inverse of LocalToGeo.
func (g GeoRef) GeoToLocal(lat, lon, alt float64) vector.Vec3 {
	if g.toMercator == nil {
		return vector.Vec3{Y: -alt}
	}
	x, y, _ := g.toMercator(lon, lat, 0)
	return vector.Vec3{
		X: (x - g.ox) / (g.MetersPerUnit * g.k),
		Y: -alt / g.MetersPerUnit,
		Z: (y - g.oy) / (g.MetersPerUnit * g.k),
	}
}
