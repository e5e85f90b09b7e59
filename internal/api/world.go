package api

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"drone-city-sim/internal/projection"
	"drone-city-sim/internal/sim"
	"drone-city-sim/internal/world"
)

type screenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type obstacleView struct {
	world.Obstacle
	// Base and Top are the projected footprint centre at ground and roof level.
	Base screenPoint `json:"base"`
	Top  screenPoint `json:"top"`
}

type worldView struct {
	Yaw                float64        `json:"yaw"`
	RotateStep         float64        `json:"rotateStep"`
	Buildings          []obstacleView `json:"buildings"`
	Vegetation         []obstacleView `json:"vegetation"`
	PlacementFallbacks int            `json:"placementFallbacks"`
}

func newWorldView(static sim.Static, yaw float64) worldView {
	return worldView{
		Yaw:                yaw,
		RotateStep:         static.RotateStep,
		Buildings:          projectObstacles(static.Projector, yaw, static.Buildings),
		Vegetation:         projectObstacles(static.Projector, yaw, static.Vegetation),
		PlacementFallbacks: static.Fallbacks,
	}
}

func projectObstacles(p projection.Projector, yaw float64, obstacles []world.Obstacle) []obstacleView {
	out := make([]obstacleView, 0, len(obstacles))
	for _, o := range obstacles {
		bx, by := p.Project(o.X, 0, o.Z, yaw)
		tx, ty := p.Project(o.X, o.Roof(), o.Z, yaw)
		out = append(out, obstacleView{
			Obstacle: o,
			Base:     screenPoint{X: bx, Y: by},
			Top:      screenPoint{X: tx, Y: ty},
		})
	}
	return out
}

// footprint is the closed lon/lat ring around an obstacle's base.
func footprint(g sim.GeoRef, o world.Obstacle) geom.Polygon {
	corners := [][2]float64{
		{o.X - o.W, o.Z - o.D},
		{o.X + o.W, o.Z - o.D},
		{o.X + o.W, o.Z + o.D},
		{o.X - o.W, o.Z + o.D},
		{o.X - o.W, o.Z - o.D},
	}
	flat := make([]float64, 0, len(corners)*2)
	for _, c := range corners {
		lon, lat := g.LonLat(c[0], c[1])
		flat = append(flat, lon, lat)
	}
	ring := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	return geom.NewPolygon([]geom.LineString{ring})
}

// worldFeatures exports obstacle footprints plus the vehicle position as GeoJSON.
func worldFeatures(static sim.Static, st sim.Snapshot) geom.GeoJSONFeatureCollection {
	fc := make(geom.GeoJSONFeatureCollection, 0, len(static.Buildings)+len(static.Vegetation)+1)
	for _, group := range [][]world.Obstacle{static.Buildings, static.Vegetation} {
		for _, o := range group {
			fc = append(fc, geom.GeoJSONFeature{
				Geometry: footprint(static.Geo, o).AsGeometry(),
				Properties: map[string]interface{}{
					"id":     o.ID,
					"kind":   o.Kind,
					"height": o.H,
				},
			})
		}
	}

	drone := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: st.Lon, Y: st.Lat},
		Z:    float64(st.Altitude),
		Type: geom.DimXYZ,
	})
	fc = append(fc, geom.GeoJSONFeature{
		Geometry: drone.AsGeometry(),
		Properties: map[string]interface{}{
			"kind":    "drone",
			"phase":   st.Phase,
			"battery": st.Battery,
		},
	})
	return fc
}
