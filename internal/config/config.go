package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"drone-city-sim/internal/env"
	"drone-city-sim/internal/geometry/vector"
	"drone-city-sim/internal/nav"
	"drone-city-sim/internal/projection"
	"drone-city-sim/internal/sim"
	"drone-city-sim/internal/world"
)

// FileName is looked up in the directory passed to Load.
const FileName = "dronesim.cfg.json"

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr         string
	StateTimeout time.Duration
	// WSInterval is the minimum spacing between frames on the WebSocket stream.
	WSInterval time.Duration
}

// EngineConfig holds the tick loop settings.
type EngineConfig struct {
	TickHz    float64
	QueueSize int
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level          string
	File           string
	GraylogEnabled bool
	GraylogAddress string
}

// InfluxConfig holds the telemetry exporter settings.
type InfluxConfig struct {
	Enabled    bool
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
	// Every Nth snapshot is written.
	Every int
}

// Load reads configuration from a JSON file and sets default values.
// configDir is the directory containing the config file. Defaults stay in effect
// when the file is missing; the returned error then wraps viper.ConfigFileNotFoundError.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFile", "")

	viper.SetDefault("world.seed", 0)
	viper.SetDefault("world.halfExtent", 16)
	viper.SetDefault("world.buildings", 25)
	viper.SetDefault("world.vegetation", 20)
	viper.SetDefault("world.hazards", 8)
	viper.SetDefault("world.traffic", 10)
	viper.SetDefault("world.buildingHeightMin", 5)
	viper.SetDefault("world.buildingHeightMax", 14)
	viper.SetDefault("world.buildingHalfSize", 1.6)
	viper.SetDefault("world.vegetationHeightMin", 2)
	viper.SetDefault("world.vegetationHeightMax", 5)
	viper.SetDefault("world.vegetationHalfSize", 0.8)
	viper.SetDefault("world.exclusionDistance", 2.0)
	viper.SetDefault("world.placementAttempts", 20)
	viper.SetDefault("world.hazardSpawn", 30)
	viper.SetDefault("world.hazardAltitudeMin", 5)
	viper.SetDefault("world.hazardAltitudeMax", 15)
	viper.SetDefault("world.hazardSpeed", 0.4)
	viper.SetDefault("world.hazardClimbSpeed", 0.05)
	viper.SetDefault("world.trafficSpeed", 0.3)

	viper.SetDefault("camera.width", 1000)
	viper.SetDefault("camera.height", 700)
	viper.SetDefault("camera.horizonOffset", 180)
	viper.SetDefault("camera.scale", 20.0)
	viper.SetDefault("camera.yaw", 0.6)
	viper.SetDefault("camera.rotateStep", 0.1)
	viper.SetDefault("camera.pickRadius", 60.0)

	viper.SetDefault("nav.stepSpeed", 0.4)
	viper.SetDefault("nav.lookAhead", 8.0)
	viper.SetDefault("nav.reachRadius", 0.5)
	viper.SetDefault("nav.batteryDrain", 0.01)
	viper.SetDefault("nav.climbClearance", 3.0)
	viper.SetDefault("nav.roofClearance", 2.5)
	viper.SetDefault("nav.vehicleRadius", 0.8)
	viper.SetDefault("nav.clampBattery", true)
	viper.SetDefault("nav.startAltitude", 60.0)

	viper.SetDefault("wind.interval", "3s")
	viper.SetDefault("wind.maxSpeed", 0.2)

	viper.SetDefault("hazards.bound", 48.0)
	viper.SetDefault("hazards.bumpRadius", 1.5)
	viper.SetDefault("hazards.push", 0.2)
	viper.SetDefault("hazards.alertRadius", 4.0)

	viper.SetDefault("engine.tickHz", 33.0)
	viper.SetDefault("engine.queueSize", 128)

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.stateTimeout", "2s")
	viper.SetDefault("server.wsInterval", "100ms")

	viper.SetDefault("geo.originLat", 32.0853)
	viper.SetDefault("geo.originLon", 34.7818)
	viper.SetDefault("geo.metersPerUnit", 1.0)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "dronesim")
	viper.SetDefault("influx.bucket", "flight")
	viper.SetDefault("influx.backupPath", "./dronesim_influx_backup.lp.gz")
	viper.SetDefault("influx.every", 10)

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func GetString(key string) string { return viper.GetString(key) }

func GetInt(key string) int { return viper.GetInt(key) }

func GetBool(key string) bool { return viper.GetBool(key) }

// GetWorldConfig returns the generator settings.
func GetWorldConfig() world.GeneratorConfig {
	return world.GeneratorConfig{
		HalfExtent:          viper.GetInt("world.halfExtent"),
		BuildingMinHeight:   viper.GetInt("world.buildingHeightMin"),
		BuildingMaxHeight:   viper.GetInt("world.buildingHeightMax"),
		BuildingHalfSize:    viper.GetFloat64("world.buildingHalfSize"),
		VegetationMinHeight: viper.GetInt("world.vegetationHeightMin"),
		VegetationMaxHeight: viper.GetInt("world.vegetationHeightMax"),
		VegetationHalfSize:  viper.GetFloat64("world.vegetationHalfSize"),
		ExclusionDistance:   viper.GetFloat64("world.exclusionDistance"),
		PlacementAttempts:   viper.GetInt("world.placementAttempts"),
		HazardSpawnXZ:       viper.GetInt("world.hazardSpawn"),
		HazardMinAltitude:   viper.GetInt("world.hazardAltitudeMin"),
		HazardMaxAltitude:   viper.GetInt("world.hazardAltitudeMax"),
		HazardMaxSpeedXZ:    viper.GetFloat64("world.hazardSpeed"),
		HazardMaxSpeedY:     viper.GetFloat64("world.hazardClimbSpeed"),
		TrafficSpeed:        viper.GetFloat64("world.trafficSpeed"),
	}
}

// GetCameraConfig centres the projection on the canvas, with the horizon pushed down.
func GetCameraConfig() projection.Camera {
	return projection.Camera{
		Projector: projection.Projector{
			CenterX: viper.GetFloat64("camera.width") / 2,
			CenterY: viper.GetFloat64("camera.height")/2 + viper.GetFloat64("camera.horizonOffset"),
			Scale:   viper.GetFloat64("camera.scale"),
		},
		Yaw:        viper.GetFloat64("camera.yaw"),
		RotateStep: viper.GetFloat64("camera.rotateStep"),
	}
}

func GetNavConfig() nav.Config {
	return nav.Config{
		StepSpeed:      viper.GetFloat64("nav.stepSpeed"),
		LookAhead:      viper.GetFloat64("nav.lookAhead"),
		ReachRadius:    viper.GetFloat64("nav.reachRadius"),
		BatteryDrain:   viper.GetFloat64("nav.batteryDrain"),
		ClimbClearance: viper.GetFloat64("nav.climbClearance"),
		ClampBattery:   viper.GetBool("nav.clampBattery"),
	}
}

func GetWindConfig() env.WindConfig {
	return env.WindConfig{
		Interval: viper.GetDuration("wind.interval"),
		MaxSpeed: viper.GetFloat64("wind.maxSpeed"),
	}
}

func GetHazardConfig() env.HazardConfig {
	return env.HazardConfig{
		Bound:       viper.GetFloat64("hazards.bound"),
		BumpRadius:  viper.GetFloat64("hazards.bumpRadius"),
		Push:        viper.GetFloat64("hazards.push"),
		AlertRadius: viper.GetFloat64("hazards.alertRadius"),
	}
}

func GetGeoConfig() sim.GeoRef {
	return sim.NewGeoRef(
		viper.GetFloat64("geo.originLat"),
		viper.GetFloat64("geo.originLon"),
		viper.GetFloat64("geo.metersPerUnit"),
	)
}

// GetSimConfig assembles the full simulation settings.
func GetSimConfig() sim.Config {
	return sim.Config{
		Seed:          viper.GetInt64("world.seed"),
		Buildings:     viper.GetInt("world.buildings"),
		Vegetation:    viper.GetInt("world.vegetation"),
		Hazards:       viper.GetInt("world.hazards"),
		Traffic:       viper.GetInt("world.traffic"),
		Generator:     GetWorldConfig(),
		Camera:        GetCameraConfig(),
		Nav:           GetNavConfig(),
		Wind:          GetWindConfig(),
		Hazard:        GetHazardConfig(),
		VehicleRadius: viper.GetFloat64("nav.vehicleRadius"),
		PickRadius:    viper.GetFloat64("camera.pickRadius"),
		RoofClearance: viper.GetFloat64("nav.roofClearance"),
		Start:         vector.NewVec3(0, -viper.GetFloat64("nav.startAltitude"), 0),
		Geo:           GetGeoConfig(),
	}
}

func GetEngineConfig() EngineConfig {
	return EngineConfig{
		TickHz:    viper.GetFloat64("engine.tickHz"),
		QueueSize: viper.GetInt("engine.queueSize"),
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         viper.GetString("server.addr"),
		StateTimeout: viper.GetDuration("server.stateTimeout"),
		WSInterval:   viper.GetDuration("server.wsInterval"),
	}
}

func GetLogConfig() LogConfig {
	return LogConfig{
		Level:          viper.GetString("logLevel"),
		File:           viper.GetString("logFile"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		URL:        viper.GetString("influx.url"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
		Every:      viper.GetInt("influx.every"),
	}
}
