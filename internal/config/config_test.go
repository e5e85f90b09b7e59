package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-city-sim/internal/env"
	"drone-city-sim/internal/geometry/vector"
	"drone-city-sim/internal/nav"
	"drone-city-sim/internal/projection"
	"drone-city-sim/internal/world"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, 16, viper.GetInt("world.halfExtent"))
	assert.Equal(t, 25, viper.GetInt("world.buildings"))
	assert.Equal(t, 20, viper.GetInt("world.vegetation"))
	assert.Equal(t, 8, viper.GetInt("world.hazards"))
	assert.Equal(t, 10, viper.GetInt("world.traffic"))
	assert.Equal(t, 0.4, viper.GetFloat64("nav.stepSpeed"))
	assert.Equal(t, 0.8, viper.GetFloat64("nav.vehicleRadius"))
	assert.Equal(t, 3*time.Second, viper.GetDuration("wind.interval"))
	assert.Equal(t, 48.0, viper.GetFloat64("hazards.bound"))
	assert.Equal(t, 60.0, viper.GetFloat64("camera.pickRadius"))
	assert.Equal(t, 2.5, viper.GetFloat64("nav.roofClearance"))
	assert.Equal(t, 3.0, viper.GetFloat64("nav.climbClearance"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	var notFound viper.ConfigFileNotFoundError
	assert.True(t, errors.As(err, &notFound))

	// defaults still apply
	assert.Equal(t, ":8080", GetServerConfig().Addr)
}

func TestLoad_InvalidJSON(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{"world": `))
	require.Error(t, err)
	var notFound viper.ConfigFileNotFoundError
	assert.False(t, errors.As(err, &notFound))
}

func TestTypedGetters_MatchPackageDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, world.DefaultGeneratorConfig(), GetWorldConfig())
	assert.Equal(t, projection.DefaultCamera(), GetCameraConfig())
	assert.Equal(t, nav.DefaultConfig(), GetNavConfig())
	assert.Equal(t, env.DefaultWindConfig(), GetWindConfig())
	assert.Equal(t, env.DefaultHazardConfig(), GetHazardConfig())

	sc := GetSimConfig()
	assert.Equal(t, int64(0), sc.Seed)
	assert.Equal(t, vector.NewVec3(0, -60, 0), sc.Start)
	assert.Equal(t, 60.0, sc.PickRadius)
	assert.Equal(t, 2.5, sc.RoofClearance)
	assert.Equal(t, 0.8, sc.VehicleRadius)
	assert.Equal(t, 32.0853, sc.Geo.OriginLat)

	ec := GetEngineConfig()
	assert.Equal(t, 33.0, ec.TickHz)
	assert.Equal(t, 128, ec.QueueSize)
}

func TestTypedGetters_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := writeConfig(t, `{
		"logLevel": "debug",
		"world": { "seed": 99, "buildings": 3, "halfExtent": 8, "placementAttempts": 5 },
		"nav": { "stepSpeed": 0.5, "clampBattery": false, "startAltitude": 40 },
		"wind": { "interval": "1500ms", "maxSpeed": 0.3 },
		"camera": { "width": 800, "height": 600, "horizonOffset": 0, "yaw": 0 },
		"server": { "addr": "127.0.0.1:9000", "wsInterval": "50ms" },
		"graylog": { "enabled": true, "address": "graylog:12201" },
		"influx": { "enabled": true, "bucket": "test", "every": 1 }
	}`)
	require.NoError(t, Load(dir))

	sc := GetSimConfig()
	assert.Equal(t, int64(99), sc.Seed)
	assert.Equal(t, 3, sc.Buildings)
	assert.Equal(t, 8, sc.Generator.HalfExtent)
	assert.Equal(t, 5, sc.Generator.PlacementAttempts)
	assert.Equal(t, 0.5, sc.Nav.StepSpeed)
	assert.False(t, sc.Nav.ClampBattery)
	assert.Equal(t, vector.NewVec3(0, -40, 0), sc.Start)
	assert.Equal(t, 1500*time.Millisecond, sc.Wind.Interval)
	assert.Equal(t, 0.3, sc.Wind.MaxSpeed)
	assert.Equal(t, 400.0, sc.Camera.CenterX)
	assert.Equal(t, 300.0, sc.Camera.CenterY)
	assert.Equal(t, 0.0, sc.Camera.Yaw)

	srv := GetServerConfig()
	assert.Equal(t, "127.0.0.1:9000", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.StateTimeout)
	assert.Equal(t, 50*time.Millisecond, srv.WSInterval)

	lc := GetLogConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.True(t, lc.GraylogEnabled)
	assert.Equal(t, "graylog:12201", lc.GraylogAddress)

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "test", ic.Bucket)
	assert.Equal(t, 1, ic.Every)
	assert.Equal(t, "http://localhost:8086", ic.URL)
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("testInt", 42)
	viper.Set("testBool", true)
	assert.Equal(t, "testValue", GetString("testKey"))
	assert.Equal(t, 42, GetInt("testInt"))
	assert.True(t, GetBool("testBool"))
}
