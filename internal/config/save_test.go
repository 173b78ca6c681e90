package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/geosift/internal/geo"
)

func TestSaveView_CreatesNewFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveView(configPath, geo.LatLng{Lat: 43.263, Lng: -2.935}, 7)
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "center_lat: 43.263000")
	assert.Contains(t, string(data), "center_lon: -2.935000")
	assert.Contains(t, string(data), "zoom: 7")
}

func TestSaveView_PreservesOtherConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	initial := `# search service
server:
  url: http://search.internal:5000
map:
  place_zoom: 9
  zoom: 3
auto_reload: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(initial), 0o600))

	require.NoError(t, SaveView(configPath, geo.LatLng{Lat: 10, Lng: 20}, 6))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# search service")

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	assert.Equal(t, "http://search.internal:5000", v.GetString("server.url"))
	assert.False(t, v.GetBool("auto_reload"))
	assert.Equal(t, 9, v.GetInt("map.place_zoom"))
	assert.Equal(t, 6, v.GetInt("map.zoom"))
	assert.InDelta(t, 10.0, v.GetFloat64("map.center_lat"), 1e-9)
	assert.InDelta(t, 20.0, v.GetFloat64("map.center_lon"), 1e-9)
}

func TestSaveView_ReplacesScalarMapSection(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("map: nope\n"), 0o600))

	require.NoError(t, SaveView(configPath, geo.LatLng{Lat: 1, Lng: 2}, 4))

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())
	assert.Equal(t, 4, v.GetInt("map.zoom"))
}

func TestSaveView_RejectsInvalidCenter(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveView(configPath, geo.LatLng{Lat: 91, Lng: 0}, 4)
	require.ErrorIs(t, err, geo.ErrLatitudeRange)

	_, statErr := os.Stat(configPath)
	require.True(t, os.IsNotExist(statErr), "nothing is written for an invalid center")
}

func TestSaveView_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("map: [unclosed\n"), 0o600))

	err := SaveView(configPath, geo.LatLng{}, 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing config")
}

func TestSaveView_RootNotMapping(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("- a\n- b\n"), 0o600))

	err := SaveView(configPath, geo.LatLng{}, 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a mapping")
}

func TestSaveView_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	require.NoError(t, SaveView(configPath, geo.LatLng{Lat: 5, Lng: 5}, 5))
	require.NoError(t, SaveView(configPath, geo.LatLng{Lat: 6, Lng: 6}, 6))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "config.yaml", entries[0].Name())
}
