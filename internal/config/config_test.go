package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/units"
)

const structured = `
version: 2
attribution: "© Bohemia Interactive"
measure:
  title: Measure
  model: user
  start: Begin
  thousands_separator: " "
  decimal_point: ","
  decimals:
    kilometer: 3
  symbols:
    meter: ""
maps:
  - name: chernarus
    aliases: [cherno]
    crs: simple
    size: 15360
  - name: world
    units: imperial
`

func TestParseStructured(t *testing.T) {
	cfg, err := Parse([]byte(structured))
	require.NoError(t, err)
	require.Len(t, cfg.Maps, 2)

	cherno, err := cfg.Measurement(&cfg.Maps[0])
	require.NoError(t, err)
	assert.Equal(t, geo.Simple, cherno.CRS)
	assert.Equal(t, "Begin", cherno.StartLabel)
	assert.Equal(t, " ", cherno.Format.ThousandsSeparator)
	assert.Equal(t, ",", cherno.Format.DecimalPoint)
	assert.Equal(t, 3, cherno.Format.Decimals["kilometer"])
	assert.Equal(t, 2, cherno.Format.Decimals["hectare"], "defaults are kept")

	assert.Equal(t, "1 234 567", units.Format(1234567, "meter", 1, cherno.Format))

	world, err := cfg.Measurement(&cfg.Maps[1])
	require.NoError(t, err)
	assert.Equal(t, geo.Earth, world.CRS)
	assert.Equal(t, units.ImperialDistance, world.DistanceUnits)
}

func TestParseStructuredUnknownField(t *testing.T) {
	_, err := Parse([]byte("version: 2\nmeasure:\n  colour: red\n"))
	assert.Error(t, err)
}

func TestParseLegacy(t *testing.T) {
	legacy := `
linearMeasurement: Linear measurement
areaMeasurement: Area
collapsed: false
color: "#00FF00"
distanceUnits: {foot: 0.3048, mile: 1609.344}
areaUnits: {acre: 4046.8564224, squareKilometer: 1000000}
squareKilometers: sq km
squareKilometersDecimals: 3
meter: null
mileDecimals: 1
thousandsSeparator: "'"
`
	cfg, err := Parse([]byte(legacy))
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, cfg.Version)

	m := cfg.Measure
	assert.Equal(t, "Linear measurement", m.DistanceLabel)
	assert.Equal(t, "Area", m.AreaLabel)
	require.NotNil(t, m.Collapsed)
	assert.False(t, *m.Collapsed)
	assert.Equal(t, "#00FF00", m.Color)

	want := map[string]string{"squareKilometer": "sq km", "meter": ""}
	if diff := cmp.Diff(want, m.Symbols); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]int{"squareKilometer": 3, "mile": 1}, m.Decimals)

	mc, err := cfg.Measurement(nil)
	require.NoError(t, err)
	assert.Equal(t, units.Table{"foot": 0.3048, "mile": 1609.344}, mc.DistanceUnits)
	assert.Equal(t, "'", mc.Format.ThousandsSeparator)
	assert.Equal(t, "2.000 sq km", units.Format(2e6, "squareKilometer", 1e6, mc.Format))
}

func TestParseLegacyRenamedDoesNotOverrideCurrent(t *testing.T) {
	cfg, err := Parse([]byte("distanceMeasurement: New\nlinearMeasurement: Old\n"))
	require.NoError(t, err)
	assert.Equal(t, "New", cfg.Measure.DistanceLabel)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty distance units", "version: 2\nmeasure:\n  distance_units: {}\n"},
		{"zero factor", "version: 2\nmeasure:\n  area_units: {squareMeter: 0}\n"},
		{"legacy negative factor", "distanceUnits: {meter: -1}\n"},
		{"legacy bad decimals", "meterDecimals: 1.5\n"},
		{"unknown crs", "version: 2\ncrs: mars\n"},
		{"duplicate alias", "version: 2\nmaps:\n  - name: a\n  - name: b\n    aliases: [a]\n"},
		{"bad model", "version: 2\nmeasure:\n  model: volume\n"},
		{"bad units", "version: 2\nmaps:\n  - name: a\n    units: nautical\n"},
		{"future version", "version: 9\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, units.ErrInvalidConfig)
		})
	}
}

func TestMarshalMigratedLegacy(t *testing.T) {
	cfg, err := Parse([]byte("squareKilometers: sq km\nstart: Go\n"))
	require.NoError(t, err)

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 2")

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestJSONMigrationKeepsAliases(t *testing.T) {
	cfg, err := Parse([]byte(structured))
	require.NoError(t, err)
	require.Equal(t, []string{"cherno"}, cfg.Maps[0].Aliases)

	data, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)

	// JSON output is loaded back through the YAML decoder
	again, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, again); diff != "" {
		t.Errorf("config changed after JSON round trip (-want +got):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(structured), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "© Bohemia Interactive", cfg.Attribution)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	mc, err := cfg.Measurement(nil)
	require.NoError(t, err)
	assert.Equal(t, geo.Earth, mc.CRS)
	assert.Equal(t, "Start", mc.StartLabel)
}
