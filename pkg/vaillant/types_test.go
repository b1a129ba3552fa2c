package vaillant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// VRC700 controllers report hot water under "dhw" and may leave fields out
func TestToSystemVRC700Document(t *testing.T) {
	doc := `{
	  "state": {
	    "system": {"outdoorTemperature": -2},
	    "zones": [{"index": 1}],
	    "circuits": [{"index": 0}],
	    "dhw": [{"index": 0, "currentDhwTemperature": 51}]
	  },
	  "configuration": {
	    "dhw": [{"index": 0, "operationModeDhw": "AUTO", "tappingSetpoint": 52}],
	    "zones": [{"index": 7, "general": {"name": "orphan"}}]
	  }
	}`
	var d systemDocument
	require.NoError(t, json.Unmarshal([]byte(doc), &d))
	s := d.toSystem("home-system", "vrc700")

	assert.Equal(t, "home-system", s.ID)
	assert.Nil(t, s.WaterPressure)
	assert.Equal(t, -2.0, *s.OutdoorTemperature)

	require.Len(t, s.Zones, 1)
	assert.Equal(t, 1, s.Zones[0].Index)
	assert.Equal(t, "", s.Zones[0].Name)
	assert.Equal(t, ZoneFunctionNone, s.Zones[0].CurrentSpecialFunction)

	require.Len(t, s.Circuits, 1)
	assert.Nil(t, s.Circuits[0].CurrentCircuitFlowTemperature)

	require.Len(t, s.DomesticHotWater, 1)
	assert.Equal(t, DHWModeAuto, s.DomesticHotWater[0].OperationModeDHW)
	assert.Equal(t, "home-system", s.DomesticHotWater[0].SystemID)
}

func TestValidateBrandAndCountry(t *testing.T) {
	assert.NoError(t, ValidateBrand("vaillant"))
	assert.NoError(t, ValidateBrand("bulex"))
	assert.Error(t, ValidateBrand("Vaillant"))
	assert.NoError(t, ValidateCountry("poland"))
	assert.NoError(t, ValidateCountry("germany"))
	assert.Error(t, ValidateCountry("mars"))
	assert.Contains(t, CountryKeys(), DEFAULT_COUNTRY)
	assert.Contains(t, BrandKeys(), DEFAULT_BRAND)
}
