package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurementJSONNull(t *testing.T) {
	data, err := json.Marshal(Missing())
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var m Measurement
	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.False(t, m.Valid)

	require.NoError(t, json.Unmarshal([]byte("0.35"), &m))
	assert.True(t, m.Valid)
	assert.InDelta(t, 0.35, m.Value, 1e-12)
}

func TestObservationValueAccessors(t *testing.T) {
	var o Observation
	for _, f := range Fields() {
		assert.False(t, o.Value(f).Valid, string(f))
	}

	o.SetValue(FieldJetEnergy, Num(42))
	assert.Equal(t, Num(42), o.Value(FieldJetEnergy))
	assert.Equal(t, Num(42), o.JetEnergy)
}

func TestDatasetNilSafety(t *testing.T) {
	var ds *Dataset
	assert.Equal(t, 0, ds.Count())
	assert.False(t, ds.HasColumn(FieldMass))

	ds = &Dataset{
		Observations: []Observation{{ID: "a"}},
		Columns:      map[Field]bool{FieldMass: true},
	}
	assert.Equal(t, 1, ds.Count())
	assert.True(t, ds.HasColumn(FieldMass))
	assert.False(t, ds.HasColumn(FieldJetEnergy))
}
