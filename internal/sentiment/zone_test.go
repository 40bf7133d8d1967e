package sentiment

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_AllBoundaries(t *testing.T) {
	tests := []struct {
		value null.Float
		zone  Zone
	}{
		{null.FloatFrom(100), ZoneOverbought},
		{null.FloatFrom(70.01), ZoneOverbought},
		{null.FloatFrom(70), ZoneNeutral},
		{null.FloatFrom(50), ZoneNeutral},
		{null.FloatFrom(30), ZoneNeutral},
		{null.FloatFrom(29.99), ZoneOversold},
		{null.FloatFrom(0), ZoneOversold},
		{null.Float{}, ZoneNoData},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.zone, DefaultBands.Classify(tt.value), "value %v", tt.value)
	}
}

func TestBands_Validate(t *testing.T) {
	require.NoError(t, DefaultBands.Validate())
	require.Error(t, Bands{Overbought: 30, Oversold: 70}.Validate())
	require.Error(t, Bands{Overbought: 120, Oversold: 30}.Validate())
	require.Error(t, Bands{Overbought: 70, Oversold: -1}.Validate())
}
