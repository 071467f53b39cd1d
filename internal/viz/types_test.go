package viz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChartRoundTripsEachVariant(t *testing.T) {
	cases := []string{
		`{"type":"bar","encoding":{"x":{"field":"region"},"y":{"field":"revenue"}}}`,
		`{"type":"line","encoding":{"x":{"field":"month"},"y":{"field":"total"}}}`,
		`{"type":"scatter","encoding":{"x":{"field":"a"},"y":{"field":"b"}}}`,
		`{"type":"boxplot","boxplot":{"label_field":"group","value_field":"value"}}`,
		`{"type":"histogram","histogram":{"field":"age","bins":10}}`,
	}

	for _, raw := range cases {
		var c Chart
		require.NoError(t, json.Unmarshal([]byte(raw), &c))

		out, err := json.Marshal(c)
		require.NoError(t, err)

		var roundTripped map[string]any
		require.NoError(t, json.Unmarshal(out, &roundTripped))
		var original map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &original))
		require.Equal(t, original["type"], roundTripped["type"])
	}
}

func TestChartUnmarshalRejectsUnknownDiscriminator(t *testing.T) {
	var c Chart
	err := json.Unmarshal([]byte(`{"type":"pie"}`), &c)
	require.Error(t, err)
}

func TestTransformRoundTripsEachVariant(t *testing.T) {
	cases := []string{
		`{"sort":[{"field":"revenue","dir":"desc"}]}`,
		`{"limit":20}`,
		`{"filter":{"field":"revenue","op":"!=","value":null}}`,
	}

	for _, raw := range cases {
		var tr Transform
		require.NoError(t, json.Unmarshal([]byte(raw), &tr))

		out, err := json.Marshal(tr)
		require.NoError(t, err)

		var roundTripped, original map[string]any
		require.NoError(t, json.Unmarshal(out, &roundTripped))
		require.NoError(t, json.Unmarshal([]byte(raw), &original))
		require.Equal(t, original, roundTripped)
	}
}

func TestTransformUnmarshalRejectsUnknownKey(t *testing.T) {
	var tr Transform
	err := json.Unmarshal([]byte(`{"group_by":["x"]}`), &tr)
	require.Error(t, err)
}

func TestVizSpecFullRoundTrip(t *testing.T) {
	raw := `{
		"version": "1",
		"title": "Revenue by region",
		"data": {"source": {"file": "result_abc123.json"}},
		"chart": {"type": "bar", "encoding": {"x": {"field": "region"}, "y": {"field": "revenue"}}},
		"transform": [{"sort": [{"field": "revenue", "dir": "desc"}]}, {"limit": 20}]
	}`

	var spec VizSpec
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))
	require.Equal(t, "1", spec.Version)
	require.NotNil(t, spec.Chart.Bar)
	require.Equal(t, "region", spec.Chart.Bar.Encoding.X.Field)
	require.Len(t, spec.Transform, 2)
	require.NotNil(t, spec.Transform[0].Sort)
	require.NotNil(t, spec.Transform[1].Limit)

	out, err := json.Marshal(spec)
	require.NoError(t, err)
	var back VizSpec
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, spec.Data.Source.File, back.Data.Source.File)
}
