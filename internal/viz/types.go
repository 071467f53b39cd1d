// Package viz implements the visualization sub-agent (spec §4.5 / C7): it
// turns a natural-language chart request plus a cached SQL result into a
// validated VizSpec, with validation-feedback retry.
package viz

import (
	"encoding/json"
	"fmt"
)

// FieldEncoding is a single axis/series binding (spec §3 VizSpec encoding).
type FieldEncoding struct {
	Field string `json:"field"`
	Type  string `json:"type,omitempty"` // category|number|time, default "number"
}

// ChartOptions are shared cosmetic knobs across every chart type.
type ChartOptions struct {
	Width   *int   `json:"width,omitempty"`
	Height  *int   `json:"height,omitempty"`
	XLabel  string `json:"x_label,omitempty"`
	YLabel  string `json:"y_label,omitempty"`
	Color   string `json:"color,omitempty"`
	Marker  string `json:"marker,omitempty"`
}

// Encoding is the x/y/series shape shared by bar, line, and scatter charts.
type Encoding struct {
	X      FieldEncoding  `json:"x"`
	Y      FieldEncoding  `json:"y"`
	Series *FieldEncoding `json:"series,omitempty"`
}

type BarChart struct {
	Type        string       `json:"type"`
	Encoding    Encoding     `json:"encoding"`
	Orientation string       `json:"orientation,omitempty"` // vertical|horizontal, default vertical
	Mode        string       `json:"mode,omitempty"`        // grouped|stacked, default grouped
	Options     ChartOptions `json:"options,omitempty"`
}

type LineChart struct {
	Type     string       `json:"type"`
	Encoding Encoding     `json:"encoding"`
	Options  ChartOptions `json:"options,omitempty"`
}

type ScatterChart struct {
	Type     string       `json:"type"`
	Encoding Encoding     `json:"encoding"`
	Options  ChartOptions `json:"options,omitempty"`
}

type BoxplotConfig struct {
	LabelField string `json:"label_field"`
	ValueField string `json:"value_field"`
}

type BoxplotChart struct {
	Type    string        `json:"type"`
	Boxplot BoxplotConfig `json:"boxplot"`
	Options ChartOptions  `json:"options,omitempty"`
}

type HistogramConfig struct {
	Field string `json:"field"`
	Bins  int    `json:"bins,omitempty"` // 2-100, default 20
}

type HistogramChart struct {
	Type      string          `json:"type"`
	Histogram HistogramConfig `json:"histogram"`
	Options   ChartOptions    `json:"options,omitempty"`
}

// Chart is the ChartSpec discriminated union (spec §3: "tagged chart
// (bar|line|scatter|boxplot|histogram)"). Exactly one field is set,
// selected by the JSON "type" key on decode.
type Chart struct {
	Bar       *BarChart
	Line      *LineChart
	Scatter   *ScatterChart
	Boxplot   *BoxplotChart
	Histogram *HistogramChart
}

func (c *Chart) UnmarshalJSON(data []byte) error {
	var discriminator struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &discriminator); err != nil {
		return err
	}
	switch discriminator.Type {
	case "bar":
		var v BarChart
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Bar = &v
	case "line":
		var v LineChart
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Line = &v
	case "scatter":
		var v ScatterChart
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Scatter = &v
	case "boxplot":
		var v BoxplotChart
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Boxplot = &v
	case "histogram":
		var v HistogramChart
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Histogram = &v
	default:
		return fmt.Errorf("viz: unknown chart type %q", discriminator.Type)
	}
	return nil
}

func (c Chart) MarshalJSON() ([]byte, error) {
	switch {
	case c.Bar != nil:
		return json.Marshal(c.Bar)
	case c.Line != nil:
		return json.Marshal(c.Line)
	case c.Scatter != nil:
		return json.Marshal(c.Scatter)
	case c.Boxplot != nil:
		return json.Marshal(c.Boxplot)
	case c.Histogram != nil:
		return json.Marshal(c.Histogram)
	}
	return nil, fmt.Errorf("viz: chart has no variant set")
}

type SortItem struct {
	Field string `json:"field"`
	Dir   string `json:"dir,omitempty"` // asc|desc, default asc
}

type SortTransform struct {
	Sort []SortItem `json:"sort"`
}

type LimitTransform struct {
	Limit int `json:"limit"`
}

type FilterConfig struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

type FilterTransform struct {
	Filter FilterConfig `json:"filter"`
}

// Transform is the Transform union (spec §3): exactly one of Sort, Limit,
// or Filter is set, selected by which JSON key is present.
type Transform struct {
	Sort   *SortTransform
	Limit  *LimitTransform
	Filter *FilterTransform
}

func (t *Transform) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch {
	case probe["sort"] != nil:
		var v SortTransform
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		t.Sort = &v
	case probe["limit"] != nil:
		var v LimitTransform
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		t.Limit = &v
	case probe["filter"] != nil:
		var v FilterTransform
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		t.Filter = &v
	default:
		return fmt.Errorf("viz: transform has none of sort/limit/filter")
	}
	return nil
}

func (t Transform) MarshalJSON() ([]byte, error) {
	switch {
	case t.Sort != nil:
		return json.Marshal(t.Sort)
	case t.Limit != nil:
		return json.Marshal(t.Limit)
	case t.Filter != nil:
		return json.Marshal(t.Filter)
	}
	return nil, fmt.Errorf("viz: transform has no variant set")
}

type DataSource struct {
	File string `json:"file"`
}

type DataConfig struct {
	Source DataSource `json:"source"`
}

// VizSpec is the sub-agent's validated output (spec §3, §4.5).
type VizSpec struct {
	Version     string      `json:"version"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Data        DataConfig  `json:"data"`
	Chart       Chart       `json:"chart"`
	Transform   []Transform `json:"transform,omitempty"`
}

// ColumnSummary is one entry of the data summary handed to the sub-agent
// (spec §4.5 step 1).
type ColumnSummary struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Sample []any  `json:"sample"`
}
