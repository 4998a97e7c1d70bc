// Package trigger implements user-authored alert rules: a parsed
// filter/map/reduce/compare pipeline evaluated against the listings of a
// single market event.
package trigger

import (
	"encoding/json"
	"fmt"
)

// Filter 过滤器变体（闭合集合），对单条挂单做布尔判断。
type Filter string

const (
	// FilterHQ keeps high-quality listings only.
	FilterHQ Filter = "hq"
)

// Mapper 将挂单投影为标量。
type Mapper string

const (
	// MapperUnitPrice projects the listing's unit price.
	MapperUnitPrice Mapper = "pricePerUnit"
)

// Reducer 将映射后的标量序列折叠为一个值。
type Reducer string

const (
	ReducerMin  Reducer = "min"
	ReducerMax  Reducer = "max"
	ReducerMean Reducer = "mean"
)

// ComparisonKind 比较方向。
type ComparisonKind string

const (
	ComparisonLessThan    ComparisonKind = "lt"
	ComparisonGreaterThan ComparisonKind = "gt"
)

// Comparison tests the reduced scalar against a user-chosen target.
type Comparison struct {
	Kind   ComparisonKind `json:"kind"`
	Target float64        `json:"target"`
}

// Trigger 是存储层反序列化出的一条完整告警规则。
type Trigger struct {
	Filters    []Filter   `json:"filters"`
	Mapper     Mapper     `json:"mapper"`
	Reducer    Reducer    `json:"reducer"`
	Comparison Comparison `json:"comparison"`
}

// UserAlert pairs a stored trigger with its owner-facing settings. An empty
// DiscordWebhook disables delivery but the trigger is still evaluated.
type UserAlert struct {
	Name           string
	DiscordWebhook string
}

// Parse decodes a stored trigger definition and rejects unknown operator
// variants. Unknown variants are a configuration error, never a runtime skip.
func Parse(raw []byte) (*Trigger, error) {
	var t Trigger
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse trigger: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every operator against its closed variant set.
func (t *Trigger) Validate() error {
	for _, f := range t.Filters {
		switch f {
		case FilterHQ:
		default:
			return fmt.Errorf("unknown filter %q", f)
		}
	}
	switch t.Mapper {
	case MapperUnitPrice:
	default:
		return fmt.Errorf("unknown mapper %q", t.Mapper)
	}
	switch t.Reducer {
	case ReducerMin, ReducerMax, ReducerMean:
	default:
		return fmt.Errorf("unknown reducer %q", t.Reducer)
	}
	switch t.Comparison.Kind {
	case ComparisonLessThan, ComparisonGreaterThan:
	default:
		return fmt.Errorf("unknown comparison %q", t.Comparison.Kind)
	}
	return nil
}
