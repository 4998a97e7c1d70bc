package trigger

import (
	"fmt"
	"strings"
)

func (f Filter) String() string {
	switch f {
	case FilterHQ:
		return "Item is HQ"
	default:
		return string(f)
	}
}

func (m Mapper) String() string {
	switch m {
	case MapperUnitPrice:
		return "Unit price"
	default:
		return string(m)
	}
}

func (r Reducer) String() string {
	switch r {
	case ReducerMin:
		return "Min"
	case ReducerMax:
		return "Max"
	case ReducerMean:
		return "Mean"
	default:
		return string(r)
	}
}

func (c Comparison) String() string {
	switch c.Kind {
	case ComparisonLessThan:
		return fmt.Sprintf("Less than %v", c.Target)
	case ComparisonGreaterThan:
		return fmt.Sprintf("Greater than %v", c.Target)
	default:
		return string(c.Kind)
	}
}

// String 渲染规则的多行人类可读描述，嵌入通知正文。
func (t *Trigger) String() string {
	lines := make([]string, 0, len(t.Filters))
	for _, f := range t.Filters {
		lines = append(lines, f.String())
	}
	return fmt.Sprintf("%s\n\nField: %s\nStat: %s\nComparison: %s",
		strings.Join(lines, "\n"), t.Mapper, t.Reducer, t.Comparison)
}
