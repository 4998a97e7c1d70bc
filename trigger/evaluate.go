package trigger

import (
	"market-alerts-go/market"
)

// reducerContext 保存折叠过程中的额外状态。两参数的 reduce 步骤本身恢复不了
// 均值所需的样本数，所以由它携带；作用域仅限一次 Evaluate 调用。
type reducerContext struct {
	n float64
}

func (f Filter) match(l market.Listing) bool {
	switch f {
	case FilterHQ:
		return l.HQ
	default:
		return false
	}
}

func (m Mapper) project(l market.Listing) float64 {
	switch m {
	case MapperUnitPrice:
		return float64(l.PricePerUnit)
	default:
		return 0
	}
}

func (r Reducer) fold(ctx *reducerContext, accum, item float64) float64 {
	switch r {
	case ReducerMin:
		if item < accum {
			return item
		}
		return accum
	case ReducerMax:
		if item > accum {
			return item
		}
		return accum
	case ReducerMean:
		// The seed is the first sample, so n starts at 1. Running
		// weighted mean keeps the fold incremental.
		next := (ctx.n*accum + item) / (ctx.n + 1)
		ctx.n++
		return next
	default:
		return accum
	}
}

func (c Comparison) match(value float64) bool {
	switch c.Kind {
	case ComparisonLessThan:
		return value < c.Target
	case ComparisonGreaterThan:
		return value > c.Target
	default:
		return false
	}
}

// Evaluate 按 filter → map → reduce → compare 的顺序对一帧挂单求值。
// 返回 (匹配值, true)；过滤后无挂单或比较不通过时返回 (0, false)。
// 空过滤器集合放行全部挂单。
func (t *Trigger) Evaluate(listings []market.Listing) (float64, bool) {
	ctx := reducerContext{n: 1}
	var accum float64
	seeded := false
	for _, l := range listings {
		keep := true
		for _, f := range t.Filters {
			if !f.match(l) {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}
		v := t.Mapper.project(l)
		if !seeded {
			accum = v
			seeded = true
			continue
		}
		accum = t.Reducer.fold(&ctx, accum, v)
	}
	if !seeded {
		// Vacuous: reduction over zero survivors is undefined.
		return 0, false
	}
	if !t.Comparison.match(accum) {
		return 0, false
	}
	return accum, true
}
