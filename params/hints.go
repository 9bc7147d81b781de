package params

import "math"

// Hint describes the default bounds and step of the interactive control
// presented for a binding. It is advice for the presentation layer, not a
// constraint enforced by the extractor.
type Hint struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Hint derives control bounds from the binding's category and current
// value magnitude.
func (b Binding) Hint() Hint {
	v := math.Abs(b.Value)

	switch b.Category {
	case CategoryRate:
		step := 0.001
		if v < 0.01 {
			step = 0.0001
		}
		return Hint{Min: 0.0001, Max: 1.0, Step: step}

	case CategoryRatio:
		return Hint{Min: 0.0, Max: 1.0, Step: 0.05}

	case CategoryCount:
		max := 100.0
		if v*5 > max {
			max = math.Ceil(v * 5)
		}
		step := 1.0
		if v >= 100 {
			step = 10
		}
		return Hint{Min: 1, Max: max, Step: step}

	case CategoryLimit:
		max := 50.0
		if v*3 > max {
			max = math.Ceil(v * 3)
		}
		return Hint{Min: 1, Max: max, Step: 1}

	default:
		if b.IsInt {
			max := v * 3
			if max < v+100 {
				max = v + 100
			}
			return Hint{Min: 0, Max: max, Step: 1}
		}
		switch {
		case v < 1:
			return Hint{Min: 0, Max: 1, Step: 0.05}
		case v < 10:
			return Hint{Min: 0, Max: v * 5, Step: 0.1}
		default:
			return Hint{Min: 0, Max: v * 3, Step: 0.1}
		}
	}
}
