package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

var magnitudes = []struct {
	scale  float64
	suffix string
}{
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Compact abbreviates large numbers: 50000 -> 50K, 1500 -> 1.5K, 1234567 -> 1.2M.
func Compact(v float64) string {
	abs := math.Abs(v)
	for i, m := range magnitudes {
		if abs < m.scale {
			continue
		}
		scaled := math.Round(v/m.scale*10) / 10
		// 999999 rounds to 1000K; show it as 1M.
		if math.Abs(scaled) >= 1000 && i > 0 {
			m = magnitudes[i-1]
			scaled = math.Round(v/m.scale*10) / 10
		}
		return strconv.FormatFloat(scaled, 'f', -1, 64) + m.suffix
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func withUnit(v float64, unit string) string {
	s := Compact(v)
	switch len(unit) {
	case 0:
		return s
	case 1:
		return s + unit
	default:
		return s + " " + unit
	}
}

func displayRange(d model.Definition, op model.FilterOp, lo, hi float64) string {
	if op == model.OpBetween {
		return fmt.Sprintf("%s %s - %s", d.Label, withUnit(lo, d.Unit), withUnit(hi, d.Unit))
	}
	return fmt.Sprintf("%s %s %s", d.Label, op.Symbol(), withUnit(lo, d.Unit))
}

func displayBool(d model.Definition, v bool) string {
	if v {
		return d.Label + ": yes"
	}
	return d.Label + ": no"
}

func displayText(d model.Definition, v string) string {
	return d.Label + ": " + v
}
