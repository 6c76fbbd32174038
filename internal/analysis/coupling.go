package analysis

import (
	"math"

	"github.com/dejo1307/modmap/internal/model"
)

// ComputeCoupling fills the coupling metrics of every record in place.
//
// Ce is the number of distinct directories a record depends on. Ca is the
// number of other recorded directories whose relations name it. Instability
// is Ce/(Ce+Ca) rounded to three decimals, or 0 for an isolated directory.
func ComputeCoupling(a model.Analysis) {
	incoming := make(map[string]int, len(a))
	for key, rec := range a {
		for _, target := range rec.Relations {
			if target != key {
				incoming[target]++
			}
		}
	}

	for key, rec := range a {
		ce := len(rec.Relations)
		ca := incoming[key]
		rec.Metrics.EfferentCoupling = ce
		rec.Metrics.AfferentCoupling = ca
		rec.Metrics.Instability = Instability(ce, ca)
	}
}

// Instability returns Ce/(Ce+Ca) rounded to three decimals.
func Instability(ce, ca int) float64 {
	if ce+ca == 0 {
		return 0
	}
	return math.Round(float64(ce)/float64(ce+ca)*1000) / 1000
}
