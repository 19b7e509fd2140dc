package goexafs

import (
	"math"

	"github.com/kacperjurak/goexafs/pkg/models"
)

// Window evaluates the taper w over k. The taper rises over
// [kmin-dk/2, kmin+dk/2] and falls over [kmax-dk/2, kmax+dk/2]; dk == 0
// gives a box.
func Window(w models.Window, k []float64, kmin, kmax, dk float64) []float64 {
	out := make([]float64, len(k))
	x1, x2 := kmin-dk/2, kmin+dk/2
	x3, x4 := kmax-dk/2, kmax+dk/2

	for i, x := range k {
		if dk == 0 {
			if x >= kmin && x <= kmax {
				out[i] = 1
			}
			continue
		}

		switch w {
		case models.WindowGaussian:
			switch {
			case x < x2:
				out[i] = math.Exp(-(x - x2) * (x - x2) / (2 * dk * dk))
			case x > x3:
				out[i] = math.Exp(-(x - x3) * (x - x3) / (2 * dk * dk))
			default:
				out[i] = 1
			}
			continue
		case models.WindowSine:
			if x > x1 && x < x4 {
				out[i] = math.Sin(math.Pi * (x4 - x) / (x4 - x1))
			}
			continue
		}

		switch {
		case x < x1 || x > x4:
			out[i] = 0
		case x < x2:
			out[i] = rise(w, (x-x1)/(x2-x1))
		case x > x3:
			out[i] = rise(w, (x4-x)/(x4-x3))
		default:
			out[i] = 1
		}
	}
	return out
}

// rise maps t in [0, 1] onto the taper edge.
func rise(w models.Window, t float64) float64 {
	switch w {
	case models.WindowParzen:
		return t
	case models.WindowWelch:
		return 1 - (1-t)*(1-t)
	default:
		s := math.Sin(math.Pi / 2 * t)
		return s * s
	}
}
