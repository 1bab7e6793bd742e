// Package solver provides univariate bracketed root-finding used by the
// valuation engine: Brent's method as the primary strategy and a
// derivative-free secant iteration as the fallback.
package solver

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoSignChange indicates the objective has the same sign at both
	// bracket endpoints, so no root is guaranteed inside the bracket.
	ErrNoSignChange = errors.New("solver: objective does not change sign over the bracket")

	// ErrNoConvergence indicates the iteration cap was exhausted before the
	// tolerance was met.
	ErrNoConvergence = errors.New("solver: did not converge within the iteration limit")
)

// Objective is a scalar function whose root is sought.
type Objective func(x float64) float64

// Config carries the shared solver settings. Instances hold only immutable
// configuration and are safe to copy and share.
type Config struct {
	Tolerance     float64
	MaxIterations int
}

// DefaultConfig returns the engine-wide solver defaults.
func DefaultConfig() Config {
	return Config{Tolerance: 1e-6, MaxIterations: 100}
}

func (c Config) withDefaults() Config {
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-6
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 100
	}
	return c
}

// Brent finds a root of f in [a, b] using Brent's method: inverse quadratic
// interpolation where it helps, secant steps where it is safe, and bisection
// as the guaranteed-progress fallback. The bracket endpoints must produce
// opposite signs.
func Brent(f Objective, a, b float64, cfg Config) (float64, error) {
	cfg = cfg.withDefaults()

	fa := f(a)
	fb := f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if fa*fb > 0 {
		return 0, fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", ErrNoSignChange, a, fa, b, fb)
	}

	// Ensure b is the best estimate so far.
	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}

	c, fc := a, fa
	d := b - a
	e := d

	for i := 0; i < cfg.MaxIterations; i++ {
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*math.Nextafter(math.Abs(b), math.Inf(1))*eps + 0.5*cfg.Tolerance
		m := 0.5 * (c - b)
		if math.Abs(m) <= tol || fb == 0 {
			return b, nil
		}

		if math.Abs(e) < tol || math.Abs(fa) <= math.Abs(fb) {
			// Bisection.
			d = m
			e = m
		} else {
			s := fb / fa
			var p, q float64
			if a == c {
				// Secant step.
				p = 2 * m * s
				q = 1 - s
			} else {
				// Inverse quadratic interpolation.
				qa := fa / fc
				r := fb / fc
				p = s * (2*m*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = m
				e = m
			}
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else if m > 0 {
			b += tol
		} else {
			b -= tol
		}
		fb = f(b)

		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
	}

	return 0, fmt.Errorf("%w: after %d iterations, residual %g", ErrNoConvergence, cfg.MaxIterations, fb)
}

const eps = 2.220446049250313e-16

// Secant runs a derivative-free secant iteration from an initial guess. It is
// the fallback for objectives where no sign-changing bracket could be found.
// Callers should validate the returned root against the objective before
// trusting it.
func Secant(f Objective, guess float64, cfg Config) (float64, error) {
	cfg = cfg.withDefaults()

	x0 := guess
	x1 := guess * 1.1
	if x1 == x0 {
		x1 = x0 + 1e-4
	}
	f0 := f(x0)
	f1 := f(x1)

	for i := 0; i < cfg.MaxIterations; i++ {
		if f1 == 0 {
			return x1, nil
		}
		denom := f1 - f0
		if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
			return 0, fmt.Errorf("%w: flat secant at x=%g", ErrNoConvergence, x1)
		}
		x2 := x1 - f1*(x1-x0)/denom
		if math.IsNaN(x2) || math.IsInf(x2, 0) {
			return 0, fmt.Errorf("%w: iteration diverged at step %d", ErrNoConvergence, i)
		}
		if math.Abs(x2-x1) < cfg.Tolerance {
			return x2, nil
		}
		x0, f0 = x1, f1
		x1 = x2
		f1 = f(x1)
	}

	return 0, fmt.Errorf("%w: after %d iterations", ErrNoConvergence, cfg.MaxIterations)
}
