package rating

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSolveVolatility(t *testing.T) {
	Convey("Given typical first-comparison quantities", t, func() {
		// Fresh item vs fresh item, win: phi ~2.0148, v ~8.93, delta ~2.99.
		phi := 350.0 / 173.7178
		g := impact(phi)
		e := 0.5
		v := 1 / (g * g * e * (1 - e))
		delta := v * g * 0.5

		Convey("When the solver runs", func() {
			sigma, err := solveVolatility(delta, phi, v, 0.06)

			Convey("Then it converges to a positive volatility near the input", func() {
				So(err, ShouldBeNil)
				So(sigma, ShouldBeGreaterThan, 0)
				So(math.Abs(sigma-0.06), ShouldBeLessThan, 0.01)
			})

			Convey("And the returned value is a root of the volatility function", func() {
				So(err, ShouldBeNil)
				a := math.Log(0.06 * 0.06)
				x := math.Log(sigma * sigma)
				So(math.Abs(volatilityFn(x, delta, phi, v, a)), ShouldBeLessThan, 1e-4)
			})
		})
	})

	Convey("Given a surprising result against a certain opponent", t, func() {
		// Small phi and large delta force the ln(delta^2-phi^2-v) bracket.
		phi := 50.0 / 173.7178
		v := 1.2
		delta := 2.5

		Convey("When the solver runs", func() {
			sigma, err := solveVolatility(delta, phi, v, 0.06)

			Convey("Then it still converges", func() {
				So(err, ShouldBeNil)
				So(sigma, ShouldBeGreaterThan, 0)

				Convey("And volatility grows to absorb the surprise", func() {
					So(sigma, ShouldBeGreaterThan, 0.06)
				})
			})
		})
	})

	Convey("Given a sweep of valid inputs", t, func() {
		Convey("Then the solver never diverges", func() {
			for _, phi := range []float64{0.1, 0.5, 1.0, 2.0148} {
				for _, v := range []float64{0.5, 2, 8.93, 50} {
					for _, delta := range []float64{-3, -0.5, 0, 0.5, 3} {
						sigma, err := solveVolatility(delta, phi, v, 0.06)
						So(err, ShouldBeNil)
						So(sigma, ShouldBeGreaterThan, 0)
						So(math.IsNaN(sigma), ShouldBeFalse)
					}
				}
			}
		})
	})
}
