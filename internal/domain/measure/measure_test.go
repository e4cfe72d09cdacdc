package measure_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/meetpoints/internal/domain/measure"
	"github.com/okian/meetpoints/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given track input", t, func() {
		Convey("Plain seconds are accepted", func() {
			v, err := measure.Parse("12.34", model.CategoryTrack)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 12.34, 1e-9)
		})

		Convey("Minutes and seconds are combined", func() {
			v, err := measure.Parse(" 1:23.45 ", model.CategoryTrack)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 83.45, 1e-9)

			v, err = measure.Parse("0:59.99", model.CategoryTrack)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 59.99, 1e-9)
		})

		Convey("Malformed clocks are rejected", func() {
			for _, raw := range []string{"1:60", "1:2:3", "-1:10", "1.5:10", "a:10", "1:-3", "0:00", ""} {
				_, err := measure.Parse(raw, model.CategoryTrack)
				So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
			}
		})

		Convey("Hex, exponent and signed shapes are rejected", func() {
			for _, raw := range []string{"0x1p3", "1e1", "+12.5", "+1:00", "1:+5", "1:-0", "1:1e1", ".5", "5.", "1_000"} {
				_, err := measure.Parse(raw, model.CategoryTrack)
				So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
			}
			for _, raw := range []string{"0x1p3", "1e1", "+5.2"} {
				_, err := measure.Parse(raw, model.CategoryField)
				So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
			}
		})

		Convey("Non-positive and non-finite values are rejected", func() {
			for _, raw := range []string{"0", "-3.2", "NaN", "Inf", "abc"} {
				_, err := measure.Parse(raw, model.CategoryTrack)
				So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
			}
		})
	})

	Convey("Given field input", t, func() {
		Convey("Positive meters are accepted", func() {
			v, err := measure.Parse("5.2", model.CategoryField)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 5.2)
		})

		Convey("A clock is rejected", func() {
			_, err := measure.Parse("1:23", model.CategoryField)
			So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
		})

		Convey("Zero is rejected", func() {
			_, err := measure.Parse("0", model.CategoryField)
			So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
		})
	})

	Convey("Given an unknown category", t, func() {
		_, err := measure.Parse("1", model.Category("Swim"))
		So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given numeric input", t, func() {
		v, err := measure.Normalize(10.5, model.CategoryTrack)
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 10.5)

		_, err = measure.Normalize(math.NaN(), model.CategoryField)
		So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
		_, err = measure.Normalize(math.Inf(1), model.CategoryTrack)
		So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
		_, err = measure.Normalize(-1, model.CategoryTrack)
		So(errors.Is(err, measure.ErrInvalidMeasurementFormat), ShouldBeTrue)
	})
}

func TestFormatRoundTrip(t *testing.T) {
	Convey("Given random canonical values", t, func() {
		rng := rand.New(rand.NewSource(11))
		for i := 0; i < 500; i++ {
			v := rng.Float64()*600 + 0.001
			for _, c := range []model.Category{model.CategoryTrack, model.CategoryField} {
				back, err := measure.Parse(measure.Format(v, c), c)
				So(err, ShouldBeNil)
				So(math.Abs(back-v), ShouldBeLessThan, 1e-6)
			}
		}
	})
}

func TestDisplay(t *testing.T) {
	Convey("Given values to show", t, func() {
		So(measure.Display(12.34, model.CategoryTrack), ShouldEqual, "12.34s")
		So(measure.Display(83.45, model.CategoryTrack), ShouldEqual, "1:23.45")
		So(measure.Display(600, model.CategoryTrack), ShouldEqual, "10:00.00")
		So(measure.Display(119.999, model.CategoryTrack), ShouldEqual, "2:00.00")
		So(measure.Display(5.2, model.CategoryField), ShouldEqual, "5.20m")
	})
}
