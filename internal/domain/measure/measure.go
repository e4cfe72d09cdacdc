// Package measure converts raw performance input into canonical values:
// seconds for timed events and meters for distance events.
package measure

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/meetpoints/internal/domain/model"
)

var (
	decimalShape = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	minutesShape = regexp.MustCompile(`^[0-9]+$`)
)

// Parse reads raw text for an event of category c. Track accepts plain
// seconds ("12.34") or minutes and seconds ("1:23.45"); Field accepts plain
// meters.
func Parse(raw string, c model.Category) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, invalid("empty value")
	}
	switch c {
	case model.CategoryTrack:
		if strings.Contains(s, ":") {
			return parseClock(s)
		}
		return parseDecimal(s, c)
	case model.CategoryField:
		if strings.Contains(s, ":") {
			return 0, invalid("field results are plain meters")
		}
		return parseDecimal(s, c)
	default:
		return 0, invalid(fmt.Sprintf("unknown category %q", c))
	}
}

// Normalize validates an already numeric value for category c.
func Normalize(v float64, c model.Category) (float64, error) {
	if !c.Valid() {
		return 0, invalid(fmt.Sprintf("unknown category %q", c))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid("value is not finite")
	}
	if v <= 0 {
		return 0, invalid(fmt.Sprintf("%s must be positive", c.Unit()))
	}
	return v, nil
}

// Format renders v so that Parse(Format(v, c), c) returns v.
func Format(v float64, _ model.Category) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Display renders v for people: "12.34s" and "1:23.45" for Track, "5.20m"
// for Field. Values are rounded to hundredths.
func Display(v float64, c model.Category) string {
	if c != model.CategoryTrack {
		return fmt.Sprintf("%.2fm", v)
	}
	cs := int64(math.Round(v * 100))
	if cs < 6000 {
		return fmt.Sprintf("%.2fs", float64(cs)/100)
	}
	return fmt.Sprintf("%d:%05.2f", cs/6000, float64(cs%6000)/100)
}

func parseDecimal(s string, c model.Category) (float64, error) {
	if !decimalShape.MatchString(s) {
		return 0, invalid(fmt.Sprintf("%q is not a plain decimal", s))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid(fmt.Sprintf("%q is not a number", s))
	}
	return Normalize(v, c)
}

func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, invalid(fmt.Sprintf("%q has more than one colon", s))
	}
	if !minutesShape.MatchString(parts[0]) {
		return 0, invalid(fmt.Sprintf("%q minutes must be a non-negative integer", s))
	}
	if !decimalShape.MatchString(parts[1]) {
		return 0, invalid(fmt.Sprintf("%q seconds are not a plain decimal", s))
	}
	mins, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, invalid(fmt.Sprintf("%q minutes must be a non-negative integer", s))
	}
	secs, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, invalid(fmt.Sprintf("%q seconds are not a number", s))
	}
	if secs >= 60 {
		return 0, invalid(fmt.Sprintf("%q seconds must be in [0, 60)", s))
	}
	return Normalize(float64(mins)*60+secs, model.CategoryTrack)
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMeasurementFormat, reason)
}
