// Package ranges parses and samples scalar-or-range configuration values.
// A value is either a single number ("5") or an inclusive min-max pair
// ("1-10"); duration values additionally accept h/m/s unit suffixes
// ("1h30m", "90s"). All durations normalize to whole seconds.
package ranges

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

// ParseError describes a range expression that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ranges: invalid value %q: %s", e.Input, e.Reason)
}

// Range is an inclusive numeric interval. A scalar is a degenerate range
// with Min == Max. The zero value is the scalar 0.
type Range struct {
	Min int
	Max int
}

// New returns a Range after checking Min <= Max.
func New(min, max int) (Range, error) {
	if min > max {
		return Range{}, &ParseError{
			Input:  fmt.Sprintf("%d-%d", min, max),
			Reason: "min must be less than or equal to max",
		}
	}

	return Range{Min: min, Max: max}, nil
}

// Scalar returns the degenerate range [n, n].
func Scalar(n int) Range { return Range{Min: n, Max: n} }

// IsScalar reports whether the range holds a single value.
func (r Range) IsScalar() bool { return r.Min == r.Max }

// Pick draws a value uniformly from [Min, Max], inclusive of both ends.
func (r Range) Pick(rng *rand.Rand) int {
	if r.Min == r.Max {
		return r.Min
	}

	return r.Min + rng.IntN(r.Max-r.Min+1)
}

// String renders the range in the same form Parse accepts.
func (r Range) String() string {
	if r.IsScalar() {
		return strconv.Itoa(r.Min)
	}

	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Converter turns one side of a range expression into a number. The default
// is Atoi; duration fields use ParseDuration.
type Converter func(string) (int, error)

// Atoi converts a plain decimal integer.
func Atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}

	return n, nil
}

// durationRe matches XhYmZs with each part optional and allowing one decimal
// digit, e.g. "1.5h", "90s", "1h 30m".
var durationRe = regexp.MustCompile(
	`^([0-9]+(?:\.[0-9])?h)?\s*([0-9]+(?:\.[0-9])?m)?\s*([0-9]+(?:\.[0-9])?s)?$`,
)

// ParseDuration converts a duration expression to whole seconds. A bare
// number is taken as seconds; otherwise the XhYmZs form is accepted with
// h/m/s being individually optional.
func ParseDuration(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	m := durationRe.FindStringSubmatch(s)
	if m == nil || m[0] == "" {
		return 0, fmt.Errorf("expected XhYmZs or a number of seconds")
	}

	part := func(val, suffix string) float64 {
		if val == "" {
			return 0
		}
		f, _ := strconv.ParseFloat(strings.TrimSuffix(val, suffix), 64)
		return f
	}

	secs := part(m[1], "h")*3600 + part(m[2], "m")*60 + part(m[3], "s")

	return int(secs), nil
}

// Parse reads a scalar or min-max expression, bounds-checking each side
// against [min, max]. A max of -1 disables the upper bound.
func Parse(expr string, min, max int, conv Converter) (Range, error) {
	parseSide := func(s string) (int, error) {
		n, err := conv(s)
		if err != nil {
			return 0, &ParseError{Input: expr, Reason: err.Error()}
		}
		if n < min {
			return 0, &ParseError{
				Input:  expr,
				Reason: fmt.Sprintf("value must be at least %d: %d", min, n),
			}
		}
		if max >= 0 && n > max {
			return 0, &ParseError{
				Input:  expr,
				Reason: fmt.Sprintf("value must be between %d and %d: %d", min, max, n),
			}
		}
		return n, nil
	}

	if !strings.Contains(expr, "-") {
		n, err := parseSide(expr)
		if err != nil {
			return Range{}, err
		}

		return Scalar(n), nil
	}

	parts := strings.Split(expr, "-")
	if len(parts) != 2 {
		return Range{}, &ParseError{Input: expr, Reason: "range must be in the form min-max"}
	}

	lo, err := parseSide(parts[0])
	if err != nil {
		return Range{}, err
	}

	hi, err := parseSide(parts[1])
	if err != nil {
		return Range{}, err
	}

	if lo > hi {
		return Range{}, &ParseError{Input: expr, Reason: "min must be less than or equal to max"}
	}

	return Range{Min: lo, Max: hi}, nil
}

// ParseIntensity reads a 0-100 percentage range.
func ParseIntensity(expr string) (Range, error) {
	return Parse(expr, 0, 100, Atoi)
}

// ParseSeconds reads a non-negative duration range with unit suffixes.
func ParseSeconds(expr string) (Range, error) {
	return Parse(expr, 0, -1, ParseDuration)
}

// Possibility is a trigger chance in percent. 0 never triggers and 100
// always triggers; this boundary holds exactly, not probabilistically.
type Possibility int

// Valid reports whether the possibility lies within [0, 100].
func (p Possibility) Valid() bool { return p >= 0 && p <= 100 }

// Roll samples the possibility once.
func (p Possibility) Roll(rng *rand.Rand) bool {
	if p <= 0 {
		return false
	}
	if p >= 100 {
		return true
	}

	return rng.IntN(100) < int(p)
}
