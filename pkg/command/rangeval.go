package command

import "github.com/zurustar/elli/pkg/errs"

// Range is an inclusive numeric range with optional bounds.
// A Range with neither bound is invalid; NewRange and Validate report it
// as a ProtocolError.
type Range struct {
	Min *float64
	Max *float64
}

// NewRange creates a Range, failing when both bounds are absent.
func NewRange(min, max *float64) (Range, error) {
	r := Range{Min: min, Max: max}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Exactly is the range holding only v.
func Exactly(v float64) Range {
	return Range{Min: &v, Max: &v}
}

// AtLeast is `min..`.
func AtLeast(min float64) Range {
	return Range{Min: &min}
}

// AtMost is `..max`.
func AtMost(max float64) Range {
	return Range{Max: &max}
}

// Between is `min..max`.
func Between(min, max float64) Range {
	return Range{Min: &min, Max: &max}
}

// Validate reports a ProtocolError when both bounds are absent.
func (r Range) Validate() error {
	if r.Min == nil && r.Max == nil {
		return errs.Protocol("range", "both min and max are undefined")
	}
	return nil
}

func (r Range) selectorValue() {}

// String renders `min..max`, `..max`, `min..`, or the bare value when the
// bounds are equal. An invalid range renders as the empty string.
func (r Range) String() string {
	switch {
	case r.Min == nil && r.Max == nil:
		return ""
	case r.Min == nil:
		return ".." + formatNumber(*r.Max)
	case r.Max == nil:
		return formatNumber(*r.Min) + ".."
	case *r.Min == *r.Max:
		return formatNumber(*r.Min)
	default:
		return formatNumber(*r.Min) + ".." + formatNumber(*r.Max)
	}
}
