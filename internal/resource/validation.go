package resource

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

const stepTolerance = 1e-9

// Normalize checks v against the descriptor and returns it in canonical
// form: int for integers, float64 for numbers, string for enums and
// strings, bool for bools. Returns ErrInvalidValue on any mismatch.
func Normalize(d Descriptor, v any) (any, error) {
	switch d.Kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, invalid(d, "expected bool, got %T", v)
		}
		return b, nil

	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, invalid(d, "expected string, got %T", v)
		}
		return s, nil

	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return nil, invalid(d, "expected string, got %T", v)
		}
		if !slices.Contains(d.Values, s) {
			return nil, invalid(d, "%q is not one of %v", s, d.Values)
		}
		return s, nil

	case KindNumber:
		f, ok := toFloat(v)
		if !ok {
			return nil, invalid(d, "expected number, got %T", v)
		}
		if err := checkRange(d, f); err != nil {
			return nil, err
		}
		return f, nil

	case KindInteger:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) {
			return nil, invalid(d, "expected integer, got %v", v)
		}
		if err := checkRange(d, f); err != nil {
			return nil, err
		}
		return int(f), nil
	}

	return nil, invalid(d, "unknown kind %q", d.Kind)
}

func checkRange(d Descriptor, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return invalid(d, "%v is not finite", f)
	}
	r := d.Range
	if r == nil {
		return nil
	}
	if f < r.Min || f > r.Max {
		return invalid(d, "%v outside [%v, %v]", f, r.Min, r.Max)
	}
	if r.Step > 0 {
		n := (f - r.Min) / r.Step
		if math.Abs(n-math.Round(n)) > stepTolerance {
			return invalid(d, "%v is not a multiple of %v from %v", f, r.Step, r.Min)
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func invalid(d Descriptor, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidValue, d.Name, fmt.Sprintf(format, args...))
}
