package hooks

import (
	"fmt"
	"math"
	"math/big"
	"time"
)

// DateHook maps Date(<milliseconds since epoch>) to time.Time in UTC.
type DateHook struct {
	// TruncateToSeconds drops the millisecond part when decoding, matching
	// producers that only kept whole seconds.
	TruncateToSeconds bool
}

// Name implements Hook.
func (h *DateHook) Name() string { return "Date" }

// Decode implements Decoder.
func (h *DateHook) Decode(tag string, args []any) (any, bool, error) {
	if tag != "Date" {
		return nil, false, nil
	}
	if len(args) != 1 {
		return nil, true, fmt.Errorf("Date expects 1 argument, got %d", len(args))
	}
	ms, err := toMillis(args[0])
	if err != nil {
		return nil, true, err
	}
	if h.TruncateToSeconds {
		sec := ms / 1000
		if ms%1000 < 0 {
			sec--
		}
		return time.Unix(sec, 0).UTC(), true, nil
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

// Encode implements Encoder.
func (h *DateHook) Encode(v any) (string, []any, bool, error) {
	switch t := v.(type) {
	case time.Time:
		return "Date", []any{t.UnixMilli()}, true, nil
	case *time.Time:
		if t == nil {
			return "", nil, false, nil
		}
		return "Date", []any{t.UnixMilli()}, true, nil
	}
	return "", nil, false, nil
}

func toMillis(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case *big.Int:
		if !n.IsInt64() {
			return 0, fmt.Errorf("Date argument %s is out of range", n)
		}
		return n.Int64(), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, fmt.Errorf("Date argument %v is out of range", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("Date argument must be a number, got %T", v)
}
