package hooks

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/mcncl/jsonext/internal/models"
)

// SetHook maps Set([...]) to mapset.Set[any].
type SetHook struct{}

// Name implements Hook.
func (h *SetHook) Name() string { return "Set" }

// Decode implements Decoder.
func (h *SetHook) Decode(tag string, args []any) (any, bool, error) {
	if tag != "Set" {
		return nil, false, nil
	}
	if len(args) != 1 {
		return nil, true, fmt.Errorf("Set expects 1 argument, got %d", len(args))
	}
	elems, ok := args[0].([]any)
	if !ok {
		return nil, true, fmt.Errorf("Set expects an array argument, got %T", args[0])
	}
	set := mapset.NewSet[any]()
	seen := make(map[any]struct{}, len(elems))
	for _, e := range elems {
		if !hashable(e) {
			return nil, true, fmt.Errorf("unhashable set element of type %T", e)
		}
		// The first of several equal elements is the one kept.
		key := elementKey(e)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		set.Add(e)
	}
	return set, true, nil
}

// bigKey identifies an integer outside the int64 range by its digits.
type bigKey string

// elementKey returns the identity used to deduplicate set elements. Numbers
// that are equal share a key whatever their Go type, so 1 and 1.0 collide and
// two *big.Int values with the same digits do too.
func elementKey(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case *big.Int:
		if n.IsInt64() {
			return n.Int64()
		}
		return bigKey(n.String())
	case float64:
		if math.IsInf(n, 0) || n != math.Trunc(n) {
			return n
		}
		if n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n)
		}
		i, _ := big.NewFloat(n).Int(nil)
		return bigKey(i.String())
	}
	return v
}

// Encode implements Encoder. Elements are written in a stable order so the
// same set always renders to the same text.
func (h *SetHook) Encode(v any) (string, []any, bool, error) {
	var elems []any
	switch s := v.(type) {
	case mapset.Set[any]:
		elems = s.ToSlice()
	case mapset.Set[string]:
		elems = toAny(s.ToSlice())
	case mapset.Set[int]:
		elems = toAny(s.ToSlice())
	case mapset.Set[int64]:
		elems = toAny(s.ToSlice())
	case mapset.Set[float64]:
		elems = toAny(s.ToSlice())
	default:
		return "", nil, false, nil
	}
	slices.SortFunc(elems, compareValues)
	return "Set", []any{elems}, true, nil
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func hashable(v any) bool {
	if v == nil {
		return true
	}
	switch v.(type) {
	case []any, *models.Object, mapset.Set[any]:
		return false
	}
	return reflect.TypeOf(v).Comparable()
}

// rank orders values of different types: null, bool, number, string, time,
// everything else.
func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int64, float64, *big.Int:
		return 2
	case string:
		return 3
	case time.Time:
		return 4
	}
	return 5
}

func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 0:
		return 0
	case 1:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		}
		return 1
	case 2:
		return toBigFloat(a).Cmp(toBigFloat(b))
	case 3:
		return strings.Compare(a.(string), b.(string))
	case 4:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return strings.Compare(fmt.Sprintf("%T:%v", a, a), fmt.Sprintf("%T:%v", b, b))
}

func toBigFloat(v any) *big.Float {
	switch n := v.(type) {
	case int:
		return new(big.Float).SetInt64(int64(n))
	case int64:
		return new(big.Float).SetInt64(n)
	case *big.Int:
		return new(big.Float).SetInt(n)
	case float64:
		if n != n {
			// NaN sorts before every other number.
			return new(big.Float).SetInf(true)
		}
		return big.NewFloat(n)
	}
	return new(big.Float)
}
