package store

import (
	"fmt"
	"time"
)

// compare orders two BSON-scalar values the way MongoDB would for the
// handful of types the coordination core's range queries actually use.
// It exists only to give the in-memory fake the same ordering semantics
// a real server provides; production code never needs client-side
// comparison because Mongo does it server-side.
func compare(a, b any) int {
	switch av := a.(type) {
	case int:
		return compareOrdered(av, toInt(b))
	case int32:
		return compareOrdered(int(av), toInt(b))
	case int64:
		return compareOrdered(av, int64(toInt(b)))
	case float64:
		return compareOrdered(av, toFloat(b))
	case string:
		bv, _ := b.(string)
		return compareOrdered(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0
		}
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		default:
			return 0
		}
	default:
		return compareOrdered(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func compareOrdered[T int | int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return 0
	}
}
