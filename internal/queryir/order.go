package queryir

import "fmt"

// Direction of an order key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc", "desc" and the empty string (ascending).
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("invalid direction %q (want asc or desc)", s)
	}
}

// NullPlacement controls where empty values sort for one key.
type NullPlacement int

const (
	// NullsDefault leaves placement to storage. SQLite treats NULL as the
	// lowest value: first when ascending, last when descending.
	NullsDefault NullPlacement = iota
	NullsFirst
	NullsLast
)

func (n NullPlacement) String() string {
	switch n {
	case NullsFirst:
		return "first"
	case NullsLast:
		return "last"
	default:
		return "default"
	}
}

// ParseNullPlacement accepts "first", "last", "default" and the empty string.
func ParseNullPlacement(s string) (NullPlacement, error) {
	switch s {
	case "", "default":
		return NullsDefault, nil
	case "first":
		return NullsFirst, nil
	case "last":
		return NullsLast, nil
	default:
		return NullsDefault, fmt.Errorf("invalid null placement %q (want first, last or default)", s)
	}
}

// OrderKey is one sort key. In a key sequence the first key is primary and
// later keys break ties in listed order.
type OrderKey struct {
	Field     string
	Direction Direction
	Nulls     NullPlacement
}

// Asc orders by field ascending.
func Asc(field string) OrderKey {
	return OrderKey{Field: field, Direction: Ascending}
}

// Desc orders by field descending.
func Desc(field string) OrderKey {
	return OrderKey{Field: field, Direction: Descending}
}

// NullsFirst returns a copy of k with empty values placed before present
// values, whatever the direction.
func (k OrderKey) NullsFirst() OrderKey {
	k.Nulls = NullsFirst
	return k
}

// NullsLast returns a copy of k with empty values placed after present
// values, whatever the direction.
func (k OrderKey) NullsLast() OrderKey {
	k.Nulls = NullsLast
	return k
}

// EffectiveNulls resolves NullsDefault to the SQLite placement for k's
// direction.
func (k OrderKey) EffectiveNulls() NullPlacement {
	if k.Nulls != NullsDefault {
		return k.Nulls
	}
	if k.Direction == Descending {
		return NullsLast
	}
	return NullsFirst
}

func (k OrderKey) String() string {
	if k.Nulls == NullsDefault {
		return fmt.Sprintf("%s %s", k.Field, k.Direction)
	}
	return fmt.Sprintf("%s %s nulls %s", k.Field, k.Direction, k.Nulls)
}
