// Package ordering sorts rows by order keys with explicit null placement.
//
// It reproduces SQLite's ordering so that the in-memory store and the
// SQLite store agree row for row:
//   - NULL is the lowest value: first when ascending, last when descending,
//     unless a key asks for NullsFirst or NullsLast
//   - integers (and booleans, stored as 0/1) sort before text
//   - text compares by bytes (BINARY collation) after NFC normalisation
package ordering

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/queryir"
)

// typeRank follows SQLite's cross-type order: NULL < numeric < text.
func typeRank(v ir.IRValue) int {
	switch v.(type) {
	case nil, ir.IRNull:
		return 0
	case ir.IRInt, ir.IRBool:
		return 1
	case ir.IRString:
		return 2
	default:
		return 3
	}
}

func numeric(v ir.IRValue) int64 {
	switch val := v.(type) {
	case ir.IRInt:
		return int64(val)
	case ir.IRBool:
		if val {
			return 1
		}
	}
	return 0
}

// Compare orders two values ascending. Strings compare by NFC-normalised
// bytes, integers numerically and false before true.
func Compare(a, b ir.IRValue) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case 0:
		return 0
	case 1:
		return cmp.Compare(numeric(a), numeric(b))
	case 2:
		return strings.Compare(nfc(string(a.(ir.IRString))), nfc(string(b.(ir.IRString))))
	default:
		return 0
	}
}

func nfc(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// CompareRows compares two rows under keys. The first key is primary; later
// keys only break ties.
func CompareRows(a, b ir.IRObject, keys []queryir.OrderKey) int {
	for _, k := range keys {
		if c := compareKey(a.Get(k.Field), b.Get(k.Field), k); c != 0 {
			return c
		}
	}
	return 0
}

func compareKey(a, b ir.IRValue, k queryir.OrderKey) int {
	aNull, bNull := ir.IsNull(a), ir.IsNull(b)
	switch {
	case aNull && bNull:
		return 0
	case aNull || bNull:
		// Placement is independent of direction.
		nullsFirst := k.EffectiveNulls() == queryir.NullsFirst
		if aNull == nullsFirst {
			return -1
		}
		return 1
	}

	c := Compare(a, b)
	if k.Direction == queryir.Descending {
		return -c
	}
	return c
}

// Sort orders rows in place by keys. The sort is stable: rows that tie on
// every key keep their input order.
func Sort(rows []ir.IRObject, keys []queryir.OrderKey) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(rows, func(a, b ir.IRObject) int {
		return CompareRows(a, b, keys)
	})
}
