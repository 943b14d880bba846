package queryir

// Opt is an optional predicate. The zero value is None.
type Opt struct {
	pred    Predicate
	present bool
}

// Some wraps a present predicate.
func Some(p Predicate) Opt {
	return Opt{pred: p, present: true}
}

// None is an absent predicate.
func None() Opt {
	return Opt{}
}

// Maybe is Some(p), or None when p is nil.
func Maybe(p Predicate) Opt {
	if p == nil {
		return None()
	}
	return Some(p)
}

// When is Some(p) if cond holds, None otherwise.
func When(cond bool, p Predicate) Opt {
	if !cond {
		return None()
	}
	return Maybe(p)
}

// Get returns the predicate and whether it is present.
func (o Opt) Get() (Predicate, bool) {
	return o.pred, o.present
}

// IsSome reports whether the option holds a predicate.
func (o Opt) IsSome() bool {
	return o.present
}

// Collect drops None entries and AND-folds the rest in order.
// Returns Unbound when nothing remains.
func Collect(opts ...Opt) Predicate {
	preds := make([]Predicate, 0, len(opts))
	for _, o := range opts {
		if p, ok := o.Get(); ok {
			preds = append(preds, p)
		}
	}
	return All(preds...)
}
