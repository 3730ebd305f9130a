package money

// Max returns the larger amount. An unset operand counts as zero when treatNilAsZero
// is true, otherwise the other operand wins outright.
func Max(a, b Money, treatNilAsZero bool) Money {
	if !a.IsSet() && !b.IsSet() {
		return a
	}
	if !a.IsSet() {
		if treatNilAsZero && b.IsNegative() {
			return b.Zero()
		}
		return b
	}
	if !b.IsSet() {
		if treatNilAsZero && a.IsNegative() {
			return a.Zero()
		}
		return a
	}
	if a.CompareTo(b) >= 0 {
		return a
	}
	return b
}

// Min returns the smaller of two set amounts.
func Min(a, b Money) Money {
	if a.CompareTo(b) <= 0 {
		return a
	}
	return b
}

// Plus adds two possibly unset amounts.
func Plus(a, b Money) Money {
	if !a.IsSet() {
		return b
	}
	if !b.IsSet() {
		return a
	}
	return a.Plus(b)
}

// NegativeToZero floors an amount at zero.
func NegativeToZero(m Money) Money {
	if m.IsNegative() {
		return m.Zero()
	}
	return m
}

// Sum adds amounts, starting from zero.
func Sum(zero Money, amounts ...Money) Money {
	total := zero
	for _, a := range amounts {
		total = total.Plus(a)
	}
	return total
}
