package calculator

import "math"

// AddChecked returns a + b, or ErrOverflow if the sum does not fit in an int.
func AddChecked(a, b int) (int, error) {
	sum := a + b
	// Overflow iff both operands share a sign and the sum's sign differs.
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SubtractChecked returns a - b, or ErrOverflow if the difference does not fit in an int.
func SubtractChecked(a, b int) (int, error) {
	diff := a - b
	if (a >= 0) != (b >= 0) && (diff >= 0) != (a >= 0) {
		return 0, ErrOverflow
	}
	return diff, nil
}

// MultiplyChecked returns a * b, or ErrOverflow if the product does not fit in an int.
func MultiplyChecked(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) {
		return 0, ErrOverflow
	}
	product := a * b
	if product/b != a {
		return 0, ErrOverflow
	}
	return product, nil
}

// DivideChecked returns a / b truncated toward zero. It fails with
// ErrDivisionByZero when b is zero and ErrOverflow for math.MinInt / -1.
func DivideChecked(a, b int) (int, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if a == math.MinInt && b == -1 {
		return 0, ErrOverflow
	}
	return a / b, nil
}
