// Package calculator provides basic integer arithmetic operations.
//
// Add, Subtract and Multiply wrap on overflow using two's complement, the
// same as Go's built-in operators. Divide truncates toward zero and returns
// ErrDivisionByZero for a zero divisor. The *Checked variants report
// ErrOverflow instead of wrapping.
//
// Every function is pure and safe for concurrent use.
package calculator

import "errors"

var (
	// ErrDivisionByZero is returned when the divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrOverflow is returned by checked operations whose result does not fit in an int.
	ErrOverflow = errors.New("integer overflow")
)

// Add returns the sum of a and b.
func Add(a, b int) int {
	return a + b
}

// Subtract returns a minus b.
func Subtract(a, b int) int {
	return a - b
}

// Multiply returns a times b.
func Multiply(a, b int) int {
	return a * b
}

// Divide returns a divided by b, truncated toward zero.
// Divide(math.MinInt, -1) wraps to math.MinInt.
func Divide(a, b int) (int, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}
