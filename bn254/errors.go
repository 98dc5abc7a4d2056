package bn254

import "errors"

var (
	// ErrNotInvertible is returned when an inverse of zero is requested.
	ErrNotInvertible = errors.New("bn254: element is not invertible")

	// ErrDegenerateLine is returned when a tangent or chord would need a
	// vertical line; unreachable for honest BN254 inputs but reported
	// rather than trusted.
	ErrDegenerateLine = errors.New("bn254: degenerate line through input points")

	// ErrPointAtInfinity is returned when an affine step meets the
	// identity where the loop layout forbids it.
	ErrPointAtInfinity = errors.New("bn254: unexpected point at infinity")
)
