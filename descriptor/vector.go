package descriptor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Size is the fixed number of elements in every descriptor
const Size = 128

// epsilon guards division by a near zero norm
const epsilon = 1e-7

// Descriptor is an L2 normalized appearance signature used to re-identify a
// person across frames.  It carries no semantic meaning.
type Descriptor struct {
	// Values holds exactly Size elements
	Values []float64
	// Valid is false for the fallback descriptor produced from degenerate
	// geometry, which has no discriminative value
	Valid bool
}

// Invalid returns the fallback descriptor, an all zero vector flagged as
// invalid.  It is deterministic so matching against it is reproducible.
func Invalid() Descriptor {
	return Descriptor{
		Values: make([]float64, Size),
		Valid:  false,
	}
}

// New builds a valid descriptor from raw values by padding with zeros or
// truncating to Size elements and then L2 normalizing the result
func New(values []float64) Descriptor {

	out := make([]float64, Size)
	copy(out, values)

	return Descriptor{
		Values: Normalize(out),
		Valid:  true,
	}
}

// Normalize scales v to unit length in place and returns it.  A zero vector
// stays zero.
func Normalize(v []float64) []float64 {
	norm := floats.Norm(v, 2)
	floats.Scale(1/(norm+epsilon), v)
	return v
}

// Cosine returns the cosine similarity of two descriptors in the range
// [-1, 1].  Comparisons involving an invalid descriptor return 0.
func Cosine(a, b Descriptor) float64 {

	if !a.Valid || !b.Valid || len(a.Values) != len(b.Values) {
		return 0
	}

	denom := floats.Norm(a.Values, 2) * floats.Norm(b.Values, 2)

	if denom < epsilon {
		return 0
	}

	sim := floats.Dot(a.Values, b.Values) / denom

	return math.Max(-1, math.Min(1, sim))
}
