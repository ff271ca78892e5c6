package bloom

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// Parameters are the classic Bloom filter dimensions.
type Parameters struct {
	BitSize        int // m
	SetSize        int // n
	NumberOfHashes int // k
}

// sizing is the validated shape of construction input.
type sizing struct {
	BitSize        int `validate:"gt=0"`
	SetSize        int `validate:"gt=0"`
	NumberOfHashes int `validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func checkSizing(s sizing) error {
	if err := validate.Struct(&s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return nil
}

// OptimalNumberOfHashes returns ceil((m/n) * ln 2), the k that minimizes the
// false-positive rate for n elements in m bits. The ratio is taken in floating
// point; truncating m/n first under-counts k for small ratios (9/5 gives 2, not 1).
// Callers must pass m, n > 0.
func OptimalNumberOfHashes(bitSize, setSize int) int {
	k := int(math.Ceil(float64(bitSize) / float64(setSize) * math.Ln2))
	return max(k, 1)
}

// FalsePositiveProbability returns (1 - e^(-k*n/m))^k.
func FalsePositiveProbability(bitSize, setSize, numberOfHashes int) float64 {
	k := float64(numberOfHashes)
	return math.Pow(1-math.Exp(-k*float64(setSize)/float64(bitSize)), k)
}

// EstimateParameters sizes a filter for n elements at target false-positive
// rate p using the standard formulas:
//
//	m = -(n * ln p) / (ln 2)^2
//	k = (m / n) * ln 2
//
// n == 0 is treated as 1 and p outside (0,1) defaults to 1%.
func EstimateParameters(n uint64, p float64) (bitSize, numberOfHashes int) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = 0.01
	}
	m := int(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
	m = max(m, 1)
	return m, OptimalNumberOfHashes(m, int(n))
}
