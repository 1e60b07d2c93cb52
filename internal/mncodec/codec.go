package mncodec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"stegtext/internal/services"
)

const (
	// EndOfText is the code point appended after the last secret character.
	EndOfText = 3
	// PairWidth is the number of decimal digits in one rendered pair.
	PairWidth = 4
	// Modulus bounds M and N to [0, Modulus).
	Modulus = 21

	paramQ = 3
	paramX = 3
	paramY = 5
	paramZ = 2
)

// Pair is a single M/N digit pair derived from one octal token.
type Pair struct {
	M int
	N int
}

// String renders the pair as four zero-padded decimal digits.
func (p Pair) String() string {
	return fmt.Sprintf("%02d%02d", p.M, p.N)
}

// Encoding is the result of encoding one secret.
type Encoding struct {
	Tokens []string
	Pairs  []string
}

// Payload concatenates all pairs into the digit string that is embedded.
func (e Encoding) Payload() string {
	return strings.Join(e.Pairs, "")
}

// SecretToOctal converts every character of secret to its base-8 code point
// representation and appends the end-of-text token.
func SecretToOctal(secret string) []string {
	tokens := make([]string, 0, len(secret)+1)
	for _, r := range secret {
		tokens = append(tokens, strconv.FormatInt(int64(r), 8))
	}
	return append(tokens, strconv.FormatInt(EndOfText, 8))
}

// PairFromToken applies the quadratic transform to one octal token.
func PairFromToken(token string) (Pair, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
	if err != nil {
		return Pair{}, services.Wrap(services.ErrMalformedTransformInput, "mncodec", "parse token", fmt.Sprintf("token %q", token), err)
	}
	return calculatePair(value)
}

func calculatePair(value int64) (Pair, error) {
	const a, b = 1, 1
	c := -2 * value

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return Pair{}, services.Wrap(
			services.ErrMalformedTransformInput,
			"mncodec",
			"transform",
			fmt.Sprintf("negative discriminant %d for token value %d", discriminant, value),
			nil,
		)
	}

	sqrtD := math.Sqrt(float64(discriminant))
	root1 := (-b + sqrtD) / (2 * a)
	root2 := (-b - sqrtD) / (2 * a)
	positiveRoot := root2
	if root1 > 0 {
		positiveRoot = root1
	}

	m := floorMod(int64(math.Floor(positiveRoot))*paramZ+paramX*floorMod(c, paramQ), Modulus)

	// |c/2| - m(m+1)/2 is truncated toward zero before the offset, matching
	// an int() cast rather than a floor.
	inner := math.Abs(float64(c)/2) - float64(m)*(float64(m+1)/2)
	n := floorMod(int64(inner)-paramY, Modulus)

	return Pair{M: int(m), N: int(n)}, nil
}

// floorMod returns a mod m with the sign of m, unlike Go's % operator.
func floorMod(a, m int64) int64 {
	r := a % m
	if r != 0 && (r < 0) != (m < 0) {
		r += m
	}
	return r
}

// Encode converts secret into its octal tokens and digit pairs. A token that
// cannot be transformed aborts the whole encoding instead of being dropped.
func Encode(secret string) (Encoding, error) {
	tokens := SecretToOctal(secret)
	pairs := make([]string, 0, len(tokens))
	for _, token := range tokens {
		pair, err := PairFromToken(token)
		if err != nil {
			return Encoding{}, err
		}
		pairs = append(pairs, pair.String())
	}
	return Encoding{Tokens: tokens, Pairs: pairs}, nil
}

// EncodeSecret returns only the digit-pair sequence for secret.
func EncodeSecret(secret string) ([]string, error) {
	enc, err := Encode(secret)
	if err != nil {
		return nil, err
	}
	return enc.Pairs, nil
}
