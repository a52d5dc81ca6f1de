package suppliers

import (
	"fmt"
	"strings"

	"github.com/tonica-music/catalog/internal/shared"
)

const cnpjLength = 14

var (
	firstCheckWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondCheckWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// NormalizeCNPJ strips every non-digit character.
func NormalizeCNPJ(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCNPJ reports whether cnpj, already normalized, has 14 digits, is not
// a run of one repeated digit, and carries both mod-11 check digits.
func ValidCNPJ(cnpj string) bool {
	if len(cnpj) != cnpjLength {
		return false
	}
	repeated := true
	for i := 0; i < cnpjLength; i++ {
		if cnpj[i] < '0' || cnpj[i] > '9' {
			return false
		}
		if cnpj[i] != cnpj[0] {
			repeated = false
		}
	}
	if repeated {
		return false
	}
	return checkDigit(cnpj[:12], firstCheckWeights) == int(cnpj[12]-'0') &&
		checkDigit(cnpj[:13], secondCheckWeights) == int(cnpj[13]-'0')
}

// ParseCNPJ normalizes and validates raw.
func ParseCNPJ(raw string) (string, error) {
	cnpj := NormalizeCNPJ(raw)
	if !ValidCNPJ(cnpj) {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidTaxID, raw)
	}
	return cnpj, nil
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}
