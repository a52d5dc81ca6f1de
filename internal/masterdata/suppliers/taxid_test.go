package suppliers

import (
	"testing"

	"github.com/stretchr/testify/require"

	internalShared "github.com/tonica-music/catalog/internal/shared"
)

var knownValid = []string{
	"11222333000181",
	"19100000000191",
	"33000167000101",
	"60070190000145",
	"00000000000191",
	"12345678000195",
	"04530976000127",
}

func TestNormalizeCNPJIsIdempotent(t *testing.T) {
	inputs := []string{"11.222.333/0001-81", " 11 222 333 0001 81 ", "abc", "", "12.345.678/0001-95\n", "０１２"}
	for _, in := range inputs {
		once := NormalizeCNPJ(in)
		require.Equal(t, once, NormalizeCNPJ(once), in)
		for _, r := range once {
			require.True(t, r >= '0' && r <= '9', in)
		}
	}
	require.Equal(t, "11222333000181", NormalizeCNPJ("11.222.333/0001-81"))
}

func TestValidCNPJAcceptsKnownNumbers(t *testing.T) {
	for _, c := range knownValid {
		require.True(t, ValidCNPJ(c), c)
	}
}

func TestValidCNPJRejectsEverySingleDigitMutation(t *testing.T) {
	for _, c := range knownValid {
		for i := 0; i < len(c); i++ {
			for d := byte('0'); d <= '9'; d++ {
				if c[i] == d {
					continue
				}
				mutated := []byte(c)
				mutated[i] = d
				require.False(t, ValidCNPJ(string(mutated)), "%s -> %s", c, mutated)
			}
		}
	}
}

func TestValidCNPJRejectsShapes(t *testing.T) {
	for _, c := range []string{"", "1122233300018", "112223330001811", "11111111111111", "00000000000000", "1122233300018a"} {
		require.False(t, ValidCNPJ(c), c)
	}
}

func TestParseCNPJ(t *testing.T) {
	cnpj, err := ParseCNPJ("11.222.333/0001-81")
	require.NoError(t, err)
	require.Equal(t, "11222333000181", cnpj)

	_, err = ParseCNPJ("11.222.333/0001-82")
	require.ErrorIs(t, err, internalShared.ErrInvalidTaxID)
}
