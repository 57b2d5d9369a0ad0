package textparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUlkerLabel(t *testing.T) {
	label := NewParser().Parse("ÜLKER\nÇUBUK KREMA\n200 g")

	require.Equal(t, "Ülker", label.Brand)
	require.Equal(t, "200 g", label.Weight)
	require.Equal(t, "Çubuk Krema", label.Name)
}

func TestParseBrandAndWeightOnSameLine(t *testing.T) {
	label := NewParser().Parse("ETİ GOFRET 40 g\nSÜTLÜ ÇİKOLATALI")

	require.Equal(t, "Eti", label.Brand)
	require.Equal(t, "40 g", label.Weight)
	require.Equal(t, "Sütlü Çikolatalı", label.Name)
}

func TestParseAppliesOCRCorrections(t *testing.T) {
	// Tesseract commonly drops Turkish diacritics.
	label := NewParser().Parse("ULKER\nCIKOLATA 80 g")

	require.Equal(t, "Ülker", label.Brand)
	require.Equal(t, "80 g", label.Weight)
	require.Equal(t, "Çikolata", label.Name)
}

func TestParseSkipsIngredientLines(t *testing.T) {
	raw := "PINAR\nİÇİNDEKİLER: süt, tuz, maya çok uzun bir liste\nBEYAZ PEYNİR\n500 g"
	label := NewParser().Parse(raw)

	require.Equal(t, "Pınar", label.Brand)
	require.Equal(t, "500 g", label.Weight)
	require.Equal(t, "Beyaz Peynir", label.Name)
}

func TestParseNoBrandMatch(t *testing.T) {
	label := NewParser().Parse("MARKASIZ GOFRET\n100 g")

	require.Empty(t, label.Brand)
	require.Equal(t, "100 g", label.Weight)
	require.Equal(t, "Markasız Gofret", label.Name)
}

func TestParseEmptyAndNoiseInput(t *testing.T) {
	require.Equal(t, Label{}, NewParser().Parse(""))

	// Single characters are dropped before any matching.
	label := NewParser().Parse("a\nb\n.\n")
	require.Equal(t, Label{}, label)
}

func TestParseWeightUnits(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"NET 250 ml", "250 ml"},
		{"1 kg paket", "1 kg"},
		{"6 adet", "6 adet"},
		{"1,5 l şişe", "1,5 l"},
		{"330 ML", "330 ml"},
	}
	for _, tc := range cases {
		label := NewParser().Parse(tc.raw)
		require.Equal(t, tc.want, label.Weight, "input %q", tc.raw)
	}
}
