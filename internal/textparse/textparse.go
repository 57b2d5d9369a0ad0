// Package textparse turns raw OCR output from product packaging into
// structured label fields: brand, net weight, and product name. Matching is
// dictionary and pattern based; OCR noise is repaired with a correction
// table before any matching runs.
package textparse

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label is the structured result of parsing packaging text. Empty fields
// mean the parser found no confident match.
type Label struct {
	Brand  string
	Weight string
	Name   string
}

// knownBrands are matched against uppercased label lines as whole words.
// Matching is longest-first so "SÜTAŞ" wins over a hypothetical "SÜT".
var knownBrands = []string{
	"ÜLKER", "ETİ", "PINAR", "SÜTAŞ", "İÇİM", "TORKU",
	"HARNAS", "TAT", "TADIM", "KOSKA", "ŞÖLEN", "NESTLE",
}

// corrections repairs frequent OCR confusions in Turkish packaging text
// before matching. Keys and values are uppercase whole words.
var corrections = map[string]string{
	"SUT":      "SÜT",
	"CIKOLATA": "ÇİKOLATA",
	"ULKER":    "ÜLKER",
	"ETI":      "ETİ",
	"SUTAS":    "SÜTAŞ",
	"ICIM":     "İÇİM",
	"SOLEN":    "ŞÖLEN",
	"KREMASI":  "KREMASI",
	"PEYNIR":   "PEYNİR",
}

// junkMarkers flag lines that belong to ingredient or regulatory blocks,
// never to the product name.
var junkMarkers = []string{
	"İÇİNDEKİLER", "INGREDIENTS", "ICINDEKILER",
	"SON KULLANMA", "TETT", "BARKOD", "NET:",
	"ÜRETİM", "URETIM", "GIDA", "SANAYİ", "SANAYI",
}

var (
	weightRe = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(kg|gr|g|mg|ml|cl|lt|l|adet)\b`)
	wordRe   = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

func init() {
	sort.Slice(knownBrands, func(i, j int) bool {
		return len(knownBrands[i]) > len(knownBrands[j])
	})
}

// Parser extracts label fields from OCR text.
type Parser struct{}

// NewParser returns a label parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse splits raw OCR text into lines and extracts brand, weight, and
// product name. The name is the longest line left after junk filtering,
// with any brand and weight tokens stripped out and the remainder
// title-cased with Turkish letter rules.
func (p *Parser) Parse(raw string) Label {
	var label Label

	lines := splitLines(raw)
	if len(lines) == 0 {
		return label
	}

	var candidates []string
	for _, line := range lines {
		upper := upperTurkish(line)
		upper = applyCorrections(upper)

		if isJunk(upper) {
			continue
		}
		if label.Brand == "" {
			if b := findBrand(upper); b != "" {
				label.Brand = titleTurkish(lowerTurkish(b))
			}
		}
		if label.Weight == "" {
			if m := weightRe.FindStringSubmatch(line); m != nil {
				label.Weight = m[1] + " " + strings.ToLower(m[2])
			}
		}
		candidates = append(candidates, upper)
	}

	label.Name = pickName(candidates, label)
	return label
}

func pickName(candidates []string, label Label) string {
	best := ""
	for _, line := range candidates {
		cleaned := stripKnown(line, label)
		if len([]rune(cleaned)) > len([]rune(best)) {
			best = cleaned
		}
	}
	if best == "" {
		return ""
	}
	return titleTurkish(lowerTurkish(best))
}

// stripKnown removes brand and weight tokens from an uppercased line,
// leaving only product-name words.
func stripKnown(line string, label Label) string {
	if label.Brand != "" {
		line = removeWholeWord(line, upperTurkish(label.Brand))
	}
	line = weightRe.ReplaceAllString(line, "")

	words := wordRe.FindAllString(line, -1)
	return strings.Join(words, " ")
}

func removeWholeWord(s, word string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if f != word {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func findBrand(upper string) string {
	words := make(map[string]bool)
	for _, w := range strings.Fields(upper) {
		words[w] = true
	}
	for _, brand := range knownBrands {
		if words[brand] {
			return brand
		}
	}
	return ""
}

func isJunk(upper string) bool {
	for _, marker := range junkMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

func applyCorrections(upper string) string {
	fields := strings.Fields(upper)
	changed := false
	for i, f := range fields {
		if fixed, ok := corrections[f]; ok {
			fields[i] = fixed
			changed = true
		}
	}
	if !changed {
		return upper
	}
	return strings.Join(fields, " ")
}

func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		// Single characters are OCR noise, never a usable field.
		if len([]rune(line)) > 1 {
			lines = append(lines, line)
		}
	}
	return lines
}

func upperTurkish(s string) string {
	return strings.ToUpperSpecial(unicode.TurkishCase, s)
}

// titleTurkish builds a fresh caser per call; cases.Caser carries state and
// is not safe for concurrent use.
func titleTurkish(s string) string {
	return cases.Title(language.Turkish).String(s)
}

func lowerTurkish(s string) string {
	return strings.ToLowerSpecial(unicode.TurkishCase, s)
}
