package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/pcsite/backend/internal/domain"
)

// Compiled regex patterns for name normalization
var (
	// Trademark glyphs are dropped before NFKC, which would otherwise expand ™ to "TM"
	trademarkPattern = regexp.MustCompile(`[™®©℠]`)

	// Innermost parenthetical or bracketed group; applied until none remain
	parentheticalPattern = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]`)

	// Separators and punctuation that never carry identity
	separatorPattern = regexp.MustCompile("[-_/,|:;\"'!?*#&~`]")

	// Memory sizes like "8GB", "16 GB", "1TB", "512MB"
	memorySizePattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:GB|TB|MB)\b`)

	// Local-script generation markers like "14세대"
	generationPattern = regexp.MustCompile(`\d{1,2}세대`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// transliterations maps local-script series words onto their vendor spelling.
// Replacements are padded with spaces so the series token stays separate.
var transliterations = []struct {
	from string
	to   string
}{
	{"라이젠", " RYZEN "},
	{"스레드리퍼", " THREADRIPPER "},
	{"코어", " CORE "},
	{"울트라", " ULTRA "},
	{"펜티엄", " PENTIUM "},
	{"셀러론", " CELERON "},
	{"애슬론", " ATHLON "},
	{"지포스", " GEFORCE "},
	{"라데온", " RADEON "},
	{"엔비디아", " NVIDIA "},
	{"인텔", " INTEL "},
}

// vendorPrefixes are chipset-vendor words stripped from the start of a name
var vendorPrefixes = map[string]bool{
	"NVIDIA":  true,
	"GEFORCE": true,
	"AMD":     true,
	"RADEON":  true,
	"INTEL":   true,
}

// boilerplateTokens are packaging, distribution and marketing words
var boilerplateTokens = map[string]bool{
	"LAPTOP":   true,
	"NOTEBOOK": true,
	"OEM":      true,
	"BULK":     true,
	"TRAY":     true,
	"MPK":      true,
	"BOX":      true,
	"NEW":      true,
	"정품":       true,
	"벌크":       true,
	"멀티팩":      true,
	"병행수입":     true,
	"새제품":      true,
	"대원씨티에스":   true,
	"피씨디렉트":    true,
	"코잇":       true,
	"제이씨현":     true,
	"에즈윈":      true,
}

// maxNormalizePasses bounds the fixed-point loop; every pass after the first only removes text
const maxNormalizePasses = 8

// Normalize canonicalizes a raw product name into a comparable string.
// It upper-cases, folds compatibility forms, strips parentheticals, separators,
// memory sizes, boilerplate and leading vendor words, and collapses whitespace.
// The result is a fixed point: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	return normalize(raw, false)
}

// NormalizeFor is Normalize for names of one category. Categories whose products
// differ by capacity keep the size, glued to its unit ("16 GB" becomes "16GB").
func NormalizeFor(raw string, category domain.Category) string {
	return normalize(raw, category.CapacityIsIdentity())
}

func normalize(raw string, keepSizes bool) string {
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, " ")
	}

	current := raw
	for i := 0; i < maxNormalizePasses; i++ {
		next := normalizePass(current, keepSizes)
		if next == current {
			break
		}
		current = next
	}
	return current
}

func normalizePass(s string, keepSizes bool) string {
	s = trademarkPattern.ReplaceAllString(s, "")
	s = norm.NFKC.String(s)
	s = strings.ToUpper(s)

	for _, t := range transliterations {
		s = strings.ReplaceAll(s, t.from, t.to)
	}

	for {
		stripped := parentheticalPattern.ReplaceAllStringFunc(s, func(group string) string {
			if !keepSizes {
				return " "
			}
			// capacity inside "(16GB)" still identifies the product
			return " " + strings.Join(memorySizePattern.FindAllString(group, -1), " ") + " "
		})
		if stripped == s {
			break
		}
		s = stripped
	}

	s = separatorPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	if keepSizes {
		s = memorySizePattern.ReplaceAllStringFunc(s, func(size string) string {
			return " " + compact(size) + " "
		})
	} else {
		s = memorySizePattern.ReplaceAllString(s, " ")
	}
	s = generationPattern.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if boilerplateTokens[token] {
			continue
		}
		if len(kept) == 0 && vendorPrefixes[token] {
			continue
		}
		kept = append(kept, token)
	}

	return strings.Join(kept, " ")
}

// Tokenize splits a name into its canonical tokens
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// keywordTokens returns the tokens of an already canonical name longer than minLength runes
func keywordTokens(canonical string, minLength int) []string {
	var kept []string
	for _, token := range strings.Fields(canonical) {
		if utf8.RuneCountInString(token) > minLength {
			kept = append(kept, token)
		}
	}
	return kept
}

// compact removes every space, for space-insensitive comparison
func compact(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// containsPhrase reports whether needle occurs in haystack on token boundaries.
// Both arguments must already be canonical.
func containsPhrase(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
