package usecase

import (
	"regexp"
	"strings"

	"github.com/pcsite/backend/internal/domain"
)

// IdentityKey is the semantic fingerprint of a graphics card or processor name
type IdentityKey struct {
	Series     string
	Model      string
	Qualifiers []string
	glue       bool
	suffixes   map[string]string
}

// String renders the key: series, model and qualifiers joined by spaces.
// Glued rows (processors) attach the qualifiers directly to the model number.
func (k IdentityKey) String() string {
	if k.Model == "" {
		return ""
	}
	parts := []string{k.Series, k.Model}
	if k.glue {
		parts[1] = k.Model + strings.Join(k.Qualifiers, "")
	} else {
		parts = append(parts, k.Qualifiers...)
	}
	return strings.Join(parts, " ")
}

// Variants returns the primary key followed by its lookup variants in fixed order:
// space-free, suffix-toggled, suffix-toggled space-free. Duplicates are removed.
func (k IdentityKey) Variants() []string {
	primary := k.String()
	if primary == "" {
		return nil
	}

	variants := []string{primary, compact(primary)}
	if toggled, ok := k.toggleSuffix(); ok {
		t := toggled.String()
		variants = append(variants, t, compact(t))
	}
	return dedupeStrings(variants)
}

// toggleSuffix swaps a soft qualifier (one that does not change identity) on or off
func (k IdentityKey) toggleSuffix() (IdentityKey, bool) {
	if len(k.suffixes) == 0 {
		return k, false
	}
	current := strings.Join(k.Qualifiers, "")
	swapped, ok := k.suffixes[current]
	if !ok {
		return k, false
	}

	toggled := k
	toggled.Qualifiers = nil
	if swapped != "" {
		toggled.Qualifiers = []string{swapped}
	}
	return toggled, true
}

// keyRule is one row of the extraction table. Rows are evaluated in order and the
// first match wins, so a series that is a superstring of another (GTX before GT,
// XTX before XT) must come first.
type keyRule struct {
	name         string
	seriesPrefix string // prepended to the captured series
	series       string // literal series when the pattern has no series group
	pattern      *regexp.Regexp
	qualifiers   []string // allowed vocabulary, in emission order
	glue         bool
	suffixes     map[string]string // soft-qualifier toggles used for key variants
	legacy       bool
}

// intelSuffixes toggles the "F" (no integrated graphics) marker, which does not
// change processor performance identity
var intelSuffixes = map[string]string{
	"":   "F",
	"F":  "",
	"K":  "KF",
	"KF": "K",
}

var graphicsRules = []keyRule{
	{
		name:       "geforce-rtx",
		pattern:    regexp.MustCompile(`\b(?P<series>RTX)\s?(?P<model>\d{3,5})(?P<quals>(?:\s?(?:TI|SUPER))*)\b`),
		qualifiers: []string{"TI", "SUPER"},
	},
	{
		name:       "geforce-gtx",
		pattern:    regexp.MustCompile(`\b(?P<series>GTX)\s?(?P<model>\d{3,5})(?P<quals>(?:\s?(?:TI|SUPER))*)\b`),
		qualifiers: []string{"TI", "SUPER"},
	},
	{
		name:    "geforce-gt",
		pattern: regexp.MustCompile(`\b(?P<series>GT)\s?(?P<model>\d{3,5})\b`),
	},
	{
		name:       "radeon-rx",
		pattern:    regexp.MustCompile(`\b(?P<series>RX)\s?(?P<model>\d{3,5})(?P<quals>(?:\s?(?:XTX|XT|GRE))*)\b`),
		qualifiers: []string{"XTX", "XT", "GRE"},
	},
	{
		name:    "intel-arc",
		pattern: regexp.MustCompile(`\b(?P<series>ARC)\s?(?P<model>[AB]\d{3})\b`),
	},
	{
		name:       "radeon-r-legacy",
		pattern:    regexp.MustCompile(`\b(?P<series>R[579])\s?(?P<model>\d{3})(?P<quals>X?)\b`),
		qualifiers: []string{"X"},
		glue:       true,
		legacy:     true,
	},
	{
		name:    "radeon-hd-legacy",
		pattern: regexp.MustCompile(`\b(?P<series>HD)\s?(?P<model>\d{4})\b`),
		legacy:  true,
	},
	{
		name:    "geforce-bare-legacy",
		pattern: regexp.MustCompile(`\b(?P<series>GEFORCE)\s(?P<model>\d{3})\b`),
		legacy:  true,
	},
}

var processorRules = []keyRule{
	{
		name:         "core-ultra",
		seriesPrefix: "ULTRA ",
		pattern:      regexp.MustCompile(`\bULTRA\s?(?P<series>[3579])\s?(?P<model>\d{3})(?P<quals>KF|K|F|HX|H|U|V)?\b`),
		qualifiers:   []string{"KF", "K", "F", "HX", "H", "U", "V"},
		glue:         true,
		suffixes:     intelSuffixes,
	},
	{
		name:         "core-i",
		seriesPrefix: "I",
		pattern:      regexp.MustCompile(`\bI(?P<series>[3579])\s?(?P<model>\d{3,5})(?P<quals>KS|KF|K|F|T|XE|X)?\b`),
		qualifiers:   []string{"KS", "KF", "K", "F", "T", "XE", "X"},
		glue:         true,
		suffixes:     intelSuffixes,
	},
	{
		name:         "ryzen",
		seriesPrefix: "RYZEN ",
		pattern:      regexp.MustCompile(`\bRYZEN\s?(?P<series>[3579]|TR)\s?(?:PRO\s?)?(?P<model>\d{4})(?P<quals>X3D|XT|X|GE|G|F)?\b`),
		qualifiers:   []string{"X3D", "XT", "X", "GE", "G", "F"},
		glue:         true,
	},
	{
		name:       "threadripper",
		series:     "THREADRIPPER",
		pattern:    regexp.MustCompile(`\bTHREADRIPPER\s?(?:PRO\s?)?(?P<model>\d{4})(?P<quals>WX|X)?\b`),
		qualifiers: []string{"WX", "X"},
		glue:       true,
	},
	{
		name:    "pentium-celeron-legacy",
		pattern: regexp.MustCompile(`\b(?P<series>PENTIUM|CELERON)\s?(?:GOLD\s?|SILVER\s?)?(?P<model>G?\d{4})\b`),
		legacy:  true,
	},
	{
		name:       "athlon-legacy",
		pattern:    regexp.MustCompile(`\b(?P<series>ATHLON)\s?(?:GOLD\s?|SILVER\s?)?(?P<model>\d{3,4})(?P<quals>GE|G)?\b`),
		qualifiers: []string{"GE", "G"},
		glue:       true,
		legacy:     true,
	},
}

func rulesFor(category domain.Category) []keyRule {
	switch category {
	case domain.CategoryGraphics:
		return graphicsRules
	case domain.CategoryProcessor:
		return processorRules
	default:
		return nil
	}
}

// ParseKey derives the identity key of a raw name. It returns false for categories
// without key rules and for names where no row matches.
func ParseKey(rawName string, category domain.Category) (IdentityKey, bool) {
	rules := rulesFor(category)
	if len(rules) == 0 {
		return IdentityKey{}, false
	}

	canonical := Normalize(rawName)
	if canonical == "" {
		return IdentityKey{}, false
	}

	// Series rows first, legacy families only when no series row matched
	for _, legacy := range []bool{false, true} {
		for i := range rules {
			if rules[i].legacy != legacy {
				continue
			}
			if key, ok := rules[i].apply(canonical); ok {
				return key, true
			}
		}
	}
	return IdentityKey{}, false
}

// ExtractKey returns the identity key string. Categories without key rules fall back
// to the normalized name; an empty string signals extraction failure.
func ExtractKey(rawName string, category domain.Category) string {
	if !category.SupportsKeys() {
		return NormalizeFor(rawName, category)
	}
	key, ok := ParseKey(rawName, category)
	if !ok {
		return ""
	}
	return key.String()
}

func (r *keyRule) apply(canonical string) (IdentityKey, bool) {
	m := r.pattern.FindStringSubmatch(canonical)
	if m == nil {
		return IdentityKey{}, false
	}

	series := r.series
	if idx := r.pattern.SubexpIndex("series"); idx >= 0 {
		series = r.seriesPrefix + m[idx]
	}
	model := m[r.pattern.SubexpIndex("model")]

	var quals []string
	if idx := r.pattern.SubexpIndex("quals"); idx >= 0 && strings.TrimSpace(m[idx]) != "" {
		quals = r.orderQualifiers(m[idx])
	}

	return IdentityKey{
		Series:     series,
		Model:      model,
		Qualifiers: quals,
		glue:       r.glue,
		suffixes:   r.suffixes,
	}, true
}

// orderQualifiers picks the recognized qualifiers out of the captured text and
// emits them in vocabulary order, so "SUPER TI" and "TI SUPER" yield the same key
func (r *keyRule) orderQualifiers(captured string) []string {
	found := make(map[string]bool)
	rest := strings.ReplaceAll(captured, " ", "")
	for rest != "" {
		matched := false
		for _, q := range r.qualifiers {
			if strings.HasPrefix(rest, q) {
				found[q] = true
				rest = rest[len(q):]
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}

	var ordered []string
	for _, q := range r.qualifiers {
		if found[q] {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
