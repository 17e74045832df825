package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Compiled patterns for concern label cleanup
var (
	labelSeparatorPattern = regexp.MustCompile(`[_\-./]+`)
	labelSpacePattern     = regexp.MustCompile(`\s+`)
)

// concernAliases maps folded labels emitted by detectors or typed by users
// to canonical concern names. Folded canonical names are added at init.
var concernAliases = map[string]string{
	"acne":              "Acné",
	"pimples":           "Acné",
	"dry skin":          "Peau sèche",
	"dryness":           "Peau sèche",
	"oily skin":         "Peau grasse",
	"oiliness":          "Peau grasse",
	"wrinkles":          "Rides",
	"fine lines":        "Rides",
	"dark spots":        "Taches pigmentaires",
	"hyperpigmentation": "Taches pigmentaires",
	"taches brunes":     "Taches pigmentaires",
	"redness":           "Rougeurs",
	"rosacea":           "Rougeurs",
	"enlarged pores":    "Pores dilatés",
	"pores":             "Pores dilatés",
	"dark circles":      "Cernes",
	"eye bags":          "Cernes",
	"blackheads":        "Points noirs",
}

func init() {
	for _, name := range SupportedConcerns() {
		concernAliases[foldLabel(name)] = name
	}
}

// ConcernResolver turns loosely written concern labels into canonical taxonomy names
type ConcernResolver struct{}

// NewConcernResolver creates a resolver backed by the static alias table
func NewConcernResolver() *ConcernResolver {
	return &ConcernResolver{}
}

// Resolve returns the canonical concern name for a label.
// Unknown labels are returned trimmed with ok=false.
func (r *ConcernResolver) Resolve(label string) (string, bool) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "", false
	}
	if p, ok := LookupConcern(trimmed); ok {
		return p.Name, true
	}
	if name, ok := concernAliases[foldLabel(trimmed)]; ok {
		return name, true
	}
	return trimmed, false
}

// ResolveAll resolves labels, dropping duplicates while keeping first-seen order.
// Unknown labels are kept as-is so callers can report them.
func (r *ConcernResolver) ResolveAll(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		name, _ := r.Resolve(l)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// foldLabel lowercases, strips diacritics and normalizes separators
func foldLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = labelSeparatorPattern.ReplaceAllString(folded, " ")
	folded = labelSpacePattern.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}
