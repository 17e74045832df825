package usecase

import (
	"slices"
	"strings"

	"github.com/skinmatch/backend/internal/domain"
)

// defaultConcernDescription is shown when a concern has no profile
const defaultConcernDescription = "Préoccupation cutanée détectée lors de l'analyse."

// concernProfiles is the closed taxonomy of supported concerns, in display order.
// Keywords are lowercase; matching is case-insensitive substring search.
var concernProfiles = []domain.ConcernProfile{
	{
		Name:                  "Acné",
		EligibleSubcategories: []string{"visage"},
		PrimaryKeywords: []string{
			"acné", "anti-imperfections", "acide salicylique", "niacinamide",
			"purifiant", "zinc", "tea tree", "peroxyde de benzoyle",
		},
		SecondaryKeywords: []string{
			"imperfections", "boutons", "sébum", "matifiant", "nettoyant", "exfoliant", "pores",
		},
		ExclusionKeywords:    []string{"huile de coco", "vaseline", "beurre de cacao"},
		IncompatibleConcerns: []string{"Peau sèche"},
		Description:          "Imperfections et boutons liés à un excès de sébum et à l'obstruction des pores.",
		Severity:             domain.SeverityModerate,
	},
	{
		Name:                  "Peau sèche",
		EligibleSubcategories: []string{"visage", "corps"},
		PrimaryKeywords: []string{
			"hydratant", "hyaluronique", "nourrissant", "céramides", "karité", "glycérine", "relipidant",
		},
		SecondaryKeywords: []string{
			"hydratation", "confort", "sèche", "squalane", "crème riche", "baume", "apaisant",
		},
		ExclusionKeywords:    []string{"alcool dénaturé", "asséchant", "matifiant"},
		IncompatibleConcerns: []string{"Peau grasse"},
		Description:          "Peau qui tiraille, manque d'eau et de lipides, avec une sensation d'inconfort.",
		Severity:             domain.SeverityMild,
	},
	{
		Name:                  "Peau grasse",
		EligibleSubcategories: []string{"visage"},
		PrimaryKeywords: []string{
			"matifiant", "sébo-régulateur", "purifiant", "argile", "zinc", "niacinamide",
		},
		SecondaryKeywords: []string{
			"sébum", "brillance", "gel", "léger", "oil-free", "nettoyant",
		},
		ExclusionKeywords:    []string{"crème riche", "huile minérale", "vaseline"},
		IncompatibleConcerns: []string{"Peau sèche"},
		Description:          "Production excessive de sébum donnant un aspect brillant à la peau.",
		Severity:             domain.SeverityMild,
	},
	{
		Name:                  "Rides",
		EligibleSubcategories: []string{"visage", "yeux"},
		PrimaryKeywords: []string{
			"anti-rides", "anti-âge", "rétinol", "peptides", "collagène", "raffermissant", "bakuchiol",
		},
		SecondaryKeywords: []string{
			"rides", "ridules", "fermeté", "élasticité", "régénérant", "vitamine c", "nuit",
		},
		ExclusionKeywords: []string{"grains exfoliants"},
		Description:       "Rides et ridules liées au vieillissement cutané et à la perte de fermeté.",
		Severity:          domain.SeverityModerate,
	},
	{
		Name:                  "Taches pigmentaires",
		EligibleSubcategories: []string{"visage", "corps"},
		PrimaryKeywords: []string{
			"anti-taches", "vitamine c", "éclaircissant", "acide azélaïque", "niacinamide", "arbutine", "acide kojique",
		},
		SecondaryKeywords: []string{
			"taches", "teint", "éclat", "unifiant", "spf", "écran solaire",
		},
		ExclusionKeywords:    []string{"autobronzant", "bronzage"},
		IncompatibleConcerns: []string{"Rougeurs"},
		Description:          "Zones d'hyperpigmentation causées par le soleil, l'âge ou les cicatrices.",
		Severity:             domain.SeverityModerate,
	},
	{
		Name:                  "Rougeurs",
		EligibleSubcategories: []string{"visage"},
		PrimaryKeywords: []string{
			"apaisant", "anti-rougeurs", "centella", "cica", "calmant", "aloe vera", "eau thermale",
		},
		SecondaryKeywords: []string{
			"rougeurs", "sensible", "réparateur", "camomille", "avoine", "doux",
		},
		ExclusionKeywords:    []string{"menthol", "eucalyptus", "gommage", "alcool dénaturé"},
		IncompatibleConcerns: []string{"Taches pigmentaires"},
		Description:          "Rougeurs diffuses et réactivité cutanée, souvent signe d'une peau sensible.",
		Severity:             domain.SeveritySevere,
	},
	{
		Name:                  "Pores dilatés",
		EligibleSubcategories: []string{"visage"},
		PrimaryKeywords: []string{
			"resserrant", "pores", "bha", "acide salicylique", "argile", "niacinamide", "minimiseur",
		},
		SecondaryKeywords: []string{
			"grain de peau", "affinant", "purifiant", "tonique", "lotion", "masque",
		},
		ExclusionKeywords: []string{"huile minérale", "vaseline"},
		Description:       "Pores visibles et grain de peau irrégulier, fréquents en zone T.",
		Severity:          domain.SeverityMild,
	},
	{
		Name:                  "Cernes",
		EligibleSubcategories: []string{"yeux", "contour des yeux"},
		PrimaryKeywords: []string{
			"contour des yeux", "anti-cernes", "caféine", "décongestionnant", "vitamine k",
		},
		SecondaryKeywords: []string{
			"cernes", "poches", "yeux", "regard", "défatigant", "fraîcheur",
		},
		ExclusionKeywords: []string{"gommage", "grains exfoliants"},
		Description:       "Ombres et poches sous les yeux liées à la fatigue ou à la circulation.",
		Severity:          domain.SeverityMild,
	},
	{
		Name:                  "Points noirs",
		EligibleSubcategories: []string{"visage"},
		PrimaryKeywords: []string{
			"points noirs", "acide salicylique", "bha", "charbon", "purifiant", "exfoliant", "patch",
		},
		SecondaryKeywords: []string{
			"pores", "nettoyant", "gommage", "argile", "désincrustant", "nez",
		},
		ExclusionKeywords: []string{"huile de coco", "vaseline", "beurre de cacao"},
		Description:       "Comédons ouverts formés par l'oxydation du sébum dans les pores.",
		Severity:          domain.SeverityMild,
	},
}

// concernIndex maps lowercased concern names to their position in concernProfiles
var concernIndex = buildConcernIndex(concernProfiles)

func buildConcernIndex(profiles []domain.ConcernProfile) map[string]int {
	index := make(map[string]int, len(profiles))
	for i, p := range profiles {
		index[normalizeConcern(p.Name)] = i
	}
	return index
}

func normalizeConcern(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LookupConcern returns the profile for a concern name.
// Unknown names return false; callers treat that as "no recommendations".
func LookupConcern(name string) (domain.ConcernProfile, bool) {
	i, ok := concernIndex[normalizeConcern(name)]
	if !ok {
		return domain.ConcernProfile{}, false
	}
	p := concernProfiles[i]
	p.EligibleSubcategories = slices.Clone(p.EligibleSubcategories)
	p.PrimaryKeywords = slices.Clone(p.PrimaryKeywords)
	p.SecondaryKeywords = slices.Clone(p.SecondaryKeywords)
	p.ExclusionKeywords = slices.Clone(p.ExclusionKeywords)
	p.IncompatibleConcerns = slices.Clone(p.IncompatibleConcerns)
	return p, true
}

// ConcernDescription returns the user-facing description of a concern,
// or a generic sentence when the concern is unknown.
func ConcernDescription(name string) string {
	if p, ok := LookupConcern(name); ok {
		return p.Description
	}
	return defaultConcernDescription
}

// ConcernSeverity returns the severity tag, or SeverityUnknown
func ConcernSeverity(name string) domain.Severity {
	if p, ok := LookupConcern(name); ok {
		return p.Severity
	}
	return domain.SeverityUnknown
}

// SupportedConcerns lists every concern name in declaration order
func SupportedConcerns() []string {
	names := make([]string, 0, len(concernProfiles))
	for _, p := range concernProfiles {
		names = append(names, p.Name)
	}
	return names
}

// AreCompatible reports whether two concerns can be treated together.
// The check is symmetric: either profile declaring the other incompatible is enough.
// Unknown concerns are always compatible.
func AreCompatible(a, b string) bool {
	pa, okA := LookupConcern(a)
	pb, okB := LookupConcern(b)
	if !okA || !okB {
		return true
	}
	return !listsConcern(pa.IncompatibleConcerns, pb.Name) && !listsConcern(pb.IncompatibleConcerns, pa.Name)
}

func listsConcern(names []string, target string) bool {
	for _, n := range names {
		if normalizeConcern(n) == normalizeConcern(target) {
			return true
		}
	}
	return false
}
