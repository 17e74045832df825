package domain

// Severity is a presentation-only priority tag for a concern
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityUnknown  Severity = ""
)

// Rank orders severities for display; higher is more urgent.
func (s Severity) Rank() int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMild:
		return 1
	default:
		return 0
	}
}

// ConcernProfile describes how products are matched for one skin concern
type ConcernProfile struct {
	Name                  string   `json:"name"`
	EligibleSubcategories []string `json:"eligibleSubcategories"`
	PrimaryKeywords       []string `json:"primaryKeywords"`
	SecondaryKeywords     []string `json:"secondaryKeywords"`
	ExclusionKeywords     []string `json:"exclusionKeywords"`
	IncompatibleConcerns  []string `json:"incompatibleConcerns"`
	Description           string   `json:"description"`
	Severity              Severity `json:"severity"`
}

// Detection is one bounding box emitted by the on-device skin detector
type Detection struct {
	ClassID int        `json:"classId"`
	Score   float64    `json:"score"`
	BBox    [4]float64 `json:"bbox"`
}

// DetectedConcern is a concern label resolved from one or more detections
type DetectedConcern struct {
	Concern    string  `json:"concern"`
	Confidence float64 `json:"confidence"`
	Count      int     `json:"count"`
}

// ConcernRecommendation groups the recommended products for one detected concern
type ConcernRecommendation struct {
	Concern     string    `json:"concern"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity,omitempty"`
	Confidence  float64   `json:"confidence"`
	Products    []Product `json:"products"`
}
