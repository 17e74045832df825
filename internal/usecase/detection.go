package usecase

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/skinmatch/backend/internal/domain"
)

const defaultMinDetectionScore = 0.5

// detectorClasses lists concern labels by detector class id, in the order of
// the model's label file.
var detectorClasses = []string{
	"Acné",
	"Cernes",
	"Peau sèche",
	"Peau grasse",
	"Pores dilatés",
	"Rides",
	"Rougeurs",
	"Taches pigmentaires",
	"Points noirs",
}

// DetectionMapper converts raw detector output into concern labels
type DetectionMapper struct {
	minScore float64
	logger   *zap.Logger
}

// NewDetectionMapper creates a mapper that ignores detections below minScore
func NewDetectionMapper(minScore float64, logger *zap.Logger) *DetectionMapper {
	if minScore <= 0 || minScore > 1 {
		minScore = defaultMinDetectionScore
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetectionMapper{minScore: minScore, logger: logger.Named("detection")}
}

// ConcernForClass returns the concern label for a detector class id
func ConcernForClass(classID int) (string, bool) {
	if classID < 0 || classID >= len(detectorClasses) {
		return "", false
	}
	return detectorClasses[classID], true
}

// ConcernsFromDetections groups confident detections by concern, keeping the
// highest confidence per concern, most confident first.
func (d *DetectionMapper) ConcernsFromDetections(detections []domain.Detection) []domain.DetectedConcern {
	byConcern := make(map[string]*domain.DetectedConcern)
	var order []string

	for _, det := range detections {
		if det.Score < d.minScore {
			continue
		}
		concern, ok := ConcernForClass(det.ClassID)
		if !ok {
			d.logger.Debug("dropping detection with unknown class", zap.Int("class_id", det.ClassID))
			continue
		}

		dc, exists := byConcern[concern]
		if !exists {
			dc = &domain.DetectedConcern{Concern: concern}
			byConcern[concern] = dc
			order = append(order, concern)
		}
		dc.Count++
		if det.Score > dc.Confidence {
			dc.Confidence = det.Score
		}
	}

	concerns := make([]domain.DetectedConcern, 0, len(order))
	for _, name := range order {
		concerns = append(concerns, *byConcern[name])
	}
	slices.SortStableFunc(concerns, func(a, b domain.DetectedConcern) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return concerns
}
