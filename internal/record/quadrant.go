package record

// Eisenhower matrix quadrants.
const (
	QuadrantDo        = "do"
	QuadrantSchedule  = "schedule"
	QuadrantDelegate  = "delegate"
	QuadrantEliminate = "eliminate"
)

// QuadrantThreshold is the score at which a record counts as urgent or important.
const QuadrantThreshold = 6

// Quadrant buckets an urgency/importance pair into a matrix quadrant.
func Quadrant(urgency, importance int) string {
	urgent := urgency >= QuadrantThreshold
	important := importance >= QuadrantThreshold
	switch {
	case urgent && important:
		return QuadrantDo
	case important:
		return QuadrantSchedule
	case urgent:
		return QuadrantDelegate
	default:
		return QuadrantEliminate
	}
}
