package classes

import (
	"time"

	"github.com/mataleao/backend/internal/models"
)

// Phase derives a class's temporal state from its start/end instants and now.
// All three instants are moved into the academy's civil timezone before
// comparison; schedules are entered as local wall-clock times and the
// boundaries must be evaluated the same way. A nil location compares the
// instants as-is.
//
// The start instant itself already counts as in-progress: check-in closes at
// now == start, not after it.
func Phase(start, end, now time.Time, loc *time.Location) models.ClassPhase {
	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
		now = now.In(loc)
	}
	switch {
	case now.Before(start):
		return models.PhaseNotStarted
	case now.Before(end):
		return models.PhaseInProgress
	default:
		return models.PhaseFinished
	}
}
