package classes

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mataleao/backend/internal/models"
)

// ListFilter narrows a class listing. Zero values mean "no filter".
type ListFilter struct {
	Date       string // single civil day, YYYY-MM-DD
	StartDate  string // inclusive lower bound day
	EndDate    string // inclusive upper bound day
	Status     models.ClassPhase
	CategoryID uuid.UUID
	Cursor     uuid.UUID // id of the last class of the previous page
	Order      string    // "asc" (default) or "desc"
	Limit      int
}

// buildConditions turns a filter into SQL conditions and args. Day bounds are
// interpreted in the academy timezone: "2025-03-01" covers local midnight to
// local end of day, not the UTC day.
func buildConditions(f ListFilter, now time.Time, loc *time.Location) ([]string, []interface{}, error) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Date != "" {
		day, err := time.ParseInLocation(DateLayout, f.Date, loc)
		if err != nil {
			return nil, nil, errBadDate
		}
		conds = append(conds,
			fmt.Sprintf("c.start_time >= %s", arg(day)),
			fmt.Sprintf("c.start_time < %s", arg(day.AddDate(0, 0, 1))))
	}
	if f.StartDate != "" {
		day, err := time.ParseInLocation(DateLayout, f.StartDate, loc)
		if err != nil {
			return nil, nil, errBadDate
		}
		conds = append(conds, fmt.Sprintf("c.start_time >= %s", arg(day)))
	}
	if f.EndDate != "" {
		day, err := time.ParseInLocation(DateLayout, f.EndDate, loc)
		if err != nil {
			return nil, nil, errBadDate
		}
		conds = append(conds, fmt.Sprintf("c.start_time < %s", arg(day.AddDate(0, 0, 1))))
	}

	switch f.Status {
	case models.PhaseNotStarted:
		conds = append(conds, fmt.Sprintf("c.start_time > %s", arg(now)))
	case models.PhaseInProgress:
		conds = append(conds,
			fmt.Sprintf("c.start_time <= %s", arg(now)),
			fmt.Sprintf("c.end_time > %s", arg(now)))
	case models.PhaseFinished:
		conds = append(conds, fmt.Sprintf("c.end_time <= %s", arg(now)))
	}

	if f.CategoryID != uuid.Nil {
		conds = append(conds, fmt.Sprintf("c.category_id = %s", arg(f.CategoryID)))
	}

	return conds, args, nil
}
