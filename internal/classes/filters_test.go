package classes

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mataleao/backend/internal/models"
)

func TestBuildConditions(t *testing.T) {
	loc := saoPaulo(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, loc).UTC()

	t.Run("empty filter yields no conditions", func(t *testing.T) {
		conds, args, err := buildConditions(ListFilter{}, now, loc)
		require.NoError(t, err)
		assert.Empty(t, conds)
		assert.Empty(t, args)
	})

	t.Run("single day uses local midnight bounds", func(t *testing.T) {
		conds, args, err := buildConditions(ListFilter{Date: "2026-03-10"}, now, loc)
		require.NoError(t, err)
		require.Len(t, conds, 2)
		assert.Equal(t, "c.start_time >= $1", conds[0])
		assert.Equal(t, "c.start_time < $2", conds[1])

		require.Len(t, args, 2)
		lower := args[0].(time.Time)
		upper := args[1].(time.Time)
		assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, loc).Format(time.RFC3339), lower.Format(time.RFC3339))
		assert.Equal(t, 24*time.Hour, upper.Sub(lower))
	})

	t.Run("status conditions derive from now", func(t *testing.T) {
		conds, args, err := buildConditions(ListFilter{Status: models.PhaseInProgress}, now, loc)
		require.NoError(t, err)
		require.Len(t, conds, 2)
		assert.Equal(t, "c.start_time <= $1", conds[0])
		assert.Equal(t, "c.end_time > $2", conds[1])
		require.Len(t, args, 2)
		assert.Equal(t, now, args[0])
		assert.Equal(t, now, args[1])
	})

	t.Run("placeholders stay contiguous across filters", func(t *testing.T) {
		catID := uuid.New()
		conds, args, err := buildConditions(ListFilter{
			StartDate:  "2026-03-01",
			EndDate:    "2026-03-31",
			Status:     models.PhaseFinished,
			CategoryID: catID,
		}, now, loc)
		require.NoError(t, err)
		require.Len(t, conds, 4)
		assert.Equal(t, "c.start_time >= $1", conds[0])
		assert.Equal(t, "c.start_time < $2", conds[1])
		assert.Equal(t, "c.end_time <= $3", conds[2])
		assert.Equal(t, "c.category_id = $4", conds[3])
		require.Len(t, args, 4)
		assert.Equal(t, catID, args[3])
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		_, _, err := buildConditions(ListFilter{Date: "10-03-2026"}, now, loc)
		assert.ErrorIs(t, err, errBadDate)
	})
}
