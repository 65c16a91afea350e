package classes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func TestGenerateDates(t *testing.T) {
	loc := saoPaulo(t)

	t.Run("mondays and wednesdays over two weeks", func(t *testing.T) {
		// 2026-03-02 is a Monday.
		dates, err := GenerateDates("2026-03-02", "2026-03-15", []int{1, 3}, loc)
		require.NoError(t, err)
		require.Len(t, dates, 4)
		assert.Equal(t, "2026-03-02", dates[0].Format(DateLayout))
		assert.Equal(t, "2026-03-04", dates[1].Format(DateLayout))
		assert.Equal(t, "2026-03-09", dates[2].Format(DateLayout))
		assert.Equal(t, "2026-03-11", dates[3].Format(DateLayout))
	})

	t.Run("single day range matching weekday", func(t *testing.T) {
		dates, err := GenerateDates("2026-03-02", "2026-03-02", []int{1}, loc)
		require.NoError(t, err)
		require.Len(t, dates, 1)
	})

	t.Run("no matching weekdays yields empty", func(t *testing.T) {
		// Monday-only range, asking for Sundays.
		dates, err := GenerateDates("2026-03-02", "2026-03-02", []int{0}, loc)
		require.NoError(t, err)
		assert.Empty(t, dates)
	})

	t.Run("empty weekday list rejected", func(t *testing.T) {
		_, err := GenerateDates("2026-03-02", "2026-03-15", nil, loc)
		assert.ErrorIs(t, err, errNoWeekdays)
	})

	t.Run("weekday out of range rejected", func(t *testing.T) {
		_, err := GenerateDates("2026-03-02", "2026-03-15", []int{7}, loc)
		assert.ErrorIs(t, err, errBadWeekday)
	})

	t.Run("start after end rejected", func(t *testing.T) {
		_, err := GenerateDates("2026-03-15", "2026-03-02", []int{1}, loc)
		assert.ErrorIs(t, err, errDateOrder)
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		_, err := GenerateDates("03/02/2026", "2026-03-15", []int{1}, loc)
		assert.ErrorIs(t, err, errBadDate)
	})
}

func TestCombineDateTime(t *testing.T) {
	loc := saoPaulo(t)

	t.Run("converts academy wall clock to UTC", func(t *testing.T) {
		start, end, err := CombineDateTime("2026-03-10", "19:00", "20:30", loc)
		require.NoError(t, err)

		wantStart := time.Date(2026, 3, 10, 19, 0, 0, 0, loc).UTC()
		assert.True(t, start.Equal(wantStart))
		assert.Equal(t, 90*time.Minute, end.Sub(start))
		assert.Equal(t, time.UTC, start.Location())
	})

	t.Run("start must precede end", func(t *testing.T) {
		_, _, err := CombineDateTime("2026-03-10", "20:00", "19:00", loc)
		assert.ErrorIs(t, err, errTimeOrder)

		_, _, err = CombineDateTime("2026-03-10", "19:00", "19:00", loc)
		assert.ErrorIs(t, err, errTimeOrder)
	})

	t.Run("malformed time rejected", func(t *testing.T) {
		_, _, err := CombineDateTime("2026-03-10", "7pm", "20:00", loc)
		assert.ErrorIs(t, err, errBadTime)
	})
}
