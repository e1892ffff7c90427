package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodAt(t *testing.T) {
	year, month := PeriodAt(time.Date(2026, time.September, 15, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, 2026, year)
	assert.Equal(t, 9, month)
}

func TestPeriodAtConvertsToUTC(t *testing.T) {
	// 23:30 on Jan 31 in UTC-5 is already February in UTC
	loc := time.FixedZone("UTC-5", -5*3600)
	year, month := PeriodAt(time.Date(2026, time.January, 31, 23, 30, 0, 0, loc))
	assert.Equal(t, 2026, year)
	assert.Equal(t, 2, month)
}

func TestNextResetAt(t *testing.T) {
	reset := NextResetAt(time.Date(2026, time.September, 15, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), reset)
}

func TestNextResetAtYearRollover(t *testing.T) {
	reset := NextResetAt(time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), reset)
}
