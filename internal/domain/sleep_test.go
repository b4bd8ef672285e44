package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYesterdayBounds(t *testing.T) {
	now := mustLocal(t, "America/Fortaleza", 2025, time.March, 1, 8, 15, 0)
	start, end := YesterdayBounds(now)

	assert.Equal(t, mustLocal(t, "America/Fortaleza", 2025, time.February, 28, 0, 0, 0), start)
	assert.Equal(t, mustLocal(t, "America/Fortaleza", 2025, time.March, 1, 0, 0, 0).Add(-time.Millisecond), end)
}

func TestQualityPercentage(t *testing.T) {
	assert.Equal(t, 0, QualityPercentage(nil))
	assert.Equal(t, 66, QualityPercentage([]SleepRecord{{Good: true}, {Good: true}, {Good: false}}))
	assert.Equal(t, 100, QualityPercentage([]SleepRecord{{Good: true}}))
	assert.Equal(t, 0, QualityPercentage([]SleepRecord{{Good: false}, {Good: false}}))
}

func TestSessionLocation(t *testing.T) {
	assert.Equal(t, time.UTC, Session{}.Location())
	assert.Equal(t, "America/Fortaleza", Session{TZ: "America/Fortaleza"}.Location().String())
}
