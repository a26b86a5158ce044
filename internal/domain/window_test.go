package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTravelWindow(t *testing.T) {
	depart := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

	t.Run("departure mode spans four hours ahead", func(t *testing.T) {
		w := TravelWindow(ModeDeparture, depart, 450)
		assert.Equal(t, depart, w.From)
		assert.Equal(t, depart.Add(4*time.Hour), w.To)
	})

	t.Run("unknown mode falls back to departure", func(t *testing.T) {
		w := TravelWindow("", depart, 450)
		assert.Equal(t, depart, w.From)
	})

	t.Run("arrival mode backs off the drive time", func(t *testing.T) {
		arrive := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
		// 450 km at 90 km/h is a 5 h drive, so departure is 13:00 and the
		// window spans 11:00-15:00.
		w := TravelWindow(ModeArrival, arrive, 450)
		assert.Equal(t, time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC), w.From)
		assert.Equal(t, time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC), w.To)
	})
}

func TestObservationWindow(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	w := ObservationWindow(now)
	assert.Equal(t, now.Add(-2*time.Hour), w.From)
	assert.Equal(t, now, w.To)
}
