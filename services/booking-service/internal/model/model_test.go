package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "Não iniciado", StatusScheduled.Label())
	assert.Equal(t, "Cancelado", StatusCanceled.Label())
	assert.Equal(t, "Concluído", StatusDone.Label())
	assert.Equal(t, "ARCHIVED", Status("ARCHIVED").Label())
	assert.False(t, Status("ARCHIVED").Valid())

	assert.False(t, StatusScheduled.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	assert.True(t, StatusDone.Terminal())
}

func TestResolveDuration(t *testing.T) {
	d := 45
	assert.Equal(t, 45, ResolveDuration(&d, 30))
	assert.Equal(t, 30, ResolveDuration(nil, 30))
	assert.Equal(t, 0, ResolveDuration(nil, 0))

	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, start.Add(45*time.Minute), Appointment{Date: start, ServiceDuration: &d}.End(0))
	assert.Equal(t, start, Appointment{Date: start}.End(0))
}
