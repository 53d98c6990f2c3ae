package studio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevealListen(t *testing.T) {
	t.Parallel()

	r := NewRevealState(testDialog(t, DialogListen, 2))
	assert.Equal(t, "Ana", r.Speaker())
	assert.Equal(t, Placeholder, r.Primary())
	assert.Equal(t, Placeholder, r.Secondary())

	assert.True(t, r.Reveal())
	assert.Equal(t, "rečenica 0", r.Primary())
	assert.Equal(t, Placeholder, r.Secondary())

	assert.True(t, r.Reveal())
	assert.Equal(t, "sentence 0", r.Secondary())
	assert.False(t, r.Reveal())
	assert.Equal(t, MaxShowLevel, r.Level())

	assert.True(t, r.Navigate(1))
	assert.Equal(t, 0, r.Level())
	assert.Equal(t, "Marko", r.Speaker())
	assert.Equal(t, Placeholder, r.Primary())
}

func TestRevealSpeak(t *testing.T) {
	t.Parallel()

	r := NewRevealState(testDialog(t, DialogSpeak, 2))
	assert.Equal(t, "sentence 0", r.Primary())
	assert.Equal(t, Placeholder, r.Secondary())

	r.Reveal()
	assert.Equal(t, "rečenica 0", r.Secondary())

	assert.False(t, r.Navigate(-1))
	assert.Equal(t, 1, r.Level(), "failed move keeps the reveal level")
}
