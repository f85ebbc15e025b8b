package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitDuplicate(t *testing.T) {
	w, err := NewEventWindow(10, 5*time.Minute)
	require.NoError(t, err)

	now := time.Now()
	assert.True(t, w.Admit("wamid.1", now, now))
	assert.False(t, w.Admit("wamid.1", now, now))
	assert.True(t, w.Admit("wamid.2", now, now))
}

func TestAdmitStale(t *testing.T) {
	w, err := NewEventWindow(10, 5*time.Minute)
	require.NoError(t, err)

	now := time.Now()
	assert.False(t, w.Admit("wamid.old", now.Add(-6*time.Minute), now))
	assert.True(t, w.Admit("wamid.fresh", now.Add(-4*time.Minute), now))
}

func TestAdmitWindowEviction(t *testing.T) {
	w, err := NewEventWindow(3, time.Hour)
	require.NoError(t, err)

	now := time.Now()
	for i := 0; i < 4; i++ {
		assert.True(t, w.Admit(fmt.Sprintf("wamid.%d", i), now, now))
	}
	// wamid.0 was evicted by the window bound; it is admitted again.
	assert.True(t, w.Admit("wamid.0", now, now))
	assert.False(t, w.Admit("wamid.3", now, now))
}

func TestAdmitEmptyProviderID(t *testing.T) {
	w, err := NewEventWindow(10, 5*time.Minute)
	require.NoError(t, err)

	now := time.Now()
	// Events without an id cannot be deduped; both pass.
	assert.True(t, w.Admit("", now, now))
	assert.True(t, w.Admit("", now, now))
}
