package notif

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCenter(now *time.Time) *Center {
	c := NewCenter()
	c.nowFunc = func() time.Time { return *now }
	return c
}

func TestCenterPushAndLatest(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := newTestCenter(&now)

	first := c.Push(SeveritySuccess, "Étudiant John Doe ajouté avec succès")
	now = now.Add(time.Second)
	second := c.Push(SeverityWarning, "Serveur hors ligne")

	latest := c.Latest()
	require.Len(t, latest, 2)
	assert.Equal(t, second.ID, latest[0].ID) // newest first
	assert.Equal(t, first.ID, latest[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCenterExpiry(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := newTestCenter(&now)

	c.Push(SeverityInfo, "vieille")
	now = now.Add(3 * time.Second)
	kept := c.Push(SeverityInfo, "récente")

	// first one is now 6s old, past the 5s TTL
	now = now.Add(3 * time.Second)
	latest := c.Latest()
	require.Len(t, latest, 1)
	assert.Equal(t, kept.ID, latest[0].ID)

	// everything expires eventually
	now = now.Add(10 * time.Second)
	assert.Empty(t, c.Latest())
}

func TestCenterVisibleCap(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := newTestCenter(&now)

	for i := 0; i < 8; i++ {
		c.Push(SeverityInfo, fmt.Sprintf("message %d", i))
	}

	latest := c.Latest()
	require.Len(t, latest, 5)
	assert.Equal(t, "message 7", latest[0].Message)
	assert.Equal(t, "message 3", latest[4].Message)
}

func TestCenterDismiss(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := newTestCenter(&now)

	n := c.Push(SeverityError, "Échec de l'enregistrement local")
	c.Dismiss(n.ID)
	assert.Empty(t, c.Latest())

	c.Dismiss("unknown") // no-op
}

func TestCenterNotifyAdapter(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := newTestCenter(&now)

	c.Notify("warning", "enregistré localement")

	latest := c.Latest()
	require.Len(t, latest, 1)
	assert.Equal(t, SeverityWarning, latest[0].Severity)
}
