package main

import (
	"testing"
	"time"

	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckKinds(t *testing.T) {
	kinds, err := checkKinds("github")
	require.NoError(t, err)
	assert.Equal(t, []models.EntityKind{models.KindRelease}, kinds)

	kinds, err = checkKinds("plausible")
	require.NoError(t, err)
	assert.Equal(t, []models.EntityKind{models.KindStats}, kinds)

	kinds, err = checkKinds("all")
	require.NoError(t, err)
	assert.Len(t, kinds, 2)

	_, err = checkKinds("gitlab")
	assert.Error(t, err)
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "check", "status", "sites", "user"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	user, _, err := root.Find([]string{"user", "delete"})
	require.NoError(t, err)
	assert.Equal(t, "delete", user.Name())
}

func TestStatusMarkerCell(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, "01.07.2024 12:00", markerCell("2024-07-01T10:00:00Z", berlin))
	assert.Contains(t, markerCell("", berlin), "never")
	assert.Equal(t, "never", orNever(""))
}
