package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scuciatto/paperballspoker/internal/models"
	"github.com/scuciatto/paperballspoker/internal/services"
)

func TestRegistry_Create(t *testing.T) {
	t.Run("assigns an unguessable id", func(t *testing.T) {
		registry := services.NewRegistry()

		session := registry.Create("Sprint 5")

		assert.Equal(t, "Sprint 5", session.Name)
		_, err := uuid.Parse(session.ID)
		assert.NoError(t, err)
		assert.True(t, session.IsEmpty())
		assert.Equal(t, models.StateVoting, session.State())
	})

	t.Run("ids are unique", func(t *testing.T) {
		registry := services.NewRegistry()

		a := registry.Create("A")
		b := registry.Create("B")

		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, 2, registry.Count())
	})

	t.Run("blank name falls back to default", func(t *testing.T) {
		registry := services.NewRegistry()

		assert.Equal(t, services.DefaultSessionName, registry.Create("").Name)
		assert.Equal(t, services.DefaultSessionName, registry.Create("   ").Name)
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Run("returns stored session", func(t *testing.T) {
		registry := services.NewRegistry()
		created := registry.Create("Test")

		got, err := registry.Get(created.ID)
		require.NoError(t, err)
		assert.Same(t, created, got)
	})

	t.Run("unknown id has no side effect", func(t *testing.T) {
		registry := services.NewRegistry()

		_, err := registry.Get("nope")
		assert.ErrorIs(t, err, services.ErrSessionNotFound)
		assert.Equal(t, 0, registry.Count())
	})
}

func TestRegistry_DisposeIfEmpty(t *testing.T) {
	t.Run("keeps sessions with participants", func(t *testing.T) {
		registry := services.NewRegistry()
		session := registry.Create("Test")
		session.Join(models.NewParticipant("a", "Alice"))

		assert.False(t, registry.DisposeIfEmpty(session.ID))
		assert.Equal(t, 1, registry.Count())
	})

	t.Run("removes only once every participant left", func(t *testing.T) {
		registry := services.NewRegistry()
		session := registry.Create("Test")
		session.Join(models.NewParticipant("a", "Alice"))
		session.Join(models.NewParticipant("b", "Bob"))

		session.Leave("a")
		assert.False(t, registry.DisposeIfEmpty(session.ID))
		assert.Equal(t, 1, registry.Count())

		session.Leave("b")
		assert.True(t, registry.DisposeIfEmpty(session.ID))
		assert.Equal(t, 0, registry.Count())

		_, err := registry.Get(session.ID)
		assert.ErrorIs(t, err, services.ErrSessionNotFound)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		registry := services.NewRegistry()
		assert.False(t, registry.DisposeIfEmpty("nope"))
	})
}
