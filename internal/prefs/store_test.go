package prefs

import (
	"testing"

	"session-hub/internal/domain"
	"session-hub/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UnresolvedBeforeHydration(t *testing.T) {
	s := New(storage.NewMemory())

	assert.Equal(t, domain.ThemeUnresolved, s.Get())
}

func TestStore_HydrateAdoptsPersistedValue(t *testing.T) {
	medium := storage.NewMemory()
	require.NoError(t, medium.Set(themeKey, "dark"))

	s := New(medium)

	assert.Equal(t, domain.ThemeDark, s.Hydrate(false))
	assert.Equal(t, domain.ThemeDark, s.Get())
}

func TestStore_HydrateIgnoresSystemDarkSignal(t *testing.T) {
	// First-time viewers default to light even when the system prefers dark.
	s := New(storage.NewMemory())

	assert.Equal(t, domain.ThemeLight, s.Hydrate(true))
	assert.Equal(t, domain.ThemeLight, s.Get())
}

func TestStore_HydrateRunsOnce(t *testing.T) {
	medium := storage.NewMemory()
	s := New(medium)

	assert.Equal(t, domain.ThemeLight, s.Hydrate(false))

	// A value persisted after hydration does not get re-read.
	require.NoError(t, medium.Set(themeKey, "dark"))
	assert.Equal(t, domain.ThemeLight, s.Hydrate(false))
}

func TestStore_HydrateDiscardsCorruptPersistedValue(t *testing.T) {
	medium := storage.NewMemory()
	require.NoError(t, medium.Set(themeKey, "blurple"))

	s := New(medium)

	assert.Equal(t, domain.ThemeLight, s.Hydrate(false))
}

func TestStore_SetPersistsConcreteValues(t *testing.T) {
	medium := storage.NewMemory()
	s := New(medium)

	s.Set(domain.ThemeDark)
	assert.Equal(t, domain.ThemeDark, s.Get())

	raw, err := medium.Get(themeKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", raw)
}

func TestStore_SetRejectsUnresolved(t *testing.T) {
	medium := storage.NewMemory()
	s := New(medium)

	s.Set(domain.ThemeUnresolved)

	assert.Equal(t, domain.ThemeUnresolved, s.Get())
	_, err := medium.Get(themeKey)
	assert.Error(t, err)
}

func TestStore_SetSurvivesBrokenStorage(t *testing.T) {
	s := New(failingStorage{})

	assert.NotPanics(t, func() { s.Set(domain.ThemeLight) })
	assert.Equal(t, domain.ThemeLight, s.Get())
}

type failingStorage struct{}

func (failingStorage) Get(string) (string, error) { return "", domain.ErrStorageUnavailable }
func (failingStorage) Set(string, string) error   { return domain.ErrStorageUnavailable }
func (failingStorage) Delete(string) error        { return domain.ErrStorageUnavailable }
