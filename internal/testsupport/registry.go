package testsupport

import (
	"testing"

	"hermes/internal/config"
	"hermes/internal/registry"
)

// MustOpenRegistry opens the recent-projects registry for cfg and closes it
// when the test ends.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()
	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
