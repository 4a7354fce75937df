package testsupport

import (
	"testing"

	"cutroom/internal/config"
	"cutroom/internal/store"
)

// MustOpenStore opens a document store for the supplied config and registers
// cleanup with the test lifecycle.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}
