package healthstore_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-master/internal/healthstore"
)

func TestDisabledStoreIsInert(t *testing.T) {
	store, err := healthstore.Open(healthstore.Config{Enabled: false}, nil)
	require.NoError(t, err)
	defer store.Close()

	store.RecordHealthCheck("arxiv", true, time.Millisecond, nil)
	store.RecordBreakerTransition("arxiv", "closed", "open")

	rows, err := store.RecentHealthChecks("", 10)
	require.NoError(t, err)
	assert.Nil(t, rows)

	transitions, err := store.RecentTransitions("", 10)
	require.NoError(t, err)
	assert.Nil(t, transitions)
}

func TestEnabledStoreRecordsAndQueries(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "health.db")
	store, err := healthstore.Open(healthstore.Config{Enabled: true, Type: "sqlite", DSN: dbPath}, nil)
	require.NoError(t, err)
	defer store.Close()

	store.RecordHealthCheck("arxiv", true, 120*time.Millisecond, nil)
	store.RecordHealthCheck("arxiv", false, 0, errors.New("timed out"))
	store.RecordBreakerTransition("arxiv", "closed", "open")

	checks, err := store.RecentHealthChecks("arxiv", 10)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.Equal(t, "arxiv", checks[0].Provider)

	transitions, err := store.RecentTransitions("arxiv", 10)
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, "closed", transitions[0].FromState)
	assert.Equal(t, "open", transitions[0].ToState)
}

func TestUnsupportedDatabaseTypeErrors(t *testing.T) {
	_, err := healthstore.Open(healthstore.Config{Enabled: true, Type: "oracle"}, nil)
	assert.Error(t, err)
}
