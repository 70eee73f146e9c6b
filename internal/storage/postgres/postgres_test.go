package postgres

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/scheduler-tui/internal/storage"
	"github.com/pdxmph/scheduler-tui/internal/storage/storagetest"
)

func TestMissingDSN(t *testing.T) {
	_, err := storage.Open("postgres", storage.Options{})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestNullParams(t *testing.T) {
	assert.False(t, nullInt(nil).Valid)
	v := 7
	assert.Equal(t, int64(7), nullInt(&v).Int64)

	assert.False(t, nullText(nil).Valid)
	empty := ""
	assert.True(t, nullText(&empty).Valid, "an explicit empty theme clears the column")
}

func TestRepository(t *testing.T) {
	dsn := os.Getenv("SCHEDULER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SCHEDULER_TEST_POSTGRES_DSN not set")
	}

	r, err := New(dsn)
	require.NoError(t, err)
	defer r.Close()

	storagetest.Run(t, r)
}
