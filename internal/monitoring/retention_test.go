package monitoring_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinof/chatrelay/internal/database"
	"github.com/avelinof/chatrelay/internal/monitoring"
	"github.com/avelinof/chatrelay/internal/services"
)

func TestRetentionSweep(t *testing.T) {
	dir := t.TempDir()
	db, err := database.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db))

	uploads := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0755))

	messages := services.NewMessageService(db)
	files := services.NewFileService(db, uploads)

	stale := time.Now().UTC().AddDate(0, 0, -30)
	_, err = messages.Append("main", "alice", "stale", stale)
	require.NoError(t, err)
	_, err = messages.Append("main", "alice", "fresh", time.Now().UTC())
	require.NoError(t, err)

	path, err := files.SaveUpload(bytes.NewReader([]byte("hello")), "old.txt", 5)
	require.NoError(t, err)
	_, err = files.RecordShare("main", "alice", "old.txt", path, stale)
	require.NoError(t, err)

	monitoring.NewRetention(messages, files, 7).Sweep()

	recent, err := messages.Recent("main", 100)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].Text)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "stored body of a pruned record is removed")
}
