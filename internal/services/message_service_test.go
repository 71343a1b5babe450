package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinof/chatrelay/internal/services"
)

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	messages := services.NewMessageService(newTestDB(t))

	var lastID int64
	for i := 0; i < 5; i++ {
		msg, err := messages.Append("main", "alice", fmt.Sprintf("msg %d", i), time.Now().UTC())
		require.NoError(t, err)
		assert.Greater(t, msg.ID, lastID)
		lastID = msg.ID
	}
}

func TestRecentReturnsChronologicalOrder(t *testing.T) {
	messages := services.NewMessageService(newTestDB(t))

	for i := 0; i < 5; i++ {
		_, err := messages.Append("main", "alice", fmt.Sprintf("msg %d", i), time.Now().UTC())
		require.NoError(t, err)
	}

	recent, err := messages.Recent("main", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "msg 2", recent[0].Text)
	assert.Equal(t, "msg 3", recent[1].Text)
	assert.Equal(t, "msg 4", recent[2].Text)
	assert.True(t, recent[0].ID < recent[1].ID && recent[1].ID < recent[2].ID)
}

func TestRecentIsScopedPerRoom(t *testing.T) {
	messages := services.NewMessageService(newTestDB(t))

	_, err := messages.Append("main", "alice", "in main", time.Now().UTC())
	require.NoError(t, err)
	_, err = messages.Append("dev", "bob", "in dev", time.Now().UTC())
	require.NoError(t, err)

	recent, err := messages.Recent("dev", 100)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "in dev", recent[0].Text)

	empty, err := messages.Recent("nowhere", 100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPruneBefore(t *testing.T) {
	messages := services.NewMessageService(newTestDB(t))

	old := time.Now().UTC().Add(-48 * time.Hour)
	_, err := messages.Append("main", "alice", "stale", old)
	require.NoError(t, err)
	_, err = messages.Append("main", "alice", "fresh", time.Now().UTC())
	require.NoError(t, err)

	removed, err := messages.PruneBefore(time.Now().UTC().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	recent, err := messages.Recent("main", 100)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].Text)
}
