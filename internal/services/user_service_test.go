package services_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinof/chatrelay/internal/services"
)

func TestRegisterAndVerify(t *testing.T) {
	users := services.NewUserService(newTestDB(t))

	user, err := users.Register("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ID)
	assert.Empty(t, user.PasswordHash, "hash must not leak out of Register")

	assert.True(t, users.Verify("alice", "secret"))
	assert.False(t, users.Verify("alice", "wrong"))
	assert.False(t, users.Verify("nobody", "secret"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := services.NewUserService(newTestDB(t))

	_, err := users.Register("alice", "secret")
	require.NoError(t, err)

	_, err = users.Register("alice", "other")
	require.ErrorIs(t, err, services.ErrUsernameTaken)
}

func TestRegisterConcurrentDuplicates(t *testing.T) {
	users := services.NewUserService(newTestDB(t))

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = users.Register("alice", "secret")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, services.ErrUsernameTaken)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent registration must win")

	// A later attempt still fails.
	_, err := users.Register("alice", "secret")
	require.ErrorIs(t, err, services.ErrUsernameTaken)
}

func TestGetUserByUsername(t *testing.T) {
	users := services.NewUserService(newTestDB(t))

	created, err := users.Register("alice", "secret")
	require.NoError(t, err)

	fetched, err := users.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	_, err = users.GetUserByUsername("nobody")
	require.Error(t, err)
}
