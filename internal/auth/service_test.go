package auth

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/liftlog/pkg"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

type usersRepoMock struct {
	users map[string]*User
}

func newUsersRepoMock() *usersRepoMock {
	return &usersRepoMock{
		users: make(map[string]*User),
	}
}

func (r *usersRepoMock) Add(_ context.Context, username, passwordHash string) (*User, error) {
	if _, ok := r.users[username]; ok {
		return nil, ErrUsernameTaken
	}
	user := &User{
		ID:           len(r.users) + 1,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.users[username] = user
	return user, nil
}

func (r *usersRepoMock) GetByUsername(_ context.Context, username string) (*User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func TestService_SignUp(t *testing.T) {
	db, _ := redismock.NewClientMock()
	usersRepo := newUsersRepoMock()
	service := NewService(usersRepo, time.Hour, db)

	ctx := context.Background()
	user, err := service.SignUp(ctx, "mladen", "bench-press-100")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "mladen", user.Username)
	assert.NotEqual(t, "bench-press-100", user.PasswordHash)
	assert.True(t, pkg.CheckPasswordHash("bench-press-100", user.PasswordHash))

	_, err = service.SignUp(ctx, "mladen", "whatever")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestService_Login(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	usersRepo := newUsersRepoMock()
	service := NewService(usersRepo, time.Hour, db)
	service.RandStringFunc = func(s int) (string, error) {
		return "test-token", nil
	}

	ctx := context.Background()
	user, err := service.SignUp(ctx, "mladen", "bench-press-100")
	require.NoError(t, err)

	redisMock.ExpectSet(sessionKeyPrefix+"test-token", user.ID, time.Hour).SetVal("OK")
	redisMock.ExpectSAdd(tokensSetKey, "test-token").SetVal(1)

	token, err := service.Login(ctx, "mladen", "bench-press-100")
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)

	// wrong password
	_, err = service.Login(ctx, "mladen", "wrong")
	assert.ErrorIs(t, err, ErrWrongCredentials)

	// unknown user
	_, err = service.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, ErrWrongCredentials)

	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_Logout(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	service := NewService(newUsersRepoMock(), time.Hour, db)

	ctx := context.Background()

	redisMock.ExpectDel(sessionKeyPrefix + "test-token").SetVal(1)
	redisMock.ExpectSRem(tokensSetKey, "test-token").SetVal(1)

	loggedOut, err := service.Logout(ctx, "test-token")
	require.NoError(t, err)
	assert.True(t, loggedOut)

	// unknown token deletes nothing
	redisMock.ExpectDel(sessionKeyPrefix + "gone-token").SetVal(0)
	redisMock.ExpectSRem(tokensSetKey, "gone-token").SetVal(0)

	loggedOut, err = service.Logout(ctx, "gone-token")
	require.NoError(t, err)
	assert.False(t, loggedOut)

	assert.NoError(t, redisMock.ExpectationsWereMet())
}
