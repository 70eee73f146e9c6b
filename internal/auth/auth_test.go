package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pdxmph/scheduler-tui/internal/storage"
	"github.com/pdxmph/scheduler-tui/internal/storage/memory"
)

func newService() *Local {
	return NewLocal(memory.New()).WithCost(bcrypt.MinCost)
}

func TestSignUpSignsIn(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	var seen []*User
	unsubscribe := svc.Subscribe(func(u *User) { seen = append(seen, u) })
	defer unsubscribe()

	user, err := svc.SignUp(ctx, " Ada@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, user, svc.Current())

	require.Len(t, seen, 2, "subscribers get the current user immediately, then changes")
	assert.Nil(t, seen[0])
	assert.Equal(t, user, seen[1])
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.SignUp(ctx, "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignUp(ctx, "ada@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "ADA@example.com", "secret2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogInAndOut(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	created, err := svc.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	svc.LogOut()
	assert.Nil(t, svc.Current())

	_, err = svc.LogIn(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.LogIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, svc.Current())

	user, err := svc.LogIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestUnsubscribe(t *testing.T) {
	svc := newService()
	calls := 0
	unsubscribe := svc.Subscribe(func(*User) { calls++ })
	unsubscribe()

	_, err := svc.SignUp(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestLogOutWhenSignedOutIsSilent(t *testing.T) {
	svc := newService()
	calls := 0
	svc.Subscribe(func(*User) { calls++ })
	svc.LogOut()
	assert.Equal(t, 1, calls)
}

type downStore struct{}

func (downStore) CreateAccount(context.Context, storage.Account) error {
	return fmt.Errorf("dial: %w", storage.ErrUnavailable)
}

func (downStore) FindAccount(context.Context, string) (storage.Account, error) {
	return storage.Account{}, fmt.Errorf("dial: %w", storage.ErrUnavailable)
}

func TestUnavailableStoreIsRetryable(t *testing.T) {
	svc := NewLocal(downStore{}).WithCost(bcrypt.MinCost)

	_, err := svc.LogIn(context.Background(), "ada@example.com", "secret1")
	require.Error(t, err)
	assert.True(t, Retryable(err))
	assert.Equal(t, ErrUnavailable, Classify(err))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.Equal(t, ErrInvalidCredentials, Classify(fmt.Errorf("wrapped: %w", ErrInvalidCredentials)))
	assert.Equal(t, ErrUnavailable, Classify(context.DeadlineExceeded))
	assert.Equal(t, ErrUnknown, Classify(errors.New("boom")))
	assert.False(t, Retryable(ErrInvalidCredentials))

	assert.Equal(t, "Invalid email or password", Message(ErrInvalidCredentials))
	assert.Equal(t, "Authentication service unavailable; try again shortly", Message(storage.ErrUnavailable))
	assert.Equal(t, "", Message(nil))
}
