// Package auth signs users up and in against an account store and tells
// subscribers who the current user is.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pdxmph/scheduler-tui/internal/storage"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// Error kinds. Classify maps any error onto one of these.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with that email already exists")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrUnavailable        = errors.New("authentication service unavailable")
	ErrUnknown            = errors.New("authentication failed")
)

// User is a signed-in identity.
type User struct {
	ID    string
	Email string
}

// Service is the identity provider the planner depends on.
type Service interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	LogIn(ctx context.Context, email, password string) (*User, error)
	LogOut()
	Current() *User
	// Subscribe calls fn with the current user right away and again on every
	// change (nil after log out). The returned func unsubscribes.
	Subscribe(fn func(*User)) func()
}

// Local authenticates against a storage.AccountStore with bcrypt hashes.
type Local struct {
	store storage.AccountStore
	cost  int

	mu      sync.Mutex
	current *User
	subs    map[int]func(*User)
	nextSub int
}

// NewLocal returns a signed-out service backed by store.
func NewLocal(store storage.AccountStore) *Local {
	return &Local{
		store: store,
		cost:  bcrypt.DefaultCost,
		subs:  make(map[int]func(*User)),
	}
}

// WithCost sets the bcrypt cost; tests use bcrypt.MinCost.
func (l *Local) WithCost(cost int) *Local {
	l.cost = cost
	return l
}

// SignUp creates an account and signs it in.
func (l *Local) SignUp(ctx context.Context, email, password string) (*User, error) {
	email = storage.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidCredentials
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing password: %v", ErrUnknown, err)
	}

	account := storage.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := l.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	user := &User{ID: account.ID, Email: account.Email}
	l.set(user)
	return user, nil
}

// LogIn checks the password and signs the account in.
func (l *Local) LogIn(ctx context.Context, email, password string) (*User, error) {
	email = storage.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := l.store.FindAccount(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("finding account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user := &User{ID: account.ID, Email: account.Email}
	l.set(user)
	return user, nil
}

// LogOut signs the current user out. It is a no-op when nobody is signed in.
func (l *Local) LogOut() {
	if l.Current() == nil {
		return
	}
	l.set(nil)
}

// Current returns the signed-in user or nil.
func (l *Local) Current() *User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Local) Subscribe(fn func(*User)) func() {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	current := l.current
	l.mu.Unlock()

	fn(current)

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

// set swaps the current user and notifies subscribers outside the lock.
func (l *Local) set(user *User) {
	l.mu.Lock()
	l.current = user
	subs := make([]func(*User), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(user)
	}
}

// Classify maps err onto the error kinds above. nil stays nil.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, ErrEmailTaken):
		return ErrEmailTaken
	case errors.Is(err, ErrWeakPassword):
		return ErrWeakPassword
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, storage.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return ErrUnavailable
	default:
		return ErrUnknown
	}
}

// Retryable reports whether trying again later may succeed.
func Retryable(err error) bool {
	return errors.Is(Classify(err), ErrUnavailable)
}

// Message is the text shown to the user for err.
func Message(err error) string {
	kind := Classify(err)
	if kind == nil {
		return ""
	}
	msg := kind.Error()
	if kind == ErrUnavailable {
		msg += "; try again shortly"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
