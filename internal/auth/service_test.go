package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unxchange/auth-service/internal/logging"
	"github.com/unxchange/auth-service/internal/user"
)

// memStore is an in-memory user.Store that enforces email uniqueness under
// a mutex, mirroring the unique-index guarantee of the real repository.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]*user.User
	failing bool
}

func newMemStore() *memStore {
	return &memStore{byEmail: make(map[string]*user.User)}
}

func (s *memStore) Create(_ context.Context, name, email, hashedPassword string, role user.Role) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing {
		return nil, fmt.Errorf("%w: connection refused", user.ErrUnavailable)
	}
	if _, exists := s.byEmail[email]; exists {
		return nil, user.ErrDuplicateEmail
	}

	s.nextID++
	u := &user.User{
		ID:             s.nextID,
		Name:           name,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
	}
	s.byEmail[email] = u
	return u, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing {
		return nil, fmt.Errorf("%w: connection refused", user.ErrUnavailable)
	}
	u, ok := s.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) List(_ context.Context) ([]*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing {
		return nil, fmt.Errorf("%w: connection refused", user.ErrUnavailable)
	}
	users := make([]*user.User, 0, len(s.byEmail))
	for _, u := range s.byEmail {
		users = append(users, u)
	}
	return users, nil
}

func (s *memStore) delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byEmail, email)
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEmail)
}

// recordingNotifier captures welcome notification calls.
type recordingNotifier struct {
	mu     sync.Mutex
	emails []string
}

func (n *recordingNotifier) NotifyUserCreated(_, email string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, email)
}

func (n *recordingNotifier) notified() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.emails...)
}

func newTestService(t *testing.T) (*Service, *memStore, *recordingNotifier) {
	t.Helper()

	store := newMemStore()
	notifier := &recordingNotifier{}
	tokens := newTestJWTService(t, "test-signing-secret")
	svc := NewService(store, tokens, notifier, logging.NewLogger(true), 30*time.Minute)
	return svc, store, notifier
}

func TestRegister(t *testing.T) {
	t.Parallel()

	svc, store, notifier := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.Equal(t, user.RoleStudent, u.Role, "role defaults to student")
	assert.NotEqual(t, "secret123", u.HashedPassword, "plaintext must never be stored")
	assert.True(t, VerifyPassword(u.HashedPassword, "secret123"))

	assert.Equal(t, []string{"ana@x.com"}, notifier.notified())
	assert.Equal(t, 1, store.count())
}

func TestRegister_DistinctEmailsGetUniqueIDs(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		u, err := svc.Register(ctx, "User", fmt.Sprintf("user%d@x.com", i), "secret123", "student")
		require.NoError(t, err)
		require.False(t, seen[u.ID], "id %d assigned twice", u.ID)
		seen[u.ID] = true
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, store, notifier := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "student")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Ana", "ana@x.com", "different9", "professional")
	require.ErrorIs(t, err, user.ErrDuplicateEmail)

	assert.Equal(t, 1, store.count(), "duplicate registration must not create a record")
	assert.Len(t, notifier.notified(), 1, "no notification for a failed registration")
}

func TestRegister_EmailCaseSensitive(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "")
	require.NoError(t, err)

	// Uniqueness is exact-match: a different casing is a different account.
	_, err = svc.Register(ctx, "Ana", "Ana@x.com", "secret123", "")
	require.NoError(t, err)
	assert.Equal(t, 2, store.count())
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		role     string
		wantErr  error
	}{
		{"missing name", "", "a@x.com", "secret123", "", ErrNameRequired},
		{"missing email", "Ana", "", "secret123", "", ErrEmailRequired},
		{"bad email", "Ana", "not-an-email", "secret123", "", ErrInvalidEmailFormat},
		{"missing password", "Ana", "a@x.com", "", "", ErrPasswordRequired},
		{"short password", "Ana", "a@x.com", "short", "", ErrPasswordTooShort},
		{"unknown role", "Ana", "a@x.com", "secret123", "wizard", user.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 0, store.count(), "no records from rejected registrations")
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()

	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, "Ana", "race@x.com", "secret123", "student")
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, user.ErrDuplicateEmail):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes, "exactly one concurrent registration must win")
	assert.Equal(t, attempts-1, duplicates)
	assert.Equal(t, 1, store.count())
}

func TestRegister_StorageFault(t *testing.T) {
	t.Parallel()

	svc, store, notifier := newTestService(t)
	store.failing = true

	_, err := svc.Register(context.Background(), "Ana", "ana@x.com", "secret123", "")
	require.ErrorIs(t, err, user.ErrUnavailable)
	assert.NotErrorIs(t, err, user.ErrDuplicateEmail)
	assert.Empty(t, notifier.notified(), "failed registration must not notify")
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "professional")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "ana@x.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := svc.Authorize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", identity.Claims.Email)
	assert.Equal(t, user.RoleProfessional, identity.Claims.Role)
	assert.Equal(t, "ana@x.com", identity.User.Email)
}

func TestLogin_EnumerationResistance(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "")
	require.NoError(t, err)

	// Wrong password for a registered email and any password for an
	// unknown email must be externally indistinguishable.
	_, errWrongPassword := svc.Login(ctx, "ana@x.com", "wrong")
	_, errUnknownEmail := svc.Login(ctx, "nobody@x.com", "wrong")

	require.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}

func TestLogin_StorageFault(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "")
	require.NoError(t, err)

	store.failing = true

	_, err = svc.Login(ctx, "ana@x.com", "secret123")
	require.ErrorIs(t, err, user.ErrUnavailable,
		"storage faults must fail closed, not issue a token")
	assert.NotErrorIs(t, err, ErrInvalidCredentials,
		"storage faults must be distinguishable from bad credentials")
}

func TestAuthorize_SubjectRemoved(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "ana@x.com", "secret123")
	require.NoError(t, err)

	// The stateless token outlives the account.
	store.delete("ana@x.com")

	_, err = svc.Authorize(ctx, token)
	require.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestAuthorize_BadToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.Authorize(context.Background(), "not.a.token")
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ana", "ana@x.com", "secret123", "student")
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.Equal(t, user.RoleStudent, u.Role)

	token, err := svc.Login(ctx, "ana@x.com", "secret123")
	require.NoError(t, err)

	identity, err := svc.Authorize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", identity.Claims.Email)
	assert.Equal(t, user.RoleStudent, identity.Claims.Role)

	_, err = svc.Login(ctx, "ana@x.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestListUsers(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Register(ctx, "User", fmt.Sprintf("u%d@x.com", i), "secret123", "")
		require.NoError(t, err)
	}

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}
