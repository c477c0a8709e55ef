package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/buzznet/internal/lib/jwt"
	"github.com/magabrotheeeer/buzznet/internal/lib/metrics"
	"github.com/magabrotheeeer/buzznet/internal/lib/password"
	"github.com/magabrotheeeer/buzznet/internal/models"
	"github.com/magabrotheeeer/buzznet/internal/storage/repository"
)

// memoryUsers повторяет семантику repository.Storage в памяти.
type memoryUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]*models.User{}}
}

func (m *memoryUsers) RegisterUser(_ context.Context, user models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return nil, repository.ErrEmailTaken
	}
	user.UUID = uuid.NewString()
	m.byEmail[user.Email] = &user
	cp := user
	return &cp, nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) GetUser(_ context.Context, userUID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.UUID == userUID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) RegisterFailedLogin(_ context.Context, userUID string, now time.Time,
	maxAttempts int, lockFor time.Duration) (int, *time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.UUID != userUID {
			continue
		}
		switch {
		case u.LockUntil != nil && !u.LockUntil.After(now):
			u.LoginAttempts = 1
			u.LockUntil = nil
		default:
			u.LoginAttempts++
			if u.LockUntil == nil && u.LoginAttempts >= maxAttempts {
				until := now.Add(lockFor)
				u.LockUntil = &until
			}
		}
		return u.LoginAttempts, u.LockUntil, nil
	}
	return 0, nil, repository.ErrNotFound
}

func (m *memoryUsers) ResetLoginAttempts(_ context.Context, userUID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.UUID == userUID {
			u.LoginAttempts = 0
			u.LockUntil = nil
		}
	}
	return nil
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const (
	testEmail    = "alice@example.com"
	testPassword = "correct-horse"
)

type fixture struct {
	svc     *AuthService
	users   *memoryUsers
	clock   *testClock
	events  *PublisherMock
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := newMemoryUsers()
	clock := &testClock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	events := new(PublisherMock)
	m := metrics.Nop()

	svc := NewAuthService(slog.New(slog.NewTextHandler(io.Discard, nil)), users,
		jwt.NewJWTMaker("test-secret", jwt.TokenTTL), events, m)
	svc.now = clock.Now

	hash, err := password.GetHash(testPassword)
	require.NoError(t, err)
	_, err = users.RegisterUser(context.Background(), models.User{
		Email: testEmail, Username: "alice", PasswordHash: hash, Role: models.RoleUser,
	})
	require.NoError(t, err)

	return &fixture{svc: svc, users: users, clock: clock, events: events, metrics: m}
}

func (f *fixture) stored(t *testing.T) *models.User {
	t.Helper()
	u, err := f.users.GetUserByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	return u
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.Login(context.Background(), "  Alice@Example.com ", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, testEmail, session.User.Email)
	assert.Equal(t, models.RoleUser, session.User.Role)

	uid, err := f.svc.ValidateToken(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, uid)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LoginAttempts.WithLabelValues(metrics.LoginSuccess)))
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ email, password string }{
		{"", testPassword},
		{testEmail, ""},
		{"   ", testPassword},
	} {
		_, err := f.svc.Login(context.Background(), tc.email, tc.password)
		assert.ErrorIs(t, err, ErrMissingFields)
	}
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newFixture(t)

	_, errUnknown := f.svc.Login(context.Background(), "nobody@example.com", testPassword)
	_, errWrong := f.svc.Login(context.Background(), testEmail, "wrong")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLogin_LockoutSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.events.On("Publish", mock.Anything, EventUserLocked, mock.MatchedBy(func(e UserEvent) bool {
		return e.Email == testEmail && e.LockUntil != nil
	})).Return(nil).Once()

	for i := 1; i < MaxLoginAttempts; i++ {
		_, err := f.svc.Login(ctx, testEmail, "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i)
		assert.Equal(t, i, f.stored(t).LoginAttempts)
	}

	_, err := f.svc.Login(ctx, testEmail, "wrong")
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	assert.True(t, locked.JustLocked)
	assert.Equal(t, 5, locked.Minutes)
	assert.Equal(t, "Too many failed attempts. Account is locked for 5 minutes.", err.Error())

	stored := f.stored(t)
	require.NotNil(t, stored.LockUntil)
	assert.Equal(t, f.clock.Now().Add(LockDuration), *stored.LockUntil)

	// Шестая попытка внутри окна отклоняется, даже с верным паролем.
	f.clock.Advance(2*time.Minute + 30*time.Second)
	_, err = f.svc.Login(ctx, testEmail, testPassword)
	require.ErrorAs(t, err, &locked)
	assert.False(t, locked.JustLocked)
	assert.Equal(t, 3, locked.Minutes)
	assert.Equal(t, "Account is locked. Please try again in 3 minutes.", err.Error())
	assert.Equal(t, MaxLoginAttempts, f.stored(t).LoginAttempts)

	// После окончания блокировки верный пароль снова работает и обнуляет счётчики.
	f.clock.Advance(3 * time.Minute)
	session, err := f.svc.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	stored = f.stored(t)
	assert.Equal(t, 0, stored.LoginAttempts)
	assert.Nil(t, stored.LockUntil)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AccountLocks))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LoginAttempts.WithLabelValues(metrics.LoginLocked)))
	f.events.AssertExpectations(t)
}

func TestLogin_WrongPasswordAfterExpiryRestartsCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.events.On("Publish", mock.Anything, EventUserLocked, mock.Anything).Return(nil)

	for range MaxLoginAttempts {
		_, _ = f.svc.Login(ctx, testEmail, "wrong")
	}
	f.clock.Advance(LockDuration)

	_, err := f.svc.Login(ctx, testEmail, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	stored := f.stored(t)
	assert.Equal(t, 1, stored.LoginAttempts)
	assert.Nil(t, stored.LockUntil)
}

func TestLogin_FailedAttemptLogsAttemptsLeft(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.svc.log = slog.New(slog.NewTextHandler(&buf, nil))
	ctx := context.Background()

	for range 3 {
		_, err := f.svc.Login(ctx, testEmail, "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	assert.Contains(t, buf.String(), "attempts_left=4")
	assert.Contains(t, buf.String(), "attempts_left=2")
	assert.NotContains(t, buf.String(), "wrong")
}

func TestLogin_SuccessResetsCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for range 3 {
		_, err := f.svc.Login(ctx, testEmail, "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := f.svc.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	assert.Equal(t, 0, f.stored(t).LoginAttempts)

	// Счётчик начался заново: четыре ошибки ещё не блокируют.
	for range MaxLoginAttempts - 1 {
		_, err = f.svc.Login(ctx, testEmail, "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Nil(t, f.stored(t).LockUntil)
}

func TestLogin_ConcurrentFailuresLockOnce(t *testing.T) {
	f := newFixture(t)
	f.events.On("Publish", mock.Anything, EventUserLocked, mock.Anything).Return(nil).Once()

	const workers = 12
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		justLocked int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Login(context.Background(), testEmail, "wrong")
			var locked *LockedError
			if errors.As(err, &locked) && locked.JustLocked {
				mu.Lock()
				justLocked++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, justLocked)
	assert.NotNil(t, f.stored(t).LockUntil)
	f.events.AssertExpectations(t)
}

func TestLogin_PublishFailureDoesNotFailLogin(t *testing.T) {
	f := newFixture(t)
	f.events.On("Publish", mock.Anything, EventUserLocked, mock.Anything).
		Return(errors.New("broker down")).Once()

	var err error
	for range MaxLoginAttempts {
		_, err = f.svc.Login(context.Background(), testEmail, "wrong")
	}
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	assert.True(t, locked.JustLocked)
}

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		f.events.On("Publish", mock.Anything, EventUserRegistered, mock.MatchedBy(func(e UserEvent) bool {
			return e.Email == "bob@example.com"
		})).Return(nil).Once()

		session, err := f.svc.Register(context.Background(), " bob ", "Bob@Example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "bob", session.User.Username)
		assert.Equal(t, "bob@example.com", session.User.Email)
		assert.Equal(t, models.RoleUser, session.User.Role)

		uid, err := f.svc.ValidateToken(context.Background(), session.Token)
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, uid)

		stored, err := f.users.GetUserByEmail(context.Background(), "bob@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, "secret1", stored.PasswordHash)
		assert.Equal(t, 0, stored.LoginAttempts)
		assert.Nil(t, stored.LockUntil)
		f.events.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Register(context.Background(), "alice2", "ALICE@example.com", "secret1")
		assert.ErrorIs(t, err, ErrDuplicateEmail)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)

		for _, tc := range []struct{ username, email, password string }{
			{"", "x@example.com", "secret1"},
			{"x", "", "secret1"},
			{"x", "x@example.com", ""},
		} {
			_, err := f.svc.Register(context.Background(), tc.username, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrMissingFields)
		}
	})
}

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) RegisterFailedLogin(ctx context.Context, userUID string, now time.Time,
	maxAttempts int, lockFor time.Duration) (int, *time.Time, error) {
	args := m.Called(ctx, userUID, now, maxAttempts, lockFor)
	var lock *time.Time
	if v := args.Get(1); v != nil {
		lock = v.(*time.Time)
	}
	return args.Int(0), lock, args.Error(2)
}

func (m *UserRepoMock) ResetLoginAttempts(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userUID string) (string, error) {
	args := m.Called(userUID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*jwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.CustomClaims), args.Error(1)
}

func TestAuthService_RepositoryErrors(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbErr := errors.New("db error")

	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		call       func(s *AuthService) error
		wantErr    error
	}{
		{
			name: "register storage failure",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("RegisterUser", mock.Anything, mock.Anything).Return(nil, dbErr).Once()
			},
			call: func(s *AuthService) error {
				_, err := s.Register(context.Background(), "u", "u@x.com", "secret1")
				return err
			},
			wantErr: dbErr,
		},
		{
			name: "token generation failure",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("RegisterUser", mock.Anything, mock.Anything).
					Return(&models.User{UUID: "uid-1", Email: "u@x.com"}, nil).Once()
				j.On("GenerateToken", "uid-1").Return("", dbErr).Once()
			},
			call: func(s *AuthService) error {
				_, err := s.Register(context.Background(), "u", "u@x.com", "secret1")
				return err
			},
			wantErr: dbErr,
		},
		{
			name: "login lookup failure",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "u@x.com").Return(nil, dbErr).Once()
			},
			call: func(s *AuthService) error {
				_, err := s.Login(context.Background(), "u@x.com", "secret1")
				return err
			},
			wantErr: dbErr,
		},
		{
			name: "profile not found",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUser", mock.Anything, "uid-404").Return(nil, repository.ErrNotFound).Once()
			},
			call: func(s *AuthService) error {
				_, err := s.Profile(context.Background(), "uid-404")
				return err
			},
			wantErr: ErrUserNotFound,
		},
		{
			name: "invalid token",
			setupMocks: func(_ *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "garbage").Return(nil, errors.New("malformed")).Once()
			},
			call: func(s *AuthService) error {
				_, err := s.ValidateToken(context.Background(), "garbage")
				return err
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			tt.setupMocks(repo, jwtMock)
			svc := NewAuthService(log, repo, jwtMock, nil, nil)

			err := tt.call(svc)
			assert.ErrorIs(t, err, tt.wantErr)
			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestProfile_Success(t *testing.T) {
	f := newFixture(t)
	stored := f.stored(t)

	profile, err := f.svc.Profile(context.Background(), stored.UUID)
	require.NoError(t, err)
	assert.Equal(t, stored.UUID, profile.ID)
	assert.Equal(t, "alice", profile.Username)
}
