package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jkobber/bubble-quiz/auth"
	"github.com/jkobber/bubble-quiz/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) CreateUser(ctx context.Context, username string, passwordHash string) (string, error) {
	args := m.Called(ctx, username, passwordHash)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepo) GetUserById(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Compare(hash, password string) (bool, error) {
	args := m.Called(hash, password)
	return args.Bool(0), args.Error(1)
}

type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) Generate(identity domain.Identity, now time.Time) (string, error) {
	args := m.Called(identity, now)
	return args.String(0), args.Error(1)
}

func (m *MockTokenManager) Verify(token string) (domain.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(domain.Identity), args.Error(1)
}

func TestSignup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbErr := errors.Join(domain.UnexpectedDatabaseError, errors.New("connection reset"))

	testCases := []struct {
		desc          string
		username      string
		password      string
		setup         func(r *MockUserRepo, h *MockPasswordHasher, tm *MockTokenManager)
		expectedToken string
		expectedError error
	}{
		{
			desc:     "normal",
			username: "kira_145",
			password: "12345678",
			setup: func(r *MockUserRepo, h *MockPasswordHasher, tm *MockTokenManager) {
				h.On("Hash", "12345678").Return("hashed", nil).Once()
				r.On("CreateUser", ctx, "kira_145", "hashed").Return("uid-1", nil).Once()
				tm.On("Generate", domain.Identity{UserId: "uid-1", Username: "kira_145", Role: domain.RolePlayer}, mock.Anything).Return("tok", nil).Once()
			},
			expectedToken: "tok",
		},
		{
			desc:     "duplicate username",
			username: "kira_145",
			password: "12345678",
			setup: func(r *MockUserRepo, h *MockPasswordHasher, tm *MockTokenManager) {
				h.On("Hash", "12345678").Return("hashed", nil).Once()
				r.On("CreateUser", ctx, "kira_145", "hashed").Return("", domain.ErrDuplicateUsername).Once()
			},
			expectedError: domain.ErrDuplicateUsername,
		},
		{
			desc:     "database failure",
			username: "kira_145",
			password: "12345678",
			setup: func(r *MockUserRepo, h *MockPasswordHasher, tm *MockTokenManager) {
				h.On("Hash", "12345678").Return("hashed", nil).Once()
				r.On("CreateUser", ctx, "kira_145", "hashed").Return("", dbErr).Once()
			},
			expectedError: domain.UnexpectedDatabaseError,
		},
		{"short password", "kira", "1234567", nil, "", auth.ErrWeakPassword},
		{"absent password", "kira", "", nil, "", auth.ErrWeakPassword},
		{"password too long", "kira", string(make([]byte, 73)), nil, "", auth.ErrPasswordTooLong},
		{"username too short", "ki", "12345678", nil, "", auth.ErrInvalidUsernameFormat},
		{"username too long", "kiraermtermtermtermtrtmermterm", "12345678", nil, "", auth.ErrInvalidUsernameFormat},
		{"username with space", "kira is the best", "12345678", nil, "", auth.ErrInvalidUsernameFormat},
		{"username with uppercase", "Kira", "12345678", nil, "", auth.ErrInvalidUsernameFormat},
		{"absent username", "", "12345678", nil, "", auth.ErrInvalidUsernameFormat},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			repo, hasher, tokens := &MockUserRepo{}, &MockPasswordHasher{}, &MockTokenManager{}
			if tc.setup != nil {
				tc.setup(repo, hasher, tokens)
			}
			service := auth.NewService(repo, hasher, tokens)

			token, err := service.Signup(ctx, tc.username, tc.password)

			assert.ErrorIs(t, err, tc.expectedError)
			assert.Equal(t, tc.expectedToken, token)
			repo.AssertExpectations(t)
			hasher.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	user := domain.User{Id: "uid-1", Username: "kira", Role: domain.RoleAdmin, PasswordHash: "hashed"}

	testCases := []struct {
		desc          string
		setup         func(r *MockUserRepo, h *MockPasswordHasher, tm *MockTokenManager)
		expectedToken string
		expectedError error
	}{
		{
			desc: "correct credentials carry the stored role",
			setup: func(r *MockUserRepo, h *MockPasswordHasher, tm *MockTokenManager) {
				r.On("GetUserByUsername", ctx, "kira").Return(user, nil).Once()
				h.On("Compare", "hashed", "secret123").Return(true, nil).Once()
				tm.On("Generate", domain.Identity{UserId: "uid-1", Username: "kira", Role: domain.RoleAdmin}, mock.Anything).Return("tok", nil).Once()
			},
			expectedToken: "tok",
		},
		{
			desc: "wrong password",
			setup: func(r *MockUserRepo, h *MockPasswordHasher, tm *MockTokenManager) {
				r.On("GetUserByUsername", ctx, "kira").Return(user, nil).Once()
				h.On("Compare", "hashed", "secret123").Return(false, nil).Once()
			},
			expectedError: auth.ErrIncorrectPassword,
		},
		{
			desc: "unknown user",
			setup: func(r *MockUserRepo, h *MockPasswordHasher, tm *MockTokenManager) {
				r.On("GetUserByUsername", ctx, "kira").Return(domain.User{}, domain.ErrUserNotFound).Once()
			},
			expectedError: domain.ErrUserNotFound,
		},
		{
			desc: "malformed stored hash",
			setup: func(r *MockUserRepo, h *MockPasswordHasher, tm *MockTokenManager) {
				r.On("GetUserByUsername", ctx, "kira").Return(user, nil).Once()
				h.On("Compare", "hashed", "secret123").Return(false, domain.UnexpectedPasswordHashComparisonError).Once()
			},
			expectedError: domain.UnexpectedPasswordHashComparisonError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			repo, hasher, tokens := &MockUserRepo{}, &MockPasswordHasher{}, &MockTokenManager{}
			tc.setup(repo, hasher, tokens)
			service := auth.NewService(repo, hasher, tokens)

			token, err := service.Login(ctx, "kira", "secret123")

			assert.ErrorIs(t, err, tc.expectedError)
			assert.Equal(t, tc.expectedToken, token)
			repo.AssertExpectations(t)
			hasher.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}
