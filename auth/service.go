package auth

import (
	"context"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/jkobber/bubble-quiz/domain"
)

var usernameFormat = regexp.MustCompile("^[a-z0-9_]{3,20}$")

const (
	minPasswordLength = 8
	maxPasswordLength = 72
)

type service struct {
	userRepo       UserRepo
	passwordHasher PasswordHasher
	tokenManager   TokenManager
	now            func() time.Time
}

func NewService(userRepo UserRepo, passwordHasher PasswordHasher, tokenManager TokenManager) *service {
	return &service{
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		tokenManager:   tokenManager,
		now:            time.Now,
	}
}

func (as *service) Signup(ctx context.Context, username, password string) (string, error) {
	if !usernameFormat.MatchString(username) {
		return "", ErrInvalidUsernameFormat
	}

	length := utf8.RuneCountInString(password)
	if length < minPasswordLength {
		return "", ErrWeakPassword
	}
	if length > maxPasswordLength {
		return "", ErrPasswordTooLong
	}

	passwordHash, err := as.passwordHasher.Hash(password)
	if err != nil {
		return "", err
	}

	id, err := as.userRepo.CreateUser(ctx, username, passwordHash)
	if err != nil {
		return "", err
	}

	// new accounts are always players, admins are promoted in the database
	return as.GenerateToken(domain.Identity{UserId: id, Username: username, Role: domain.RolePlayer})
}

func (as *service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := as.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	match, err := as.passwordHasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrIncorrectPassword
	}

	return as.GenerateToken(domain.Identity{UserId: user.Id, Username: user.Username, Role: user.Role})
}

// VerifyToken returns the identity carried by a valid token.
func (as *service) VerifyToken(token string) (domain.Identity, error) {
	return as.tokenManager.Verify(token)
}

func (as *service) GenerateToken(identity domain.Identity) (string, error) {
	return as.tokenManager.Generate(identity, as.now())
}
