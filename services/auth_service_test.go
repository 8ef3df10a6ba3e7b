package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
)

var testSecret = []byte("test-secret")

func TestAuthService_Register(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIUserRepository(ctrl)
	service := NewAuthService(repo, testSecret, time.Hour)

	// Given the repository accepts the new user with any argon2id hash
	repo.EXPECT().
		CreateUser("alice", gomock.Any()).
		DoAndReturn(func(username, hashedPassword string) (string, error) {
			require.Contains(t, hashedPassword, "$argon2id$")
			return "user-1", nil
		})

	// When registration succeeds
	token, err := service.Register("alice", "long enough password")

	// Then the issued token identifies the new user
	req.NoError(err)
	claims, err := auth.ValidateToken(testSecret, string(token))
	req.NoError(err)
	req.Equal("alice", claims.Username)
}

func TestAuthService_Register_RejectsInvalidCredentials(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIUserRepository(ctrl)
	service := NewAuthService(repo, testSecret, time.Hour)

	// The repository must never be reached with a short password
	_, err := service.Register("alice", "short")

	req.ErrorIs(err, errors.ErrInvalidPassword)
}

func TestAuthService_Register_DuplicateUser(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIUserRepository(ctrl)
	service := NewAuthService(repo, testSecret, time.Hour)

	repo.EXPECT().
		CreateUser("alice", gomock.Any()).
		Return("", errors.ErrUserAlreadyExists)

	_, err := service.Register("alice", "long enough password")

	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIUserRepository(ctrl)
	service := NewAuthService(repo, testSecret, time.Hour)

	hashedPassword, err := auth.HashPassword("long enough password")
	req.NoError(err)
	repo.EXPECT().
		GetUserByUsername("alice").
		Return(repositories.User{ID: "user-1", Username: "alice", PasswordHash: hashedPassword}, nil)

	token, err := service.Login("alice", "long enough password")

	req.NoError(err)
	claims, err := auth.ValidateToken(testSecret, string(token))
	req.NoError(err)
	req.Equal("alice", claims.Username)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIUserRepository(ctrl)
	service := NewAuthService(repo, testSecret, time.Hour)

	hashedPassword, err := auth.HashPassword("the real password")
	req.NoError(err)
	repo.EXPECT().
		GetUserByUsername("alice").
		Return(repositories.User{Username: "alice", PasswordHash: hashedPassword}, nil)

	_, err = service.Login("alice", "a wrong password")

	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIUserRepository(ctrl)
	service := NewAuthService(repo, testSecret, time.Hour)

	repo.EXPECT().
		GetUserByUsername("nobody").
		Return(repositories.User{}, errors.ErrInvalidCredentials)

	// Unknown user and wrong password are indistinguishable to the caller
	_, err := service.Login("nobody", "whatever password")

	req.ErrorIs(err, errors.ErrInvalidCredentials)
}
