package auth

import (
	"context"
	"testing"

	pkgAuth "github.com/dperea/storefront-backend/pkg/auth"
	"github.com/dperea/storefront-backend/pkg/config"
	"github.com/dperea/storefront-backend/pkg/db/models"
	"github.com/dperea/storefront-backend/pkg/enums"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T) Service {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	svc, err := NewService(ServiceParams{
		UserRepo: NewRepository(db),
		JWTConfig: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "storefront",
			ExpirationMinutes: 60,
		},
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, enums.RoleUser, user.Role)

	resp, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := pkgAuth.ParseAccessToken(config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storefront",
		ExpirationMinutes: 60,
	}, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.RoleUser, claims.Role)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "password-1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "bob", Email: "other@example.com", Password: "password-2"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.Register(ctx, RegisterRequest{Username: "bobette", Email: "bob@example.com", Password: "password-3"})
	require.Error(t, err)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "password-1",
		Role:     "root",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "dave", Email: "dave@example.com", Password: "right-password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "dave@example.com", Password: "wrong-password"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
	assert.Equal(t, invalidCredentialsMessage, appErr.Message())
}

func TestLoginUnknownUser(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}
