package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/models"
	"github.com/icyeza/bkvc/internal/repository"
	"github.com/icyeza/bkvc/internal/repository/postgres"
	"github.com/icyeza/bkvc/internal/testutil"
)

func createTestUser(t *testing.T, tx pgx.Tx) models.User {
	t.Helper()

	repo := postgres.UserRepo{DB: tx}
	user, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
		Username:       "testuser",
		HashedPassword: "hashed_password",
	})
	require.NoError(t, err)

	return user
}

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	newManager := func(tx pgx.Tx) TokenManager {
		return TokenManager{
			key:         "test-secret-key",
			alg:         "HS256",
			accessTTL:   15 * time.Minute,
			refreshTTL:  24 * time.Hour,
			refreshRepo: &postgres.RefreshTokenRepo{DB: tx},
		}
	}

	t.Run("generate pair ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)
			user := createTestUser(t, tx)

			pair, err := tokenManager.GeneratePair(t.Context(), user)

			require.NoError(t, err)
			assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
			assert.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, time.Second)
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.Refresh.ExpiresAt, time.Second)
		})
	})

	t.Run("access token has correct claims", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)
			user := createTestUser(t, tx)

			pair, err := tokenManager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			// Parse and verify the access token
			token, err := jwt.ParseWithClaims(pair.Access.Value, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
				return []byte("test-secret-key"), nil
			})
			require.NoError(t, err)
			require.True(t, token.Valid, "access token should be valid")

			claims, ok := token.Claims.(*AccessTokenClaims)
			require.True(t, ok, "claims should be of type AccessTokenClaims")
			assert.Equal(t, user.ID, claims.UserID, "user ID in token should match")
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second, "expires at should be 15 minutes from now")
		})
	})

	t.Run("refresh token stored in database", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			refreshRepo := postgres.RefreshTokenRepo{DB: tx}
			tokenManager := newManager(tx)
			user := createTestUser(t, tx)

			pair, err := tokenManager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			storedToken, err := refreshRepo.Get(t.Context(), pair.Refresh.Value)
			require.NoError(t, err)
			assert.Equal(t, pair.Refresh.Value, storedToken.Token, "stored token should match generated token")
			assert.Equal(t, user.ID, storedToken.UserID, "stored token should have correct user ID")
			assert.WithinDuration(t, time.Now(), storedToken.CreatedAt, time.Second, "created at should be close to now")
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), storedToken.ExpiresAt, time.Second, "expires at should be 24 hours from now")
			assert.Nil(t, storedToken.UsedAt, "token should not be marked as used initially")
		})
	})

	t.Run("several tokens different", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)
			user := createTestUser(t, tx)

			pair1, err := tokenManager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			pair2, err := tokenManager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			assert.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "refresh tokens should be different")
			assert.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "access tokens should be different")
		})
	})

	t.Run("use refresh token ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)
			user := createTestUser(t, tx)

			pair, err := tokenManager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			token, err := tokenManager.UseRefreshToken(t.Context(), pair.Refresh.Value)

			require.NoError(t, err)
			require.Equal(t, user.ID, token.UserID)
		})
	})

	t.Run("use refresh token twice", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)
			user := createTestUser(t, tx)

			pair, err := tokenManager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			_, err = tokenManager.UseRefreshToken(t.Context(), pair.Refresh.Value)
			require.NoError(t, err)

			_, err = tokenManager.UseRefreshToken(t.Context(), pair.Refresh.Value)

			require.Error(t, err, "refresh token should be single use")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed)
		})
	})

	t.Run("use expired refresh token", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)
			tokenManager.refreshTTL = -time.Hour
			user := createTestUser(t, tx)

			pair, err := tokenManager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			_, err = tokenManager.UseRefreshToken(t.Context(), pair.Refresh.Value)

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
		})
	})

	t.Run("use unknown refresh token", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)

			_, err := tokenManager.UseRefreshToken(t.Context(), "never-issued")

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("parse access ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)
			user := createTestUser(t, tx)

			pair, err := tokenManager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			userID, err := tokenManager.ParseAccess(t.Context(), pair.Access.Value)

			require.NoError(t, err)
			require.Equal(t, user.ID, userID)
		})
	})

	t.Run("parse access wrong key", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)
			user := createTestUser(t, tx)

			pair, err := tokenManager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			other := newManager(tx)
			other.key = "other-secret-key"
			_, err = other.ParseAccess(t.Context(), pair.Access.Value)

			require.Error(t, err, "token signed with other key should not parse")
		})
	})

	t.Run("parse access garbage", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			tokenManager := newManager(tx)

			_, err := tokenManager.ParseAccess(t.Context(), "not-a-jwt")

			require.Error(t, err)
		})
	})
}
