package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	mgr := NewManager("secret")
	id := uuid.New()

	for _, role := range []string{RolePatient, RoleDoctor, RoleGateway} {
		tok, err := mgr.Sign(id, role, time.Hour)
		require.NoError(t, err)

		actor, err := mgr.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, id, actor.ID)
		assert.Equal(t, role, actor.Role)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := NewManager("secret-a").Sign(uuid.New(), RolePatient, time.Hour)
	require.NoError(t, err)

	_, err = NewManager("secret-b").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	mgr := NewManager("secret")
	tok, err := mgr.Sign(uuid.New(), RolePatient, -time.Minute)
	require.NoError(t, err)

	_, err = mgr.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	mgr := NewManager("secret")

	_, err := mgr.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = mgr.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsUnknownRole(t *testing.T) {
	secret := []byte("secret")
	claims := &Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = NewManager("secret").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNonUUIDSubject(t *testing.T) {
	secret := []byte("secret")
	claims := &Claims{
		Role: RolePatient,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = NewManager("secret").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		Role: RolePatient,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager("secret").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
