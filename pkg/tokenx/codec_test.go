package tokenx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/campuskit/portalauth/pkg/tokenx"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *tokenx.Codec {
	t.Helper()
	c, err := tokenx.New([]byte("test-secret"), "portal-auth", "portal-web")
	require.NoError(t, err)
	return c
}

func TestNewRejectsEmptySecret(t *testing.T) {
	_, err := tokenx.New(nil, "portal-auth", "portal-web")
	require.Error(t, err)
}

func TestIssueAndDecode(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Issue("id-123", "sam@uni.edu", "student", tokenx.KindAccess, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := c.Decode(token, tokenx.KindAccess)
	require.NoError(t, err)
	require.Equal(t, "id-123", claims.Subject)
	require.Equal(t, "sam@uni.edu", claims.Email)
	require.Equal(t, "student", claims.Role)
	require.Equal(t, tokenx.KindAccess, claims.Use)
	require.Equal(t, "portal-auth", claims.Issuer)
	require.Contains(t, claims.Audience, "portal-web")
	require.NotEmpty(t, claims.ID)
}

func TestDecodeIsIdempotent(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Issue("id-123", "sam@uni.edu", "student", tokenx.KindAccess, time.Minute)
	require.NoError(t, err)

	first, err1 := c.Decode(token, tokenx.KindAccess)
	second, err2 := c.Decode(token, tokenx.KindAccess)
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Equal(t, first, second)

	// Same for a failing decode.
	expired, err := c.Issue("id-123", "sam@uni.edu", "student", tokenx.KindAccess, -time.Minute)
	require.NoError(t, err)
	_, err1 = c.Decode(expired, tokenx.KindAccess)
	_, err2 = c.Decode(expired, tokenx.KindAccess)
	require.ErrorIs(t, err1, tokenx.ErrExpired)
	require.ErrorIs(t, err2, tokenx.ErrExpired)
}

func TestDecodeExpired(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Issue("id-123", "sam@uni.edu", "student", tokenx.KindAccess, -time.Second)
	require.NoError(t, err)

	_, err = c.Decode(token, tokenx.KindAccess)
	require.ErrorIs(t, err, tokenx.ErrExpired)
	require.False(t, tokenx.IsTampered(err))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	c := newTestCodec(t)

	_, err := c.Decode("definitely.not.a-jwt", tokenx.KindAccess)
	require.ErrorIs(t, err, tokenx.ErrMalformed)
	require.True(t, tokenx.IsTampered(err))
}

func TestDecodeRejectsForeignSignature(t *testing.T) {
	c := newTestCodec(t)
	other, err := tokenx.New([]byte("another-secret"), "portal-auth", "portal-web")
	require.NoError(t, err)

	token, err := other.Issue("id-123", "sam@uni.edu", "student", tokenx.KindAccess, time.Minute)
	require.NoError(t, err)

	_, err = c.Decode(token, tokenx.KindAccess)
	require.ErrorIs(t, err, tokenx.ErrInvalidSig)
	require.True(t, tokenx.IsTampered(err))
}

func TestDecodeRejectsCrossApplicationReuse(t *testing.T) {
	c := newTestCodec(t)

	t.Run("wrong issuer", func(t *testing.T) {
		foreign, err := tokenx.New([]byte("test-secret"), "other-issuer", "portal-web")
		require.NoError(t, err)

		token, err := foreign.Issue("id-123", "sam@uni.edu", "student", tokenx.KindAccess, time.Minute)
		require.NoError(t, err)

		_, err = c.Decode(token, tokenx.KindAccess)
		require.ErrorIs(t, err, tokenx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		foreign, err := tokenx.New([]byte("test-secret"), "portal-auth", "other-app")
		require.NoError(t, err)

		token, err := foreign.Issue("id-123", "sam@uni.edu", "student", tokenx.KindAccess, time.Minute)
		require.NoError(t, err)

		_, err = c.Decode(token, tokenx.KindAccess)
		require.ErrorIs(t, err, tokenx.ErrAudience)
	})
}

func TestDecodeRejectsWrongKind(t *testing.T) {
	c := newTestCodec(t)

	access, err := c.Issue("id-123", "sam@uni.edu", "student", tokenx.KindAccess, time.Minute)
	require.NoError(t, err)

	// An access credential presented where a refresh credential is expected.
	_, err = c.Decode(access, tokenx.KindRefresh)
	require.ErrorIs(t, err, tokenx.ErrKind)
	require.True(t, tokenx.IsTampered(err))
}

func TestKindPrecedesExpiry(t *testing.T) {
	c := newTestCodec(t)

	// An expired access credential used as a refresh credential must report
	// the kind mismatch, not the expiry.
	token, err := c.Issue("id-123", "sam@uni.edu", "student", tokenx.KindAccess, -time.Minute)
	require.NoError(t, err)

	_, err = c.Decode(token, tokenx.KindRefresh)
	require.ErrorIs(t, err, tokenx.ErrKind)
}

func TestIssuedTokenShape(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Issue("id-123", "sam@uni.edu", "student", tokenx.KindRefresh, time.Minute)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)
}
