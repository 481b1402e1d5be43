package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssuePairAndValidateRefresh(t *testing.T) {
	issuer := NewIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	pair, err := issuer.IssuePair(42, "teacher")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	userID, role, err := issuer.ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, uint(42), userID)
	require.Equal(t, "teacher", role)
}

func TestValidateRefreshRejectsAccessToken(t *testing.T) {
	issuer := NewIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	pair, err := issuer.IssuePair(7, "student")
	require.NoError(t, err)

	_, _, err = issuer.ValidateRefresh(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRefreshRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	pair, err := issuer.IssuePair(7, "student")
	require.NoError(t, err)

	_, _, err = issuer.ValidateRefresh(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRefreshRejectsGarbage(t *testing.T) {
	issuer := NewIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	_, _, err := issuer.ValidateRefresh("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
