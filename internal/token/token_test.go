package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "clinica/pkg/domain"
)

func TestIssueAndValidate(t *testing.T) {
	mgr := New("test-signing-key", time.Hour)
	userID := id.UserID(uuid.New())
	tenantID := id.TenantID(uuid.New())

	signed, err := mgr.Issue(userID, tenantID)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := mgr.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, tenantID.String(), claims.TenantID)
}

func TestValidate_RejectsWrongKey(t *testing.T) {
	signed, err := New("key-one", time.Hour).Issue(id.UserID(uuid.New()), id.TenantID(uuid.New()))
	require.NoError(t, err)

	_, err = New("key-two", time.Hour).ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidate_RejectsExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	issuer := New("test-signing-key", time.Hour, WithClock(func() time.Time { return issuedAt }))

	signed, err := issuer.Issue(id.UserID(uuid.New()), id.TenantID(uuid.New()))
	require.NoError(t, err)

	_, err = New("test-signing-key", time.Hour).ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidate_RejectsGarbage(t *testing.T) {
	_, err := New("test-signing-key", time.Hour).ValidateToken("not.a.token")
	assert.Error(t, err)
}
