package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateRoundTrip(t *testing.T) {
	v := NewValidator("shared-secret", "codemill", "codemill-clients")
	token, err := v.Issue("user-1", "", time.Minute)
	require.NoError(t, err)

	claims, err := v.Validate(token, "")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestValidateRejectsTokenScopedToDifferentProject(t *testing.T) {
	v := NewValidator("shared-secret", "codemill", "codemill-clients")
	token, err := v.Issue("user-1", "project-a", time.Minute)
	require.NoError(t, err)

	_, err = v.Validate(token, "project-b")
	assert.Error(t, err)
}

func TestValidateAllowsScopedTokenForMatchingProject(t *testing.T) {
	v := NewValidator("shared-secret", "codemill", "codemill-clients")
	token, err := v.Issue("user-1", "project-a", time.Minute)
	require.NoError(t, err)

	claims, err := v.Validate(token, "project-a")
	require.NoError(t, err)
	assert.Equal(t, "project-a", claims.Project)
}

func TestValidateRejectsTokenSignedWithDifferentSecret(t *testing.T) {
	v1 := NewValidator("secret-one", "codemill", "codemill-clients")
	v2 := NewValidator("secret-two", "codemill", "codemill-clients")

	token, err := v1.Issue("user-1", "", time.Minute)
	require.NoError(t, err)

	_, err = v2.Validate(token, "")
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	v := NewValidator("shared-secret", "codemill", "codemill-clients")
	token, err := v.Issue("user-1", "", -time.Minute)
	require.NoError(t, err)

	_, err = v.Validate(token, "")
	assert.Error(t, err)
}
