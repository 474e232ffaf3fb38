package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationKeyAliases(t *testing.T) {
	assert.Equal(t, "ap-1", Application{ApplicationID: "ap-1", ID: "id-1", LegacyID: "old-1"}.Key())
	assert.Equal(t, "id-1", Application{ID: "id-1", LegacyID: "old-1"}.Key())
	assert.Equal(t, "old-1", Application{LegacyID: "old-1"}.Key())
	assert.Empty(t, Application{}.Key())
}

func TestApplicationKeyFromWirePayloads(t *testing.T) {
	payloads := map[string]string{
		`{"id": "id-1", "status": "pending"}`:             "id-1",
		`{"_id": "old-1", "status": "pending"}`:           "old-1",
		`{"application_id": "ap-1", "status": "pending"}`: "ap-1",
	}
	for payload, want := range payloads {
		var app Application
		require.NoError(t, json.Unmarshal([]byte(payload), &app))
		assert.Equal(t, want, app.Key(), payload)
	}
}

func TestFilterPending(t *testing.T) {
	apps := []Application{
		{ID: "a1", Status: ApplicationStatusPending},
		{ID: "a2", Status: ApplicationStatusAccepted},
		{ID: "a3", Status: ApplicationStatusPending},
		{ID: "a4", Status: ApplicationStatusRejected},
		{ID: "a5", Status: ApplicationStatusCancelled},
	}

	pending := FilterPending(apps)
	require.Len(t, pending, 2)
	assert.Equal(t, "a1", pending[0].ID)
	assert.Equal(t, "a3", pending[1].ID)

	// The result is detached from the input.
	pending[0].ID = "changed"
	assert.Equal(t, "a1", apps[0].ID)
}

func TestFilterPendingEmpty(t *testing.T) {
	assert.Empty(t, FilterPending(nil))
	assert.NotNil(t, FilterPending(nil))
}

func TestPrincipalAuthenticated(t *testing.T) {
	assert.False(t, Anonymous().Authenticated())
	assert.False(t, Principal{}.Authenticated())
	assert.True(t, Principal{Role: RoleUser}.Authenticated())
	assert.True(t, Principal{Role: RoleOrganisation}.Authenticated())
	assert.True(t, Principal{Role: RoleAdmin}.Authenticated())
}
