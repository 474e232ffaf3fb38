package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/config"
	"github.com/spec-kit/volunteer-client/pkg/util"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

func newTestClient(srv *httptest.Server, token string) *Client {
	cfg := config.APIConfig{BaseURL: srv.URL, RequestTimeoutSeconds: 5}
	return NewClient(cfg, staticToken(token), zap.NewNop(), nil)
}

func TestLoginUserSendsPasswordGrantForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "mila", r.PostFormValue("username"))
		assert.Equal(t, "lozinka123", r.PostFormValue("password"))
		assert.Equal(t, "password", r.PostFormValue("grant_type"))

		_ = json.NewEncoder(w).Encode(LoginResponse{AccessToken: "tok-123", TokenType: "bearer"})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv, "").LoginUser(context.Background(), "mila", "lozinka123")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
}

func TestLoginOrganisationSendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/org/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "org@example.com", body["email"])
		assert.Equal(t, "lozinka123", body["password"])

		_ = json.NewEncoder(w).Encode(LoginResponse{AccessToken: "tok-org"})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv, "").LoginOrganisation(context.Background(), "org@example.com", "lozinka123")
	require.NoError(t, err)
	assert.Equal(t, "tok-org", resp.AccessToken)
}

func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"username": "mila"})
	}))
	defer srv.Close()

	profile, err := newTestClient(srv, "tok-123").CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mila", profile.Username)
}

func TestUnreadCountShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"envelope", `{"count": 7}`, 7},
		{"bare integer", `4`, 4},
		{"empty body", ``, 0},
		{"unexpected shape", `"many"`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/notifications/count", r.URL.Path)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			count, err := newTestClient(srv, "tok").UnreadCount(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, count)
		})
	}
}

func TestOrganisationApplications(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/org/GetAllAppl/all", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"application_id": "a1", "event_title": "Festival nauke", "status": "pending"},
			{"_id": "a2", "event_title": "Sadnja drveća", "status": "accepted"}
		]`))
	}))
	defer srv.Close()

	apps, err := newTestClient(srv, "tok").OrganisationApplications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "a1", apps[0].Key())
	assert.Equal(t, "a2", apps[1].Key())
}

func TestDetailStringErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Incorrect username or password"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "").LoginUser(context.Background(), "mila", "wrong")
	require.Error(t, err)

	apiErr, ok := util.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "Incorrect username or password", apiErr.Message)
	assert.True(t, util.IsRoleSignal(err))
}

func TestValidationArrayErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": [{"loc": ["body", "email"], "msg": "field required", "type": "value_error.missing"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "").LoginOrganisation(context.Background(), "", "")
	require.Error(t, err)

	apiErr, ok := util.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.Code)
	assert.Equal(t, "field required", apiErr.Message)
}

func TestErrorWithoutBodyGetsStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "tok").CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, util.IsStatus(err, http.StatusNotFound))
	apiErr, _ := util.AsAPIError(err)
	assert.Equal(t, "HTTP 404: Not Found", apiErr.Message)
}

func TestNetworkErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv, "tok").CurrentUser(context.Background())
	require.Error(t, err)

	apiErr, ok := util.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "NETWORK_ERROR", apiErr.Code)
	assert.Zero(t, apiErr.StatusCode)
	assert.False(t, util.IsRoleSignal(err))
}

func TestLoginRejectsUndecodableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	// A credential exchange must never look successful with garbage in
	// place of a token.
	_, err := newTestClient(srv, "").LoginUser(context.Background(), "mila", "lozinka123")
	require.Error(t, err)

	_, err = newTestClient(srv, "").LoginOrganisation(context.Background(), "org@example.com", "lozinka123")
	require.Error(t, err)
}

func TestLoginRejectsMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type": "bearer"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "").LoginUser(context.Background(), "mila", "lozinka123")
	require.Error(t, err)

	_, err = newTestClient(srv, "").LoginOrganisation(context.Background(), "org@example.com", "lozinka123")
	require.Error(t, err)
}

func TestMalformedSuccessBodyYieldsZeroValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	profile, err := newTestClient(srv, "tok").CurrentUser(context.Background())
	require.NoError(t, err, "2xx decode failures are tolerated")
	require.NotNil(t, profile)
	assert.Empty(t, profile.Username)
}
