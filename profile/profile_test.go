package profile_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/profile"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, profile.DefaultPath, r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"role":            "admin",
			"firstName":       "Ana",
			"lastName":        "Lopez",
			"isEmailVerified": true,
		})
	}))
	defer srv.Close()

	c := profile.New(srv.URL+"/", profile.WithHTTPClient(srv.Client()))

	t.Run("ok", func(t *testing.T) {
		p, err := c.FetchProfile(context.Background(), "good-token")
		require.NoError(t, err)
		require.Equal(t, "admin", p.Role)
		require.Equal(t, "Ana", p.FirstName)
		require.Equal(t, "Lopez", p.LastName)
		require.True(t, p.IsEmailVerified)
	})

	t.Run("unauthorized", func(t *testing.T) {
		_, err := c.FetchProfile(context.Background(), "bad-token")
		require.ErrorIs(t, err, autherrors.ErrNotAuthenticated)
	})

	t.Run("no token", func(t *testing.T) {
		_, err := c.FetchProfile(context.Background(), "")
		require.ErrorIs(t, err, autherrors.ErrNotAuthenticated)
	})
}

func TestClient_FetchProfile_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := profile.New(srv.URL, profile.WithHTTPClient(srv.Client()))
	_, err := c.FetchProfile(context.Background(), "token")
	require.ErrorIs(t, err, autherrors.ErrBackendUnavailable)
}

func TestClient_CustomPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/me", r.URL.Path)
		_, _ = w.Write([]byte(`{"role":"user"}`))
	}))
	defer srv.Close()

	c := profile.New(srv.URL, profile.WithHTTPClient(srv.Client()), profile.WithPath("/v2/me"))
	p, err := c.FetchProfile(context.Background(), "token")
	require.NoError(t, err)
	require.Equal(t, "user", p.Role)
}
