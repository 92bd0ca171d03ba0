package httpbackend_test

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/lingo-session/backend/httpbackend"
)

const (
	testClientID = "lingo-web"
	testEmail    = "a@x.com"
	testPassword = "pw"
	testSubject  = "user-123"
)

// authServer is a minimal token endpoint plus the REST auth endpoints.
type authServer struct {
	t      *testing.T
	srv    *httptest.Server
	key    *rsa.PrivateKey
	issuer string

	mu            sync.Mutex
	refreshCount  int
	refreshGate   chan struct{}
	refreshFail   bool
	nonce         string
	codeVerifier  string
	logoutCalls   int
	signUpSession bool
	signUpBodies  []map[string]any
}

func newAuthServer(t *testing.T) *authServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	as := &authServer{t: t, key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", as.token)
	mux.HandleFunc(httpbackend.SignUpPath, as.signUp)
	mux.HandleFunc(httpbackend.LogoutPath, as.logout)
	as.srv = httptest.NewServer(mux)
	as.issuer = as.srv.URL
	t.Cleanup(as.srv.Close)
	return as
}

func (as *authServer) verifier() *oidc.IDTokenVerifier {
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&as.key.PublicKey}}
	return oidc.NewVerifier(as.issuer, keySet, &oidc.Config{ClientID: testClientID})
}

func (as *authServer) client(t *testing.T, options ...httpbackend.Option) *httpbackend.Client {
	t.Helper()
	options = append([]httpbackend.Option{
		httpbackend.WithHTTPClient(as.srv.Client()),
		httpbackend.WithIDTokenVerifier(as.verifier()),
	}, options...)
	c, err := httpbackend.New(httpbackend.Config{
		BaseURL:     as.srv.URL,
		ClientID:    testClientID,
		RedirectURL: "http://localhost:8080/auth/callback",
	}, options...)
	require.NoError(t, err)
	return c
}

func (as *authServer) idToken(nonce string) string {
	claims := jwt.MapClaims{
		"iss":            as.issuer,
		"aud":            testClientID,
		"sub":            testSubject,
		"email":          testEmail,
		"email_verified": true,
		"given_name":     "Ana",
		"family_name":    "Lopez",
		"role":           "admin",
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(as.key)
	assert.NoError(as.t, err)
	return signed
}

func accessToken(t *testing.T, label string) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   testSubject,
		"label": label,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	assert.NoError(t, err)
	return signed
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (as *authServer) token(w http.ResponseWriter, r *http.Request) {
	assert.NoError(as.t, r.ParseForm())
	assert.Equal(as.t, testClientID, r.PostForm.Get("client_id"))

	switch r.PostForm.Get("grant_type") {
	case "password":
		if r.PostForm.Get("username") != testEmail || r.PostForm.Get("password") != testPassword {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid login credentials",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  accessToken(as.t, "password"),
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"id_token":      as.idToken(""),
		})

	case "refresh_token":
		as.mu.Lock()
		as.refreshCount++
		count := as.refreshCount
		gate := as.refreshGate
		fail := as.refreshFail
		as.mu.Unlock()
		if gate != nil {
			<-gate
		}
		if fail || r.PostForm.Get("refresh_token") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": accessToken(as.t, "refresh-"+strings.Repeat("x", count)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})

	case "authorization_code":
		as.mu.Lock()
		nonce := as.nonce
		as.codeVerifier = r.PostForm.Get("code_verifier")
		as.mu.Unlock()
		if r.PostForm.Get("code") != "good-code" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  accessToken(as.t, "oauth"),
			"refresh_token": "refresh-oauth",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"id_token":      as.idToken(nonce),
		})

	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (as *authServer) signUp(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	assert.NoError(as.t, json.NewDecoder(r.Body).Decode(&body))

	as.mu.Lock()
	as.signUpBodies = append(as.signUpBodies, body)
	withSession := as.signUpSession
	as.mu.Unlock()

	if body["email"] == "taken@x.com" {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":   "user_exists",
			"message": "User already registered",
		})
		return
	}

	resp := map[string]any{
		"user": map[string]any{
			"id":        "new-user",
			"email":     body["email"],
			"firstName": body["firstName"],
		},
	}
	if withSession {
		resp["session"] = map[string]any{
			"access_token":  accessToken(as.t, "signup"),
			"refresh_token": "refresh-signup",
			"expires_in":    3600,
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (as *authServer) logout(w http.ResponseWriter, r *http.Request) {
	assert.True(as.t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
	as.mu.Lock()
	as.logoutCalls++
	as.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
