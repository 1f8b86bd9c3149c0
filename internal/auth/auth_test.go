package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "wellness.identity"}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    "user-1",
		"iss":    testConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": []string{"activities:read", "activities:write"},
	}
}

func TestParseValidToken(t *testing.T) {
	token := signToken(t, validClaims(), testConfig.Secret)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.True(t, claims.HasScope(ScopeActivitiesRead))
	require.True(t, claims.HasScope(ScopeActivitiesWrite))
	require.False(t, claims.HasScope("admin:everything"))
}

func TestParseScopesAsSpaceSeparatedString(t *testing.T) {
	mc := validClaims()
	mc["scopes"] = "activities:read activities:write"
	token := signToken(t, mc, testConfig.Secret)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.True(t, claims.HasScope(ScopeActivitiesRead))
}

func TestParseRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(jwt.MapClaims) (claims jwt.MapClaims, secret string)
	}{
		{"wrong secret", func(mc jwt.MapClaims) (jwt.MapClaims, string) {
			return mc, "other-secret"
		}},
		{"wrong issuer", func(mc jwt.MapClaims) (jwt.MapClaims, string) {
			mc["iss"] = "someone-else"
			return mc, testConfig.Secret
		}},
		{"expired", func(mc jwt.MapClaims) (jwt.MapClaims, string) {
			mc["exp"] = time.Now().Add(-time.Hour).Unix()
			return mc, testConfig.Secret
		}},
		{"missing subject", func(mc jwt.MapClaims) (jwt.MapClaims, string) {
			delete(mc, "sub")
			return mc, testConfig.Secret
		}},
		{"missing exp", func(mc jwt.MapClaims) (jwt.MapClaims, string) {
			delete(mc, "exp")
			return mc, testConfig.Secret
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mc, secret := tc.mutate(validClaims())
			token := signToken(t, mc, secret)
			_, err := Parse(token, testConfig)
			require.Error(t, err)
		})
	}
}

func TestParseEmptyToken(t *testing.T) {
	_, err := Parse("  ", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestMiddlewareInjectsClaims(t *testing.T) {
	token := signToken(t, validClaims(), testConfig.Secret)
	m := NewMiddleware(testConfig)

	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	m.Wrap(next).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, "user-1", seen.Subject)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	m := NewMiddleware(testConfig)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	rr := httptest.NewRecorder()
	m.Wrap(next).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddlewareSkipsHealthz(t *testing.T) {
	m := NewMiddleware(testConfig)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	m.Wrap(next).ServeHTTP(rr, req)

	require.True(t, called)
}
