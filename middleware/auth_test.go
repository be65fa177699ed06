package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookkeep/backend/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func authedRequest(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	Auth(issuer)(next).ServeHTTP(rec, req)
	return rec
}

func TestAuthMissingHeader(t *testing.T) {
	rec := authedRequest(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthBadScheme(t *testing.T) {
	rec := authedRequest(t, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthTamperedToken(t *testing.T) {
	other := auth.NewIssuer("other-secret", time.Hour)
	tok, err := other.Issue(primitive.NewObjectID().Hex())
	require.NoError(t, err)

	rec := authedRequest(t, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthUniform401Body(t *testing.T) {
	missing := authedRequest(t, "")
	expired := func() *httptest.ResponseRecorder {
		issuer := auth.NewIssuer("test-secret", -time.Minute)
		tok, err := issuer.Issue(primitive.NewObjectID().Hex())
		require.NoError(t, err)
		return authedRequest(t, "Bearer "+tok)
	}()

	assert.Equal(t, missing.Body.String(), expired.Body.String())
}

func TestAuthValidTokenInjectsIdentity(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	userID := primitive.NewObjectID()
	tok, err := issuer.Issue(userID.Hex())
	require.NoError(t, err)

	var got primitive.ObjectID
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = UserIDFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	Auth(issuer)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	assert.Equal(t, userID, got)
}
