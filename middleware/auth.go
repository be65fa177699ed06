package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bookkeep/backend/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const UserIDKey contextKey = "userID"

// Auth rejects requests without a valid bearer token before any handler
// logic runs. All failure modes answer with the same 401 body so callers
// cannot tell a missing header from a tampered or expired token.
func Auth(issuer *auth.Issuer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w)
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w)
				return
			}
			userID, err := issuer.Verify(parts[1])
			if err != nil {
				unauthorized(w)
				return
			}
			oid, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, oid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
}

func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(UserIDKey).(primitive.ObjectID)
	return id, ok
}
