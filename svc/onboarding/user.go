package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

const maxUserIDLength = 128

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.@-]*$`)

// ValidUserID reports whether id is safe to embed in a draft key.
func ValidUserID(id string) bool {
	return id != "" && len(id) <= maxUserIDLength && userIDPattern.MatchString(id)
}

// UserDraftPrefix namespaces the drafts of one user under base.
func UserDraftPrefix(base, userID string) string {
	return base + userID + ":"
}

type userKey struct{}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}

// LoggerExtractor enriches log records with the user id of the request.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := UserIDFromContext(ctx); ok {
			return slog.String("user_id", id), true
		}
		return slog.Attr{}, false
	}
}

// UserResolver extracts the user id from a request. An empty id means the
// request carries none.
type UserResolver func(r *http.Request) (string, error)

// NewHeaderResolver reads the user id from header, X-User-ID by default.
func NewHeaderResolver(header string) UserResolver {
	if header == "" {
		header = "X-User-ID"
	}
	return func(r *http.Request) (string, error) {
		id := strings.TrimSpace(r.Header.Get(header))
		if id == "" {
			return "", nil
		}
		if !ValidUserID(id) {
			return "", fmt.Errorf("%w: header %s", ErrInvalidUserID, header)
		}
		return id, nil
	}
}
