package auth

import "context"

type contextKey string

const userIDContextKey contextKey = "liftlog-user-id"

func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user's ID, set by the
// auth middleware. The second return value is false for requests that
// never went through the middleware (e.g. in unit tests).
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int)
	return userID, ok
}
