package httpx

import "context"

type ctxKey string

// CtxKeyUserID carries the authenticated caller's user ID.
const CtxKeyUserID ctxKey = "user_id"

// UserIDFromContext returns the authenticated user ID, or "" when the
// request went through no identity middleware.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// ContextWithUserID injects a caller identity. Exposed for tests.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}
