package store

import "context"

type contextKey string

const (
	// UserIDKey is the context key for the external user ID (TEXT, free-form).
	UserIDKey contextKey = "faqclaw_user_id"
	// ChannelKey is the context key for the channel a request arrived on.
	ChannelKey contextKey = "faqclaw_channel"
)

// WithUserID returns a new context with the given user ID.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// UserIDFromContext extracts the user ID from context. Returns "" if not set.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// WithChannel returns a new context tagged with the channel name.
func WithChannel(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ChannelKey, name)
}

// ChannelFromContext extracts the channel name from context. Returns "" if not set.
func ChannelFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ChannelKey).(string); ok {
		return v
	}
	return ""
}
