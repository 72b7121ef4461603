package goBreach

import "context"

type clientIPContextKey struct{}
type recordIDContextKey struct{}
type runIDContextKey struct{}

// WithClientIP attaches the IP of the end user on whose behalf a check runs.
// The Engine uses it for the per-IP lookup budget and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRecordID attaches a caller-defined identifier for the secret being
// checked, e.g. a vault entry UUID. It is only used in audit events.
func WithRecordID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, recordIDContextKey{}, id)
}

func withRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDContextKey{}, runID)
}

// ClientIPFromContext returns the IP set by [WithClientIP], if any.
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip := clientIPFromContext(ctx)
	return ip, ip != ""
}

func clientIPFromContext(ctx context.Context) string {
	return stringFromContext(ctx, clientIPContextKey{})
}

func recordIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, recordIDContextKey{})
}

func runIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, runIDContextKey{})
}

func stringFromContext(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
