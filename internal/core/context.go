package core

import "context"

type requesterKey struct{}

// Requester identifies the client behind an upload in log entries.
type Requester struct {
	IP        string
	UserAgent string
}

// WithRequester attaches the client to ctx.
func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, requesterKey{}, r)
}

// RequesterFrom returns the client attached to ctx, or the zero Requester.
func RequesterFrom(ctx context.Context) Requester {
	r, _ := ctx.Value(requesterKey{}).(Requester)
	return r
}

// logAttrs returns the non-empty requester fields as slog attributes.
func (r Requester) logAttrs() []any {
	var attrs []any
	if r.IP != "" {
		attrs = append(attrs, "remote_ip", r.IP)
	}
	if r.UserAgent != "" {
		attrs = append(attrs, "user_agent", r.UserAgent)
	}
	return attrs
}
