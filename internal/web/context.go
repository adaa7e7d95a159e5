package web

import (
	"context"
	"net/http"

	"github.com/JoeyNPP/Furniture-Site/internal/core"
	"github.com/JoeyNPP/Furniture-Site/internal/web/middleware"
)

// withRequester tags ctx with the client for upload logs.
func withRequester(ctx context.Context, r *http.Request) context.Context {
	return core.WithRequester(ctx, core.Requester{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
}
