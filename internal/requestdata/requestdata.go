package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// RequestData carries the workspace resolved by the middleware for the
// lifetime of one request.
type RequestData struct {
	WorkspaceID   uuid.UUID
	WorkspaceSlug string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, ctxKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, _ := ctx.Value(ctxKey{}).(*RequestData)
	return rd
}
