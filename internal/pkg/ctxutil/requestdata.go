package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData carries per-request identity resolved by the auth and
// tenancy middleware. OrgID and OrgRole are zero until the request
// passes an org-scoped route group.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	Email       string
	OrgID       uuid.UUID
	OrgRole     string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}
