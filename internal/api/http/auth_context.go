package httpapi

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type authContextKey string

const callerKey authContextKey = "caller"

func withCaller(ctx context.Context, caller common.Address) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// callerFromContext returns the authenticated caller address. The zero
// address means the request was not authenticated, which the domain rejects
// on its own.
func callerFromContext(ctx context.Context) common.Address {
	if addr, ok := ctx.Value(callerKey).(common.Address); ok {
		return addr
	}
	return common.Address{}
}
