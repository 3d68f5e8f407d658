package common

import "context"

// Gateway abstracts a trading venue.
//
// ExecuteOrder always returns a terminal OrderResult: transport, auth, and
// venue rejections surface as Status == FAILED with no partial fill state.
// Cancellation or timeout of ctx is treated the same way by implementations.
type Gateway interface {
	Name() Exchange
	ExecuteOrder(ctx context.Context, req OrderRequest) OrderResult
	AccountBalance(ctx context.Context) (map[string]float64, error)
}
