package db

import "time"

// Order is a persisted order row. The in-memory ledger is the runtime source
// of truth; these rows exist so history survives restarts.
type Order struct {
	ID            string
	Symbol        string
	Side          string
	Qty           float64
	Price         float64
	Status        string
	Reason        string
	Fees          float64
	ExecutedQty   float64
	ExecutedPrice float64
	CreatedAt     time.Time
}

// User is an application user allowed to drive the control API.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
