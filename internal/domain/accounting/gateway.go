package accounting

import (
	"context"
	"fmt"
	"time"
)

// MutationKind tags a bookkeeping transaction.
type MutationKind string

const (
	// KindInvoiceSent is a sales invoice posting (FactuurVerstuurd).
	KindInvoiceSent MutationKind = "FactuurVerstuurd"
	// KindMemorial is an internal journal posting (Memoriaal).
	KindMemorial MutationKind = "Memoriaal"
)

// Relation is a customer/supplier record, upserted by code.
type Relation struct {
	Code    string
	Company string
	Contact string
	Email   string
}

// Mutation is one transaction submitted to bookkeeping.
type Mutation struct {
	Kind          MutationKind
	Date          time.Time
	InvoiceNumber string
	RelationCode  string
	Description   string
	Lines         []Line
}

// Gateway is the narrow session-scoped contract with the bookkeeping service.
// Each sync operation opens and closes its own session; sessions are not
// shared or pooled.
type Gateway interface {
	// OpenSession authenticates and returns an opaque session handle.
	OpenSession(ctx context.Context) (string, error)

	// CloseSession releases the session. It tolerates invalid sessions so
	// callers can defer it unconditionally on every path.
	CloseSession(ctx context.Context, session string) error

	// AddRelation upserts a customer record by code, returning its external id.
	AddRelation(ctx context.Context, session string, rel Relation) (int64, error)

	// AddMutation submits one transaction, returning its external mutation id.
	AddMutation(ctx context.Context, session string, mut Mutation) (int64, error)
}

// ErrorKind separates bookkeeping rejections from transport failures.
type ErrorKind string

const (
	ErrKindAuth      ErrorKind = "auth"      // credentials missing or rejected
	ErrKindService   ErrorKind = "service"   // rejected by bookkeeping rules
	ErrKindTransport ErrorKind = "transport" // network, timeout, malformed response
)

// GatewayError is returned by Gateway implementations so callers can
// distinguish error classes without parsing messages.
type GatewayError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("eboekhouden %s error %s: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("eboekhouden %s error: %s", e.Kind, e.Message)
}
