package audit

import "context"

// Repository provides append-only access to the audit_logs table.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}
