package licensing

import (
	"context"

	"github.com/notaris/backend/internal/domain/shared"
)

// ServerRequest identifies a license towards the license server.
type ServerRequest struct {
	Key        string
	Domain     string
	OfficeCode string
}

// Server is the remote license authority.
type Server interface {
	Activate(ctx context.Context, req ServerRequest) (*Grant, error)
	Verify(ctx context.Context, req ServerRequest) (*Grant, error)
	Deactivate(ctx context.Context, req ServerRequest) error
}

var (
	// ErrServerUnavailable means the server could not be reached or
	// failed; the stored status may still be trusted within the grace period.
	ErrServerUnavailable = shared.NewDomainError("LICENSE_SERVER_UNAVAILABLE", "License server is unavailable")
	// ErrKeyRejected means the server refused the key for this domain.
	ErrKeyRejected = shared.NewDomainError("LICENSE_REJECTED", "License key was rejected")
)
