package repository

import (
	"context"

	"macfinder/internal/domain"
)

// CredentialRepository defines the interface for stored switch logins
type CredentialRepository interface {
	// Read operations
	GetCredential(ctx context.Context, id string) (*domain.Credential, error)
	ListCredentials(ctx context.Context) ([]domain.CredentialSummary, error)

	// Write operations
	PutCredential(ctx context.Context, cred *domain.Credential) error
	DeleteCredential(ctx context.Context, id string) error

	// Close releases resources
	Close() error
}
