package sqlite

import (
	"database/sql"
	"time"

	"macfinder/internal/domain"
)

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// credentialRow holds all columns from a credential query for scanning
type credentialRow struct {
	ID         string
	Type       string
	Username   string
	Password   sql.NullString
	PrivateKey sql.NullString
	Passphrase sql.NullString
	CreatedAt  int64
	UpdatedAt  int64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match credentialColumns order exactly
func (r *credentialRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,
		&r.Type,
		&r.Username,
		&r.Password,
		&r.PrivateKey,
		&r.Passphrase,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}

// toDomain converts the scanned row to a domain.Credential
func (r *credentialRow) toDomain() *domain.Credential {
	return &domain.Credential{
		ID:         r.ID,
		Type:       domain.CredentialType(r.Type),
		Source:     domain.CredentialSourceStore,
		Username:   r.Username,
		Password:   nullToString(r.Password),
		PrivateKey: nullToString(r.PrivateKey),
		Passphrase: nullToString(r.Passphrase),
		CreatedAt:  time.Unix(r.CreatedAt, 0).UTC(),
		UpdatedAt:  time.Unix(r.UpdatedAt, 0).UTC(),
	}
}

// credentialColumns is the column list for credential queries
const credentialColumns = `id, type, username, password, private_key, passphrase, created_at, updated_at`

// credentialInsertArgs prepares arguments for credential INSERT/UPSERT in credentialColumns order
func credentialInsertArgs(cred *domain.Credential) []interface{} {
	return []interface{}{
		cred.ID,
		string(cred.Type),
		cred.Username,
		stringToNull(cred.Password),
		stringToNull(cred.PrivateKey),
		stringToNull(cred.Passphrase),
		cred.CreatedAt.Unix(),
		cred.UpdatedAt.Unix(),
	}
}
