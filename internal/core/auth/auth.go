// Package auth provides HMAC-based publisher API keys for the gRPC service.
//
// Keys embed the ID of the server secret that signs them. Only the HMAC of a
// key is stored, so a leaked database does not reveal usable keys.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// MetadataKey is the gRPC metadata entry carrying the API key.
const MetadataKey = "x-api-key"

// lastUsedThrottle bounds last_used_at writes for busy publishers.
const lastUsedThrottle = time.Minute

type contextKey string

const publisherKey = contextKey("publisher")

// Queries is the subset of *db.Queries used for key storage.
type Queries interface {
	Get(ctx context.Context, name string, dest any, args ...any) error
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// keyRecord is the row returned by get-api-key-by-hash.
type keyRecord struct {
	APIKeyID   string       `db:"api_key_id"`
	Publisher  string       `db:"publisher"`
	LastUsedAt sql.NullTime `db:"last_used_at"`
	RevokedAt  sql.NullTime `db:"revoked_at"`
}

// Authenticator validates and issues publisher API keys.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
}

// NewAuthenticator creates an authenticator with HMAC secrets keyed by
// secret ID.
func NewAuthenticator(secrets map[string][]byte, queries Queries) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
	}
}

// Authenticate validates an API key and returns the publisher it was issued to.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	var rec keyRecord
	err = a.queries.Get(ctx, "get-api-key-by-hash", &rec, ComputeHMAC(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStore, err)
	}

	if rec.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	if shouldUpdateLastUsed(rec.LastUsedAt) {
		_, _ = a.queries.Exec(ctx, "update-last-used", time.Now().UTC(), rec.APIKeyID)
	}

	return rec.Publisher, nil
}

// IssueKey creates and stores a key for publisher signed by secretID.
// An empty secretID selects the only configured secret.
// The plaintext key is returned once and never stored.
func (a *Authenticator) IssueKey(ctx context.Context, publisher, secretID string) (apiKeyID, apiKey string, err error) {
	if publisher == "" {
		return "", "", fmt.Errorf("publisher name required")
	}

	if secretID == "" {
		secretID, err = a.defaultSecretID()
		if err != nil {
			return "", "", err
		}
	}
	secret, ok := a.secrets[secretID]
	if !ok {
		return "", "", fmt.Errorf("secret %s: %w", secretID, ErrUnknownKey)
	}

	apiKey, err = GenerateAPIKey(secretID)
	if err != nil {
		return "", "", err
	}

	apiKeyID = uuid.Must(uuid.NewV7()).String()
	_, err = a.queries.Exec(ctx, "insert-api-key",
		apiKeyID, publisher, secretID, ComputeHMAC(secret, apiKey), time.Now().UTC())
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrStore, err)
	}

	return apiKeyID, apiKey, nil
}

// RevokeKey marks a key as revoked. Revoking twice reports ErrInvalidKey.
func (a *Authenticator) RevokeKey(ctx context.Context, apiKeyID string) error {
	res, err := a.queries.Exec(ctx, "revoke-api-key", time.Now().UTC(), apiKeyID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if n == 0 {
		return ErrInvalidKey
	}
	return nil
}

func (a *Authenticator) defaultSecretID() (string, error) {
	switch len(a.secrets) {
	case 0:
		return "", fmt.Errorf("no HMAC secrets configured (set VZ_HMAC_SECRET)")
	case 1:
		for id := range a.secrets {
			return id, nil
		}
	}
	ids := make([]string, 0, len(a.secrets))
	for id := range a.secrets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return "", fmt.Errorf("multiple HMAC secrets configured, choose one of %v", ids)
}

func shouldUpdateLastUsed(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return time.Since(lastUsed.Time) > lastUsedThrottle
}

// UnaryInterceptor authenticates calls to the listed full method names.
// Other methods pass through without a key.
func (a *Authenticator) UnaryInterceptor(methods ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !slices.Contains(methods, info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get(MetadataKey)
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		publisher, err := a.Authenticate(ctx, apiKeys[0])
		if err != nil {
			return nil, status.Error(StatusCode(err), err.Error())
		}

		return handler(WithPublisher(ctx, publisher), req)
	}
}

// StatusCode maps an authentication error to its gRPC code.
func StatusCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return codes.PermissionDenied
	case errors.Is(err, ErrStore):
		return codes.Unavailable
	default:
		return codes.Unauthenticated
	}
}

// WithPublisher returns ctx carrying the authenticated publisher name.
func WithPublisher(ctx context.Context, publisher string) context.Context {
	return context.WithValue(ctx, publisherKey, publisher)
}

// PublisherFromContext extracts the publisher name.
// Returns empty string if the call was not authenticated.
func PublisherFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(publisherKey).(string); ok {
		return p
	}
	return ""
}
