package auth

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/vizconf/internal/core/db"
)

const (
	testSecretID = "0123456789abcdef0123456789abcdef"
	otherSecret  = "fedcba9876543210fedcba9876543210"
	addMethod    = "/vizconf.v1.ConfigService/AddDocument"
	selectMethod = "/vizconf.v1.ConfigService/Select"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	conn, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.MigrateUp(conn); err != nil {
		t.Fatal(err)
	}
	q, err := db.LoadQueries(conn)
	if err != nil {
		t.Fatal(err)
	}
	secrets := map[string][]byte{testSecretID: []byte(strings.Repeat("k", 32))}
	return NewAuthenticator(secrets, q)
}

func TestParseAPIKey(t *testing.T) {
	random := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", FormatAPIKey(testSecretID, random), false},
		{"wrong prefix", "tk-v1-" + testSecretID + "-" + random, true},
		{"wrong version", "vz-v2-" + testSecretID + "-" + random, true},
		{"short secret id", "vz-v1-abc-" + random, true},
		{"short random", "vz-v1-" + testSecretID + "-abcd", true},
		{"uppercase hex", "vz-v1-" + strings.ToUpper(testSecretID) + "-" + random, true},
		{"too many parts", "vz-v1-" + testSecretID + "-" + random + "-x", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, randomData, err := ParseAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKeyFormat) {
					t.Errorf("error = %v, want ErrInvalidKeyFormat", err)
				}
				return
			}
			if secretID != testSecretID || randomData != random {
				t.Errorf("ParseAPIKey() = (%s, %s)", secretID, randomData)
			}
		})
	}
}

func TestGenerateAPIKey_Parses(t *testing.T) {
	key, err := GenerateAPIKey(testSecretID)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ParseAPIKey(key); err != nil {
		t.Errorf("generated key %q does not parse: %v", key, err)
	}

	other, err := GenerateAPIKey(testSecretID)
	if err != nil {
		t.Fatal(err)
	}
	if key == other {
		t.Error("two generated keys are identical")
	}
}

func TestVerifyHMAC(t *testing.T) {
	secret := []byte(strings.Repeat("s", 32))
	h := ComputeHMAC(secret, "key")
	if !VerifyHMAC(h, ComputeHMAC(secret, "key")) {
		t.Error("same input should verify")
	}
	if VerifyHMAC(h, ComputeHMAC(secret, "other")) {
		t.Error("different input should not verify")
	}
}

func TestAuthenticate(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx := context.Background()

	id, key, err := a.IssueKey(ctx, "analytics-team", "")
	if err != nil {
		t.Fatalf("IssueKey() error = %v", err)
	}

	publisher, err := a.Authenticate(ctx, key)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if publisher != "analytics-team" {
		t.Errorf("publisher = %q, want analytics-team", publisher)
	}

	// Second call exercises the last_used_at throttle path
	if _, err := a.Authenticate(ctx, key); err != nil {
		t.Fatalf("second Authenticate() error = %v", err)
	}

	unknown, _ := GenerateAPIKey(otherSecret)
	if _, err := a.Authenticate(ctx, unknown); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown secret error = %v, want ErrUnknownKey", err)
	}

	unissued, _ := GenerateAPIKey(testSecretID)
	if _, err := a.Authenticate(ctx, unissued); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("unissued key error = %v, want ErrInvalidKey", err)
	}

	if err := a.RevokeKey(ctx, id); err != nil {
		t.Fatalf("RevokeKey() error = %v", err)
	}
	if _, err := a.Authenticate(ctx, key); !errors.Is(err, ErrKeyRevoked) {
		t.Errorf("revoked key error = %v, want ErrKeyRevoked", err)
	}
	if err := a.RevokeKey(ctx, id); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("second RevokeKey() error = %v, want ErrInvalidKey", err)
	}
}

func TestIssueKey_SecretSelection(t *testing.T) {
	ctx := context.Background()

	none := NewAuthenticator(map[string][]byte{}, nil)
	if _, _, err := none.IssueKey(ctx, "p", ""); err == nil {
		t.Error("expected error with no secrets")
	}

	two := NewAuthenticator(map[string][]byte{testSecretID: nil, otherSecret: nil}, nil)
	if _, _, err := two.IssueKey(ctx, "p", ""); err == nil {
		t.Error("expected error with ambiguous secrets")
	}
	if _, _, err := two.IssueKey(ctx, "", testSecretID); err == nil {
		t.Error("expected error for empty publisher")
	}

	a := newTestAuthenticator(t)
	if _, _, err := a.IssueKey(ctx, "p", otherSecret); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("IssueKey() with unknown secret error = %v, want ErrUnknownKey", err)
	}
}

type failingQueries struct{}

func (failingQueries) Get(context.Context, string, any, ...any) error {
	return errors.New("connection refused")
}

func (failingQueries) Exec(context.Context, string, ...any) (sql.Result, error) {
	return nil, errors.New("connection refused")
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	a := NewAuthenticator(map[string][]byte{testSecretID: []byte("s")}, failingQueries{})
	key, _ := GenerateAPIKey(testSecretID)

	_, err := a.Authenticate(context.Background(), key)
	if !errors.Is(err, ErrStore) {
		t.Fatalf("error = %v, want ErrStore", err)
	}
	if StatusCode(err) != codes.Unavailable {
		t.Errorf("StatusCode() = %v, want Unavailable", StatusCode(err))
	}
}

func TestUnaryInterceptor(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx := context.Background()

	id, key, err := a.IssueKey(ctx, "publisher-a", testSecretID)
	if err != nil {
		t.Fatal(err)
	}

	interceptor := a.UnaryInterceptor(addMethod)
	handler := func(ctx context.Context, req any) (any, error) {
		return PublisherFromContext(ctx), nil
	}
	call := func(ctx context.Context, method string) (any, error) {
		return interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
	}
	withKey := func(k string) context.Context {
		return metadata.NewIncomingContext(ctx, metadata.Pairs(MetadataKey, k))
	}

	got, err := call(ctx, selectMethod)
	if err != nil || got != "" {
		t.Errorf("unprotected method = (%v, %v), want pass-through", got, err)
	}

	if _, err := call(ctx, addMethod); status.Code(err) != codes.Unauthenticated {
		t.Errorf("no metadata code = %v, want Unauthenticated", status.Code(err))
	}

	emptyMD := metadata.NewIncomingContext(ctx, metadata.MD{})
	if _, err := call(emptyMD, addMethod); status.Code(err) != codes.Unauthenticated {
		t.Errorf("missing key code = %v, want Unauthenticated", status.Code(err))
	}

	if _, err := call(withKey("garbage"), addMethod); status.Code(err) != codes.Unauthenticated {
		t.Errorf("bad key code = %v, want Unauthenticated", status.Code(err))
	}

	got, err = call(withKey(key), addMethod)
	if err != nil {
		t.Fatalf("valid key error = %v", err)
	}
	if got != "publisher-a" {
		t.Errorf("publisher in context = %v, want publisher-a", got)
	}

	if err := a.RevokeKey(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := call(withKey(key), addMethod); status.Code(err) != codes.PermissionDenied {
		t.Errorf("revoked key code = %v, want PermissionDenied", status.Code(err))
	}
}
