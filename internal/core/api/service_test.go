package api

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/vizconf/internal/core/auth"
	"github.com/solatis/vizconf/internal/core/config"
	"github.com/solatis/vizconf/internal/core/db"
	"github.com/solatis/vizconf/internal/rules"
	"github.com/solatis/vizconf/internal/types"
)

const barType = "pentaho/visual/models/bar"

func newTestDocuments(t *testing.T) *db.Documents {
	t.Helper()
	conn, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(conn))
	q, err := db.LoadQueries(conn)
	require.NoError(t, err)
	return db.NewDocuments(q)
}

func newTestService(t *testing.T, documents *db.Documents) (*ConfigService, *rules.Engine) {
	t.Helper()
	engine := rules.NewEngine(rules.WithCacheSize(16))
	cfg := config.DefaultConfig().Server
	cfg.MaxDocumentRules = 3
	svc, err := NewConfigService(engine, documents, &cfg, nil)
	require.NoError(t, err)
	return svc, engine
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func barDocument() *types.Document {
	return &types.Document{Rules: []*types.Rule{
		{
			Select: &types.Select{Type: types.Values{barType}},
			Apply:  types.Spec{"props": map[string]any{"colors": []any{"red"}}},
		},
		{
			Select:   &types.Select{Type: types.Values{barType}, Locale: types.Values{"pt"}},
			Priority: 1,
			Apply: types.Spec{"props": map[string]any{
				"colors": map[string]any{"$op": "add", "value": []any{"verde"}},
			}},
		},
	}}
}

func TestNewConfigService_Validation(t *testing.T) {
	cfg := config.DefaultConfig().Server
	_, err := NewConfigService(nil, nil, &cfg, nil)
	assert.Error(t, err)
	_, err = NewConfigService(rules.NewEngine(), nil, nil, nil)
	assert.Error(t, err)
}

func TestSelect_RequestValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  map[string]any
	}{
		{"missing type", map[string]any{}},
		{"empty type", map[string]any{"type": ""}},
		{"numeric type", map[string]any{"type": 3.0}},
		{"criteria not object", map[string]any{"type": barType, "criteria": "pt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Select(ctx, mustStruct(t, tt.req))
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestSelect_NoRulesIsNull(t *testing.T) {
	svc, _ := newTestService(t, nil)

	resp, err := svc.Select(context.Background(), mustStruct(t, map[string]any{"type": barType}))
	require.NoError(t, err)

	_, isNull := resp.Fields["config"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull)
	assert.Nil(t, ConfigFromResponse(resp))
	assert.Equal(t, float64(0), resp.Fields["rule_count"].GetNumberValue())
}

func TestSelect_MergesMatchingRules(t *testing.T) {
	svc, engine := newTestService(t, nil)
	require.NoError(t, engine.Add(barDocument()))
	ctx := context.Background()

	req, err := NewSelectRequest(barType, types.Criteria{"locale": "pt"})
	require.NoError(t, err)
	resp, err := svc.Select(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, types.Spec{"props": map[string]any{"colors": []any{"red", "verde"}}}, ConfigFromResponse(resp))
	assert.Equal(t, float64(2), resp.Fields["rule_count"].GetNumberValue())

	req, err = NewSelectRequest(barType, types.Criteria{"locale": "en"})
	require.NoError(t, err)
	resp, err = svc.Select(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, types.Spec{"props": map[string]any{"colors": []any{"red"}}}, ConfigFromResponse(resp))
}

func TestSelect_InvalidOperator(t *testing.T) {
	svc, engine := newTestService(t, nil)
	require.NoError(t, engine.AddRule(&types.Rule{
		Apply: types.Spec{"x": map[string]any{"$op": "multiply", "value": 2.0}},
	}))

	_, err := svc.Select(context.Background(), mustStruct(t, map[string]any{"type": "value"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSelect_CancelledContext(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Select(ctx, mustStruct(t, map[string]any{"type": barType}))
	assert.Equal(t, codes.Canceled, status.Code(err))
}

func TestAddDocument_RequiresDatabase(t *testing.T) {
	svc, _ := newTestService(t, nil)
	req, err := NewAddDocumentRequest("test", barDocument())
	require.NoError(t, err)

	_, err = svc.AddDocument(context.Background(), req)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestAddDocument_StoresAndLoads(t *testing.T) {
	documents := newTestDocuments(t)
	svc, engine := newTestService(t, documents)
	ctx := auth.WithPublisher(context.Background(), "charts-team")

	req, err := NewAddDocumentRequest("", barDocument())
	require.NoError(t, err)
	resp, err := svc.AddDocument(ctx, req)
	require.NoError(t, err)

	id := DocumentIDFromResponse(resp)
	_, err = types.ParseDocumentID(string(id))
	require.NoError(t, err)
	assert.Equal(t, float64(2), resp.Fields["rule_count"].GetNumberValue())
	assert.Equal(t, 2, engine.RuleCount())

	stored, err := documents.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, id, stored[0].ID)
	assert.Equal(t, "charts-team", stored[0].Source)

	// Replaying the stored document yields the same selection
	replayed := rules.NewEngine()
	doc, err := stored[0].Document()
	require.NoError(t, err)
	require.NoError(t, replayed.Add(doc))

	criteria := types.Criteria{"locale": "pt"}
	want, err := engine.Select(barType, criteria)
	require.NoError(t, err)
	got, err := replayed.Select(barType, criteria)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAddDocument_Rejections(t *testing.T) {
	documents := newTestDocuments(t)
	svc, engine := newTestService(t, documents)
	ctx := context.Background()

	tooMany := &types.Document{}
	for range 4 {
		tooMany.Rules = append(tooMany.Rules, &types.Rule{Apply: types.Spec{"x": 1.0}})
	}
	badType := mustStruct(t, map[string]any{
		"rules": []any{map[string]any{"select": map[string]any{"type": 42.0}}},
	})
	badShape := mustStruct(t, map[string]any{"rules": "not a list"})

	req, err := NewAddDocumentRequest("many", tooMany)
	require.NoError(t, err)

	for name, r := range map[string]*structpb.Struct{"too many rules": req, "bad type": badType, "bad shape": badShape} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AddDocument(ctx, r)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}

	stored, err := documents.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, 0, engine.RuleCount())
}

func TestAddDocument_EmptyDocument(t *testing.T) {
	svc, engine := newTestService(t, newTestDocuments(t))

	resp, err := svc.AddDocument(context.Background(), mustStruct(t, map[string]any{"source": "empty"}))
	require.NoError(t, err)
	assert.Equal(t, float64(0), resp.Fields["rule_count"].GetNumberValue())
	assert.Equal(t, 0, engine.RuleCount())
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, codes.InvalidArgument, codeFor(types.ErrArgumentRequired))
	assert.Equal(t, codes.InvalidArgument, codeFor(types.ErrOperationInvalid))
	assert.Equal(t, codes.DeadlineExceeded, codeFor(context.DeadlineExceeded))
	assert.Equal(t, codes.Internal, codeFor(assert.AnError))
	assert.Equal(t, codes.Unavailable, status.Code(storageStatus(assert.AnError)))
	assert.Equal(t, codes.InvalidArgument, status.Code(storageStatus(types.ErrDocumentTooLarge)))
}
