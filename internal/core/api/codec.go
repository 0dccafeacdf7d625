package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/vizconf/internal/types"
)

// Message field names.
const (
	fieldType       = "type"
	fieldCriteria   = "criteria"
	fieldConfig     = "config"
	fieldRules      = "rules"
	fieldSource     = "source"
	fieldRuleCount  = "rule_count"
	fieldDocumentID = "document_id"
)

// NewSelectRequest builds a Select request message.
func NewSelectRequest(typeID string, criteria types.Criteria) (*structpb.Struct, error) {
	fields := map[string]any{fieldType: typeID}
	if criteria != nil {
		fields[fieldCriteria] = map[string]any(criteria)
	}
	return structpb.NewStruct(fields)
}

// NewAddDocumentRequest builds an AddDocument request message.
func NewAddDocumentRequest(source string, doc *types.Document) (*structpb.Struct, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	req := new(structpb.Struct)
	if err := protojson.Unmarshal(body, req); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if req.Fields == nil {
		req.Fields = make(map[string]*structpb.Value)
	}
	req.Fields[fieldSource] = structpb.NewStringValue(source)
	return req, nil
}

// ConfigFromResponse extracts the configuration from a Select response.
// Returns nil when the response carries no configuration.
func ConfigFromResponse(resp *structpb.Struct) types.Spec {
	cfg := resp.GetFields()[fieldConfig].GetStructValue()
	if cfg == nil {
		return nil
	}
	return types.Spec(cfg.AsMap())
}

// DocumentIDFromResponse extracts the stored document ID from an
// AddDocument response.
func DocumentIDFromResponse(resp *structpb.Struct) types.DocumentID {
	return types.DocumentID(resp.GetFields()[fieldDocumentID].GetStringValue())
}

// decodeSelect extracts the type identifier and criteria of a Select request.
func decodeSelect(req *structpb.Struct) (string, types.Criteria, error) {
	fields := req.GetFields()

	var typeID string
	if v, ok := fields[fieldType]; ok {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", nil, fmt.Errorf("%s must be a string: %w", fieldType, types.ErrArgumentInvalid)
		}
		typeID = s.StringValue
	}
	if typeID == "" {
		return "", nil, fmt.Errorf("%s: %w", fieldType, types.ErrArgumentRequired)
	}

	var criteria types.Criteria
	if v, ok := fields[fieldCriteria]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_NullValue:
		case *structpb.Value_StructValue:
			criteria = types.Criteria(k.StructValue.AsMap())
		default:
			return "", nil, fmt.Errorf("%s must be an object: %w", fieldCriteria, types.ErrArgumentInvalid)
		}
	}

	return typeID, criteria, nil
}

// decodeDocument extracts the rule document and source of an AddDocument
// request.
func decodeDocument(req *structpb.Struct) (*types.Document, string, error) {
	source := req.GetFields()[fieldSource].GetStringValue()

	body, err := protojson.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document: %w", err)
	}
	if len(body) > types.MaxDocumentBytes {
		return nil, "", fmt.Errorf("%d bytes: %w", len(body), types.ErrDocumentTooLarge)
	}

	doc, err := types.ParseDocument(body)
	if err != nil {
		return nil, "", fmt.Errorf("%v: %w", err, types.ErrArgumentInvalid)
	}
	return doc, source, nil
}

// encodeSelect builds a Select response. A nil config is sent as null.
func encodeSelect(config types.Spec, ruleCount int) (*structpb.Struct, error) {
	cfgValue := structpb.NewNullValue()
	if config != nil {
		s, err := structpb.NewStruct(map[string]any(config))
		if err != nil {
			return nil, fmt.Errorf("configuration is not representable: %w", err)
		}
		cfgValue = structpb.NewStructValue(s)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldConfig:    cfgValue,
		fieldRuleCount: structpb.NewNumberValue(float64(ruleCount)),
	}}, nil
}

func encodeAddDocument(id types.DocumentID, ruleCount int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldDocumentID: structpb.NewStringValue(string(id)),
		fieldRuleCount:  structpb.NewNumberValue(float64(ruleCount)),
	}}
}
