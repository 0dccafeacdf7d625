package api

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"
)

// Select returns the merged configuration for a type under criteria.
// config is null when no rule applies; rule_count is the number of rules
// the engine holds.
func (s *ConfigService) Select(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}

	typeID, criteria, err := decodeSelect(req)
	if err != nil {
		return nil, toStatus(err)
	}

	cfg, err := s.engine.Select(typeID, criteria)
	if err != nil {
		return nil, toStatus(err)
	}

	resp, err := encodeSelect(cfg, s.engine.RuleCount())
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}
