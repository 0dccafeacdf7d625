// internal/rules/engine.go
package rules

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/solatis/vizconf/internal/spec"
	"github.com/solatis/vizconf/internal/types"
)

/*
 * Configuration service facade.
 *
 * Engine ingests configuration documents into a Store and answers "what is
 * the effective configuration for type T under criteria C?" by selecting the
 * matching rules and folding their Apply payloads, in store order, through
 * spec.MergeInto starting from an empty record.
 *
 * Select returns nil when no rule matches, distinguishing "no configuration"
 * from an empty one. The fold writes into a fresh accumulator, so an invalid
 * operator anywhere aborts the whole call without partial results.
 */

// Engine is the configuration service.
type Engine struct {
	store  *Store
	cache  *selectionCache
	logger *zap.Logger
}

type engineOptions struct {
	ns        Namespace
	cacheSize int
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithNamespace sets the namespace used to qualify type identifiers.
func WithNamespace(ns Namespace) Option {
	return func(o *engineOptions) { o.ns = ns }
}

// WithCacheSize enables a selection cache of n entries. 0 disables it.
func WithCacheSize(n int) Option {
	return func(o *engineOptions) { o.cacheSize = n }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// NewEngine creates a new configuration engine.
func NewEngine(opts ...Option) *Engine {
	o := engineOptions{ns: DefaultNamespace(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		store:  NewStore(o.ns),
		logger: o.logger,
	}
	if o.cacheSize > 0 {
		cache, err := newSelectionCache(o.cacheSize)
		if err != nil {
			e.logger.Warn("selection cache disabled", zap.Int("size", o.cacheSize), zap.Error(err))
		} else {
			e.cache = cache
		}
	}
	return e
}

// Store exposes the underlying rule store.
func (e *Engine) Store() *Store {
	return e.store
}

// Add ingests a configuration document. Rules are added in document order;
// a document without rules is a no-op.
func (e *Engine) Add(doc *types.Document) error {
	if doc == nil {
		return fmt.Errorf("document: %w", types.ErrArgumentRequired)
	}
	if len(doc.Rules) == 0 {
		return nil
	}
	if err := e.store.AddRules(doc.Rules); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	if e.cache != nil {
		e.cache.purge()
	}
	e.logger.Debug("configuration document added",
		zap.Int("rules", len(doc.Rules)),
		zap.Int("total_rules", e.store.Len()))
	return nil
}

// Validate reports whether Add would accept doc, without adding it.
func (e *Engine) Validate(doc *types.Document) error {
	if doc == nil {
		return fmt.Errorf("document: %w", types.ErrArgumentRequired)
	}
	return e.store.Validate(doc.Rules)
}

// AddRule ingests a single rule.
func (e *Engine) AddRule(rule *types.Rule) error {
	return e.Add(&types.Document{Rules: []*types.Rule{rule}})
}

// SelectRules returns the rules that apply to typeID under criteria, in
// fold order.
func (e *Engine) SelectRules(typeID string, criteria types.Criteria) ([]*types.Rule, error) {
	return e.store.Select(typeID, criteria)
}

// Select returns the merged configuration for typeID under criteria, or nil
// when no rule applies. The returned map is owned by the caller.
func (e *Engine) Select(typeID string, criteria types.Criteria) (types.Spec, error) {
	if typeID == "" {
		return nil, fmt.Errorf("type id: %w", types.ErrArgumentRequired)
	}
	abs := e.store.Namespace().Qualify(typeID)

	var (
		key    cacheKey
		cached bool
	)
	if e.cache != nil {
		key, cached = e.cache.key(abs, criteria)
		if cached {
			if config, found := e.cache.get(key, criteria, e.store.Generation()); found {
				return config, nil
			}
		}
	}

	matched, generation, err := e.store.selectAt(abs, criteria)
	if err != nil {
		return nil, err
	}

	config, err := fold(matched)
	if err != nil {
		e.logger.Warn("configuration select failed",
			zap.String("type", abs),
			zap.Int("rules", len(matched)),
			zap.Error(err))
		return nil, fmt.Errorf("select %s: %w", abs, err)
	}

	if cached {
		e.cache.put(key, criteria, generation, config)
	}
	return config, nil
}

// fold merges rule payloads left to right into a fresh record.
func fold(matched []*types.Rule) (types.Spec, error) {
	if len(matched) == 0 {
		return nil, nil
	}
	acc := make(map[string]any)
	for _, rule := range matched {
		if _, err := spec.MergeInto(acc, rule.Apply); err != nil {
			return nil, err
		}
	}
	return types.Spec(acc), nil
}

// TypeIDs returns the absolute type identifiers that have rules.
func (e *Engine) TypeIDs() []string {
	return e.store.TypeIDs()
}

// RuleCount returns the number of distinct rules added.
func (e *Engine) RuleCount() int {
	return e.store.Len()
}
