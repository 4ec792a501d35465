package tenant

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
)

// RuleFactory binds declarative rule parameters to a predicate.
type RuleFactory func(params map[string]any) (Predicate, error)

// RuleCatalog maps declarative rule kinds to predicate factories.
type RuleCatalog struct {
	mu        sync.RWMutex
	factories map[string]RuleFactory
}

// NewRuleCatalog returns a catalog with the built-in rule kinds.
func NewRuleCatalog() *RuleCatalog {
	c := &RuleCatalog{factories: make(map[string]RuleFactory)}
	c.factories["title_max_length"] = titleMaxLength
	c.factories["requires_metadata"] = requiresMetadata
	c.factories["forbidden_words"] = forbiddenWords
	c.factories["requires_asset"] = requiresAsset
	c.factories["max_turns"] = maxTurns
	return c
}

// Register adds or replaces a rule kind.
func (c *RuleCatalog) Register(kind string, factory RuleFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[kind] = factory
}

// Kinds returns the known rule kinds, sorted.
func (c *RuleCatalog) Kinds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.factories))
	for k := range c.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Bind builds the predicate for kind.
func (c *RuleCatalog) Bind(kind string, params map[string]any) (Predicate, error) {
	c.mu.RLock()
	factory, ok := c.factories[kind]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("unknown rule kind %q", kind)).
			WithContext("kind", kind).
			Build()
	}
	pred, err := factory(params)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("invalid parameters for rule kind %q", kind)).
			WithContext("kind", kind).
			Build()
	}
	return pred, nil
}

func titleMaxLength(params map[string]any) (Predicate, error) {
	limit, err := intParam(params, "max")
	if err != nil {
		return nil, err
	}
	return func(s *slide.Slide) (bool, error) {
		return len([]rune(s.Title)) <= limit, nil
	}, nil
}

func requiresMetadata(params map[string]any) (Predicate, error) {
	key, err := stringParam(params, "key")
	if err != nil {
		return nil, err
	}
	return func(s *slide.Slide) (bool, error) {
		v, ok := s.Metadata[key]
		return ok && v != nil && v != "", nil
	}, nil
}

func requiresAsset(params map[string]any) (Predicate, error) {
	category, err := stringParam(params, "category")
	if err != nil {
		return nil, err
	}
	return func(s *slide.Slide) (bool, error) {
		return len(s.Assets[category]) > 0, nil
	}, nil
}

func maxTurns(params map[string]any) (Predicate, error) {
	limit, err := intParam(params, "max")
	if err != nil {
		return nil, err
	}
	return func(s *slide.Slide) (bool, error) {
		raw, ok := s.Content["turns"]
		if !ok {
			return true, nil
		}
		turns, ok := raw.([]any)
		if !ok {
			return false, fmt.Errorf("content turns has type %T", raw)
		}
		return len(turns) <= limit, nil
	}, nil
}

func forbiddenWords(params map[string]any) (Predicate, error) {
	words, err := stringsParam(params, "words")
	if err != nil {
		return nil, err
	}
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return func(s *slide.Slide) (bool, error) {
		var sb strings.Builder
		sb.WriteString(s.Title)
		sb.WriteByte('\n')
		sb.WriteString(s.Subtitle)
		collectText(&sb, s.Content)
		text := strings.ToLower(sb.String())
		for _, w := range words {
			if strings.Contains(text, w) {
				return false, nil
			}
		}
		return true, nil
	}, nil
}

func collectText(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case string:
		sb.WriteByte('\n')
		sb.WriteString(t)
	case map[string]any:
		for _, child := range t {
			collectText(sb, child)
		}
	case []any:
		for _, child := range t {
			collectText(sb, child)
		}
	}
}

func intParam(params map[string]any, key string) (int, error) {
	switch v := params[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	case nil:
		return 0, fmt.Errorf("parameter %q is required", key)
	}
	return 0, fmt.Errorf("parameter %q must be an integer", key)
}

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return v, nil
}

func stringsParam(params map[string]any, key string) ([]string, error) {
	switch v := params[key].(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %q must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("parameter %q must be a list of strings", key)
	}
}
