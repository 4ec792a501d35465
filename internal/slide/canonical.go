package slide

import (
	"encoding/json"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// Canonicalize converts v into the JSON value tree a serialized slide decodes
// back into (map[string]any, []any, float64, string, bool, nil). Builders store
// canonical values so that a Marshal/Unmarshal round trip is field-for-field equal.
func Canonicalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "value is not serializable").Build()
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to decode canonical value").Build()
	}
	return out, nil
}

// CanonicalMap is Canonicalize for map-shaped values. A nil input yields an
// empty map; a non-object input is rejected.
func CanonicalMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	out, err := Canonicalize(v)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return map[string]any{}, nil
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, errors.ValidationError("value is not an object").Build()
	}
	return m, nil
}
