package conversation

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// Script is the plain-data form of a conversation as handed over by a content
// generator: participants plus turns tagged with a participant reference.
type Script struct {
	Participants []Participant `json:"participants"`
	Turns        []ScriptTurn  `json:"turns"`
}

// ScriptTurn is one generated turn.
type ScriptTurn struct {
	Participant  string       `json:"participant"`
	Text         string       `json:"text"`
	DelaySeconds float64      `json:"delay_seconds,omitempty"`
	Code         *CodeExcerpt `json:"code,omitempty"`
}

// decodeScript accepts a Script, *Script or a loosely typed map/slice tree
// (e.g. a resolved template or a decoded JSON payload).
func decodeScript(content any) (Script, error) {
	switch v := content.(type) {
	case nil:
		return Script{}, errors.ValidationError("conversation content is required").Build()
	case Script:
		return v, nil
	case *Script:
		if v == nil {
			return Script{}, errors.ValidationError("conversation content is required").Build()
		}
		return *v, nil
	case map[string]any:
		// Loose payloads come from decoded JSON/YAML; re-encoding is the
		// simplest faithful way to map them onto the typed script.
		data, err := json.Marshal(v)
		if err != nil {
			return Script{}, errors.WrapError(err, errors.CategoryValidation, "conversation content is not serializable").Build()
		}
		var s Script
		if err := json.Unmarshal(data, &s); err != nil {
			return Script{}, errors.WrapError(err, errors.CategoryValidation, "conversation content has an unexpected shape").Build()
		}
		return s, nil
	default:
		return Script{}, errors.ValidationError("unsupported conversation content").
			WithContext("type", fmt.Sprintf("%T", content)).
			Build()
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
