package slide

import (
	"encoding/json"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

type fingerprintHeader struct {
	ContentType string `yaml:"content_type"`
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle,omitempty"`
}

// ComputeFingerprint hashes the slide's identifying header and content payload.
// Identity, timestamps, presentation and validation state do not contribute, so
// a clone with unchanged content carries the same fingerprint.
func (s *Slide) ComputeFingerprint() (string, error) {
	header, err := yaml.Marshal(fingerprintHeader{
		ContentType: s.ContentType,
		Title:       s.Title,
		Subtitle:    s.Subtitle,
	})
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to encode fingerprint header").Build()
	}
	// encoding/json sorts map keys, which keeps the body stable.
	body, err := json.Marshal(s.Content)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to encode fingerprint body").Build()
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(header), "\n"), string(body)), nil
}
