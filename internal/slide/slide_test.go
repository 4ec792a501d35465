package slide

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleSlide(t *testing.T) *Slide {
	t.Helper()
	s := New("conversation")
	s.Title = "Retry budgets"
	s.Subtitle = "A short dialogue"
	content, err := CanonicalMap(map[string]any{
		"turns": []map[string]any{
			{"participant": "a", "text": "Why did the deploy fail?", "delay": 0.5},
			{"participant": "b", "text": "The retry budget ran out.", "delay": 1},
		},
		"duration_seconds": 4.2,
	})
	require.NoError(t, err)
	s.Content = content
	s.Layout = map[string]any{"name": "chat", "columns": 1.0}
	s.Style = map[string]any{"name": "dark", "palette": map[string]any{"bg": "#000"}}
	s.Metadata[MetaTenantID] = "acme"
	s.AddAsset("images", "logo.png")
	s.AddAsset("images", "avatar-a.png")
	s.AddAsset("audio", "turn-1.mp3")
	s.Animations["entrance"] = "fade"
	s.AddValidationWarning("content is short")
	s.AddValidationError("title too long")
	return s
}

func TestNew_StartsValidAndEmpty(t *testing.T) {
	s := New("bullets")

	require.NotEmpty(t, s.ID)
	require.Equal(t, "bullets", s.ContentType)
	require.True(t, s.IsValid())
	require.Empty(t, s.Validation.Errors)
	require.Empty(t, s.Validation.Warnings)
	require.NotNil(t, s.Content)
	require.NotNil(t, s.Assets)
	require.Equal(t, s.CreatedAt, s.UpdatedAt)
}

func TestValidation_ErrorFlipsValidity(t *testing.T) {
	s := New("bullets")

	s.AddValidationWarning("only a warning")
	require.True(t, s.IsValid())

	s.AddValidationError("broken")
	require.False(t, s.IsValid())
	require.Equal(t, []string{"broken"}, s.Validation.ErrorMessages())
	require.Equal(t, []string{"only a warning"}, s.Validation.WarningMessages())
	require.False(t, s.Validation.Errors[0].At.IsZero())

	s.ClearValidation()
	require.True(t, s.IsValid())
	require.Empty(t, s.Validation.Errors)
	require.Empty(t, s.Validation.Warnings)
}

func TestTouch_AdvancesUpdatedAt(t *testing.T) {
	restore := now
	defer func() { now = restore }()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now = func() time.Time { return base }
	s := New("bullets")

	now = func() time.Time { return base.Add(time.Minute) }
	s.Touch()

	require.Equal(t, base, s.CreatedAt)
	require.Equal(t, base.Add(time.Minute), s.UpdatedAt)
}

func TestRoundTrip_FieldForField(t *testing.T) {
	s := sampleSlide(t)
	fp, err := s.ComputeFingerprint()
	require.NoError(t, err)
	s.Fingerprint = fp

	data, err := s.Marshal()
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, s, restored)
}

func TestRoundTrip_EmptySlide(t *testing.T) {
	s := New("codeblock")

	data, err := s.Marshal()
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, s, restored)
}

func TestUnmarshal_MissingValidationDefaultsClean(t *testing.T) {
	restored, err := Unmarshal([]byte(`{"id":"abc","content_type":"bullets","title":"T"}`))
	require.NoError(t, err)

	require.Equal(t, "abc", restored.ID)
	require.True(t, restored.IsValid())
	require.NotNil(t, restored.Validation.Errors)
	require.NotNil(t, restored.Validation.Warnings)
	require.Empty(t, restored.Validation.Errors)
	require.NotNil(t, restored.Content)
	require.NotNil(t, restored.Assets)
}

func TestUnmarshal_DerivesValidityFromErrors(t *testing.T) {
	restored, err := Unmarshal([]byte(`{"id":"abc","validation":{"is_valid":true,"errors":[{"message":"x"}]}}`))
	require.NoError(t, err)
	require.False(t, restored.IsValid())
}

func TestUnmarshal_RejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte(`{not json`))
	require.Error(t, err)
}

func TestClone_DeepCopyWithFreshIdentity(t *testing.T) {
	s := sampleSlide(t)
	s.Fingerprint = "abc"

	clone := s.Clone()

	require.NotEqual(t, s.ID, clone.ID)
	require.Equal(t, s.Title, clone.Title)
	require.Equal(t, s.Content, clone.Content)
	require.Equal(t, s.Assets, clone.Assets)
	require.True(t, clone.IsValid())
	require.Empty(t, clone.Validation.Errors)
	require.Empty(t, clone.Fingerprint)
	require.False(t, clone.CreatedAt.Before(s.CreatedAt))

	// Mutating the clone must not leak into the original.
	clone.Style["palette"].(map[string]any)["bg"] = "#fff"
	clone.Assets["images"][0] = "other.png"
	clone.Content["turns"].([]any)[0].(map[string]any)["text"] = "changed"

	require.Equal(t, "#000", s.Style["palette"].(map[string]any)["bg"])
	require.Equal(t, "logo.png", s.Assets["images"][0])
	require.Equal(t, "Why did the deploy fail?", s.Content["turns"].([]any)[0].(map[string]any)["text"])
}

func TestFingerprint_IgnoresIdentityAndPresentation(t *testing.T) {
	s := sampleSlide(t)
	clone := s.Clone()
	clone.Style["name"] = "corporate"

	a, err := s.ComputeFingerprint()
	require.NoError(t, err)
	b, err := clone.ComputeFingerprint()
	require.NoError(t, err)
	require.Equal(t, a, b)

	clone.Title = "Different"
	c, err := clone.ComputeFingerprint()
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestCanonicalMap(t *testing.T) {
	m, err := CanonicalMap(struct {
		Count int    `json:"count"`
		Name  string `json:"name"`
	}{Count: 3, Name: "x"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"count": 3.0, "name": "x"}, m)

	empty, err := CanonicalMap(nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = CanonicalMap([]string{"not", "an", "object"})
	require.Error(t, err)
}
