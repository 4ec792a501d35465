package codeblock

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
)

func TestExtractFenced(t *testing.T) {
	md := "Some prose.\n\n```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```\n\n```sh\nls\n```\n"

	ex, ok := ExtractFenced([]byte(md))
	require.True(t, ok)
	require.Equal(t, "go", ex.Language)
	require.Equal(t, "func main() {\n\tprintln(\"hi\")\n}\n", ex.Source)
	require.Equal(t, 3, ex.Lines())

	_, ok = ExtractFenced([]byte("no code here"))
	require.False(t, ok)
}

func TestSetContent_Shapes(t *testing.T) {
	b := New(DefaultLimits())

	require.NoError(t, b.SetContent("```Python\nprint(1)\n```"))
	ex, ok := b.Excerpt()
	require.True(t, ok)
	require.Equal(t, "python", ex.Language)

	require.NoError(t, b.SetContent("SELECT 1;"))
	ex, _ = b.Excerpt()
	require.Equal(t, "", ex.Language)
	require.Equal(t, "SELECT 1;", ex.Source)

	require.NoError(t, b.SetContent(map[string]any{"language": "sql", "source": "SELECT 2;", "highlight": []any{1.0}}))
	ex, _ = b.Excerpt()
	require.Equal(t, []int{1}, ex.Highlight)

	require.Error(t, b.SetContent(nil))
	require.Error(t, b.SetContent(3.14))
}

func TestResult(t *testing.T) {
	b := New(DefaultLimits())
	require.NoError(t, b.SetTitle("Hello"))
	require.NoError(t, b.SetContent(Excerpt{Language: "go", Source: "a := 1\nb := 2\n", Caption: "<i>setup</i>"}))

	s := b.Result()
	require.True(t, s.IsValid(), "errors: %v", s.Validation.ErrorMessages())
	require.Equal(t, 2.0, s.Content["lines"])
	require.Equal(t, "setup", s.Content["caption"])
	require.Equal(t, "go", s.Content["language"])
}

func TestValidation(t *testing.T) {
	b := New(Limits{MaxLines: 2, AllowedLanguages: []string{"go"}})
	require.NoError(t, b.SetTitle("Bad"))
	require.NoError(t, b.SetContent(Excerpt{Language: "rust", Source: "a\nb\nc", Highlight: []int{4}}))

	errs := strings.Join(b.Result().Validation.ErrorMessages(), "\n")
	require.Contains(t, errs, "code excerpt has 3 lines, limit is 2")
	require.Contains(t, errs, `language "rust" is not allowed`)
	require.Contains(t, errs, "highlighted line 4 is outside the excerpt")

	b.Reset()
	require.NoError(t, b.SetTitle("Empty"))
	require.Contains(t, b.Result().Validation.ErrorMessages(), "code excerpt has no source")

	b.Reset()
	require.NoError(t, b.SetTitle("No language"))
	require.NoError(t, b.SetContent("x := 1"))
	s := b.Result()
	require.True(t, s.IsValid())
	require.Contains(t, s.Validation.WarningMessages(), "code excerpt has no language; highlighting is disabled")
}

func TestConformsToBuilderContract(t *testing.T) {
	require.NoError(t, builder.Probe(NewConstructor(DefaultLimits())()))
}
