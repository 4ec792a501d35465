package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

var lines = []string{
	"Why did last night's deploy roll back?",
	"The canary breached its error budget after ten minutes.",
	"Was it the new connection pool settings?",
	"Yes, max idle was set lower than the worker count.",
}

func twoSpeakers(t *testing.T) *Builder {
	t.Helper()
	b := New(DefaultLimits())
	require.NoError(t, b.SetTitle("Rollback review"))
	_, err := b.AddParticipant(Participant{ID: "A", Name: "Alex", Role: "engineer"})
	require.NoError(t, err)
	_, err = b.AddParticipant(Participant{ID: "B", Name: "Blair", Role: "sre"})
	require.NoError(t, err)
	return b
}

func TestAlternatingTurns_Valid(t *testing.T) {
	b := twoSpeakers(t)
	for i, speaker := range []string{"A", "B", "A", "B"} {
		require.NoError(t, b.AddTurn(speaker, lines[i]))
	}

	s := b.Result()
	require.True(t, s.IsValid(), "errors: %v", s.Validation.ErrorMessages())
	require.Empty(t, s.Validation.Errors)

	turns := s.Content["turns"].([]any)
	require.Len(t, turns, 4)
	require.Equal(t, "B", turns[1].(map[string]any)["participant"])
	require.Len(t, s.Content["participants"].([]any), 2)
	require.Greater(t, s.Content["duration_seconds"].(float64), 0.0)
}

func TestAddTurn_UnknownParticipantFailsImmediately(t *testing.T) {
	b := twoSpeakers(t)
	require.NoError(t, b.AddTurn("A", lines[0]))
	require.NoError(t, b.AddTurn("B", lines[1]))

	err := b.AddTurn("C", lines[2])
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryReferentialIntegrity))
	require.Len(t, b.Turns(), 2, "the offending turn must not be added")

	steps := b.Steps()
	require.Equal(t, "AddTurn", steps[len(steps)-1].Method)
	require.NotEmpty(t, steps[len(steps)-1].Err)
}

func TestAddTurnFor_RejectsForeignParticipant(t *testing.T) {
	b := twoSpeakers(t)
	other := twoSpeakers(t)

	foreign, ok := other.Participant("A")
	require.True(t, ok)

	err := b.AddTurnFor(foreign, lines[0])
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryReferentialIntegrity))
	require.Empty(t, b.Turns())

	// A look-alike value constructed by the caller is rejected too.
	err = b.AddTurnFor(&Participant{ID: "A", Name: "Alex"}, lines[0])
	require.Error(t, err)

	own, ok := b.Participant("A")
	require.True(t, ok)
	require.NoError(t, b.AddTurnFor(own, lines[0]))
	require.Same(t, own, b.Turns()[0].Participant)

	require.Error(t, b.AddTurnFor(nil, lines[0]))
}

func TestAddParticipant_RejectsDuplicatesAndEmptyIDs(t *testing.T) {
	b := twoSpeakers(t)

	_, err := b.AddParticipant(Participant{ID: "A", Name: "Again"})
	require.True(t, errors.HasCategory(err, errors.CategoryReferentialIntegrity))

	_, err = b.AddParticipant(Participant{ID: "  "})
	require.True(t, errors.HasCategory(err, errors.CategoryReferentialIntegrity))

	require.Len(t, b.Participants(), 2)
}

func TestSetContent_ReplaysScript(t *testing.T) {
	b := New(DefaultLimits())
	require.NoError(t, b.SetTitle("Script"))

	err := b.SetContent(Script{
		Participants: []Participant{{ID: "dev", Name: "Dev"}, {ID: "ops", Name: "Ops", Avatar: "ops.png"}},
		Turns: []ScriptTurn{
			{Participant: "dev", Text: lines[0]},
			{Participant: "ops", Text: lines[1], DelaySeconds: 0.5, Code: &CodeExcerpt{Language: "yaml", Source: "max_idle: 4\nworkers: 16\n"}},
		},
	})
	require.NoError(t, err)

	turns := b.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, 500*time.Millisecond, turns[1].Delay)
	require.Equal(t, 2, turns[1].Code.Lines())

	s := b.Result()
	require.True(t, s.IsValid(), "errors: %v", s.Validation.ErrorMessages())
	require.Equal(t, []string{"ops.png"}, s.Assets["avatars"])
	code := s.Content["turns"].([]any)[1].(map[string]any)["code"].(map[string]any)
	require.Equal(t, 2.0, code["lines"])
}

func TestSetContent_LooseMap(t *testing.T) {
	b := New(DefaultLimits())
	err := b.SetContent(map[string]any{
		"participants": []any{map[string]any{"id": "a", "name": "A"}, map[string]any{"id": "b", "name": "B"}},
		"turns": []any{
			map[string]any{"participant": "a", "text": lines[0]},
			map[string]any{"participant": "b", "text": lines[1], "delay_seconds": 1.0},
		},
	})
	require.NoError(t, err)
	require.Len(t, b.Turns(), 2)
	require.Equal(t, time.Second, b.Turns()[1].Delay)
}

func TestSetContent_UnresolvedReferenceKeepsPreviousContent(t *testing.T) {
	b := New(DefaultLimits())
	require.NoError(t, b.SetContent(&Script{
		Participants: []Participant{{ID: "a"}, {ID: "b"}},
		Turns:        []ScriptTurn{{Participant: "a", Text: "hello"}},
	}))

	err := b.SetContent(Script{
		Participants: []Participant{{ID: "a"}},
		Turns:        []ScriptTurn{{Participant: "a", Text: "hi"}, {Participant: "ghost", Text: "boo"}},
	})
	require.True(t, errors.HasCategory(err, errors.CategoryReferentialIntegrity))
	require.Len(t, b.Participants(), 2)
	require.Len(t, b.Turns(), 1)
	require.Equal(t, "hello", b.Turns()[0].Text)
}

func TestSetContent_RejectsUnsupportedInput(t *testing.T) {
	b := New(DefaultLimits())
	require.True(t, errors.HasCategory(b.SetContent(nil), errors.CategoryValidation))
	require.True(t, errors.HasCategory(b.SetContent(42), errors.CategoryValidation))
	require.True(t, errors.HasCategory(b.SetContent((*Script)(nil)), errors.CategoryValidation))
}

func TestValidation_Limits(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxTurns = 3
	limits.MaxCodeLines = 2
	b := New(limits)
	require.NoError(t, b.SetTitle("Limits"))
	_, _ = b.AddParticipant(Participant{ID: "a"})
	_, _ = b.AddParticipant(Participant{ID: "b"})
	_, _ = b.AddParticipant(Participant{ID: "silent"})

	require.NoError(t, b.AddTurn("a", strings.Repeat("x", 281)))
	require.NoError(t, b.AddTurn("b", lines[1], WithCode("go", "a\nb\nc")))
	require.NoError(t, b.AddTurn("a", lines[2], WithDelay(-time.Second)))
	require.NoError(t, b.AddTurn("b", lines[3]))

	s := b.Result()
	require.False(t, s.IsValid())
	errs := strings.Join(s.Validation.ErrorMessages(), "\n")
	require.Contains(t, errs, "at most 3 turns")
	require.Contains(t, errs, "turn 1 has 281 characters, limit is 280")
	require.Contains(t, errs, "turn 2 code excerpt has 3 lines, limit is 2")
	require.Contains(t, errs, "turn 3 has a negative display offset")
	require.Contains(t, s.Validation.WarningMessages(), `participant "silent" never speaks`)
}

func TestShortExchange_ValidUnderDefaults(t *testing.T) {
	b := twoSpeakers(t)
	for i, text := range []string{"Hi", "Hello", "How are you?", "Fine"} {
		require.NoError(t, b.AddTurn([]string{"A", "B"}[i%2], text))
	}

	s := b.Result()
	require.True(t, s.IsValid(), "errors: %v", s.Validation.ErrorMessages())
	require.Empty(t, s.Validation.Errors)
}

func TestValidation_TooFewTurnsAndDurationFloor(t *testing.T) {
	limits := DefaultLimits()
	limits.MinDuration = 2 * time.Second
	b := New(limits)
	require.NoError(t, b.SetTitle("Rollback review"))
	_, _ = b.AddParticipant(Participant{ID: "A"})
	_, _ = b.AddParticipant(Participant{ID: "B"})
	require.NoError(t, b.AddTurn("A", "Hi"))

	s := b.Result()
	errs := strings.Join(s.Validation.ErrorMessages(), "\n")
	require.Contains(t, errs, "at least 2 turns, has 1")
	require.Contains(t, errs, "minimum is 2s")
}

func TestValidation_DurationCeiling(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxDuration = 5 * time.Second
	b := New(limits)
	require.NoError(t, b.SetTitle("Long"))
	_, _ = b.AddParticipant(Participant{ID: "a"})
	require.NoError(t, b.AddTurn("a", lines[0], WithDelay(3*time.Second)))
	require.NoError(t, b.AddTurn("a", lines[1], WithDelay(3*time.Second)))

	s := b.Result()
	require.Contains(t, strings.Join(s.Validation.ErrorMessages(), "\n"), "maximum is 5s")
}

func TestDuration_SumsOffsetsAndReadingTime(t *testing.T) {
	b := twoSpeakers(t)
	require.NoError(t, b.AddTurn("A", strings.Repeat("a", 10), WithDelay(time.Second)))
	require.NoError(t, b.AddTurn("B", strings.Repeat("b", 20)))

	// 1s delay + 30 chars at 50ms each.
	require.Equal(t, time.Second+1500*time.Millisecond, b.Duration())
}

func TestText_SanitizedAndNormalized(t *testing.T) {
	b := twoSpeakers(t)
	require.NoError(t, b.AddTurn("A", "<b>Use</b> a < b &amp; <script>alert(1)</script>done"))
	require.NoError(t, b.AddTurn("B", "cafe\u0301"))

	turns := b.Turns()
	require.Equal(t, "Use a < b & done", turns[0].Text)
	require.Equal(t, "caf\u00e9", turns[1].Text)
	require.Equal(t, 4, turns[1].Chars())
}

func TestText_AngleBracketsInProseKept(t *testing.T) {
	b := twoSpeakers(t)
	require.NoError(t, b.AddTurn("A", "Use Map<K, V> or List<T> here"))
	require.NoError(t, b.AddTurn("B", "Only when len(a) < cap(a) and the <em>pool</em> is warm"))

	turns := b.Turns()
	require.Equal(t, "Use Map<K, V> or List<T> here", turns[0].Text)
	require.Equal(t, 29, turns[0].Chars())
	require.Equal(t, "Only when len(a) < cap(a) and the pool is warm", turns[1].Text)
}

func TestReset_AllowsReuse(t *testing.T) {
	b := twoSpeakers(t)
	require.NoError(t, b.AddTurn("A", lines[0]))
	first := b.Result()

	b.Reset()
	require.Empty(t, b.Participants())
	require.Empty(t, b.Turns())
	require.Error(t, b.AddTurn("A", lines[0]))

	require.Len(t, first.Content["turns"].([]any), 1)
}

func TestConformsToBuilderContract(t *testing.T) {
	require.NoError(t, builder.Probe(NewConstructor(DefaultLimits())()))
}
