// Package conversation implements the dialogue content type: a set of
// participants and an ordered list of turns, each spoken by exactly one
// participant of the same aggregate.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/builder/plaintext"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
)

// ContentType is the registry key of the conversation builder.
const ContentType = "conversation"

// Limits bound a conversation so it stays legible on a phone-sized frame.
type Limits struct {
	MinTurns     int
	MaxTurns     int
	MaxTurnChars int
	MaxCodeLines int
	// ReadingRate is the estimated reading time per character.
	ReadingRate time.Duration
	// MinDuration is an optional floor; zero disables it.
	MinDuration time.Duration
	MaxDuration time.Duration
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		MinTurns:     2,
		MaxTurns:     12,
		MaxTurnChars: 280,
		MaxCodeLines: 15,
		ReadingRate:  50 * time.Millisecond,
		MaxDuration:  90 * time.Second,
	}
}

// Participant is a speaker in the conversation.
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// CodeExcerpt is an optional code snippet attached to a turn.
type CodeExcerpt struct {
	Language string `json:"language"`
	Source   string `json:"source"`
}

// Lines returns the number of lines in the excerpt.
func (c CodeExcerpt) Lines() int {
	src := strings.TrimRight(c.Source, "\n")
	if src == "" {
		return 0
	}
	return strings.Count(src, "\n") + 1
}

// Turn is one message. Participant always points into the owning aggregate.
type Turn struct {
	Participant *Participant
	Text        string
	// Delay is the display offset relative to the end of the previous turn.
	Delay time.Duration
	Code  *CodeExcerpt
}

// Chars returns the character count used for length limits and reading time.
func (t Turn) Chars() int { return plaintext.Chars(t.Text) }

// TurnOption customizes a turn at insertion.
type TurnOption func(*Turn)

// WithDelay sets the display offset of the turn.
func WithDelay(d time.Duration) TurnOption {
	return func(t *Turn) { t.Delay = d }
}

// WithCode attaches a code excerpt to the turn.
func WithCode(language, source string) TurnOption {
	return func(t *Turn) {
		t.Code = &CodeExcerpt{Language: strings.TrimSpace(language), Source: plaintext.Normalize(source)}
	}
}

// aggregate is the participant/turn graph being built.
type aggregate struct {
	participants map[string]*Participant
	order        []string
	turns        []Turn
}

func newAggregate() *aggregate {
	return &aggregate{participants: map[string]*Participant{}}
}

func (a *aggregate) addParticipant(p Participant) (*Participant, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return nil, errors.ReferentialIntegrityError("participant id is required").Build()
	}
	if _, exists := a.participants[p.ID]; exists {
		return nil, errors.ReferentialIntegrityError(fmt.Sprintf("participant %q already exists", p.ID)).
			WithContext("participant", p.ID).
			Build()
	}
	p.Name = plaintext.Clean(p.Name)
	stored := &p
	a.participants[p.ID] = stored
	a.order = append(a.order, p.ID)
	return stored, nil
}

// resolve looks the reference up inside this aggregate only.
func (a *aggregate) resolve(ref string) (*Participant, error) {
	p, ok := a.participants[ref]
	if !ok {
		return nil, errors.ReferentialIntegrityError(fmt.Sprintf("turn references unknown participant %q", ref)).
			WithContext("participant", ref).
			WithContext("turn", len(a.turns)+1).
			Build()
	}
	return p, nil
}

func (a *aggregate) addTurn(p *Participant, text string, opts []TurnOption) {
	turn := Turn{Participant: p, Text: plaintext.Clean(text)}
	for _, opt := range opts {
		opt(&turn)
	}
	a.turns = append(a.turns, turn)
}

// Builder builds conversation slides.
type Builder struct {
	*builder.Base
	limits Limits
	agg    *aggregate
}

var _ builder.Builder = (*Builder)(nil)

// New creates a conversation builder with the given limits.
func New(limits Limits) *Builder {
	b := &Builder{limits: limits, agg: newAggregate()}
	b.Base = builder.NewBase(ContentType, builder.Hooks{
		Finalize: b.finalize,
		Validate: b.validate,
		Reset:    func() { b.agg = newAggregate() },
	})
	return b
}

// NewConstructor returns a registry constructor bound to limits.
func NewConstructor(limits Limits) builder.Constructor {
	return func() builder.Builder { return New(limits) }
}

// Limits returns the limits this builder enforces.
func (b *Builder) Limits() Limits { return b.limits }

// SetTitle stores the title with markup stripped.
func (b *Builder) SetTitle(title string) error {
	b.ApplyTitle(plaintext.Clean(title))
	return nil
}

// SetSubtitle stores the subtitle with markup stripped.
func (b *Builder) SetSubtitle(subtitle string) error {
	b.ApplySubtitle(plaintext.Clean(subtitle))
	return nil
}

// SetLayout replaces the layout record.
func (b *Builder) SetLayout(layout map[string]any) error { return b.ApplyLayout(layout) }

// SetStyle replaces the style record.
func (b *Builder) SetStyle(style map[string]any) error { return b.ApplyStyle(style) }

// SetContent replaces the participant/turn graph with the given script. The
// script is replayed through AddParticipant/AddTurn semantics on a scratch
// aggregate, so an unresolved reference rejects the whole script and leaves the
// previous content untouched.
func (b *Builder) SetContent(content any) error {
	script, err := decodeScript(content)
	if err != nil {
		b.Record("SetContent", "", err)
		return err
	}

	agg := newAggregate()
	for _, p := range script.Participants {
		if _, err := agg.addParticipant(p); err != nil {
			b.Record("SetContent", "participants", err)
			return err
		}
	}
	for _, st := range script.Turns {
		p, err := agg.resolve(strings.TrimSpace(st.Participant))
		if err != nil {
			b.Record("SetContent", "turns", err)
			return err
		}
		opts := []TurnOption{WithDelay(secondsToDuration(st.DelaySeconds))}
		if st.Code != nil {
			opts = append(opts, WithCode(st.Code.Language, st.Code.Source))
		}
		agg.addTurn(p, st.Text, opts)
	}

	b.agg = agg
	b.Slide().Touch()
	b.Record("SetContent", fmt.Sprintf("%d participants, %d turns", len(agg.order), len(agg.turns)), nil)
	return nil
}

// AddParticipant adds a speaker and returns the aggregate's own instance.
func (b *Builder) AddParticipant(p Participant) (*Participant, error) {
	stored, err := b.agg.addParticipant(p)
	if err == nil {
		b.Slide().Touch()
	}
	b.Record("AddParticipant", p.ID, err)
	return stored, err
}

// Participant returns the aggregate's instance for id.
func (b *Builder) Participant(id string) (*Participant, bool) {
	p, ok := b.agg.participants[id]
	return p, ok
}

// Participants returns the participants in insertion order.
func (b *Builder) Participants() []Participant {
	out := make([]Participant, 0, len(b.agg.order))
	for _, id := range b.agg.order {
		out = append(out, *b.agg.participants[id])
	}
	return out
}

// Turns returns a copy of the turns in order.
func (b *Builder) Turns() []Turn {
	return append([]Turn(nil), b.agg.turns...)
}

// AddTurn appends a turn spoken by the participant with the given id. The
// reference must resolve inside this builder's aggregate at the moment of the
// call; otherwise a referential integrity error is returned and nothing is added.
func (b *Builder) AddTurn(participantID string, text string, opts ...TurnOption) error {
	p, err := b.agg.resolve(strings.TrimSpace(participantID))
	if err != nil {
		b.Record("AddTurn", participantID, err)
		return err
	}
	b.agg.addTurn(p, text, opts)
	b.Slide().Touch()
	b.Record("AddTurn", participantID, nil)
	return nil
}

// AddTurnFor appends a turn for a participant instance. Only the instance held
// by this aggregate is accepted; an equal-looking participant obtained from
// another builder is rejected.
func (b *Builder) AddTurnFor(p *Participant, text string, opts ...TurnOption) error {
	if p == nil {
		err := errors.ReferentialIntegrityError("turn participant is nil").Build()
		b.Record("AddTurn", "", err)
		return err
	}
	own, err := b.agg.resolve(p.ID)
	if err == nil && own != p {
		err = errors.ReferentialIntegrityError(fmt.Sprintf("participant %q belongs to a different conversation", p.ID)).
			WithContext("participant", p.ID).
			Build()
	}
	if err != nil {
		b.Record("AddTurn", p.ID, err)
		return err
	}
	b.agg.addTurn(own, text, opts)
	b.Slide().Touch()
	b.Record("AddTurn", p.ID, nil)
	return nil
}

// ReadingTime estimates how long a turn stays on screen for reading.
func (b *Builder) ReadingTime(t Turn) time.Duration {
	return time.Duration(t.Chars()) * b.limits.ReadingRate
}

// Duration sums every turn's display offset and estimated reading time.
func (b *Builder) Duration() time.Duration {
	var total time.Duration
	for _, t := range b.agg.turns {
		total += t.Delay + b.ReadingTime(t)
	}
	return total
}

func (b *Builder) validate(s *slide.Slide) {
	l := b.limits
	turns := b.agg.turns

	if n := len(turns); n < l.MinTurns {
		s.AddValidationError(fmt.Sprintf("conversation needs at least %d turns, has %d", l.MinTurns, n))
	} else if l.MaxTurns > 0 && n > l.MaxTurns {
		s.AddValidationError(fmt.Sprintf("conversation allows at most %d turns, has %d", l.MaxTurns, n))
	}

	spoke := map[string]bool{}
	for i, t := range turns {
		n := i + 1
		// Insertion already enforces this; a failure here means the graph was
		// corrupted after the fact.
		if t.Participant == nil || b.agg.participants[t.Participant.ID] != t.Participant {
			s.AddValidationError(fmt.Sprintf("turn %d references a participant outside this conversation", n))
		} else {
			spoke[t.Participant.ID] = true
		}
		if t.Text == "" {
			s.AddValidationError(fmt.Sprintf("turn %d has no text", n))
		}
		if l.MaxTurnChars > 0 && t.Chars() > l.MaxTurnChars {
			s.AddValidationError(fmt.Sprintf("turn %d has %d characters, limit is %d", n, t.Chars(), l.MaxTurnChars))
		}
		if t.Delay < 0 {
			s.AddValidationError(fmt.Sprintf("turn %d has a negative display offset", n))
		}
		if t.Code != nil && l.MaxCodeLines > 0 && t.Code.Lines() > l.MaxCodeLines {
			s.AddValidationError(fmt.Sprintf("turn %d code excerpt has %d lines, limit is %d", n, t.Code.Lines(), l.MaxCodeLines))
		}
	}

	for _, id := range b.agg.order {
		if !spoke[id] {
			s.AddValidationWarning(fmt.Sprintf("participant %q never speaks", id))
		}
	}

	if len(turns) > 0 {
		d := b.Duration()
		if l.MinDuration > 0 && d < l.MinDuration {
			s.AddValidationError(fmt.Sprintf("conversation runs %s, minimum is %s", d, l.MinDuration))
		}
		if l.MaxDuration > 0 && d > l.MaxDuration {
			s.AddValidationError(fmt.Sprintf("conversation runs %s, maximum is %s", d, l.MaxDuration))
		}
	}
}

type renderedCode struct {
	Language string `json:"language"`
	Source   string `json:"source"`
	Lines    int    `json:"lines"`
}

type renderedTurn struct {
	Participant  string        `json:"participant"`
	Text         string        `json:"text"`
	DelaySeconds float64       `json:"delay_seconds"`
	Code         *renderedCode `json:"code,omitempty"`
}

type rendered struct {
	Participants    []Participant  `json:"participants"`
	Turns           []renderedTurn `json:"turns"`
	DurationSeconds float64        `json:"duration_seconds"`
}

func (b *Builder) finalize(s *slide.Slide) {
	if len(b.agg.order) == 0 && len(b.agg.turns) == 0 {
		return
	}
	out := rendered{
		Participants:    b.Participants(),
		Turns:           make([]renderedTurn, 0, len(b.agg.turns)),
		DurationSeconds: b.Duration().Seconds(),
	}
	for _, t := range b.agg.turns {
		rt := renderedTurn{Text: t.Text, DelaySeconds: t.Delay.Seconds()}
		if t.Participant != nil {
			rt.Participant = t.Participant.ID
		}
		if t.Code != nil {
			rt.Code = &renderedCode{Language: t.Code.Language, Source: t.Code.Source, Lines: t.Code.Lines()}
		}
		out.Turns = append(out.Turns, rt)
	}
	content, err := slide.CanonicalMap(out)
	if err != nil {
		s.AddValidationError(fmt.Sprintf("conversation content could not be rendered: %v", err))
		return
	}
	s.Content = content

	var avatars []string
	for _, p := range out.Participants {
		if p.Avatar != "" {
			avatars = append(avatars, p.Avatar)
		}
	}
	if len(avatars) > 0 {
		s.Assets["avatars"] = avatars
	}
}
