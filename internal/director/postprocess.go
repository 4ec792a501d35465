package director

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/observability"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
	"git.home.luguber.info/inful/slidebuilder/internal/tenant"
)

// Content and metadata keys written by tenant post-processing.
const (
	ContentWatermark = "watermark"
	ContentBranding  = "branding"
)

func applyBranding(s *slide.Slide, b tenant.Branding) error {
	if b.WatermarkRequired {
		s.Content[ContentWatermark] = b.WatermarkText
	}
	if b.ComplianceLevel != "" {
		s.Metadata[slide.MetaComplianceLevel] = b.ComplianceLevel
	}
	if len(b.Block) > 0 {
		block, err := slide.CanonicalMap(b.Block)
		if err != nil {
			return err
		}
		s.Content[ContentBranding] = block
	}
	return nil
}

// evaluateRules attaches one validation issue per failed rule. Predicate
// errors and panics become an error naming the rule; they never abort the
// construction.
func (d *Director) evaluateRules(ctx context.Context, s *slide.Slide, cfg *tenant.Config) {
	for _, rule := range cfg.Rules {
		ok, err := evaluate(rule, s)
		if err != nil {
			observability.NewLogBuilder(ctx).WithLogger(d.logger).
				Attr(logfields.Rule(rule.Name), logfields.Error(err)).
				Warn("tenant rule could not be evaluated")
			s.AddValidationError(fmt.Sprintf("rule %q could not be evaluated: %v", rule.Name, err))
			d.recorder.IncRuleViolation(cfg.ID, rule.Name, string(tenant.SeverityError))
			continue
		}
		if ok {
			continue
		}

		msg := rule.Message
		if msg == "" {
			msg = fmt.Sprintf("rule %q is violated", rule.Name)
		}
		severity := rule.EffectiveSeverity()
		if severity == tenant.SeverityWarning {
			s.AddValidationWarning(msg)
		} else {
			s.AddValidationError(msg)
		}
		d.recorder.IncRuleViolation(cfg.ID, rule.Name, string(severity))
	}
}

func evaluate(rule tenant.Rule, s *slide.Slide) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("predicate panicked: %v", r)
		}
	}()
	return rule.Predicate(s)
}
