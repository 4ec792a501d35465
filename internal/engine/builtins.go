package engine

import (
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/builder/bullets"
	"git.home.luguber.info/inful/slidebuilder/internal/builder/codeblock"
	"git.home.luguber.info/inful/slidebuilder/internal/builder/conversation"
	"git.home.luguber.info/inful/slidebuilder/internal/capability"
	"git.home.luguber.info/inful/slidebuilder/internal/config"
)

// BuiltinRegistrations returns the stock builders with limits taken from cfg.
func BuiltinRegistrations(cfg *config.Config) []capability.Registration {
	return []capability.Registration{
		{
			Key:         conversation.ContentType,
			Constructor: conversation.NewConstructor(conversationLimits(cfg.Conversation)),
			Metadata: capability.Metadata{
				Name:        "Conversation",
				Category:    capability.CategoryNarrative,
				Version:     "v1.0.0",
				Features:    []string{"participants", "turns", "code", "reading_time"},
				Description: "Scripted exchange between participants, sized for a phone screen",
			},
		},
		{
			Key: bullets.ContentType,
			Constructor: bullets.NewConstructor(bullets.Limits{
				MaxItems:     cfg.Bullets.MaxItems,
				MaxItemChars: cfg.Bullets.MaxItemChars,
				MaxDepth:     cfg.Bullets.MaxDepth,
			}),
			Metadata: capability.Metadata{
				Name:        "Bullets",
				Category:    capability.CategoryText,
				Version:     "v1.0.0",
				Features:    []string{"markdown", "nesting"},
				Description: "Bullet list parsed from Markdown or a plain list",
			},
		},
		{
			Key: codeblock.ContentType,
			Constructor: codeblock.NewConstructor(codeblock.Limits{
				MaxLines:         cfg.Codeblock.MaxLines,
				AllowedLanguages: cfg.Codeblock.AllowedLanguages,
			}),
			Metadata: capability.Metadata{
				Name:        "Code block",
				Category:    capability.CategoryTechnical,
				Version:     "v1.0.0",
				Features:    []string{"code", "markdown", "highlight"},
				Description: "Single code excerpt with optional highlighted lines",
			},
		},
	}
}

func conversationLimits(c config.ConversationConfig) conversation.Limits {
	return conversation.Limits{
		MinTurns:     c.MinTurns,
		MaxTurns:     c.MaxTurns,
		MaxTurnChars: c.MaxTurnChars,
		MaxCodeLines: c.MaxCodeLines,
		ReadingRate:  seconds(c.ReadingRate),
		MinDuration:  seconds(c.MinDurationSeconds),
		MaxDuration:  seconds(c.MaxDurationSeconds),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
