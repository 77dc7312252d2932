package items

import (
	"github.com/goliatone/go-fmtemplate/pkg/logging"
	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

// State is the processor outcome.
type State uint8

const (
	// StateNoItemsDetected means the container has no valid marker and is
	// returned unchanged.
	StateNoItemsDetected State = iota
	// StateExpanded means the markers were replaced by rendered items.
	StateExpanded
	// StateUnexpandedPreserved means markers exist but no items template is
	// declared, so the container is returned with its markers intact.
	StateUnexpandedPreserved
)

func (s State) String() string {
	switch s {
	case StateNoItemsDetected:
		return "no-items-detected"
	case StateExpanded:
		return "expanded"
	case StateUnexpandedPreserved:
		return "unexpanded-preserved"
	default:
		return "unknown"
	}
}

// Outcome is the processor result. Detection is always populated.
type Outcome struct {
	State     State
	Content   any
	Detection DetectionResult
	// Expansion is only populated for StateExpanded.
	Expansion ExpansionResult
}

// Processor chooses between leaving a container alone and expanding it.
type Processor struct {
	expander *Expander
	logger   logging.Logger
}

// NewProcessor constructs a Processor. A nil expander selects
// NewExpander(nil).
func NewProcessor(expander *Expander, options ...Option) *Processor {
	cfg := newConfig(options)
	if expander == nil {
		expander = NewExpander(nil, options...)
	}
	return &Processor{expander: expander, logger: cfg.logger}
}

// Process detects markers in ctx.ContainerTemplate and expands them when an
// items template is declared.
func (p *Processor) Process(ctx ExpansionContext) (Outcome, error) {
	detection := Detect(ctx.ContainerTemplate)

	if !detection.HasItems {
		if detection.Err != nil {
			p.logger.Warn("ignoring malformed list marker", logging.String("error", detection.Err.Error()))
		}
		return Outcome{
			State:     StateNoItemsDetected,
			Content:   tree.Clone(ctx.ContainerTemplate),
			Detection: detection,
		}, nil
	}

	if !ctx.HasItemsTemplate() {
		p.logger.Debug("list marker found without items template",
			logging.Int("patterns", len(detection.ValidPatterns())),
		)
		return Outcome{
			State:     StateUnexpandedPreserved,
			Content:   tree.Clone(ctx.ContainerTemplate),
			Detection: detection,
		}, nil
	}

	expansion, err := p.expander.expand(ctx, detection)
	if err != nil {
		return Outcome{Detection: detection}, err
	}
	return Outcome{
		State:     StateExpanded,
		Content:   expansion.Content,
		Detection: detection,
		Expansion: expansion,
	}, nil
}
