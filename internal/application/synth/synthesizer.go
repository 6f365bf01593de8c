// Package synth generates probe payloads that hit an exact token count
// against an opaque tokenizer. Payloads are built from a fixed preamble
// plus labeled filler sections, re-measured per block so drift from
// encoding non-linearity stays bounded.
package synth

import (
	"fmt"
	"strings"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
)

// DefaultTolerance is the acceptable distance from the target token
// count. Filler is generated in sentence-sized blocks, not characters,
// so a few dozen tokens of slack is inherent.
const DefaultTolerance = 32

// charsPerTokenEstimate sizes filler blocks before measurement. The
// estimate only affects how many measurement rounds are needed, never
// the final count.
const charsPerTokenEstimate = 4

// maxBlockTokens caps the size of a single filler block between
// measurements.
const maxBlockTokens = 2048

// finalApproachTokens is the remaining-budget threshold below which the
// synthesizer re-measures the whole payload instead of accumulating
// per-block counts.
const finalApproachTokens = 4096

// defaultPreamble frames the probe as a content-analysis request so the
// endpoint produces a short, cheap reply.
const defaultPreamble = `Below is a technical reference document composed of numbered sections.
Read it and reply with a single sentence naming how many sections it contains.
Do not summarize the content.

`

// sectionThemes are the rotating headings for filler sections.
var sectionThemes = []string{
	"Data Ingestion",
	"Storage Layout",
	"Query Planning",
	"Cache Hierarchy",
	"Replication",
	"Scheduling",
	"Network Topology",
	"Failure Recovery",
}

// sentenceTemplates are the templated filler sentences. Each takes the
// section number and a running item index, keeping every sentence
// unique so providers cannot collapse repeated content.
var sentenceTemplates = []string{
	"Subsystem %d-%d forwards records to the staging tier before compaction begins. ",
	"Checkpoint %d-%d is validated against the manifest and retained for seven days. ",
	"Partition %d-%d rebalances when its key density crosses the configured watermark. ",
	"Worker %d-%d drains its queue and reports watermark progress to the coordinator. ",
	"Segment %d-%d is sealed once its index block reaches the target fill factor. ",
}

// Synthesizer builds payloads of a requested token size using an
// injected token counter. It is a pure function of its inputs: the same
// target always yields the same text.
type Synthesizer struct {
	counter        ports.TokenCounter
	tolerance      int
	preamble       string
	contextSummary string
}

// Option is a functional option for configuring a Synthesizer.
type Option func(*Synthesizer)

// WithTolerance sets the acceptable distance from the target count.
func WithTolerance(tolerance int) Option {
	return func(s *Synthesizer) {
		if tolerance > 0 {
			s.tolerance = tolerance
		}
	}
}

// WithPreamble replaces the default instruction preamble.
func WithPreamble(preamble string) Option {
	return func(s *Synthesizer) {
		s.preamble = preamble
	}
}

// WithContextSummary prefixes the payload with a project-context
// summary block, mirroring what a chat surface would inject.
func WithContextSummary(summary string) Option {
	return func(s *Synthesizer) {
		s.contextSummary = summary
	}
}

// New creates a Synthesizer backed by the given token counter.
func New(counter ports.TokenCounter, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		counter:   counter,
		tolerance: DefaultTolerance,
		preamble:  defaultPreamble,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tolerance returns the configured tolerance.
func (s *Synthesizer) Tolerance() int {
	return s.tolerance
}

// PreambleTokens returns the token count of the fixed preamble,
// the smallest payload the synthesizer can produce.
func (s *Synthesizer) PreambleTokens() int {
	return s.counter.CountTokens(s.buildPreamble())
}

// Synthesize produces text whose token count is within the tolerance of
// targetTokens. If the generated text overshoots the target beyond the
// tolerance, a single trim pass cuts trailing characters; a slightly
// undershooting result is accepted rather than looping indefinitely.
func (s *Synthesizer) Synthesize(targetTokens int) (string, error) {
	preamble := s.buildPreamble()
	current := s.counter.CountTokens(preamble)

	if targetTokens < current {
		return "", errors.NewError(errors.CodeValidation,
			fmt.Sprintf("target %d tokens is below the %d-token preamble", targetTokens, current),
			errors.ErrTargetBelowPreamble)
	}

	var b strings.Builder
	b.WriteString(preamble)

	// Section count has no hard bound, but every block adds at least one
	// sentence, so the loop strictly approaches the target.
	section := 0
	for targetTokens-current > s.tolerance {
		remaining := targetTokens - current
		blockTokens := remaining
		if blockTokens > maxBlockTokens {
			blockTokens = maxBlockTokens
		}

		section++
		block := buildSection(section, blockTokens)
		b.WriteString(block)

		// Far from the target, per-block counts are accurate enough;
		// near it, re-measure the full payload to cancel boundary drift.
		if remaining > finalApproachTokens {
			current += s.counter.CountTokens(block)
		} else {
			current = s.counter.CountTokens(b.String())
		}
	}

	text := b.String()
	current = s.counter.CountTokens(text)

	if current-targetTokens > s.tolerance {
		excess := current - targetTokens
		trim := excess * charsPerTokenEstimate
		if trim < b.Len()-len(preamble) {
			text = text[:len(text)-trim]
		}
		// One pass only; undershoot is acceptable.
	}

	return text, nil
}

// buildPreamble assembles the optional context-summary block and the
// instruction preamble.
func (s *Synthesizer) buildPreamble() string {
	if s.contextSummary == "" {
		return s.preamble
	}
	return "Project context:\n" + s.contextSummary + "\n\n" + s.preamble
}

// buildSection generates one labeled filler section of approximately
// approxTokens tokens, sized by the chars-per-token estimate.
func buildSection(number, approxTokens int) string {
	var b strings.Builder

	theme := sectionThemes[(number-1)%len(sectionThemes)]
	fmt.Fprintf(&b, "## Section %d: %s\n", number, theme)

	budget := approxTokens * charsPerTokenEstimate
	item := 0
	for b.Len() < budget {
		template := sentenceTemplates[item%len(sentenceTemplates)]
		fmt.Fprintf(&b, template, number, item+1)
		item++
	}
	b.WriteString("\n")

	return b.String()
}
