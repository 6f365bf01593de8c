// Package probe implements the context-limit probing engine: the step
// executor, the search strategies that drive it, and the run controller
// that owns a run's step log and result.
package probe

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
)

// Classifier decides whether a transport failure is evidence that the
// context boundary was exceeded. Anything it rejects is treated as a
// transient fault that must not move the search.
type Classifier interface {
	IsBoundaryError(err error) bool
}

// defaultBoundaryMarkers are substrings observed in provider error codes
// and messages when a request exceeds the model's context limit. Matching
// is case-insensitive against both the error code and the message.
var defaultBoundaryMarkers = []string{
	"context_length_exceeded",
	"maximum context length",
	"context window",
	"exceed context limit",
	"prompt is too long",
	"input is too long",
	"too many tokens",
	"token limit",
	"request too large",
}

// MarkerClassifier matches provider failure signals against a fixed set
// of context-limit markers. New providers' error vocabularies can be
// added without touching the search engine.
type MarkerClassifier struct {
	markers []string
}

// Ensure MarkerClassifier implements Classifier.
var _ Classifier = (*MarkerClassifier)(nil)

// NewMarkerClassifier creates a classifier with the default marker set.
func NewMarkerClassifier() *MarkerClassifier {
	return &MarkerClassifier{markers: defaultBoundaryMarkers}
}

// NewMarkerClassifierWithMarkers creates a classifier with a custom
// marker set. Markers are matched case-insensitively as substrings.
func NewMarkerClassifierWithMarkers(markers []string) *MarkerClassifier {
	out := make([]string, len(markers))
	for i, m := range markers {
		out[i] = strings.ToLower(m)
	}
	return &MarkerClassifier{markers: out}
}

// IsBoundaryError reports whether the error carries a context-limit
// signal. Only transport errors are classified; anything else
// (network faults, timeouts) is transient by definition.
func (c *MarkerClassifier) IsBoundaryError(err error) bool {
	var terr *ports.TransportError
	if !errors.As(err, &terr) {
		return false
	}

	// Payload-too-large is a context signal regardless of the body.
	if terr.StatusCode == http.StatusRequestEntityTooLarge {
		return true
	}

	haystack := strings.ToLower(terr.Code + " " + terr.Message)
	for _, marker := range c.markers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}
