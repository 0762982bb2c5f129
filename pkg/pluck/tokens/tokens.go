// Package tokens estimates how many model tokens a rendered bundle
// costs.
package tokens

import (
	"os"

	"github.com/pkoukk/tiktoken-go"

	"github.com/pluck-sh/pluck/pkg/pluck/logging"
)

// Counter estimates token counts for text content.
type Counter interface {
	// Name identifies the estimator, for display next to the count.
	Name() string

	// Count returns the estimated token count for the text.
	Count(text string) int
}

const encodingName = "cl100k_base"

// heuristicDivisor approximates tokens from bytes when no encoder is
// available. Four bytes per token tracks prose closely enough for a
// status line.
const heuristicDivisor = 4

// NewCounter returns the best available Counter: the cl100k_base
// encoder when it can initialize, otherwise the byte heuristic.
// cacheDir, when non-empty, is where encoder data is kept between
// runs so later starts work offline.
func NewCounter(cacheDir string) Counter {
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err == nil {
			_ = os.Setenv("TIKTOKEN_CACHE_DIR", cacheDir)
		}
	}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		logging.Get("tokens").Warn("token encoder unavailable, using byte heuristic", "error", err)
		return Heuristic{}
	}
	return encoderCounter{enc: enc}
}

type encoderCounter struct {
	enc *tiktoken.Tiktoken
}

func (c encoderCounter) Name() string {
	return encodingName
}

func (c encoderCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Heuristic estimates tokens as bytes divided by four. Non-empty text
// always counts as at least one token.
type Heuristic struct{}

// Name identifies the estimator.
func (Heuristic) Name() string {
	return "heuristic"
}

// Count returns the estimated token count for the text.
func (Heuristic) Count(text string) int {
	if len(text) == 0 {
		return 0
	}
	n := len(text) / heuristicDivisor
	if n == 0 {
		n = 1
	}
	return n
}

// Ensure both estimators implement Counter.
var (
	_ Counter = encoderCounter{}
	_ Counter = Heuristic{}
)
