package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/datawarta/tanya/errors"
)

// ErrMalformed marks model output that could not be parsed into a pipeline.
// The engine folds it into the retry loop instead of failing the request.
var ErrMalformed = errors.New("model output is not a valid pipeline")

// ParseModelOutput extracts a Pipeline from raw language-model text.
//
// Models wrap JSON in markdown fences or prose despite instructions, so the
// parser strips fences and falls back to the outermost bracketed span before
// giving up. The result is untrusted input: parsing succeeds on shape alone,
// validation happens separately.
func ParseModelOutput(text string) (Pipeline, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var stages []Stage
	if err := json.Unmarshal([]byte(cleaned), &stages); err == nil {
		if len(stages) == 0 {
			return nil, errors.Wrap(ErrMalformed, "model produced an empty pipeline")
		}
		return Pipeline(stages), nil
	}

	// Fallback: outermost JSON array embedded in surrounding prose.
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return nil, errors.Wrapf(ErrMalformed, "no JSON array in model output (%.120s)", cleaned)
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &stages); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "extracted array does not parse: %v", err)
	}
	if len(stages) == 0 {
		return nil, errors.Wrap(ErrMalformed, "model produced an empty pipeline")
	}

	return Pipeline(stages), nil
}
