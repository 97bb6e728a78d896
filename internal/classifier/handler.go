package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/labelbatch/labelbatch/internal/runner"
	"github.com/labelbatch/labelbatch/internal/tokenizer"
)

// Handler coordinates preprocessing, inference and response demultiplexing
// for one model. The class mapping and max length are fixed at load time and
// shared read-only across calls, so a Handler is safe for concurrent Handle
// calls; everything per-call lives in a batchContext.
type Handler struct {
	tok          tokenizer.Tokenizer
	runner       runner.Runner
	classMapping map[string]string // decimal class index -> label
	maxLength    int
	log          zerolog.Logger
}

// New assembles a Handler from already-loaded collaborators. Load is the
// usual entry point; New exists for hosts that bring their own runner.
func New(tok tokenizer.Tokenizer, run runner.Runner, classMapping map[string]string, maxLength int, log zerolog.Logger) (*Handler, error) {
	if tok == nil {
		return nil, fmt.Errorf("tokenizer is nil")
	}
	if run == nil {
		return nil, fmt.Errorf("runner is nil")
	}
	if maxLength <= 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", maxLength)
	}
	if len(classMapping) == 0 {
		return nil, fmt.Errorf("class mapping is empty")
	}
	return &Handler{
		tok:          tok,
		runner:       run,
		classMapping: classMapping,
		maxLength:    maxLength,
		log:          log,
	}, nil
}

// MaxLength returns the fixed sequence length of the batch tensors.
func (h *Handler) MaxLength() int {
	return h.maxLength
}

// Handle runs one batch to completion. Every request identity in the batch
// receives exactly one terminal Response, whatever fails along the way.
// A runner failure is batch-wide: all still-pending identities get an error
// response and the error is also returned to the caller.
func (h *Handler) Handle(ctx context.Context, batch []Request) (map[string]Response, error) {
	bc := newBatchContext(len(batch))

	h.preprocess(bc, batch)
	if bc.rows() == 0 {
		// Nothing survived preprocessing; every response is already terminal.
		return bc.result(), nil
	}

	out, err := h.infer(ctx, bc)
	if err != nil {
		n := bc.failPending(500, ContentTypeText, "failed to run inference")
		h.log.Error().Err(err).Int("rows", bc.rows()).Int("failed", n).Msg("batch inference failed")
		return bc.result(), fmt.Errorf("run batch: %w", err)
	}

	h.postprocess(bc, out)
	return bc.result(), nil
}

// Warmup pushes one synthetic request through the full pipeline and reports
// how long it took.
func (h *Handler) Warmup(ctx context.Context, sample string) (time.Duration, error) {
	start := time.Now()
	responses, err := h.Handle(ctx, []Request{{
		ID:         "warmup-0",
		Parameters: map[string][]byte{ParameterData: []byte(sample)},
		Headers:    map[string]string{HeaderDataType: DataTypeString},
	}})
	if err != nil {
		return 0, err
	}
	if resp, ok := responses["warmup-0"]; ok && resp.StatusCode != 200 {
		return 0, fmt.Errorf("warmup returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return time.Since(start), nil
}

// Close releases the underlying runner. Call it only after all Handle and
// Warmup calls have returned.
func (h *Handler) Close() error {
	if h == nil || h.runner == nil {
		return nil
	}
	return h.runner.Close()
}
