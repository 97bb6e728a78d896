package classifier

import (
	"strconv"

	"github.com/labelbatch/labelbatch/internal/runner"
)

// postprocess maps each output row back to its originating request: argmax
// over the class dimension, decimal-string lookup in the class mapping, and
// a success response for that identity. A failure on one row produces an
// error response for that request alone.
func (h *Handler) postprocess(bc *batchContext, out runner.Output) {
	numClasses := out.Cols()

	for row, id := range bc.rowIDs {
		logits, ok := sliceRow(out, row, numClasses)
		if !ok {
			h.log.Error().Str("request_id", id).Int("row", row).
				Ints64("shape", out.Shape).Msg("output tensor short for row")
			bc.set(id, 500, DataTypeString, "failed to postprocess tensor")
			continue
		}

		key := strconv.Itoa(argmax(logits))
		label, found := h.classMapping[key]
		if !found {
			h.log.Error().Str("request_id", id).Str("class_index", key).Msg("class index missing from mapping")
			bc.set(id, 500, DataTypeString, "failed to postprocess tensor")
			continue
		}

		bc.set(id, 200, DataTypeString, label)
	}
}

func sliceRow(out runner.Output, row, numClasses int) ([]float32, bool) {
	if numClasses <= 0 {
		return nil, false
	}
	start := row * numClasses
	end := start + numClasses
	if end > len(out.Data) {
		return nil, false
	}
	return out.Data[start:end], true
}

func argmax(logits []float32) int {
	best := 0
	for i, v := range logits {
		if v > logits[best] {
			best = i
		}
	}
	return best
}
