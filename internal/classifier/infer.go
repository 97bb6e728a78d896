package classifier

import (
	"context"
	"errors"

	"github.com/labelbatch/labelbatch/internal/runner"
)

// infer dispatches the assembled batch to the model runner and extracts the
// primary output tensor. Errors here are batch-wide; the caller owns turning
// them into per-request responses.
func (h *Handler) infer(ctx context.Context, bc *batchContext) (runner.Output, error) {
	rows := bc.rows()
	inputs := []runner.Tensor{
		{Rows: rows, Cols: h.maxLength, Data: bc.tokens},
		{Rows: rows, Cols: h.maxLength, Data: bc.mask},
	}

	outputs, err := h.runner.Run(ctx, inputs)
	if err != nil {
		return runner.Output{}, err
	}
	if len(outputs) == 0 {
		return runner.Output{}, errors.New("runner returned no output tensors")
	}
	return outputs[0], nil
}
