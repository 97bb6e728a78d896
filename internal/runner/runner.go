package runner

import "context"

// Tensor is a 2D int32 input tensor in row-major order.
type Tensor struct {
	Rows int
	Cols int
	Data []int32
}

// Output is a float32 output tensor with its reported shape.
type Output struct {
	Shape []int64
	Data  []float32
}

// Rows returns the leading dimension of the output, 0 for a scalar.
func (o Output) Rows() int {
	if len(o.Shape) == 0 {
		return 0
	}
	return int(o.Shape[0])
}

// Cols returns the trailing dimension of the output, 0 when absent.
func (o Output) Cols() int {
	if len(o.Shape) < 2 {
		return 0
	}
	return int(o.Shape[len(o.Shape)-1])
}

// Runner executes a compiled model over a batch. Inputs are an ordered
// tensor list; for sequence classification that is [token ids, attention
// mask], both shaped [rows, maxLength]. Element 0 of the returned list is
// the per-row logits tensor.
//
// A Run error is batch-wide: the execution is one fused operation over all
// rows, so there are no partial results. Implementations do not retry.
type Runner interface {
	Run(ctx context.Context, inputs []Tensor) ([]Output, error)
	Close() error
}
