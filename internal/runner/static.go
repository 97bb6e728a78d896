package runner

import (
	"context"
	"errors"
)

// Static is an in-process Runner used by tests and dry runs. It scores each
// row with ScoreRow when set, or emits zero logits otherwise.
type Static struct {
	NumClasses int
	// ScoreRow returns the logits for one row of token ids. Optional.
	ScoreRow func(tokens []int32) []float32
	// Err, when set, is returned from every Run call.
	Err error
}

// Run produces a [rows, NumClasses] logits tensor from the token id tensor.
func (s *Static) Run(_ context.Context, inputs []Tensor) ([]Output, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if len(inputs) == 0 {
		return nil, errors.New("no input tensors")
	}
	if s.NumClasses <= 0 {
		return nil, errors.New("static runner needs NumClasses")
	}

	tokens := inputs[0]
	rows := tokens.Rows
	data := make([]float32, 0, rows*s.NumClasses)
	for r := 0; r < rows; r++ {
		var logits []float32
		if s.ScoreRow != nil {
			logits = s.ScoreRow(tokens.Data[r*tokens.Cols : (r+1)*tokens.Cols])
		}
		if len(logits) != s.NumClasses {
			logits = make([]float32, s.NumClasses)
		}
		data = append(data, logits...)
	}

	return []Output{{
		Shape: []int64{int64(rows), int64(s.NumClasses)},
		Data:  data,
	}}, nil
}

// Close implements Runner.
func (s *Static) Close() error { return nil }
