package runner

import (
	"context"
	"errors"
	"testing"
)

func TestStaticRunShape(t *testing.T) {
	s := &Static{NumClasses: 3}
	out, err := s.Run(context.Background(), []Tensor{
		{Rows: 2, Cols: 4, Data: make([]int32, 8)},
		{Rows: 2, Cols: 4, Data: make([]int32, 8)},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output, got %d", len(out))
	}
	if out[0].Rows() != 2 || out[0].Cols() != 3 {
		t.Fatalf("expected shape [2,3], got %v", out[0].Shape)
	}
	if len(out[0].Data) != 6 {
		t.Fatalf("expected 6 logits, got %d", len(out[0].Data))
	}
}

func TestStaticRunScoreRow(t *testing.T) {
	s := &Static{
		NumClasses: 2,
		ScoreRow: func(tokens []int32) []float32 {
			if tokens[0] == 7 {
				return []float32{0, 1}
			}
			return []float32{1, 0}
		},
	}
	out, err := s.Run(context.Background(), []Tensor{
		{Rows: 2, Cols: 1, Data: []int32{7, 3}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []float32{0, 1, 1, 0}
	for i, v := range want {
		if out[0].Data[i] != v {
			t.Fatalf("expected %v, got %v", want, out[0].Data)
		}
	}
}

func TestStaticRunError(t *testing.T) {
	boom := errors.New("device lost")
	s := &Static{NumClasses: 2, Err: boom}
	if _, err := s.Run(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestWidenInt32(t *testing.T) {
	got := widenInt32([]int32{5, 9, 0, -1})
	want := []int64{5, 9, 0, -1}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestOutputDims(t *testing.T) {
	o := Output{Shape: []int64{4, 10}}
	if o.Rows() != 4 || o.Cols() != 10 {
		t.Fatalf("expected 4x10, got %dx%d", o.Rows(), o.Cols())
	}
	var empty Output
	if empty.Rows() != 0 || empty.Cols() != 0 {
		t.Fatalf("expected zero dims for empty output")
	}
}
