package classifier

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/labelbatch/labelbatch/internal/runner"
)

// fakeTokenizer maps each whitespace word to a fixed id, so row contents in
// tests are exact. Unknown words fail the encode, standing in for a real
// encoder error.
type fakeTokenizer struct {
	words map[string]int32
	pad   int32
}

func (f *fakeTokenizer) Encode(text string) ([]int32, error) {
	var ids []int32
	for _, w := range strings.Fields(strings.ToLower(text)) {
		id, ok := f.words[w]
		if !ok {
			return nil, errors.New("unknown word " + w)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeTokenizer) Decode(ids []int32) string { return "" }

func (f *fakeTokenizer) PadID() int32 { return f.pad }

func testTokenizer() *fakeTokenizer {
	return &fakeTokenizer{
		words: map[string]int32{
			"hello": 5,
			"world": 9,
			"a":     11,
			"b":     12,
			"c":     13,
			"d":     14,
		},
		pad: 0,
	}
}

// testMapping has two classes: 0 -> Negative, 1 -> Positive.
func testMapping() map[string]string {
	return map[string]string{"0": "Negative", "1": "Positive"}
}

func newTestHandler(t *testing.T, run runner.Runner, maxLength int) *Handler {
	t.Helper()
	h, err := New(testTokenizer(), run, testMapping(), maxLength, zerolog.Nop())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func textRequest(id, text string) Request {
	return Request{
		ID:         id,
		Parameters: map[string][]byte{ParameterData: []byte(text)},
		Headers:    map[string]string{HeaderDataType: DataTypeString},
	}
}

func expectInts(t *testing.T, got []int32, want ...int32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
