package tokenizer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Tokenizer converts text to token ids and back. Implementations must be
// safe for concurrent use after construction.
type Tokenizer interface {
	Encode(text string) ([]int32, error)
	Decode(ids []int32) string
	PadID() int32
}

// WordPiece implements a minimal BERT-compatible tokenizer. Encoding frames
// the input with [CLS] and [SEP]; padding and truncation are left to the
// caller, which owns the batch shape.
type WordPiece struct {
	vocab        map[string]int32
	tokens       []string
	lowerCase    bool
	clsID        int32
	sepID        int32
	padID        int32
	unkID        int32
	continuation string
}

// LoadVocab builds the tokenizer from a vocab.txt file, one token per line.
func LoadVocab(path string) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int32)
	var tokens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = int32(len(tokens))
		tokens = append(tokens, token)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}
	if len(vocab) == 0 {
		return nil, errors.New("vocab is empty")
	}

	return newWordPiece(vocab, tokens), nil
}

// FromBlob builds the tokenizer from the raw bytes of a tokenizer.json
// definition. Both the object form ("token": id) and the pair-array form of
// model.vocab are accepted.
func FromBlob(data []byte) (*WordPiece, error) {
	var raw struct {
		Model struct {
			Type  string `json:"type"`
			Vocab any    `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode tokenizer blob: %w", err)
	}

	vocab := vocabFromAny(raw.Model.Vocab)
	if len(vocab) == 0 {
		return nil, errors.New("tokenizer blob missing vocab")
	}

	size := int32(0)
	for _, id := range vocab {
		if id+1 > size {
			size = id + 1
		}
	}
	tokens := make([]string, size)
	for tok, id := range vocab {
		tokens[id] = tok
	}

	return newWordPiece(vocab, tokens), nil
}

func newWordPiece(vocab map[string]int32, tokens []string) *WordPiece {
	return &WordPiece{
		vocab:        vocab,
		tokens:       tokens,
		lowerCase:    true,
		continuation: "##",
		clsID:        lookupSpecial(vocab, "[CLS]", "<cls>", "<s>"),
		sepID:        lookupSpecial(vocab, "[SEP]", "<sep>", "</s>"),
		padID:        lookupSpecial(vocab, "[PAD]", "<pad>"),
		unkID:        lookupSpecial(vocab, "[UNK]", "<unk>"),
	}
}

// lookupSpecial returns the id of the first candidate present in the vocab,
// or 0 when none is.
func lookupSpecial(vocab map[string]int32, candidates ...string) int32 {
	for _, c := range candidates {
		if id, ok := vocab[c]; ok {
			return id
		}
	}
	return 0
}

func vocabFromAny(raw any) map[string]int32 {
	switch v := raw.(type) {
	case map[string]any:
		out := make(map[string]int32, len(v))
		for k, val := range v {
			if num, ok := asInt32(val); ok {
				out[k] = num
			}
		}
		return out
	case []any:
		out := make(map[string]int32, len(v))
		for i, item := range v {
			switch pair := item.(type) {
			case []any:
				if len(pair) == 0 {
					continue
				}
				token, ok := pair[0].(string)
				if !ok || token == "" {
					continue
				}
				out[token] = int32(i)
			case map[string]any:
				token, ok := pair["token"].(string)
				if !ok || token == "" {
					continue
				}
				if num, ok := asInt32(pair["id"]); ok {
					out[token] = num
				} else {
					out[token] = int32(i)
				}
			}
		}
		return out
	default:
		return nil
	}
}

// asInt32 converts a decoded JSON number to a vocab index. Ids are slice
// indices, so negative values are rejected like any other malformed entry.
func asInt32(v any) (int32, bool) {
	switch num := v.(type) {
	case float64:
		if num < 0 {
			return 0, false
		}
		return int32(num), true
	case int:
		if num < 0 {
			return 0, false
		}
		return int32(num), true
	case int64:
		if num < 0 {
			return 0, false
		}
		return int32(num), true
	default:
		return 0, false
	}
}

// PadID returns the id used to fill unused batch positions.
func (t *WordPiece) PadID() int32 {
	return t.padID
}

// Encode converts text into token ids framed with [CLS] and [SEP].
func (t *WordPiece) Encode(text string) ([]int32, error) {
	if len(t.vocab) == 0 {
		return nil, errors.New("tokenizer has no vocab")
	}

	words := strings.Fields(text)
	tokens := make([]int32, 0, len(words)+2)
	tokens = append(tokens, t.clsID)
	for _, w := range words {
		if t.lowerCase {
			w = strings.ToLower(w)
		}
		tokens = append(tokens, t.wordPiece(w)...)
	}
	tokens = append(tokens, t.sepID)
	return tokens, nil
}

// Decode returns the space-joined tokens for a sequence of ids, skipping
// padding positions.
func (t *WordPiece) Decode(ids []int32) string {
	var sb strings.Builder
	for _, id := range ids {
		if id == t.padID {
			continue
		}
		if int(id) < 0 || int(id) >= len(t.tokens) {
			continue
		}
		tok := t.tokens[id]
		if cont, ok := strings.CutPrefix(tok, t.continuation); ok {
			sb.WriteString(cont)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

func (t *WordPiece) wordPiece(token string) []int32 {
	if id, ok := t.vocab[token]; ok {
		return []int32{id}
	}

	var pieces []int32
	start := 0
	for start < len(token) {
		end := len(token)
		var cur string
		for end > start {
			sub := token[start:end]
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				cur = sub
				pieces = append(pieces, id)
				start = end
				break
			}
			end--
		}
		if cur == "" {
			return []int32{t.unkID}
		}
	}
	if len(pieces) == 0 {
		return []int32{t.unkID}
	}
	return pieces
}
