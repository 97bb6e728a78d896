package classifier

// batchContext owns the per-call mutable state: the response map keyed by
// request identity, the ordered row-to-identity mapping, and the assembled
// tensor rows. Each pipeline stage mutates only its own slice of it, and the
// whole context is discarded once postprocessing completes.
type batchContext struct {
	responses map[string]*Response
	rowIDs    []string // row index -> request identity, dense, no gaps
	tokens    []int32  // len(rowIDs) * maxLength, row-major
	mask      []int32  // same shape as tokens, values in {0,1}
}

func newBatchContext(n int) *batchContext {
	return &batchContext{
		responses: make(map[string]*Response, n),
	}
}

// pending eagerly registers an identity so that an early failure still
// produces a terminal response.
func (bc *batchContext) pending(id string) {
	bc.responses[id] = &Response{}
}

func (bc *batchContext) set(id string, code int, contentType, body string) {
	bc.responses[id] = &Response{
		StatusCode:  code,
		ContentType: contentType,
		Body:        body,
	}
}

// failPending writes an error response to every identity that has not yet
// received a terminal one, and reports how many it touched. Used when the
// batch execution itself fails, so no identity is left without a response.
func (bc *batchContext) failPending(code int, contentType, body string) int {
	n := 0
	for id, resp := range bc.responses {
		if resp == nil || resp.StatusCode == 0 {
			bc.set(id, code, contentType, body)
			n++
		}
	}
	return n
}

// appendRow adds one request's tokens and mask to the batch and records the
// row's identity. Rows stay dense: a request that never reaches this point
// consumes no index.
func (bc *batchContext) appendRow(id string, tokens, mask []int32) {
	bc.rowIDs = append(bc.rowIDs, id)
	bc.tokens = append(bc.tokens, tokens...)
	bc.mask = append(bc.mask, mask...)
}

func (bc *batchContext) rows() int {
	return len(bc.rowIDs)
}

// result materializes the response map for the caller.
func (bc *batchContext) result() map[string]Response {
	out := make(map[string]Response, len(bc.responses))
	for id, resp := range bc.responses {
		out[id] = *resp
	}
	return out
}
