package classifier

// rowResult is the outcome of preprocessing one request: either a
// fixed-width token/mask row or nothing, with the error already written to
// the response map. Collecting these before touching the batch tensors keeps
// the excluded-row invariant checkable in one place.
type rowResult struct {
	id     string
	tokens []int32
	mask   []int32
}

// preprocess converts the request batch into fixed-shape token and mask rows
// inside bc. Requests that fail here receive their error response and no
// row; surviving rows are dense starting at index 0.
func (h *Handler) preprocess(bc *batchContext, batch []Request) {
	results := make([]rowResult, 0, len(batch))

	for _, req := range batch {
		bc.pending(req.ID)

		payload, _, ok := req.Payload()
		if !ok {
			h.log.Error().Str("request_id", req.ID).Msg("empty payload")
			bc.set(req.ID, 500, ContentTypeText, "Empty payload")
			continue
		}

		ids, err := h.tok.Encode(string(payload))
		if err != nil {
			h.log.Error().Err(err).Str("request_id", req.ID).Msg("failed to load tensor")
			bc.set(req.ID, 500, DataTypeString, "failed to load tensor")
			continue
		}

		results = append(results, rowResult{
			id:     req.ID,
			tokens: h.padOrTruncate(req.ID, ids),
			mask:   h.maskRow(len(ids)),
		})
	}

	for _, r := range results {
		bc.appendRow(r.id, r.tokens, r.mask)
	}
}

// padOrTruncate forces a token sequence to exactly maxLength columns:
// overlong sequences keep only their first maxLength tokens, short ones are
// right-padded with the pad id.
func (h *Handler) padOrTruncate(id string, ids []int32) []int32 {
	if len(ids) > h.maxLength {
		h.log.Warn().
			Str("request_id", id).
			Int("tokens", len(ids)).
			Int("max_length", h.maxLength).
			Msg("input too long, truncating")
		return append([]int32(nil), ids[:h.maxLength]...)
	}

	row := make([]int32, h.maxLength)
	copy(row, ids)
	pad := h.tok.PadID()
	for i := len(ids); i < h.maxLength; i++ {
		row[i] = pad
	}
	return row
}

// maskRow marks the real token positions: ones for the first
// min(tokenCount, maxLength) columns, zeros after.
func (h *Handler) maskRow(tokenCount int) []int32 {
	if tokenCount > h.maxLength {
		tokenCount = h.maxLength
	}
	row := make([]int32, h.maxLength)
	for i := 0; i < tokenCount; i++ {
		row[i] = 1
	}
	return row
}
