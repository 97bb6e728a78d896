// Package classifier implements a batched inference handler for a
// text-classification model: it tokenizes and pads a batch of raw text
// requests into fixed-shape tensors, invokes a model runner, and maps
// per-row outputs back to per-request responses without letting one bad
// request fail the rest of the batch.
package classifier

// Payload parameter and header keys recognized on a Request.
const (
	ParameterData = "data"
	ParameterBody = "body"

	HeaderDataType = "data_dtype"
	HeaderBodyType = "body_dtype"
)

// Content-type tags carried on a Response.
const (
	ContentTypeText = "text"
	DataTypeString  = "string"
)

// Request is one unit of work inside a batch. It is owned by the caller for
// the duration of one Handle call and read-only to the pipeline.
type Request struct {
	ID         string
	Parameters map[string][]byte
	Headers    map[string]string
}

// Payload returns the request's payload bytes and declared data type. The
// "data" parameter wins over "body"; ok is false when neither a payload nor
// its type header is present.
func (r Request) Payload() (data []byte, dtype string, ok bool) {
	if d, found := r.Parameters[ParameterData]; found {
		if t, found := r.Headers[HeaderDataType]; found {
			return d, t, true
		}
	}
	if d, found := r.Parameters[ParameterBody]; found {
		if t, found := r.Headers[HeaderBodyType]; found {
			return d, t, true
		}
	}
	return nil, "", false
}

// Response is the terminal result for one request identity. Exactly one
// Response exists per identity by the time a Handle call returns.
type Response struct {
	StatusCode  int
	ContentType string
	Body        string
}
