package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// maxPeekBytes bounds how much of a request body a peek will buffer.
const maxPeekBytes = 1 << 16

// PeekBodyField reads a top-level string field out of a JSON request body
// without consuming it: the body is re-buffered so the downstream handler
// can decode it again. Returns "" when the body is not JSON or the field
// is absent.
func PeekBodyField(r *http.Request, fieldName string) string {
	if r.Body == nil {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}

	var value string
	if err := json.Unmarshal(fields[fieldName], &value); err != nil {
		return ""
	}
	return value
}
