package jsonapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps request documents.
const MaxBodyBytes = 1 << 20

// RequestResource is the primary data of a create or update request.
type RequestResource struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	Attributes json.RawMessage `json:"attributes"`
}

type requestDocument struct {
	Data *RequestResource `json:"data"`
}

// ErrMalformed is returned for bodies that are not a JSON:API resource document.
var ErrMalformed = errors.New("malformed request document")

// Decode reads a resource document of the expected type and unmarshals its
// attributes into dst. Plain JSON objects without a data member are accepted
// as bare attributes.
func Decode(r *http.Request, typ string, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(body) > MaxBodyBytes {
		return fmt.Errorf("%w: body too large", ErrMalformed)
	}

	var doc requestDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	attrs := json.RawMessage(body)
	if doc.Data != nil {
		if doc.Data.Type != "" && doc.Data.Type != typ {
			return fmt.Errorf("%w: expected type %q, got %q", ErrMalformed, typ, doc.Data.Type)
		}
		attrs = doc.Data.Attributes
		if len(attrs) == 0 {
			attrs = json.RawMessage("{}")
		}
	}

	if err := json.Unmarshal(attrs, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
