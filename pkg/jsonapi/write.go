package jsonapi

import (
	"encoding/json"
	"net/http"
)

// Write sends a document with the given status.
func Write(w http.ResponseWriter, status int, doc Document) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}

// WriteResource sends a single resource.
func WriteResource(w http.ResponseWriter, status int, r Resource, meta Meta) {
	Write(w, status, Document{Data: r, Meta: meta})
}

// WriteCollection sends a list of resources. A nil list is sent as [].
func WriteCollection(w http.ResponseWriter, rs []Resource, meta Meta) {
	if rs == nil {
		rs = []Resource{}
	}
	Write(w, http.StatusOK, Document{Data: rs, Meta: meta})
}

// WriteCreated sends a 201 with a Location header.
func WriteCreated(w http.ResponseWriter, r Resource, location string) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	WriteResource(w, http.StatusCreated, r, nil)
}

// WriteMeta sends a meta-only document.
func WriteMeta(w http.ResponseWriter, status int, meta Meta) {
	Write(w, status, Document{Meta: meta})
}

// WriteNoContent sends an empty 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError sends errors. The status comes from the first error.
func WriteError(w http.ResponseWriter, errs ...Error) {
	if len(errs) == 0 {
		errs = []Error{ErrInternal()}
	}
	Write(w, errs[0].StatusCode(), Document{Errors: errs})
}
