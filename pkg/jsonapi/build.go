package jsonapi

import (
	"fmt"
	"net/http"
	"strconv"
)

// ResourceBuilder assembles a Resource.
type ResourceBuilder struct {
	r Resource
}

// NewResource starts a resource of the given type and ID.
func NewResource(typ, id string) *ResourceBuilder {
	return &ResourceBuilder{r: Resource{Type: typ, ID: id, Attributes: map[string]any{}}}
}

// Attr sets an attribute.
func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	b.r.Attributes[key] = value
	return b
}

// BelongsTo adds a to-one relationship. Empty IDs are skipped.
func (b *ResourceBuilder) BelongsTo(name, typ, id string) *ResourceBuilder {
	if id == "" {
		return b
	}
	if b.r.Relationships == nil {
		b.r.Relationships = make(map[string]Relationship)
	}
	b.r.Relationships[name] = Relationship{Data: &Identifier{Type: typ, ID: id}}
	return b
}

// Meta sets a resource-level meta entry.
func (b *ResourceBuilder) Meta(key string, value any) *ResourceBuilder {
	if b.r.Meta == nil {
		b.r.Meta = make(Meta)
	}
	b.r.Meta[key] = value
	return b
}

// Self sets the resource's self link.
func (b *ResourceBuilder) Self(url string) *ResourceBuilder {
	b.r.Links = &Links{Self: url}
	return b
}

// Build returns the resource.
func (b *ResourceBuilder) Build() Resource {
	return b.r
}

// NewError creates an error object.
func NewError(status int, code, title, detail string) Error {
	return Error{Status: strconv.Itoa(status), Code: code, Title: title, Detail: detail}
}

// StatusCode returns the numeric HTTP status, or 500 when unset.
func (e Error) StatusCode() int {
	code, err := strconv.Atoi(e.Status)
	if err != nil || code == 0 {
		return http.StatusInternalServerError
	}
	return code
}

// AtPointer returns a copy of e pointing at a request document member.
func (e Error) AtPointer(pointer string) Error {
	e.Source = &ErrorSource{Pointer: pointer}
	return e
}

// AtParameter returns a copy of e pointing at a path or query parameter.
func (e Error) AtParameter(name string) Error {
	e.Source = &ErrorSource{Parameter: name}
	return e
}

// ErrBadRequest is a 400 error.
func ErrBadRequest(detail string) Error {
	return NewError(http.StatusBadRequest, "bad_request", "Bad Request", detail)
}

// ErrUnauthorized is a 401 error.
func ErrUnauthorized(detail string) Error {
	if detail == "" {
		detail = "Authentication required"
	}
	return NewError(http.StatusUnauthorized, "unauthorized", "Unauthorized", detail)
}

// ErrNotFound is a 404 error for a resource type.
func ErrNotFound(typ, id string) Error {
	detail := fmt.Sprintf("The requested %s was not found", typ)
	if id != "" {
		detail = fmt.Sprintf("The %s with ID '%s' was not found", typ, id)
	}
	return NewError(http.StatusNotFound, "not_found", "Not Found", detail)
}

// ErrConflict is a 409 error.
func ErrConflict(code, detail string) Error {
	return NewError(http.StatusConflict, code, "Conflict", detail)
}

// ErrValidation is a 422 error on an attribute.
func ErrValidation(field, message string) Error {
	return NewError(http.StatusUnprocessableEntity, "validation_error", "Validation Failed", message).
		AtPointer("/data/attributes/" + field)
}

// ErrInternal is a 500 error. The detail is never taken from the cause.
func ErrInternal() Error {
	return NewError(http.StatusInternalServerError, "internal_error", "Internal Server Error", "An internal error occurred")
}
