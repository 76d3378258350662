package jsonapi_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vaultmeter/vaultmeter/pkg/jsonapi"
)

func TestResourceBuilder(t *testing.T) {
	r := jsonapi.NewResource("accounts", "acc-1").
		Attr("name", "Gym").
		BelongsTo("folder", "folders", "f-1").
		BelongsTo("parent", "accounts", "").
		Meta("warning", "none").
		Self("/api/accounts/acc-1").
		Build()

	if r.Type != "accounts" || r.ID != "acc-1" || r.Attributes["name"] != "Gym" {
		t.Errorf("resource = %+v", r)
	}
	if r.Relationships["folder"].Data.ID != "f-1" {
		t.Errorf("relationships = %+v", r.Relationships)
	}
	if _, ok := r.Relationships["parent"]; ok {
		t.Error("empty relationship should be skipped")
	}
	if r.Links.Self != "/api/accounts/acc-1" || r.Meta["warning"] != "none" {
		t.Errorf("links/meta = %+v %+v", r.Links, r.Meta)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    jsonapi.Error
		status int
		code   string
	}{
		{"bad request", jsonapi.ErrBadRequest("x"), 400, "bad_request"},
		{"unauthorized", jsonapi.ErrUnauthorized(""), 401, "unauthorized"},
		{"not found", jsonapi.ErrNotFound("account", "a1"), 404, "not_found"},
		{"conflict", jsonapi.ErrConflict("account_inactive", "x"), 409, "account_inactive"},
		{"validation", jsonapi.ErrValidation("amount", "must be positive"), 422, "validation_error"},
		{"internal", jsonapi.ErrInternal(), 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.StatusCode() != tt.status || tt.err.Code != tt.code {
				t.Errorf("got %d/%s, want %d/%s", tt.err.StatusCode(), tt.err.Code, tt.status, tt.code)
			}
		})
	}

	v := jsonapi.ErrValidation("amount", "bad")
	if v.Source == nil || v.Source.Pointer != "/data/attributes/amount" {
		t.Errorf("validation source = %+v", v.Source)
	}
	if !strings.Contains(jsonapi.ErrNotFound("account", "a1").Detail, "'a1'") {
		t.Error("not found detail should mention the id")
	}
	if p := jsonapi.ErrBadRequest("x").AtParameter("month"); p.Source.Parameter != "month" {
		t.Errorf("parameter source = %+v", p.Source)
	}
	if (jsonapi.Error{}).StatusCode() != 500 {
		t.Error("unset status should map to 500")
	}
}

func TestWriteResource(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonapi.WriteResource(rec, http.StatusOK, jsonapi.NewResource("events", "e1").Attr("amount", 3).Build(), jsonapi.Meta{"k": "v"})

	if ct := rec.Header().Get("Content-Type"); ct != jsonapi.ContentType {
		t.Errorf("Content-Type = %s", ct)
	}
	var doc struct {
		Data jsonapi.Resource `json:"data"`
		Meta jsonapi.Meta     `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Data.ID != "e1" || doc.Data.Attributes["amount"] != float64(3) || doc.Meta["k"] != "v" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestWriteCollection_EmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonapi.WriteCollection(rec, nil, nil)

	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("body = %s, want empty array", rec.Body.String())
	}
}

func TestWriteCreatedAndNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonapi.WriteCreated(rec, jsonapi.NewResource("accounts", "a1").Build(), "/api/accounts/a1")
	if rec.Code != http.StatusCreated || rec.Header().Get("Location") != "/api/accounts/a1" {
		t.Errorf("code=%d location=%s", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	jsonapi.WriteNoContent(rec)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonapi.WriteError(rec, jsonapi.ErrNotFound("account", ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"errors"`) || strings.Contains(rec.Body.String(), `"data"`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	jsonapi.WriteError(rec)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("no errors: code = %d", rec.Code)
	}
}

func TestDecode(t *testing.T) {
	type attrs struct {
		Name   string `json:"name"`
		Amount int64  `json:"amount"`
	}

	tests := []struct {
		name    string
		body    string
		want    attrs
		wantErr bool
	}{
		{"document", `{"data":{"type":"accounts","attributes":{"name":"Gym"}}}`, attrs{Name: "Gym"}, false},
		{"untyped document", `{"data":{"attributes":{"amount":3}}}`, attrs{Amount: 3}, false},
		{"bare attributes", `{"amount":5}`, attrs{Amount: 5}, false},
		{"no attributes", `{"data":{"type":"accounts"}}`, attrs{}, false},
		{"wrong type", `{"data":{"type":"events","attributes":{}}}`, attrs{}, true},
		{"not json", `amount=5`, attrs{}, true},
		{"empty", ``, attrs{}, true},
		{"bad attribute type", `{"amount":"five"}`, attrs{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got attrs
			err := jsonapi.Decode(req, "accounts", &got)
			if tt.wantErr {
				if !errors.Is(err, jsonapi.ErrMalformed) {
					t.Errorf("err = %v, want ErrMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecode_TooLarge(t *testing.T) {
	body := `{"name":"` + strings.Repeat("x", jsonapi.MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dst map[string]any
	if err := jsonapi.Decode(req, "accounts", &dst); !errors.Is(err, jsonapi.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}
