// Package docs registers the vaultmeter OpenAPI document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "status: ok"}}
            }
        },
        "/health/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "status: ok"},
                    "503": {"description": "status: unhealthy"}
                }
            }
        },
        "/version": {
            "get": {
                "tags": ["System"],
                "summary": "Get service version",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Version information", "schema": {"$ref": "#/definitions/http.VersionResponse"}}}
            }
        },
        "/api/accounts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Accounts"],
                "summary": "List accounts",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Accounts"],
                "summary": "Create account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Account attributes", "name": "account", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CreateAccountRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/api/accounts/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Accounts"],
                "summary": "Get account",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Omitted attributes are unchanged. A null usage_limit removes the ceiling.",
                "tags": ["Accounts"],
                "summary": "Update account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true},
                    {"description": "Changed attributes", "name": "account", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.UpdateAccountRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Accounts"],
                "summary": "Delete account",
                "parameters": [{"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/api/accounts/{id}/usage": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Usage"],
                "summary": "Get current usage",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Logging succeeds past the ceiling; the response reports the warning level.",
                "tags": ["Usage"],
                "summary": "Log usage",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true},
                    {"description": "Amount and description", "name": "usage", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.LogUsageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "409": {"description": "Account is inactive", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/api/accounts/{id}/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Usage"],
                "summary": "List account events",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/api/events/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Events"],
                "summary": "Get usage event",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["Events"],
                "summary": "Update usage event",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true},
                    {"description": "Changed attributes", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Events"],
                "summary": "Delete usage event",
                "parameters": [{"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/api/calendar/{year}/{month}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns whole weeks of day cells, Sunday first, with each day's events in the configured time zone",
                "tags": ["Calendar"],
                "summary": "Get month grid",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Year", "name": "year", "in": "path", "required": true},
                    {"type": "integer", "description": "Month (1-12)", "name": "month", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/api/calendar/days/{date}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Calendar"],
                "summary": "Get day events",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Date (YYYY-MM-DD)", "name": "date", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        }
    },
    "definitions": {
        "http.VersionResponse": {
            "type": "object",
            "properties": {
                "service": {"type": "string", "example": "vaultmeter"},
                "version": {"type": "string", "example": "1.0.0"}
            }
        },
        "http.CreateAccountRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Netflix"},
                "description": {"type": "string"},
                "folder_id": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "reset_policy": {"type": "string", "enum": ["daily", "weekly", "monthly", "yearly", "never"], "example": "monthly"},
                "usage_limit": {"type": "integer", "example": 4}
            }
        },
        "http.UpdateAccountRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "folder_id": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "reset_policy": {"type": "string"},
                "usage_limit": {"type": "integer"},
                "is_active": {"type": "boolean"}
            }
        },
        "http.LogUsageRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer", "example": 1},
                "description": {"type": "string", "example": "Movie night"}
            }
        },
        "http.UpdateEventRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "description": {"type": "string"}
            }
        },
        "jsonapi.Document": {
            "type": "object",
            "properties": {
                "data": {},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/jsonapi.Error"}},
                "meta": {"type": "object", "additionalProperties": true}
            }
        },
        "jsonapi.Error": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "code": {"type": "string"},
                "title": {"type": "string"},
                "detail": {"type": "string"},
                "source": {
                    "type": "object",
                    "properties": {
                        "pointer": {"type": "string"},
                        "parameter": {"type": "string"}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "vaultmeter API",
	Description:      "Usage metering against recurring per-account budgets.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
