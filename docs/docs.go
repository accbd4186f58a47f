// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
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
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign up",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "409": {"description": "Conflict", "schema": {"type": "object"}}
                }
            }
        },
        "/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/dashboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Dashboard view",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/v1/machines": {
            "get": {"produces": ["application/json"], "tags": ["dashboard"], "summary": "Machines", "responses": {"200": {"description": "count, machines"}}}
        },
        "/api/v1/orders": {
            "get": {"produces": ["application/json"], "tags": ["dashboard"], "summary": "Orders", "responses": {"200": {"description": "count, orders"}}}
        },
        "/api/v1/safety": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Safety incidents",
                "parameters": [{"enum": ["unresolved", "resolved"], "type": "string", "in": "query", "name": "status"}],
                "responses": {"200": {"description": "count, incidents"}}
            }
        },
        "/api/v1/workflows": {
            "get": {"produces": ["application/json"], "tags": ["dashboard"], "summary": "Triage workflows", "responses": {"200": {"description": "count, workflows"}}}
        },
        "/api/v1/logs": {
            "get": {"produces": ["application/json"], "tags": ["dashboard"], "summary": "Action log", "responses": {"200": {"description": "count, logs"}}}
        },
        "/api/v1/triage/summary": {
            "get": {"produces": ["application/json"], "tags": ["dashboard"], "summary": "Triage summary", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/safety/{id}/resolve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["safety"],
                "summary": "Resolve safety incident",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "status, action"},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Not Found"},
                    "502": {"description": "Bad Gateway"}
                }
            }
        },
        "/api/v1/reload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Reload snapshots",
                "responses": {"202": {"description": "Accepted"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/v1/actions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["actions"],
                "summary": "List operator actions",
                "parameters": [
                    {"type": "string", "in": "query", "name": "from"},
                    {"type": "string", "in": "query", "name": "to"},
                    {"enum": ["published", "failed"], "type": "string", "in": "query", "name": "outcome"}
                ],
                "responses": {
                    "200": {"description": "count, actions"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Shop-floor Dashboard API",
	Description:      "Reconciled machine, order, safety and triage state for shop-floor dashboards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
