// Package docs registers the OpenAPI document served under /swagger.
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
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"], "summary": "Issue a session token", "security": [],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.Token"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/auth/me": {
            "get": {"tags": ["auth"], "summary": "Current session", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/accounts": {
            "post": {"tags": ["auth"], "summary": "Create an account", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/Error"}}}}
        },
        "/auth/accounts/{id}": {
            "delete": {"tags": ["auth"], "summary": "Delete an account", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/attendance": {
            "post": {
                "tags": ["attendance"], "summary": "Bulk create or update one day of attendance",
                "parameters": [
                    {"in": "header", "name": "Idempotency-Key", "type": "string"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/attendance.BulkRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/attendance.BulkResponse"}}, "207": {"description": "Some entries failed", "schema": {"$ref": "#/definitions/attendance.BulkResponse"}}}
            }
        },
        "/attendance/{memberId}/{date}/{meal}": {
            "put": {
                "tags": ["attendance"], "summary": "Mark a meal present or absent",
                "parameters": [
                    {"in": "path", "name": "memberId", "type": "string", "required": true},
                    {"in": "path", "name": "date", "type": "string", "required": true, "description": "YYYY-MM-DD or today"},
                    {"in": "path", "name": "meal", "type": "string", "required": true, "enum": ["lunch", "dinner"]},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/attendance.ToggleRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/attendance.ToggleResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/attendance/{date}": {
            "get": {"tags": ["attendance"], "summary": "Attendance of one day", "parameters": [{"in": "path", "name": "date", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/attendance/member/{memberId}": {
            "get": {"tags": ["attendance"], "summary": "Attendance history of a member", "parameters": [{"in": "path", "name": "memberId", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/attendance/today/count": {
            "get": {"tags": ["attendance"], "summary": "Members present today", "responses": {"200": {"description": "OK"}}}
        },
        "/attendance/export": {
            "get": {
                "tags": ["attendance"], "summary": "Export a date range as xlsx",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [{"in": "query", "name": "from", "type": "string", "required": true}, {"in": "query", "name": "to", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/members": {
            "get": {"tags": ["members"], "summary": "List members", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["members"], "summary": "Register a member", "responses": {"201": {"description": "Created"}}}
        },
        "/members/exhausted": {
            "get": {"tags": ["members"], "summary": "Members with no credits left", "responses": {"200": {"description": "OK"}}}
        },
        "/members/reset-credits": {
            "put": {"tags": ["members"], "summary": "Restore every member to max credits", "responses": {"200": {"description": "OK"}}}
        },
        "/members/{id}": {
            "get": {"tags": ["members"], "summary": "Member with payment history", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["members"], "summary": "Update a member", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "422": {"description": "Limit exceeded", "schema": {"$ref": "#/definitions/Error"}}}},
            "delete": {"tags": ["members"], "summary": "Delete a member", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/members/{id}/reactivate": {
            "put": {"tags": ["members"], "summary": "Start a new subscription period", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/members/{id}/payments": {
            "get": {"tags": ["members"], "summary": "Payment history", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["members"], "summary": "Record a payment",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}, {"in": "header", "name": "Idempotency-Key", "type": "string"}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Payment exceeds subscription", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/stats/monthly-revenue": {
            "get": {"tags": ["members"], "summary": "Sum of subscription amounts", "responses": {"200": {"description": "OK"}}}
        },
        "/menus": {
            "post": {"tags": ["menus"], "summary": "Create a daily menu", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/menus/{id}": {
            "put": {"tags": ["menus"], "summary": "Update a menu", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["menus"], "summary": "Delete a menu", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/menus/today": {
            "get": {"tags": ["menus"], "summary": "Today's menu", "security": [], "responses": {"200": {"description": "OK"}}}
        },
        "/menus/date/{date}": {
            "get": {"tags": ["menus"], "summary": "Menu of a date", "security": [], "parameters": [{"in": "path", "name": "date", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/menus/range": {
            "get": {"tags": ["menus"], "summary": "Menus between two dates", "security": [], "parameters": [{"in": "query", "name": "from", "type": "string"}, {"in": "query", "name": "to", "type": "string"}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "Error": {
            "type": "object",
            "properties": {"error": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}}}}
        },
        "auth.LoginRequest": {
            "type": "object", "required": ["id", "password"],
            "properties": {"id": {"type": "string"}, "password": {"type": "string"}}
        },
        "auth.Token": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "expires_at": {"type": "string"}, "role": {"type": "string"}, "member_id": {"type": "string"}}
        },
        "attendance.ToggleRequest": {
            "type": "object", "required": ["status"],
            "properties": {"status": {"type": "boolean"}}
        },
        "attendance.Record": {
            "type": "object",
            "properties": {"attendance_id": {"type": "integer"}, "member_id": {"type": "string"}, "date": {"type": "string"}, "lunch": {"type": "boolean"}, "dinner": {"type": "boolean"}}
        },
        "attendance.ToggleResponse": {
            "type": "object",
            "properties": {"record": {"$ref": "#/definitions/attendance.Record"}, "remaining_credits": {"type": "integer"}}
        },
        "attendance.BulkRequest": {
            "type": "object", "required": ["date", "members"],
            "properties": {
                "date": {"type": "string"},
                "members": {"type": "array", "items": {"type": "object", "properties": {"user_id": {"type": "string"}, "lunch": {"type": "boolean"}, "dinner": {"type": "boolean"}}}}
            }
        },
        "attendance.BulkResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "results": {"type": "array", "items": {"type": "object"}},
                "updated": {"type": "integer"},
                "unchanged": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failed": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "tiffin-backend API",
	Description:      "Mess members, meal credits, attendance and daily menus.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
