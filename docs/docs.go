// Package docs registers the API document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "{{.Title}}",
    "description": "{{escape .Description}}",
    "version": "{{.Version}}"
  },
  "host": "{{.Host}}",
  "basePath": "{{.BasePath}}",
  "schemes": {{ marshal .Schemes }},
  "securityDefinitions": {
    "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
  },
  "paths": {
    "/courses/{slug}": {
      "get": {"tags": ["public"], "summary": "Active course with trainers",
        "parameters": [{"name": "slug", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
    },
    "/courses/{slug}/days/{day}": {
      "get": {"tags": ["public"], "summary": "Course day with survey questions (created on first access)",
        "parameters": [
          {"name": "slug", "in": "path", "required": true, "type": "string"},
          {"name": "day", "in": "path", "required": true, "type": "integer"}],
        "responses": {"200": {"description": "OK"}, "400": {"description": "Day out of range"}, "404": {"description": "Not found"}}}
    },
    "/attendance": {
      "post": {"tags": ["public"], "summary": "Check in for a course day",
        "consumes": ["application/json"],
        "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckInRequest"}}],
        "responses": {"201": {"description": "Checked in"}, "400": {"description": "Validation error"}, "404": {"description": "Unknown course"}, "409": {"description": "Already checked in"}}}
    },
    "/certificates/{code}": {
      "get": {"tags": ["public"], "summary": "Verify a certificate",
        "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
    },
    "/certificates/{code}/pdf": {
      "get": {"tags": ["public"], "summary": "Download a certificate PDF", "produces": ["application/pdf"],
        "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "PDF"}, "404": {"description": "Not found"}}}
    },
    "/admin/courses": {
      "get": {"tags": ["admin"], "summary": "List courses", "security": [{"Bearer": []}],
        "responses": {"200": {"description": "OK"}}},
      "post": {"tags": ["admin"], "summary": "Create a course", "security": [{"Bearer": []}],
        "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}, "409": {"description": "Slug taken"}}}
    },
    "/admin/courses/{id}": {
      "get": {"tags": ["admin"], "summary": "Course with trainers and days", "security": [{"Bearer": []}],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
      "put": {"tags": ["admin"], "summary": "Update a course", "security": [{"Bearer": []}],
        "responses": {"200": {"description": "OK"}, "409": {"description": "Slug taken or locked by enrollments"}}},
      "delete": {"tags": ["admin"], "summary": "Delete a course", "security": [{"Bearer": []}],
        "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}}
    },
    "/admin/courses/{id}/days": {
      "put": {"tags": ["admin"], "summary": "Edit day titles, dates, hours and survey questions", "security": [{"Bearer": []}],
        "responses": {"200": {"description": "OK"}}}
    },
    "/admin/courses/{id}/trainers": {
      "put": {"tags": ["admin"], "summary": "Replace trainers", "security": [{"Bearer": []}],
        "responses": {"200": {"description": "OK"}}}
    },
    "/admin/courses/{id}/attendance": {
      "get": {"tags": ["admin"], "summary": "Attendance by attendee", "security": [{"Bearer": []}],
        "responses": {"200": {"description": "OK"}}}
    },
    "/admin/courses/{id}/certificates": {
      "get": {"tags": ["admin"], "summary": "List issued certificates", "security": [{"Bearer": []}],
        "responses": {"200": {"description": "OK"}}},
      "post": {"tags": ["admin"], "summary": "Issue certificates to eligible enrollments", "security": [{"Bearer": []}],
        "responses": {"200": {"description": "generated / skipped / failed counts"}}}
    },
    "/admin/certificates/send": {
      "post": {"tags": ["admin"], "summary": "Email certificates", "security": [{"Bearer": []}],
        "responses": {"200": {"description": "sent / failed / total counts"}, "400": {"description": "No ids"}}}
    },
    "/admin/courses/{id}/report/{format}": {
      "get": {"tags": ["admin"], "summary": "Training report (pdf or csv)", "security": [{"Bearer": []}],
        "produces": ["application/pdf", "text/csv"],
        "responses": {"200": {"description": "Report file"}, "400": {"description": "Unknown format"}}}
    }
  },
  "definitions": {
    "CheckInRequest": {
      "type": "object",
      "required": ["course_slug", "day_number", "email", "full_name"],
      "properties": {
        "course_slug": {"type": "string"},
        "day_number": {"type": "integer"},
        "email": {"type": "string"},
        "full_name": {"type": "string"},
        "organization": {"type": "string"},
        "responses": {"type": "object", "description": "survey answers keyed by question_id", "additionalProperties": {"type": "string"}}
      }
    }
  }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Training Backend API",
	Description:      "Course check-in, certificate issuance and verification.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
