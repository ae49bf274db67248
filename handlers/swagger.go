package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the OpenAPI document and a Swagger UI page:
// GET /swagger/index.html and GET /swagger/doc.json
func RegisterSwagger(r *gin.Engine) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})
	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>papershelf API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({ url: '/swagger/doc.json', dom_id: '#swagger-ui' })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "papershelf", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } },
    "schemas": {
      "Paper": { "type": "object", "properties": {
        "id": {"type":"string"}, "title": {"type":"string"},
        "authors": {"type":"array","items":{"type":"string"}},
        "abstract": {"type":"string"}, "journal": {"type":"string"}, "year": {"type":"integer"},
        "tags": {"type":"array","items":{"type":"string"}},
        "ownerId": {"type":"string"}, "fileRef": {"type":"string"},
        "notes": {"type":"array","items":{"$ref":"#/components/schemas/Note"}},
        "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"} } },
      "Note": { "type": "object", "properties": {
        "id": {"type":"string"}, "text": {"type":"string"}, "authorId": {"type":"string"},
        "author": {"type":"object","properties":{"id":{"type":"string"},"name":{"type":"string"},"email":{"type":"string"}}},
        "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"} } },
      "PaperForm": { "type": "object", "properties": {
        "title": {"type":"string"}, "authors": {"type":"string","description":"comma separated or JSON array"},
        "abstract": {"type":"string"}, "journal": {"type":"string"}, "year": {"type":"string"},
        "tags": {"type":"string","description":"comma separated or JSON array"},
        "file": {"type":"string","format":"binary"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } },
      "Message": { "type": "object", "properties": { "message": {"type":"string"} } }
    }
  },
  "paths": {
    "/api/papers": {
      "get": { "summary": "List papers", "parameters": [
          {"name":"tag","in":"query","schema":{"type":"string"}},
          {"name":"author","in":"query","schema":{"type":"string"}},
          {"name":"journal","in":"query","schema":{"type":"string"}} ],
        "responses": { "200": { "description": "papers" } } },
      "post": { "summary": "Create a paper", "security": [{"bearer":[]}],
        "requestBody": { "content": { "multipart/form-data": { "schema": {"$ref":"#/components/schemas/PaperForm"} }, "application/json": { "schema": {"$ref":"#/components/schemas/PaperForm"} } } },
        "responses": { "201": { "description": "created" }, "400": { "description": "missing title or malformed field" }, "401": { "description": "unauthenticated" } } }
    },
    "/api/papers/{id}": {
      "get": { "summary": "Get a paper", "responses": { "200": { "description": "paper" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update a paper (owner only)", "security": [{"bearer":[]}],
        "requestBody": { "content": { "multipart/form-data": { "schema": {"$ref":"#/components/schemas/PaperForm"} } } },
        "responses": { "200": { "description": "updated" }, "401": { "description": "not the owner" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a paper (owner only)", "security": [{"bearer":[]}],
        "responses": { "200": { "description": "Paper removed" }, "401": { "description": "not the owner" }, "404": { "description": "not found" } } }
    },
    "/api/papers/{id}/file": {
      "get": { "summary": "Download the paper file", "responses": { "200": { "description": "file" }, "302": { "description": "presigned redirect" }, "404": { "description": "no file" } } }
    },
    "/api/papers/{id}/notes": {
      "get": { "summary": "List notes with authors", "responses": { "200": { "description": "notes" }, "404": { "description": "paper not found" } } },
      "post": { "summary": "Add a note", "security": [{"bearer":[]}],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"text":{"type":"string"}}} } } },
        "responses": { "201": { "description": "created" }, "400": { "description": "empty text" }, "404": { "description": "paper not found" } } }
    },
    "/api/papers/{id}/notes/{noteId}": {
      "delete": { "summary": "Delete a note (author only)", "security": [{"bearer":[]}],
        "responses": { "200": { "description": "Note deleted successfully" }, "403": { "description": "not the author" }, "404": { "description": "not found" } } }
    },
    "/api/users/register": { "post": { "summary": "Register a local account", "responses": { "201": { "description": "user and tokens" }, "400": { "description": "invalid input" }, "409": { "description": "email taken" } } } },
    "/api/users/login": { "post": { "summary": "Log in with email and password", "responses": { "200": { "description": "user and tokens" }, "401": { "description": "bad credentials" } } } },
    "/api/users/refresh": { "post": { "summary": "Rotate refresh token", "responses": { "200": { "description": "new tokens" }, "401": { "description": "invalid refresh" } } } },
    "/api/users/logout": { "post": { "summary": "Invalidate refresh token and access token", "responses": { "200": { "description": "logged out" } } } },
    "/api/users/me": { "get": { "summary": "Current user", "security": [{"bearer":[]}], "responses": { "200": { "description": "user" }, "401": { "description": "unauthenticated" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
