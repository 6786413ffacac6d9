package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/entries": {
            "get": {
                "tags": ["entries"],
                "summary": "List journal entries",
                "description": "Without query parameters the store's current search filters apply",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "q", "type": "string", "description": "Search term"},
                    {"in": "query", "name": "mood", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"in": "query", "name": "tag", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"in": "query", "name": "highlight", "type": "boolean"},
                    {"in": "query", "name": "from", "type": "string", "description": "First day (YYYY-MM-DD)"},
                    {"in": "query", "name": "to", "type": "string", "description": "Last day (YYYY-MM-DD)"}
                ],
                "responses": {
                    "200": {"description": "Entries, newest first"},
                    "400": {"description": "Invalid filter"}
                }
            },
            "post": {
                "tags": ["entries"],
                "summary": "Create a journal entry",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/CreateEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created entry", "schema": {"$ref": "#/definitions/JournalEntry"}},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/entries/{id}": {
            "get": {
                "tags": ["entries"],
                "summary": "Get an entry with its tags resolved",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Entry"},
                    "404": {"description": "Entry not found"}
                }
            },
            "patch": {
                "tags": ["entries"],
                "summary": "Update an entry",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Updated entry", "schema": {"$ref": "#/definitions/JournalEntry"}},
                    "400": {"description": "Validation failed"},
                    "404": {"description": "Entry not found"}
                }
            },
            "delete": {
                "tags": ["entries"],
                "summary": "Delete an entry",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Entry not found"}
                }
            }
        },
        "/entries/{id}/attachments": {
            "post": {
                "tags": ["attachments"],
                "summary": "Register an attachment and get a presigned upload URL",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "201": {"description": "Attachment and upload URL"},
                    "404": {"description": "Entry not found"},
                    "501": {"description": "Attachment storage is not configured"}
                }
            }
        },
        "/calendar": {
            "get": {
                "tags": ["calendar"],
                "summary": "List the entries of one calendar day",
                "parameters": [{"in": "query", "name": "date", "type": "string", "description": "Day (YYYY-MM-DD)"}],
                "responses": {
                    "200": {"description": "Entries of the day"},
                    "400": {"description": "Invalid date"}
                }
            }
        },
        "/tags": {
            "get": {
                "tags": ["tags"],
                "summary": "List tags with usage counts",
                "parameters": [{"in": "query", "name": "type", "type": "string", "enum": ["folder", "person", "location", "hashtag", "highlight"]}],
                "responses": {"200": {"description": "Tags"}}
            },
            "post": {
                "tags": ["tags"],
                "summary": "Create a tag",
                "responses": {
                    "201": {"description": "Created tag"},
                    "400": {"description": "Validation failed"},
                    "409": {"description": "Duplicate id"}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["stats"],
                "summary": "Journal statistics",
                "responses": {"200": {"description": "Statistics"}}
            }
        },
        "/editor": {
            "get": {
                "tags": ["editor"],
                "summary": "Current editor state and draft",
                "responses": {"200": {"description": "Editor state"}}
            }
        },
        "/editor/save": {
            "post": {
                "tags": ["editor"],
                "summary": "Save the draft",
                "description": "On a validation failure the editor stays in its editing state",
                "responses": {
                    "200": {"description": "Saved entry"},
                    "400": {"description": "Validation failed"},
                    "409": {"description": "No entry under edit"}
                }
            }
        },
        "/state": {
            "get": {
                "tags": ["state"],
                "summary": "Whole application state",
                "responses": {"200": {"description": "State"}}
            }
        }
    },
    "definitions": {
        "CreateEntryRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "mood": {"type": "string", "enum": ["happy", "sad", "excited", "calm", "angry", "neutral"]},
                "tagIds": {"type": "array", "items": {"type": "string"}},
                "isHighlight": {"type": "boolean"}
            }
        },
        "JournalEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "mood": {"type": "string"},
                "tagIds": {"type": "array", "items": {"type": "string"}},
                "isHighlight": {"type": "boolean"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Journify API",
	Description:      "Personal journaling service: entries, tags, editor and statistics",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
