package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "arXiv Channels API",
        "description": "Saved arXiv keyword queries organised into folders, with deduplicated reloads.",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Workspace", "description": "Session read model and active selection"},
        {"name": "Folders", "description": "Channel grouping"},
        {"name": "Channels", "description": "Saved queries and their result history"},
        {"name": "Export", "description": "Channel history downloads"},
        {"name": "Ops", "description": "Health and instrumentation"}
    ],
    "paths": {
        "/workspace": {
            "get": {
                "tags": ["Workspace"],
                "summary": "Get the workspace",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/active": {
            "put": {
                "tags": ["Workspace"],
                "summary": "Select the active channel",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetActiveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Channel not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cache": {
            "delete": {
                "tags": ["Workspace"],
                "summary": "Drop cached arXiv responses",
                "responses": {
                    "204": {"description": "Purged"},
                    "404": {"description": "Query cache disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/folders": {
            "post": {
                "tags": ["Folders"],
                "summary": "Create a folder",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFolderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/folders/{id}": {
            "delete": {
                "tags": ["Folders"],
                "summary": "Delete a folder and its channels",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/folders/{id}/toggle": {
            "post": {
                "tags": ["Folders"],
                "summary": "Expand or collapse a folder",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Toggled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "204": {"description": "Unknown folder, nothing changed"}
                }
            }
        },
        "/folders/{id}/reload": {
            "post": {
                "tags": ["Folders"],
                "summary": "Reload every channel in a folder",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Folder not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/channels": {
            "post": {
                "tags": ["Channels"],
                "summary": "Run a query and save it as a channel",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddChannelRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "arXiv unreachable or malformed response", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/channels/reorder": {
            "post": {
                "tags": ["Channels"],
                "summary": "Move a channel to another channel's display position",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReorderChannelsRequest"}}
                ],
                "responses": {"204": {"description": "Reordered"}}
            }
        },
        "/channels/{id}": {
            "get": {
                "tags": ["Channels"],
                "summary": "Get a channel with its result history",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Channel not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Channels"],
                "summary": "Delete a channel",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/channels/{id}/reload": {
            "post": {
                "tags": ["Channels"],
                "summary": "Fetch new papers for a channel",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ReloadChannelRequest"}}
                ],
                "responses": {
                    "200": {"description": "Reloaded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Channel not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Reload already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "arXiv unreachable or malformed response", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/channels/{id}/folder": {
            "put": {
                "tags": ["Channels"],
                "summary": "File a channel under a folder",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveChannelRequest"}}
                ],
                "responses": {
                    "204": {"description": "Moved"},
                    "404": {"description": "Folder not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/channels/{id}/export": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a channel's papers",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Attachment", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Channel not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Ops"],
                "summary": "Instrumentation summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "FetchOptions": {
            "type": "object",
            "properties": {
                "maxResults": {"type": "integer", "minimum": 1, "maximum": 30, "default": 5},
                "submittedDateAfter": {"type": "string", "format": "date"},
                "submittedDateBefore": {"type": "string", "format": "date"}
            }
        },
        "CreateFolderRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "AddChannelRequest": {
            "type": "object",
            "required": ["query"],
            "properties": {
                "query": {"type": "string"},
                "folderId": {"type": "string"},
                "options": {"$ref": "#/definitions/FetchOptions"}
            }
        },
        "ReloadChannelRequest": {
            "type": "object",
            "properties": {"options": {"$ref": "#/definitions/FetchOptions"}}
        },
        "MoveChannelRequest": {
            "type": "object",
            "properties": {"folderId": {"type": "string", "x-nullable": true}}
        },
        "ReorderChannelsRequest": {
            "type": "object",
            "required": ["fromId", "toId"],
            "properties": {"fromId": {"type": "string"}, "toId": {"type": "string"}}
        },
        "SetActiveRequest": {
            "type": "object",
            "properties": {"channelId": {"type": "string", "x-nullable": true}}
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
