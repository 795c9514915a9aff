// Package docs registers the OpenAPI description of the HTTP API with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "openapi": "3.0.3",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "servers": [{"url": "{{.BasePath}}"}],
    "paths": {
        "/api/chat": {
            "post": {
                "summary": "Stream a chat reply",
                "description": "Moderates the latest user message, then streams the assistant reply as UI message stream events terminated by data: [DONE].",
                "requestBody": {
                    "required": true,
                    "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ChatRequest"}}}
                },
                "responses": {
                    "200": {
                        "description": "UI message stream",
                        "headers": {"x-vercel-ai-ui-message-stream": {"schema": {"type": "string", "example": "v1"}}},
                        "content": {"text/event-stream": {"schema": {"$ref": "#/components/schemas/StreamEvent"}}}
                    },
                    "400": {"description": "Malformed request body", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Error"}}}},
                    "429": {"description": "Rate limit exceeded", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Error"}}}},
                    "500": {"description": "Moderation failed before streaming started", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Error"}}}}
                }
            }
        },
        "/api/chat/ws": {
            "get": {
                "summary": "Chat over WebSocket",
                "description": "Each text frame sent is a ChatRequest; the reply is one StreamEvent per frame followed by {\"type\":\"done\"}.",
                "responses": {"101": {"description": "Switching protocols"}}
            }
        },
        "/api/chat/{id}/history": {
            "get": {
                "summary": "Stored transcript of a chat",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}},
                    {"name": "limit", "in": "query", "schema": {"type": "integer"}}
                ],
                "responses": {
                    "200": {"description": "Transcript", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ChatHistory"}}}},
                    "404": {"description": "Transcript storage is disabled"}
                }
            }
        },
        "/api/chats": {
            "get": {
                "summary": "List stored chats",
                "responses": {"200": {"description": "Chats"}, "404": {"description": "Transcript storage is disabled"}}
            }
        },
        "/healthz": {
            "get": {
                "summary": "Liveness and store connectivity",
                "responses": {"200": {"description": "Healthy"}, "503": {"description": "Store unreachable"}}
            }
        }
    },
    "components": {
        "schemas": {
            "Error": {
                "type": "object",
                "properties": {"error": {"type": "string"}}
            },
            "ChatRequest": {
                "type": "object",
                "properties": {
                    "id": {"type": "string"},
                    "messages": {"type": "array", "items": {"$ref": "#/components/schemas/UIMessage"}}
                }
            },
            "UIMessage": {
                "type": "object",
                "required": ["id", "role", "parts"],
                "properties": {
                    "id": {"type": "string"},
                    "role": {"type": "string", "enum": ["user", "assistant", "system"]},
                    "parts": {"type": "array", "items": {"type": "object", "properties": {"type": {"type": "string"}}}},
                    "metadata": {"type": "object"}
                }
            },
            "StreamEvent": {
                "type": "object",
                "required": ["type"],
                "properties": {
                    "type": {"type": "string", "enum": ["start", "start-step", "text-start", "text-delta", "text-end", "reasoning-start", "reasoning-delta", "reasoning-end", "tool-input-available", "tool-output-available", "tool-output-error", "finish-step", "finish", "error"]},
                    "messageId": {"type": "string"},
                    "id": {"type": "string"},
                    "delta": {"type": "string"},
                    "toolCallId": {"type": "string"},
                    "toolName": {"type": "string"},
                    "input": {},
                    "output": {},
                    "errorText": {"type": "string"}
                }
            },
            "ChatHistory": {
                "type": "object",
                "properties": {
                    "chat_id": {"type": "string"},
                    "messages": {"type": "array", "items": {"type": "object"}},
                    "traces": {"type": "array", "items": {"type": "object"}}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported OpenAPI info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MyAI3 API",
	Description:      "Financial rates assistant: moderated, tool-using chat streamed as UI message events.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
