package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Smart Planner API",
        "description": "Schedule optimization and focus block planning",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Optimizer", "description": "Start hour suggestions from the trained model"},
        {"name": "Focus Blocks", "description": "Focus and break blocks for study days"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Model loaded"},
                    "503": {"description": "Model artifacts missing or unreadable"}
                }
            }
        },
        "/api/v1/optimizer/suggestions": {
            "post": {
                "tags": ["Optimizer"],
                "summary": "Suggest better start hours for pending events",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/SuggestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Optimizer unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimizer/predict": {
            "post": {
                "tags": ["Optimizer"],
                "summary": "Predict the best start hour for one event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PredictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Event to move not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Optimizer unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimizer/status": {
            "get": {
                "tags": ["Optimizer"],
                "summary": "Model bundle status",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimizer/reload": {
            "post": {
                "tags": ["Optimizer"],
                "summary": "Reload model artifacts from disk",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Artifacts could not be loaded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/focus-blocks": {
            "get": {
                "tags": ["Focus Blocks"],
                "summary": "Focus and break blocks for the coming days",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "days", "in": "query", "type": "integer"},
                    {"name": "focus_minutes", "in": "query", "type": "integer"},
                    {"name": "break_minutes", "in": "query", "type": "integer"},
                    {"name": "timezone", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/focus-blocks/export": {
            "get": {
                "tags": ["Focus Blocks"],
                "summary": "Export a focus plan",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf", "text/calendar"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "ics"], "default": "csv"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "days", "in": "query", "type": "integer"},
                    {"name": "timezone", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "404": {"description": "Nothing to export", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SuggestRequest": {
            "type": "object",
            "properties": {
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "timezone": {"type": "string"},
                "refresh": {"type": "boolean"}
            }
        },
        "PredictRequest": {
            "type": "object",
            "required": ["event_type", "priority", "duration_hours", "date"],
            "properties": {
                "event_id": {"type": "string"},
                "event_type": {"type": "string", "enum": ["task", "class", "break", "personal", "other"]},
                "priority": {"type": "string", "enum": ["high", "medium", "low"]},
                "duration_hours": {"type": "number"},
                "date": {"type": "string", "format": "date"},
                "due_date": {"type": "string"},
                "timezone": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "field": {"type": "string"}
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
