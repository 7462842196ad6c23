package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grievance API",
        "description": "Department routing, duplicate detection and lifecycle tracking for citizen grievances",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Grievances", "description": "Filing, tracking and status changes"},
        {"name": "Classification", "description": "Department routing and duplicate detection"},
        {"name": "Reminders", "description": "Stale grievance reminders and notification logs"}
    ],
    "paths": {
        "/classify": {
            "post": {
                "tags": ["Classification"],
                "summary": "Route petition text to a department",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ClassifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/similarity": {
            "post": {
                "tags": ["Classification"],
                "summary": "Find grievances similar to draft text",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SimilarityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grievances": {
            "post": {
                "tags": ["Grievances"],
                "summary": "File a grievance",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SubmitGrievanceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grievances/track": {
            "post": {
                "tags": ["Grievances"],
                "summary": "Track a grievance by tracking ID and phone",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TrackRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK, found=false when the grievance is unknown or the phone does not match", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grievances/{trackingId}/remind": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Remind the officer about one grievance",
                "parameters": [
                    {"in": "path", "name": "trackingId", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Grievances"],
                "summary": "List departments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{department}/grievances": {
            "get": {
                "tags": ["Grievances"],
                "summary": "List a department's grievances",
                "parameters": [
                    {"in": "path", "name": "department", "required": true, "type": "string"},
                    {"in": "query", "name": "priority", "type": "string", "enum": ["High", "Medium", "Low"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown department or priority", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{department}/grievances/{trackingId}/status": {
            "patch": {
                "tags": ["Grievances"],
                "summary": "Change a grievance status",
                "parameters": [
                    {"in": "path", "name": "department", "required": true, "type": "string"},
                    {"in": "path", "name": "trackingId", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{department}/grievances/{trackingId}/timeline": {
            "get": {
                "tags": ["Grievances"],
                "summary": "Get a grievance timeline",
                "parameters": [
                    {"in": "path", "name": "department", "required": true, "type": "string"},
                    {"in": "path", "name": "trackingId", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{department}/reminders/pending": {
            "get": {
                "tags": ["Reminders"],
                "summary": "List grievances due for a reminder",
                "parameters": [
                    {"in": "path", "name": "department", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders": {
            "get": {
                "tags": ["Reminders"],
                "summary": "List sent reminders",
                "parameters": [
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/scan": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Run the stale grievance reminder scan now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Scan already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/stats": {
            "get": {
                "tags": ["Reminders"],
                "summary": "Reminder statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/export": {
            "get": {
                "tags": ["Reminders"],
                "summary": "Download the reminder log",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Reminders"],
                "summary": "List sent status notifications",
                "parameters": [
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ClassifyRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {
                "text": {"type": "string"}
            }
        },
        "SimilarityRequest": {
            "type": "object",
            "required": ["text", "department"],
            "properties": {
                "text": {"type": "string"},
                "department": {"type": "string"},
                "threshold": {"type": "number"}
            }
        },
        "SubmitGrievanceRequest": {
            "type": "object",
            "required": ["name", "phone", "address", "petition_type", "subject", "description", "department"],
            "properties": {
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "petition_type": {"type": "string"},
                "subject": {"type": "string"},
                "description": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "TrackRequest": {
            "type": "object",
            "required": ["tracking_id", "phone"],
            "properties": {
                "tracking_id": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "UpdateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["pending", "in_progress", "resolved", "rejected"]},
                "comment": {"type": "string"}
            }
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
