package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Trainer Availability API",
        "description": "Availability storage and slot suggestions for trainers",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Availability", "description": "Trainer availability windows"},
        {"name": "Suggestions", "description": "Ranked slot suggestions"},
        {"name": "Maintenance", "description": "Housekeeping operations"}
    ],
    "paths": {
        "/availabilities": {
            "post": {
                "tags": ["Availability"],
                "summary": "Register an availability window",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateAvailabilityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation or recurrence rule error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlaps an existing available interval", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Availability"],
                "summary": "List expanded availability occurrences",
                "parameters": [
                    {"in": "query", "name": "owner_id", "type": "string", "description": "Admins and coordinators only"},
                    {"in": "query", "name": "start", "type": "string", "description": "RFC3339 or YYYY-MM-DD"},
                    {"in": "query", "name": "end", "type": "string", "description": "RFC3339 or YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availabilities/{id}": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete an availability record",
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "query", "name": "owner_id", "type": "string", "description": "Admins only"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Missing or owned by someone else", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/suggestions": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Suggest ranked trainer slots",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SuggestSlotsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Institution constraints unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/maintenance/purge": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Purge expired availability records",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run already in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/maintenance/status": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Report the most recent purge",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RecurrenceRule": {
            "type": "object",
            "properties": {
                "frequency": {"type": "string", "enum": ["daily", "weekly"]},
                "interval": {"type": "integer", "minimum": 1},
                "by_weekday": {"type": "array", "items": {"type": "string", "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"]}},
                "until": {"type": "string", "format": "date-time"}
            }
        },
        "CreateAvailabilityRequest": {
            "type": "object",
            "required": ["start_time", "end_time"],
            "properties": {
                "owner_id": {"type": "string"},
                "start_time": {"type": "string", "format": "date-time"},
                "end_time": {"type": "string", "format": "date-time"},
                "is_recurring": {"type": "boolean"},
                "recurrence_rule": {"$ref": "#/definitions/RecurrenceRule"},
                "kind": {"type": "string", "enum": ["available", "unavailable"]},
                "note": {"type": "string"}
            }
        },
        "SuggestSlotsRequest": {
            "type": "object",
            "required": ["module_id", "institution_id", "duration_hours"],
            "properties": {
                "module_id": {"type": "string"},
                "institution_id": {"type": "string"},
                "duration_hours": {"type": "number"},
                "preferred_start_date": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
