package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Attendance Realtime API",
        "description": "Geolocation and session broadcast backend for campus attendance marking",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Admin", "description": "HTTP mirror of the admin broadcast state"},
        {"name": "Sessions", "description": "Attendance session lifecycle"},
        {"name": "Realtime", "description": "Websocket broadcast channel"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Upgrade to the realtime broadcast channel",
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/api/admin/location": {
            "get": {
                "tags": ["Admin"],
                "summary": "Get the current admin location",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No location set"}
                }
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Set the admin location",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid latitude or longitude"}
                }
            }
        },
        "/api/admin/settings": {
            "get": {
                "tags": ["Admin"],
                "summary": "Get the admin settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/admin/data": {
            "get": {
                "tags": ["Admin"],
                "summary": "Get combined admin location and settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No location set"}
                }
            }
        },
        "/api/sessions/start": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Start an attendance session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StartSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing required fields"},
                    "409": {"description": "An active session already exists for this course"}
                }
            }
        },
        "/api/sessions/end": {
            "post": {
                "tags": ["Sessions"],
                "summary": "End an attendance session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EndSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No active session found"}
                }
            }
        },
        "/api/sessions/active/{lecturerId}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List a lecturer's active sessions",
                "parameters": [
                    {"name": "lecturerId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/sessions/{sessionId}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get a session by ID",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown session"}
                }
            }
        }
    },
    "definitions": {
        "UpdateLocationRequest": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
            },
            "required": ["latitude", "longitude"]
        },
        "StartSessionRequest": {
            "type": "object",
            "properties": {
                "lecturerId": {"type": "string"},
                "lecturerName": {"type": "string"},
                "courseCode": {"type": "string"},
                "courseTitle": {"type": "string"},
                "program": {"type": "string"},
                "level": {"type": "string"},
                "venue": {"type": "string"},
                "location": {"$ref": "#/definitions/GeoPoint"},
                "attendanceMethod": {"type": "string", "enum": ["gps", "qr", "manual", "hybrid"]}
            },
            "required": ["lecturerId", "courseCode", "program", "level"]
        },
        "EndSessionRequest": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "lecturerId": {"type": "string"}
            },
            "required": ["sessionId", "lecturerId"]
        },
        "GeoPoint": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
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
