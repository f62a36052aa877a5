package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Housing Board API",
        "description": "Party announcements, read receipts and disturbance alerts for a student housing complex",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Announcements", "description": "Party announcements and read receipts"},
        {"name": "Reports", "description": "Disturbance reports"},
        {"name": "Students", "description": "Residents"}
    ],
    "paths": {
        "/announcements": {
            "get": {
                "tags": ["Announcements"],
                "summary": "List announcements ascending by event time",
                "parameters": [
                    {"name": "filter", "in": "query", "type": "string", "enum": ["all", "future"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Announcement"}}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "post": {
                "tags": ["Announcements"],
                "summary": "Announce a party; turns the light on once stored",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAnnouncementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/MessageBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Unknown student", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/announcements/{id}": {
            "get": {
                "tags": ["Announcements"],
                "summary": "Get one announcement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Announcement"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/announcements/{id}/read": {
            "post": {
                "tags": ["Announcements"],
                "summary": "Mark an announcement as read; repeating the call is harmless",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkReadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MessageBody"}},
                    "404": {"description": "Unknown announcement or student", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/announcements/{id}/readers": {
            "get": {
                "tags": ["Announcements"],
                "summary": "Names of the students that read an announcement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Report an unannounced party; sounds the alarm once stored",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/MessageBody"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Student"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "Announcement": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "datetime": {"type": "string", "format": "date-time"},
                "description": {"type": "string"},
                "studentId": {"type": "integer"},
                "createdAt": {"type": "string", "format": "date-time"},
                "organizer": {"type": "string"}
            }
        },
        "CreateAnnouncementRequest": {
            "type": "object",
            "required": ["studentId", "title", "datetime", "description"],
            "properties": {
                "studentId": {"type": "integer"},
                "title": {"type": "string"},
                "datetime": {"type": "string", "example": "2030-12-31T20:00"},
                "description": {"type": "string"}
            }
        },
        "MarkReadRequest": {
            "type": "object",
            "required": ["studentId"],
            "properties": {
                "studentId": {"type": "integer"}
            }
        },
        "CreateReportRequest": {
            "type": "object",
            "required": ["studentId"],
            "properties": {
                "studentId": {"type": "integer"},
                "description": {"type": "string"}
            }
        },
        "Student": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "MessageBody": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "id": {"type": "integer"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"}
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
