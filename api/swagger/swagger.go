package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Department Attendance API",
        "description": "Daily class attendance with legacy and yearful class keys",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "tags": [
        {"name": "Classes", "description": "Class sections and key resolution"},
        {"name": "Roster", "description": "Class rosters"},
        {"name": "Attendance", "description": "Daily attendance sheets, marks and locks"},
        {"name": "HOD", "description": "Department overview"},
        {"name": "Settings", "description": "Attendance window"}
    ],
    "parameters": {
        "class": {"name": "class", "in": "query", "type": "string", "description": "Display name, e.g. CSE-A (Year 2)"},
        "canon": {"name": "canon", "in": "query", "type": "string", "description": "Class key, e.g. CSE-A-Y2"},
        "year": {"name": "year", "in": "query", "type": "integer", "minimum": 1, "maximum": 4},
        "date": {"name": "date", "in": "query", "type": "string", "required": true, "description": "YYYY-MM-DD"}
    },
    "paths": {
        "/classes/resolve": {
            "get": {
                "tags": ["Classes"],
                "summary": "Resolve a class reference",
                "parameters": [{"$ref": "#/parameters/class"}, {"$ref": "#/parameters/canon"}, {"$ref": "#/parameters/year"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List department classes",
                "parameters": [{"$ref": "#/parameters/year"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Create class section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Section or mentor already used", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/mine": {
            "get": {
                "tags": ["Classes"],
                "summary": "Classes mentored by the caller",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/roster": {
            "get": {
                "tags": ["Roster"],
                "summary": "Resolve a class roster",
                "parameters": [{"$ref": "#/parameters/class"}, {"$ref": "#/parameters/canon"}, {"$ref": "#/parameters/year"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Roster"],
                "summary": "Replace a class roster",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceRosterRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/roster/students": {
            "post": {
                "tags": ["Roster"],
                "summary": "Add a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddStudentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance sheet for a class-day",
                "parameters": [{"$ref": "#/parameters/class"}, {"$ref": "#/parameters/canon"}, {"$ref": "#/parameters/year"}, {"$ref": "#/parameters/date"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Attendance"],
                "summary": "Save a class-day's marks",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Edit window closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/window": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Edit-window state",
                "parameters": [{"$ref": "#/parameters/class"}, {"$ref": "#/parameters/canon"}, {"$ref": "#/parameters/year"}, {"$ref": "#/parameters/date"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/attendance/marks": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Toggle one student's mark",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ToggleMarkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Edit window closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/bulk": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark or clear every student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkMarkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Edit window closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/lock": {
            "put": {
                "tags": ["Attendance"],
                "summary": "Set a class-day lock time",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetLockRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/hod/overview": {
            "get": {
                "tags": ["HOD"],
                "summary": "Department attendance overview",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "description": "YYYY-MM-DD, defaults to today in IST"},
                    {"$ref": "#/parameters/year"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/settings/schedule": {
            "get": {
                "tags": ["Settings"],
                "summary": "Current attendance window",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Set and enable the attendance window",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/settings/schedule/toggle": {
            "post": {
                "tags": ["Settings"],
                "summary": "Flip the attendance window on or off",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "Mark": {
            "type": "object",
            "properties": {
                "present": {"type": "boolean"},
                "absent": {"type": "boolean"},
                "late": {"type": "boolean"}
            }
        },
        "Mentor": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "Student": {
            "type": "object",
            "required": ["name", "roll_no", "email"],
            "properties": {
                "name": {"type": "string"},
                "roll_no": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "CreateClassRequest": {
            "type": "object",
            "required": ["year", "section"],
            "properties": {
                "year": {"type": "integer", "minimum": 1, "maximum": 4},
                "section": {"type": "string", "pattern": "^[A-Z][0-9]*$"},
                "mentors": {"type": "array", "maxItems": 2, "items": {"$ref": "#/definitions/Mentor"}}
            }
        },
        "ReplaceRosterRequest": {
            "type": "object",
            "properties": {
                "class": {"type": "string"},
                "canon": {"type": "string"},
                "year": {"type": "integer"},
                "students": {"type": "array", "items": {"$ref": "#/definitions/Student"}}
            }
        },
        "AddStudentRequest": {
            "type": "object",
            "properties": {
                "class": {"type": "string"},
                "canon": {"type": "string"},
                "year": {"type": "integer"},
                "name": {"type": "string"},
                "roll_no": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "SaveAttendanceRequest": {
            "type": "object",
            "required": ["date", "marks"],
            "properties": {
                "class": {"type": "string"},
                "canon": {"type": "string"},
                "year": {"type": "integer"},
                "date": {"type": "string"},
                "marks": {"type": "object", "additionalProperties": {"$ref": "#/definitions/Mark"}}
            }
        },
        "ToggleMarkRequest": {
            "type": "object",
            "required": ["date", "roll_no", "status"],
            "properties": {
                "class": {"type": "string"},
                "canon": {"type": "string"},
                "year": {"type": "integer"},
                "date": {"type": "string"},
                "roll_no": {"type": "string"},
                "status": {"type": "string", "enum": ["present", "absent", "late"]}
            }
        },
        "BulkMarkRequest": {
            "type": "object",
            "required": ["date", "status"],
            "properties": {
                "class": {"type": "string"},
                "canon": {"type": "string"},
                "year": {"type": "integer"},
                "date": {"type": "string"},
                "status": {"type": "string", "enum": ["present", "absent", "late", "clear"]}
            }
        },
        "SetLockRequest": {
            "type": "object",
            "required": ["date"],
            "properties": {
                "class": {"type": "string"},
                "canon": {"type": "string"},
                "year": {"type": "integer"},
                "date": {"type": "string"},
                "hhmm": {"type": "string", "description": "Defaults to 15:00"}
            }
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "required": ["start_hhmm", "end_hhmm"],
            "properties": {
                "start_hhmm": {"type": "string"},
                "end_hhmm": {"type": "string"}
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
