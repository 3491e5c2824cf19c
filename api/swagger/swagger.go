package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Timetable API",
        "description": "Activity registry, timetable generation and timetable queries.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Activities", "description": "Weekly teaching obligations per semester"},
        {"name": "Scheduler", "description": "Timetable generation and the slot grid"},
        {"name": "Timetable", "description": "Views of the committed timetable"},
        {"name": "Catalog", "description": "Rooms, room types and student groups"}
    ],
    "paths": {
        "/slot-grid": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Get the weekly slot grid",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/activities": {
            "get": {
                "tags": ["Activities"],
                "summary": "List activities of a semester",
                "parameters": [
                    {"name": "semesterId", "in": "query", "type": "string", "required": true},
                    {"name": "instructorId", "in": "query", "type": "string"},
                    {"name": "studentGroupId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Activities"],
                "summary": "Register an activity",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateActivityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities/{id}": {
            "get": {
                "tags": ["Activities"],
                "summary": "Get activity by id",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Activities"],
                "summary": "Update an activity",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateActivityRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Activities"],
                "summary": "Delete an activity",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/semesters/{id}/schedule/generate": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Generate and commit the semester timetable",
                "description": "A run that places nothing is returned with committed=false and the previous timetable is kept. With async=true the run is queued.",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "async", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Generated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown semester", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Generation already in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generation-jobs/{id}": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Get asynchronous generation status",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}/schedule": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get the semester timetable grouped by student group",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "studentGroupId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}/schedule/teachers/{instructorId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get an instructor's entries and reserved time slots",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "instructorId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}/schedule/free-rooms": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List rooms free at a grid cell",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "day", "in": "query", "type": "string", "required": true},
                    {"name": "slot", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}/schedule/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Export the semester timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "studentGroupId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}}
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List rooms",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/room-types": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List room types",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student-groups": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List student groups",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/metrics/summary": {
            "get": {
                "summary": "Process metrics summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "CreateActivityRequest": {
            "type": "object",
            "required": ["semesterId", "courseId", "instructorId", "studentGroupId", "roomTypeId", "duration", "frequencyPerWeek"],
            "properties": {
                "semesterId": {"type": "string"},
                "courseId": {"type": "string"},
                "instructorId": {"type": "string"},
                "studentGroupId": {"type": "string"},
                "roomTypeId": {"type": "string"},
                "duration": {"type": "integer", "minimum": 1},
                "frequencyPerWeek": {"type": "integer", "minimum": 1, "maximum": 7}
            }
        },
        "UpdateActivityRequest": {
            "type": "object",
            "required": ["courseId", "instructorId", "studentGroupId", "roomTypeId", "duration", "frequencyPerWeek"],
            "properties": {
                "courseId": {"type": "string"},
                "instructorId": {"type": "string"},
                "studentGroupId": {"type": "string"},
                "roomTypeId": {"type": "string"},
                "duration": {"type": "integer", "minimum": 1},
                "frequencyPerWeek": {"type": "integer", "minimum": 1, "maximum": 7}
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "properties": {
                "searchBudget": {"type": "integer", "minimum": 1}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
