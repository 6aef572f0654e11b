// Package swagger holds the generated OpenAPI document served at /docs.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Authenticate a user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange a refresh token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Revoke the caller's sessions",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/enrollments/enroll": {
            "post": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "Enroll a student into course sections",
                "responses": {
                    "201": {"description": "Created"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/enrollments/unenroll": {
            "post": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "Remove a student from a course section",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/enrollments/status": {
            "patch": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "Transition an enrollment's lifecycle status",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/enrollments/availability/{courseId}/{sectionId}": {
            "get": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "Live seat availability for a section",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/enrollments/sync/{courseId}/{sectionId}": {
            "post": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "Recompute seat counters for one section",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/enrollments/sync": {
            "post": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "Recompute seat counters for every section",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/enrollments/stats/{courseId}": {
            "get": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "Occupancy report for a course",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/enrollments/my-enrollments/{studentId}": {
            "get": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "Populated enrollment view for a student",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/enrollments/dashboard-stats": {
            "get": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "Per-faculty enrollment totals",
                "parameters": [
                    {"name": "faculty", "in": "query", "type": "string"},
                    {"name": "major", "in": "query", "type": "string"},
                    {"name": "year_level", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["enrollments"],
                "security": [{"BearerAuth": []}],
                "summary": "List every enrollment record",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["courses"],
                "security": [{"BearerAuth": []}],
                "summary": "List courses",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["courses"],
                "security": [{"BearerAuth": []}],
                "summary": "Course detail with sections",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/courses/{id}/sections/{sectionId}/approval": {
            "patch": {
                "tags": ["courses"],
                "security": [{"BearerAuth": []}],
                "summary": "Change a section's approval status",
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/academic/promote": {
            "post": {
                "tags": ["academic"],
                "security": [{"BearerAuth": []}],
                "summary": "Advance a student cohort by one term",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/academic/promote/preview": {
            "get": {
                "tags": ["academic"],
                "security": [{"BearerAuth": []}],
                "summary": "Preview the students a promotion would move",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "CourseFlow API",
	Description:      "Course registration backend with seat-capacity tracking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
