package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "WorkTrack API",
        "description": "Field maintenance data collection backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh, password management"},
        {"name": "Sessions", "description": "Interactive form capture sessions"},
        {"name": "Records", "description": "Submitted maintenance records"},
        {"name": "Exports", "description": "Asynchronous CSV/PDF exports"},
        {"name": "Sites", "description": "GP site lookup"},
        {"name": "Dashboard", "description": "Submission summaries"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Access and refresh tokens"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Open a form session",
                "responses": {
                    "201": {"description": "Session state"}
                }
            }
        },
        "/sessions/{id}/actions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Apply a form action",
                "responses": {
                    "200": {"description": "Updated session state"}
                }
            }
        },
        "/sessions/{id}/evidence": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Capture photo evidence",
                "responses": {
                    "200": {"description": "Updated session state"},
                    "409": {"description": "Capture device busy"}
                }
            }
        },
        "/sessions/{id}/submit": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Submit the session",
                "responses": {
                    "201": {"description": "Stored record reference"},
                    "400": {"description": "Validation report"},
                    "503": {"description": "Persistence failure"}
                }
            }
        },
        "/records": {
            "get": {
                "tags": ["Records"],
                "summary": "List submitted records",
                "responses": {
                    "200": {"description": "Paginated record rows"}
                }
            }
        },
        "/records/export": {
            "get": {
                "tags": ["Records"],
                "summary": "Export filtered records as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV attachment"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a record export",
                "responses": {
                    "202": {"description": "Queued job"}
                }
            }
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Submission dashboard summary",
                "responses": {
                    "200": {"description": "Aggregated counts"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "retryable": {"type": "boolean"}
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
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"},
                "totalPages": {"type": "integer"}
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
