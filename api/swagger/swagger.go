package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Experience Availability API",
        "description": "Availability resolution and booking engine for experience products",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Availability", "description": "Resolved slot availability"},
        {"name": "Bookings", "description": "Reservation flow and booking lifecycle"},
        {"name": "Schedules", "description": "Recurring weekly rule administration"},
        {"name": "Overrides", "description": "Date exceptions at product or global scope"},
        {"name": "Settings", "description": "Per-product booking policy"},
        {"name": "Products", "description": "Product deletion cascade"},
        {"name": "Exports", "description": "Day manifest exports"},
        {"name": "Status", "description": "Runtime metrics"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolved availability for one product and date",
                "parameters": [
                    {"name": "product_id", "in": "query", "type": "integer", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/range": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolved availability for a date range",
                "parameters": [
                    {"name": "product_id", "in": "query", "type": "integer", "required": true},
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/check": {
            "get": {
                "tags": ["Availability"],
                "summary": "Check whether one slot can take a party",
                "parameters": [
                    {"name": "product_id", "in": "query", "type": "integer", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "time", "in": "query", "type": "string", "required": true},
                    {"name": "party", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/bookable": {
            "get": {
                "tags": ["Availability"],
                "summary": "Whether a product has any bookable slot inside a window",
                "parameters": [
                    {"name": "product_id", "in": "query", "type": "integer", "required": true},
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings for a product and date",
                "parameters": [
                    {"name": "product_id", "in": "query", "type": "integer", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Create a pending reservation for one slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReserveRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Capacity exceeded or cutoff passed"}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Fetch one booking",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/confirm": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Confirm a pending booking",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/bookings/{id}/cancel": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Cancel a booking and release its seats",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/bookings/{id}/refund": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Mark a booking as refunded",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/schedules": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Create a recurring rule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRuleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "put": {
                "tags": ["Schedules"],
                "summary": "Update a recurring rule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRuleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a recurring rule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/overrides": {
            "put": {
                "tags": ["Overrides"],
                "summary": "Create or replace the override for (product, date)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OverrideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/products/{productId}": {
            "delete": {
                "tags": ["Products"],
                "summary": "Remove a product's rules, overrides and settings",
                "parameters": [
                    {"name": "productId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/products/{productId}/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List recurring rules for a product",
                "parameters": [
                    {"name": "productId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete every rule for a product",
                "parameters": [
                    {"name": "productId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/products/{productId}/overrides": {
            "get": {
                "tags": ["Overrides"],
                "summary": "List date overrides for a product",
                "parameters": [
                    {"name": "productId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Overrides"],
                "summary": "Delete the override for (product, date)",
                "parameters": [
                    {"name": "productId", "in": "path", "type": "integer", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/products/{productId}/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Effective booking policy for a product",
                "parameters": [
                    {"name": "productId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Replace a product's booking policy",
                "parameters": [
                    {"name": "productId", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/products/{productId}/manifest": {
            "get": {
                "tags": ["Exports"],
                "summary": "Day manifest for a product as CSV or PDF",
                "parameters": [
                    {"name": "productId", "in": "path", "type": "integer", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/status": {
            "get": {
                "tags": ["Status"],
                "summary": "Aggregated runtime metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ReserveRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "adults": {"type": "integer"},
                "children": {"type": "integer"}
            }
        },
        "ScheduleRuleRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "day_of_week": {"type": "integer"},
                "start_time": {"type": "string"},
                "duration_min": {"type": "integer"},
                "capacity": {"type": "integer"},
                "lang": {"type": "string"},
                "meeting_point_id": {"type": "integer"},
                "price_adult": {"type": "number"},
                "price_child": {"type": "number"},
                "is_active": {"type": "boolean"}
            }
        },
        "OverrideRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "date": {"type": "string"},
                "is_closed": {"type": "boolean"},
                "capacity_override": {"type": "integer"},
                "price_override": {
                    "type": "object",
                    "properties": {
                        "adult": {"type": "number"},
                        "child": {"type": "number"}
                    }
                },
                "reason": {"type": "string"}
            }
        },
        "SettingsRequest": {
            "type": "object",
            "properties": {
                "cutoff_minutes": {"type": "integer"}
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
