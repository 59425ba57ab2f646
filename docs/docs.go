// Package docs registers the OpenAPI document served under /swagger.
// Keep it in step with the @-annotations in internal/handlers.
package docs

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
    "paths": {
        "/health": {
            "get": {
                "description": "Always 200 while the process serves; \"degraded\" when sensor acquisition is failing.",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "status, acquisition", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/sensors": {
            "get": {
                "description": "Every sensor seen so far with its latest reading, statistics over retained history, threshold and alert state.",
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "List sensors",
                "responses": {
                    "200": {"description": "count, sensors", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/sensors/history": {
            "get": {
                "description": "Retained readings of one sensor, oldest first. 'minutes' limits the window to the last N minutes.",
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "Sensor history",
                "parameters": [
                    {"type": "string", "example": "coretemp-isa-0000", "description": "Chip label", "name": "chip", "in": "query", "required": true},
                    {"type": "string", "example": "Core 0", "description": "Feature label", "name": "feature", "in": "query", "required": true},
                    {"type": "integer", "description": "Only readings from the last N minutes", "name": "minutes", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "identity, count, readings", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/sensors/state": {
            "get": {
                "description": "Persisted per-sensor state, available across restarts.",
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "Last known sensor state",
                "responses": {
                    "200": {"description": "count, states", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/alerts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["alerts"],
                "summary": "Alert states",
                "responses": {
                    "200": {"description": "count, alerts", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/events": {
            "get": {
                "description": "Filter journal events by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List journal events",
                "parameters": [
                    {"type": "string", "example": "2026-02-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2026-02-28", "description": "End of range. Date-only treated as end of day.", "name": "to", "in": "query"},
                    {"enum": ["alert", "health_degraded", "health_recovered"], "type": "string", "description": "Event type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket. Sends a \"sensors\" snapshot on connect, then one envelope per notification (reading, alert, health_degraded, health_recovered). ?types= filters notification types; ?interval= adds periodic snapshots.",
                "tags": ["stream"],
                "summary": "Notification stream",
                "parameters": [
                    {"type": "string", "example": "alert,health_degraded", "description": "Comma-separated notification types", "name": "types", "in": "query"},
                    {"type": "string", "description": "Periodic snapshot interval, e.g. 5s", "name": "interval", "in": "query"}
                ],
                "responses": {}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Thermal Telemetry API",
	Description:      "Hardware temperature polling, history, alerting and notification stream.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
