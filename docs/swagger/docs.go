// Package swagger содержит зарегистрированную OpenAPI-спецификацию,
// отдаваемую по /swagger/*. Перегенерация: swag init -g cmd/api/main.go
// -o docs/swagger.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@route-context-service.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Проверка живости сервиса",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/solve": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Solve"],
                "summary": "Построение маршрутов доставки с контекстным обогащением",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "422": {"description": "Unprocessable Entity"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/api/v1/observations/weather": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Observations"],
                "summary": "Приём наблюдения погоды",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/api/v1/observations/traffic": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Observations"],
                "summary": "Приём наблюдения трафика",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Route Context Service API",
	Description:      "Сервис планирования маршрутов доставки с контекстным обогащением.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
