package handlers

import (
	_ "embed"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// API docs
// ============================================================

//go:embed docs/openapi.yaml
var openAPISpec []byte

// OpenAPISpec отдаёт описание API в YAML.
func (h *Handler) OpenAPISpec(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/yaml")
	return c.Send(openAPISpec)
}

// SwaggerUI отдаёт страницу Swagger UI поверх /docs/openapi.yaml.
func (h *Handler) SwaggerUI(c fiber.Ctx) error {
	const page = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>Room Passport API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({ url: '/docs/openapi.yaml', dom_id: '#swagger-ui' });
  };
</script>
</body>
</html>`

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(page)
}
