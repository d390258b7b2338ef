package security

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		cfg     HeadersConfig
		hsts    bool
		connect string
	}{
		{
			name:    "development",
			cfg:     HeadersConfig{IsDevelopment: true},
			connect: "connect-src 'self' ws: wss:;",
		},
		{
			name:    "production with origins",
			cfg:     HeadersConfig{AllowedOrigins: []string{"https://reports.example.org"}},
			hsts:    true,
			connect: "connect-src 'self' ws: wss: https://reports.example.org;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(HeadersMiddleware(tt.cfg))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)

			csp := resp.Header.Get("Content-Security-Policy")
			assert.Contains(t, csp, "script-src 'self' 'unsafe-inline' 'unsafe-eval' https:;")
			assert.Contains(t, csp, tt.connect)
			assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
			assert.Equal(t, tt.hsts, resp.Header.Get("Strict-Transport-Security") != "")
		})
	}
}
