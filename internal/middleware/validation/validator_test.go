package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	app := fiber.New()
	mw := Middleware(Config{MaxLimit: 100})
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/report/:page", mw, ok)
	app.Get("/districts", mw, ok)

	tests := []struct {
		target string
		status int
	}{
		{"/report/friction-landscape", fiber.StatusOK},
		{"/report/friction-landscape?tab=weekend-gap", fiber.StatusOK},
		{"/report/Friction", fiber.StatusBadRequest},
		{"/report/" + strings.Repeat("a", 65), fiber.StatusBadRequest},
		{"/report/anomaly-detection?tab=../x", fiber.StatusBadRequest},
		{"/districts?state=Uttar%20Pradesh&limit=15", fiber.StatusOK},
		{"/districts?state=%3Cscript%3E", fiber.StatusBadRequest},
		{"/districts?limit=0", fiber.StatusBadRequest},
		{"/districts?limit=101", fiber.StatusBadRequest},
		{"/districts?limit=ten", fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.target, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Bihar", SanitizeString("  Bi\x00har "))
}
