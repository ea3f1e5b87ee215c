package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets response headers suited to an API that returns
// clinical PDFs and JSON.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")

			// PDFs are downloaded, never embedded.
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Referrer-Policy", "no-referrer")

			// Reports contain patient data.
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("X-Download-Options", "noopen")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")

			return next(c)
		}
	}
}
