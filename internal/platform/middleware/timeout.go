package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout sets a deadline on each request's context. The handler runs
// on the request goroutine with its output buffered; if the deadline has
// passed by the time it returns, the buffered output is dropped and the
// client gets 504 instead. Report rendering does not observe the context, so
// the deadline mainly bounds the snapshot fetch.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			res := c.Response()
			orig := res.Writer
			buf := newBufferedWriter(orig.Header())
			res.Writer = buf

			err := next(c)

			res.Writer = orig
			res.Committed = false
			res.Status = http.StatusOK
			res.Size = 0

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return gatewayTimeoutError(c)
			}
			if !buf.wrote {
				return err
			}
			for k, v := range buf.header {
				res.Header()[k] = v
			}
			res.WriteHeader(buf.status)
			if _, werr := res.Write(buf.body.Bytes()); werr != nil {
				return werr
			}
			return err
		}
	}
}

func gatewayTimeoutError(c echo.Context) error {
	return c.JSON(http.StatusGatewayTimeout, map[string]string{
		"error": "request processing exceeded the allowed time limit",
	})
}

// bufferedWriter holds a handler's response until the timeout middleware
// decides whether to send it.
type bufferedWriter struct {
	header http.Header
	status int
	wrote  bool
	body   bytes.Buffer
}

func newBufferedWriter(base http.Header) *bufferedWriter {
	h := base.Clone()
	if h == nil {
		h = http.Header{}
	}
	return &bufferedWriter{header: h, status: http.StatusOK}
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) WriteHeader(code int) {
	if w.wrote {
		return
	}
	w.status = code
	w.wrote = true
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	w.wrote = true
	return w.body.Write(p)
}
