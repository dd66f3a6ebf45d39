package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger is anything with a liveness probe: *sql.DB satisfies it directly,
// Redis through PingFunc.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health reports "ok" when every dependency answers and 503 with the
// failing names otherwise. Load balancers poll it.
func Health(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := reqCtx(c)
		defer cancel()

		down := echo.Map{}
		for name, p := range deps {
			if err := p.PingContext(ctx); err != nil {
				down[name] = err.Error()
			}
		}
		if len(down) > 0 {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"success": false, "down": down})
		}
		return c.String(http.StatusOK, "ok")
	}
}
