package handlers

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trackboard/trackboard/internal/logging"
	"github.com/trackboard/trackboard/internal/mykafka"
)

// publishEvent fires an activity event best-effort. A nil producer (tests,
// brokerless deployments) and broker errors are both non-fatal.
func publishEvent(c echo.Context, p *mykafka.Producer, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
