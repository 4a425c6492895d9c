package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware 按路由模板记录请求数、耗时和进行中的请求。需要在 e.Use 中注册，路由已匹配
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !Metered(c.Request().URL.Path) {
				return next(c)
			}

			done := DefaultHTTPMetrics.Begin(c.Path(), c.Request().Method)
			if err := next(c); err != nil {
				// 交给 echo 的错误处理器写出响应，才能拿到最终状态码
				c.Error(err)
			}
			done(c.Response().Status)
			return nil
		}
	}
}

// EchoHandler 暴露 /metrics
func EchoHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
