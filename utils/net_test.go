package utils

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestGetIPAddressFromHeader(t *testing.T) {
	ip := "123.45.67.89"

	// CF-Connecting-IP preferred, then X-Real-Ip, then X-Forwarded-For, then the socket address
	app := fiber.New()
	c := app.AcquireCtx(&fasthttp.RequestCtx{})
	c.Request().Header.Set("CF-Connecting-IP", ip)
	c.Request().Header.Set("X-Real-Ip", "not-the-ip")
	c.Request().Header.Set("X-Forwarded-For", "not-the-ip")
	assert.Equal(t, ip, IPAddress(c))
	app.ReleaseCtx(c)

	c = app.AcquireCtx(&fasthttp.RequestCtx{})
	c.Request().Header.Set("X-Real-Ip", ip)
	c.Request().Header.Set("X-Forwarded-For", "not-the-ip")
	assert.Equal(t, ip, IPAddress(c))
	app.ReleaseCtx(c)

	c = app.AcquireCtx(&fasthttp.RequestCtx{})
	c.Request().Header.Set("X-Forwarded-For", ip)
	assert.Equal(t, ip, IPAddress(c))
	app.ReleaseCtx(c)
}
