package api

import (
	xhttp "Lenxys/pkg/http"

	"github.com/labstack/echo/v4"
)

// Router registers a set of handlers on one server.
type Router []xhttp.Handler

func NewRouter(hs ...xhttp.Handler) Router { return Router(hs) }

func (r Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}
