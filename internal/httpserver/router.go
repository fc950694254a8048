package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/pedidosapp/pedidos/internal/middleware/auth"
)

type Deps struct {
	AuthHandler     *AuthHTTP
	DishHandler     *DishHTTP
	CartHandler     *CartHTTP
	CheckoutHandler *CheckoutHTTP
	OrderHandler    *OrderHTTP
	JWTSecret       []byte
	UploadDir       string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.Static("/static/uploads", d.UploadDir)

	mw := authmw.New(d.JWTSecret)

	e.POST("/auth/register", d.AuthHandler.Register)
	e.POST("/auth/login", d.AuthHandler.Login)
	e.POST("/auth/refresh", d.AuthHandler.Refresh)

	profile := e.Group("/profile", mw.RequireAuth)
	profile.GET("", d.AuthHandler.Profile)
	profile.PATCH("", d.AuthHandler.UpdateProfile)

	e.GET("/menu", d.DishHandler.Menu)
	e.GET("/menu/:id", d.DishHandler.GetDish)

	cart := e.Group("/cart", mw.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.POST("/items/:id/increment", d.CartHandler.Increment)
	cart.POST("/items/:id/decrement", d.CartHandler.Decrement)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)
	cart.DELETE("", d.CartHandler.Clear)

	checkout := e.Group("/checkout", mw.RequireAuth)
	checkout.POST("/validate", d.CheckoutHandler.Validate)
	checkout.POST("/confirm", d.CheckoutHandler.Confirm)
	checkout.GET("/cep/:cep", d.CheckoutHandler.LookupCEP)

	orders := e.Group("/orders", mw.RequireAuth)
	orders.GET("", d.OrderHandler.History)
	orders.GET("/feed", d.OrderHandler.Feed)
	orders.POST("/:id/cancel", d.OrderHandler.Cancel)

	staff := e.Group("/staff", mw.RequireEmployee)
	staff.GET("/orders", d.OrderHandler.ListAll)
	staff.GET("/orders/feed", d.OrderHandler.StaffFeed)
	staff.PATCH("/orders/:id/status", d.OrderHandler.SetStatus)
	staff.POST("/dishes", d.DishHandler.CreateDish)
	staff.PATCH("/dishes/:id", d.DishHandler.PatchDish)
	staff.DELETE("/dishes/:id", d.DishHandler.DeleteDish)
	staff.POST("/dishes/image", d.DishHandler.UploadImage)
}
