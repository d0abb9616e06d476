package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/dsolovyev/neonwear/internal/handlers"
	"github.com/dsolovyev/neonwear/internal/handlers/admin"
	"github.com/dsolovyev/neonwear/internal/handlers/cart"
	"github.com/dsolovyev/neonwear/internal/handlers/checkout"
	"github.com/dsolovyev/neonwear/internal/handlers/orders"
	"github.com/dsolovyev/neonwear/internal/service/token"
)

type Deps struct {
	Tokens          *token.Service
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	SearchHandler   *handlers.SearchHandler
	CartHandler     *cart.CartHandler
	CheckoutHandler *checkout.CheckoutHandler
	OrderHandler    *orders.OrderHandler
	AdminHandler    *admin.AdminHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/logout", d.AuthHandler.LogOut)

	api.GET("/products", d.ProductHandler.GetProducts)
	api.GET("/products/:id", d.ProductHandler.GetProduct)
	if d.SearchHandler != nil {
		api.GET("/search", d.SearchHandler.Search)
	}

	cartGroup := api.Group("/cart", d.Tokens.RequireLogin)
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.POST("", d.CartHandler.AddToCart)
	cartGroup.PUT("", d.CartHandler.SetQuantity)
	cartGroup.DELETE("", d.CartHandler.RemoveFromCart)

	api.POST("/checkout", d.CheckoutHandler.Checkout, d.Tokens.RequireLogin)
	if d.CheckoutHandler.Provider != nil {
		api.POST("/webhooks/payment", d.CheckoutHandler.HandleWebhook)
	}

	api.GET("/orders", d.OrderHandler.ListOrders, d.Tokens.RequireLogin)

	adminGroup := api.Group("/admin", d.Tokens.RequireAdmin)
	adminGroup.GET("/stats", d.AdminHandler.GetStats)
	adminGroup.GET("/products", d.AdminHandler.ListProducts)
	adminGroup.POST("/products", d.AdminHandler.CreateProduct)
	adminGroup.PUT("/products/:id", d.AdminHandler.UpdateProduct)
	adminGroup.DELETE("/products/:id", d.AdminHandler.DeleteProduct)
}
