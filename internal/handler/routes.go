package handler

import "github.com/labstack/echo/v4"

// Register mounts every route. Catalog browsing, shop pages, and
// reviews are public reads; everything that mutates state sits behind
// the authentication middleware. The billing webhook authenticates by
// signature, not by token.
func (h *Handler) Register(e *echo.Echo, authenticate echo.MiddlewareFunc) {
	api := e.Group("/api/v1")

	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/shops/:id", h.GetShop)
	api.GET("/reviews", h.ListReviews)

	auth := api.Group("", authenticate)

	auth.POST("/products", h.CreateProduct)

	auth.POST("/orders/checkout", h.Checkout)
	auth.GET("/orders", h.ListMyOrders)
	auth.GET("/orders/:id", h.GetOrder)
	auth.PATCH("/orders/:id/status", h.ChangeOrderStatus)
	auth.POST("/orders/:id/mark-paid", h.MarkOrderPaid)
	auth.POST("/orders/:id/cancel", h.CancelOrder)
	auth.POST("/orders/:id/refund", h.RefundOrder)

	auth.GET("/shops/:id/orders", h.ListShopOrders)
	auth.PUT("/shops/:id/payout-account", h.RegisterPayoutAccount)
	auth.GET("/shops/:id/coupons", h.ListShopCoupons)

	auth.POST("/coupons", h.CreateCoupon)
	auth.POST("/coupons/preview", h.PreviewCoupon)

	auth.POST("/reviews", h.CreateReview)

	e.POST("/webhooks/billing", h.BillingWebhook)
}
