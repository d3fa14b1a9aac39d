package routes

import (
	"homefix_orders/internal/adapter/http/handlers"
	"homefix_orders/internal/adapter/http/middleware"
	"homefix_orders/internal/domain/entities"

	"github.com/gin-gonic/gin"
)

const (
	PathOrders = "/orders"
	PathAdmin  = "/admin"
)

func addOrderRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc, orderHandler *handlers.OrderHandler, paymentHandler *handlers.PaymentHandler) {
	orders := rg.Group(PathOrders, auth)
	{
		orders.POST("", orderHandler.PlaceOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PATCH("/:id/status", orderHandler.Transition)
		orders.POST("/:id/invoice", orderHandler.Invoice)
		orders.POST("/:id/follow-up", orderHandler.ProposeFollowUp)
		orders.POST("/:id/follow-up/schedule", orderHandler.ScheduleFollowUp)
		orders.POST("/:id/payment", paymentHandler.ConfirmPayment)
		orders.GET("/:id/ws", orderHandler.WatchOrder)
	}
}

func addAdminRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc, adminHandler *handlers.AdminHandler) {
	admin := rg.Group(PathAdmin, auth, middleware.RequireRoles(entities.RoleAdmin))
	{
		admin.POST("/accounts/:kind/:id/blacklist", adminHandler.SetBlacklist)
	}
}
