package handler

import (
	"net/http"

	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 出品者向け /seller
type SellerHandler struct {
	orders *usecase.AdminOrderUsecase
	status *usecase.OrderStatusUsecase
}

func NewSellerHandler(orders *usecase.AdminOrderUsecase, status *usecase.OrderStatusUsecase) *SellerHandler {
	return &SellerHandler{orders: orders, status: status}
}

type SubOrderStatusUpdateRequest struct {
	Status           string  `json:"status"`
	TrackingNumber   *string `json:"tracking_number"`
	ShippingProvider *string `json:"shipping_provider"`
}

func (r SubOrderStatusUpdateRequest) input() usecase.SubOrderStatusInput {
	return usecase.SubOrderStatusInput{
		Status:           r.Status,
		TrackingNumber:   r.TrackingNumber,
		ShippingProvider: r.ShippingProvider,
	}
}

func (h *SellerHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/seller")
	g.Use(auth)
	g.Use(middleware.RequireRoles(model.RoleSeller))

	g.GET("/suborders", h.list)
	g.PUT("/suborders/:id/status", h.updateStatus)
	g.POST("/suborders/:id/cancel", h.cancel)
}

func (h *SellerHandler) list(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	page, limit, err := parsePaging(c, 20)
	if err != nil {
		return badRequest(c, err.Error())
	}

	out, err := h.orders.ListSellerSubOrders(c.Request().Context(), actor, c.QueryParam("status"), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "ok", out)
}

func (h *SellerHandler) updateStatus(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req SubOrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.status.UpdateSubOrderStatus(c.Request().Context(), actor, id, req.input())
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "updated", out)
}

func (h *SellerHandler) cancel(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.status.CancelSubOrder(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "suborder canceled", out)
}
