package handler

import (
	"net/http"
	"strconv"
	"strings"

	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"
	"marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理者向け /admin
type AdminOrderHandler struct {
	orders    *usecase.AdminOrderUsecase
	status    *usecase.OrderStatusUsecase
	inventory *usecase.InventoryUsecase
	audit     *usecase.AuditLogUsecase
}

func NewAdminOrderHandler(
	orders *usecase.AdminOrderUsecase,
	status *usecase.OrderStatusUsecase,
	inventory *usecase.InventoryUsecase,
	audit *usecase.AuditLogUsecase,
) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, status: status, inventory: inventory, audit: audit}
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type SetStockRequest struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Stock     *int64 `json:"stock"`
	Note      string `json:"note"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	admin := e.Group("/admin")
	admin.Use(auth)
	admin.Use(middleware.RequireRoles(model.RoleAdmin))

	admin.GET("/orders", h.list)
	admin.PUT("/orders/:id/status", h.updateStatus)
	admin.PUT("/orders/:id/payment-status", h.updatePaymentStatus)
	admin.PUT("/suborders/:id/status", h.updateSubOrderStatus)
	admin.PUT("/inventory", h.setStock)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	page, limit, err := parsePaging(c, 50)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var customerID *int64
	if v := c.QueryParam("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid customer_id")
		}
		customerID = &id
	}

	from, ok := usecase.ParseDateTimeRFC3339(c.QueryParam("from"))
	if !ok {
		return badRequest(c, "invalid from")
	}
	to, ok := usecase.ParseDateTimeRFC3339(c.QueryParam("to"))
	if !ok {
		return badRequest(c, "invalid to")
	}

	out, err := h.orders.List(c.Request().Context(), actor, repository.AdminOrderListFilter{
		Page:       page,
		Limit:      limit,
		Status:     c.QueryParam("status"),
		CustomerID: customerID,
		From:       from,
		To:         to,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "ok", out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.status.UpdateOrderStatus(c.Request().Context(), actor, orderID, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "updated", out)
}

func (h *AdminOrderHandler) updatePaymentStatus(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.status.UpdatePaymentStatus(c.Request().Context(), actor, orderID, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "updated", out)
}

func (h *AdminOrderHandler) updateSubOrderStatus(c echo.Context) error {
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

func (h *AdminOrderHandler) setStock(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req SetStockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Stock == nil {
		return badRequest(c, "stock is required")
	}

	out, err := h.inventory.SetStock(c.Request().Context(), actor, usecase.SetStockInput{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Stock:     *req.Stock,
		Note:      req.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "updated", out)
}

func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var f repository.AuditLogFilter
	if v := c.QueryParam("actor_user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid actor_user_id")
		}
		f.ActorUserID = &id
	}
	if v := c.QueryParam("actor_role"); v != "" {
		role := model.Role(strings.ToUpper(v))
		f.ActorRole = &role
	}
	if v := c.QueryParam("order_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid order_id")
		}
		f.OrderID = &id
	}
	if v := c.QueryParam("from"); v != "" {
		t, ok := usecase.ParseDateTimeRFC3339(v)
		if !ok {
			return badRequest(c, "invalid from")
		}
		f.CreatedFrom = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, ok := usecase.ParseDateTimeRFC3339(v)
		if !ok {
			return badRequest(c, "invalid to")
		}
		f.CreatedTo = t
	}
	if v := c.QueryParam("resource_type"); v != "" {
		rt := model.AuditResourceType(v)
		f.ResourceType = &rt
	}
	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid resource_id")
		}
		f.ResourceID = &id
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		f.Limit = l
	}
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid offset")
		}
		f.Offset = o
	}

	logs, err := h.audit.List(c.Request().Context(), actor, f)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "ok", logs)
}
