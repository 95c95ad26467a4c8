package booking

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cleanbook/internal/middleware"
	"cleanbook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes registers routes that need no identity.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/services/:id/slots", h.GetSlots)
}

// RegisterRoutes registers routes behind the identity middleware.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/reservations", h.Reserve)
	protected.GET("/reservations/:id", h.Get)
	protected.PATCH("/reservations/:id/cancel", h.Cancel)
	protected.PATCH("/reservations/:id/status", h.ChangeStatus)
	protected.PATCH("/reservations/:id/reschedule", h.Reschedule)
	protected.POST("/reservations/:id/review", h.AttachReview)
	protected.GET("/users/me/reservations", h.ListMine)
}

// RegisterAdminRoutes expects a group already guarded by AdminOnly.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/admin/reservations", h.ListAll)
	admin.PATCH("/reservations/:id/payment", h.UpdatePaymentStatus)
}

func (h *Handler) GetSlots(c *gin.Context) {
	serviceID, ok := pathID(c)
	if !ok {
		return
	}

	av, err := h.service.Availability(c.Request.Context(), serviceID, c.Query("date"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, av)
}

func (h *Handler) Reserve(c *gin.Context) {
	actor, ok := middleware.Principal(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	r, err := h.service.Reserve(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"reservation": r})
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := middleware.Principal(c)
	if !ok {
		unauthorized(c)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	r, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": r})
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, ok := middleware.Principal(c)
	if !ok {
		unauthorized(c)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	r, err := h.service.Release(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": r})
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	actor, ok := middleware.Principal(c)
	if !ok {
		unauthorized(c)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	r, err := h.service.ChangeStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": r})
}

func (h *Handler) Reschedule(c *gin.Context) {
	actor, ok := middleware.Principal(c)
	if !ok {
		unauthorized(c)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	r, err := h.service.Reschedule(c.Request.Context(), actor, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": r})
}

func (h *Handler) AttachReview(c *gin.Context) {
	actor, ok := middleware.Principal(c)
	if !ok {
		unauthorized(c)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	r, err := h.service.AttachReview(c.Request.Context(), actor, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": r})
}

func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := middleware.Principal(c)
	if !ok {
		unauthorized(c)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.service.ListMine(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": items})
}

func (h *Handler) ListAll(c *gin.Context) {
	actor, ok := middleware.Principal(c)
	if !ok {
		unauthorized(c)
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 || q.PerPage > 100 {
		q.PerPage = 20
	}

	items, total, err := h.service.ListAll(c.Request.Context(), actor, q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ReservationList{
		Items:   items,
		Total:   total,
		Page:    q.Page,
		PerPage: q.PerPage,
	})
}

func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	actor, ok := middleware.Principal(c)
	if !ok {
		unauthorized(c)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	r, err := h.service.UpdatePaymentStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": r})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid ID")
		return 0, false
	}
	return id, true
}

func unauthorized(c *gin.Context) {
	response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
}
