package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voipshop/internal/checkout"
	"voipshop/internal/domain"
	"voipshop/internal/quoteapi"
)

type handlers struct {
	svc    storefrontService
	logger *zap.Logger
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type deltaRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

func (h *handlers) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.svc.Catalog()})
}

func (h *handlers) createSession(c *gin.Context) {
	id, err := h.svc.NewSession(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": id})
}

func (h *handlers) cart(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Cart(c.Request.Context(), sessionID(c)))
}

func (h *handlers) clearCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ClearCart(c.Request.Context(), sessionID(c)))
}

func (h *handlers) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Snapshot(c.Request.Context(), sessionID(c)))
}

func (h *handlers) totals(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Totals(c.Request.Context(), sessionID(c)))
}

func (h *handlers) setQuantity(c *gin.Context) {
	var req quantityRequest
	if !h.bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.SetQuantity(c.Request.Context(), sessionID(c), c.Param("itemID"), *req.Quantity))
}

func (h *handlers) adjustItem(c *gin.Context) {
	var req deltaRequest
	if !h.bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.Increment(c.Request.Context(), sessionID(c), c.Param("itemID"), *req.Delta))
}

func (h *handlers) adjustMonthly(c *gin.Context) {
	var req deltaRequest
	if !h.bind(c, &req) {
		return
	}
	v, err := h.svc.AdjustMonthly(c.Request.Context(), sessionID(c), c.Param("name"), *req.Delta)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) selectPackage(c *gin.Context) {
	var req domain.PackageChoice
	if !h.bind(c, &req) {
		return
	}
	v, err := h.svc.SelectPackage(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) selectPorting(c *gin.Context) {
	var req domain.PortingChoice
	if !h.bind(c, &req) {
		return
	}
	v, err := h.svc.SelectPorting(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) clearPorting(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ClearPorting(c.Request.Context(), sessionID(c)))
}

func (h *handlers) completeOrder(c *gin.Context) {
	var req checkout.OrderDetails
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.svc.CompleteOrder(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", resp)
}

func (h *handlers) sendQuote(c *gin.Context) {
	var req checkout.Customer
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.svc.SendQuote(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", resp)
}

func (h *handlers) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return false
	}
	return true
}

// writeError maps service errors to status codes. Unknown errors are logged
// and answered with a generic message.
func (h *handlers) writeError(c *gin.Context, err error) {
	var (
		ve     checkout.ValidationErrors
		apiErr *quoteapi.APIError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "validation failed", "errors": ve})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"message": "a submission is already in progress"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"message": apiErr.Message, "upstreamStatus": apiErr.Status})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"message": "upstream request timed out"})
	default:
		h.logger.Error("request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
