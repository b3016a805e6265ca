package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"songforge/internal/logger"
	"songforge/internal/models"
	"songforge/internal/payments/services"
	"songforge/internal/payments/storage"
	"songforge/internal/utils"
)

// OrderService is the slice of the order domain the payment flow needs:
// the server-side price, and the paid flip on success.
type OrderService interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	MarkPaid(ctx context.Context, id string) (*models.Order, error)
}

type StripeHandler struct {
	stripeService *services.StripeService
	paymentStore  storage.Store
	orderService  OrderService
	logger        *logger.Logger
}

func NewStripeHandler(stripeService *services.StripeService, paymentStore storage.Store, orderService OrderService, log *logger.Logger) *StripeHandler {
	return &StripeHandler{
		stripeService: stripeService,
		paymentStore:  paymentStore,
		orderService:  orderService,
		logger:        log,
	}
}

// ProcessPayment charges an order. The amount always comes from the order
// record, never from the request body.
func (h *StripeHandler) ProcessPayment(c *gin.Context) {
	var req models.StripePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.InvalidPayload(err.Error()))
		return
	}

	if req.OrderID == "" {
		c.JSON(http.StatusBadRequest, utils.InvalidPayload("order_id is required"))
		return
	}
	if req.Token == "" {
		c.JSON(http.StatusBadRequest, utils.InvalidPayload("token is required"))
		return
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}

	payment, err := h.paymentStore.GetPaymentByOrderID(req.OrderID)
	if err != nil {
		// First charge attempt for this order: seed the payment record
		// from the order's server-side price.
		order, orderErr := h.orderService.GetOrder(c.Request.Context(), req.OrderID)
		if orderErr != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "No order found for this order_id"))
			return
		}

		payment = &models.Payment{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			Amount:    order.Price,
			Currency:  req.Currency,
			Status:    "pending",
			CreatedAt: time.Now().UTC(),
		}
		if err := h.paymentStore.SavePayment(payment); err != nil {
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment creation failed", err.Error()))
			return
		}
		h.logger.Info("PAYMENT", fmt.Sprintf("Created payment record %s for order %s (%.2f)", payment.ID, order.ID, payment.Amount))
	}

	if payment.Status == "completed" {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Already paid", "This order has already been paid"))
		return
	}

	req.Amount = payment.Amount
	req.PaymentID = payment.ID

	result, err := h.stripeService.ProcessPayment(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment processing failed", err.Error()))
		return
	}

	payment.Status = result.Status
	payment.PaymentIntentID = result.PaymentIntentID
	if err := h.paymentStore.UpdatePayment(payment); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Failed to update payment record %s: %v", payment.ID, err))
	}

	if result.Status == "completed" {
		if _, err := h.orderService.MarkPaid(c.Request.Context(), req.OrderID); err != nil {
			h.logger.Error("ORDER", fmt.Sprintf("Failed to mark order %s paid: %v", req.OrderID, err))
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Order update failed", err.Error()))
			return
		}
		h.logger.Info("ORDER", fmt.Sprintf("Order %s marked paid", req.OrderID))
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment processed", gin.H{
		"stripe_result":  result,
		"payment_record": payment,
	}))
}

// GetPaymentByOrder returns the payment record for an order.
func (h *StripeHandler) GetPaymentByOrder(c *gin.Context) {
	orderID := c.Param("orderId")

	payment, err := h.paymentStore.GetPaymentByOrderID(orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment not found", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment record", payment))
}

// Health reports store connectivity.
func (h *StripeHandler) Health(c *gin.Context) {
	if err := h.paymentStore.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse("Store unavailable", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("OK", nil))
}
