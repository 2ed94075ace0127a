package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-class-booking/internal/model"
	"github.com/iliyamo/studio-class-booking/internal/repository"
)

// WebhookHandler receives checkout notifications from the payment
// provider and credits the purchased sessions. The unique provider
// reference makes redelivery a no-op, so the provider may retry freely.
type WebhookHandler struct {
	Secret    string
	Users     *repository.UserRepo
	Packages  *repository.PackageRepo
	Purchases *repository.PurchaseRepo
}

func NewWebhookHandler(secret string, users *repository.UserRepo, packages *repository.PackageRepo, purchases *repository.PurchaseRepo) *WebhookHandler {
	return &WebhookHandler{Secret: secret, Users: users, Packages: packages, Purchases: purchases}
}

type checkoutEvent struct {
	ProviderRef string `json:"provider_ref"`
	UserID      uint64 `json:"user_id"`
	PackageID   uint64 `json:"package_id"`
	Status      string `json:"status"`
}

// Checkout handles a completed checkout. Non-completed statuses are
// acknowledged and dropped so the provider stops retrying them.
func (h *WebhookHandler) Checkout(c echo.Context) error {
	got := c.Request().Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "bad signature"})
	}

	var ev checkoutEvent
	if err := c.Bind(&ev); err != nil || ev.ProviderRef == "" || ev.UserID == 0 || ev.PackageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if ev.Status != "completed" {
		return c.JSON(http.StatusOK, echo.Map{"ignored": true})
	}

	ctx := c.Request().Context()
	pkg, err := h.Packages.GetActive(ctx, ev.PackageID)
	if err != nil {
		return bookingError(c, err)
	}
	if _, err := h.Users.GetByID(ctx, ev.UserID); err != nil {
		return bookingError(c, err)
	}

	// The unique provider_ref is the idempotency gate: a duplicate
	// means the credit was already granted on an earlier delivery.
	purchase := &model.Purchase{
		ID:            uuid.NewString(),
		UserID:        ev.UserID,
		PackageID:     pkg.ID,
		SessionsAdded: pkg.Sessions,
		ProviderRef:   ev.ProviderRef,
	}
	if err := h.Purchases.RecordWithCredit(ctx, purchase); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusOK, echo.Map{"duplicate": true})
		}
		c.Logger().Errorf("webhook: record purchase failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record purchase failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"purchase_id":    purchase.ID,
		"sessions_added": pkg.Sessions,
	})
}
