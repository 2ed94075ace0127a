package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-class-booking/internal/middleware"
	"github.com/iliyamo/studio-class-booking/internal/repository"
)

// PackageHandler serves session packages: the public catalogue, the
// member's purchase history and admin package management.
type PackageHandler struct {
	Packages  *repository.PackageRepo
	Purchases *repository.PurchaseRepo
}

func NewPackageHandler(packages *repository.PackageRepo, purchases *repository.PurchaseRepo) *PackageHandler {
	return &PackageHandler{Packages: packages, Purchases: purchases}
}

type packageResp struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Sessions   int    `json:"sessions"`
	PriceCents uint32 `json:"price_cents"`
}

type purchaseResp struct {
	ID            string `json:"id"`
	PackageID     uint64 `json:"package_id"`
	SessionsAdded int    `json:"sessions_added"`
	PurchasedAt   string `json:"purchased_at"`
}

// List returns the active package catalogue.
func (h *PackageHandler) List(c echo.Context) error {
	items, err := h.Packages.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]packageResp, 0, len(items))
	for _, p := range items {
		out = append(out, packageResp{ID: p.ID, Name: p.Name, Sessions: p.Sessions, PriceCents: p.PriceCents})
	}
	return c.JSON(http.StatusOK, echo.Map{"packages": out})
}

type createPackageReq struct {
	Name       string `json:"name"`
	Sessions   int    `json:"sessions"`
	PriceCents uint32 `json:"price_cents"`
}

// Create adds a package to the catalogue.
func (h *PackageHandler) Create(c echo.Context) error {
	var req createPackageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Sessions < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive sessions required"})
	}

	ctx := c.Request().Context()
	id, err := h.Packages.Create(ctx, req.Name, req.Sessions, req.PriceCents)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create package failed"})
	}
	p, err := h.Packages.GetActive(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, packageResp{ID: p.ID, Name: p.Name, Sessions: p.Sessions, PriceCents: p.PriceCents})
}

// Deactivate retires a package from the catalogue.
func (h *PackageHandler) Deactivate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	if err := h.Packages.Deactivate(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MyPurchases returns the caller's purchase history.
func (h *PackageHandler) MyPurchases(c echo.Context) error {
	uid, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Purchases.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]purchaseResp, 0, len(items))
	for _, p := range items {
		out = append(out, purchaseResp{
			ID:            p.ID,
			PackageID:     p.PackageID,
			SessionsAdded: p.SessionsAdded,
			PurchasedAt:   p.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": out})
}
