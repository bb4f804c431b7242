package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voipshop/internal/checkout"
	"voipshop/internal/domain"
	"voipshop/internal/service/storefront"
)

type storefrontService interface {
	Catalog() []storefront.CatalogItem
	NewSession(ctx context.Context) (string, error)
	Cart(ctx context.Context, sessionID string) checkout.View
	Snapshot(ctx context.Context, sessionID string) domain.SelectionSnapshot
	Totals(ctx context.Context, sessionID string) domain.SolutionTotals
	SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) checkout.View
	Increment(ctx context.Context, sessionID, itemID string, delta int) checkout.View
	AdjustMonthly(ctx context.Context, sessionID, name string, delta int) (checkout.View, error)
	SelectPackage(ctx context.Context, sessionID string, pkg domain.PackageChoice) (checkout.View, error)
	SelectPorting(ctx context.Context, sessionID string, p domain.PortingChoice) (checkout.View, error)
	ClearPorting(ctx context.Context, sessionID string) checkout.View
	ClearCart(ctx context.Context, sessionID string) checkout.View
	CompleteOrder(ctx context.Context, sessionID string, d checkout.OrderDetails) (json.RawMessage, error)
	SendQuote(ctx context.Context, sessionID string, c checkout.Customer) (json.RawMessage, error)
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router needs.
type Deps struct {
	Storefront     storefrontService
	AllowedOrigins []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps) (*gin.Engine, error) {
	if deps.Storefront == nil {
		return nil, fmt.Errorf("httpserver: storefront service is required")
	}
	cc := corsConfig(deps.AllowedOrigins)
	if err := cc.Validate(); err != nil {
		return nil, fmt.Errorf("httpserver: cors: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestIDMiddleware(), accessLogMiddleware(logger), gin.Recovery(), cors.New(cc))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Storefront, logger))

	h := &handlers{svc: deps.Storefront, logger: logger}

	api := router.Group("/api/v1")
	api.GET("/catalog", h.catalog)
	api.POST("/sessions", h.createSession)

	sess := api.Group("/sessions/:sessionID", sessionMiddleware())
	sess.GET("/cart", h.cart)
	sess.DELETE("/cart", h.clearCart)
	sess.GET("/snapshot", h.snapshot)
	sess.GET("/totals", h.totals)
	sess.PUT("/items/:itemID", h.setQuantity)
	sess.POST("/items/:itemID/adjust", h.adjustItem)
	sess.POST("/monthly/:name/adjust", h.adjustMonthly)
	sess.PUT("/package", h.selectPackage)
	sess.PUT("/porting", h.selectPorting)
	sess.DELETE("/porting", h.clearPorting)
	sess.POST("/checkout/complete", h.completeOrder)
	sess.POST("/checkout/quote", h.sendQuote)

	return router, nil
}
