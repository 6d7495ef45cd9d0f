package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/farm-market-backend/internal/config"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/http/middleware"
	"github.com/ignatzorin/farm-market-backend/internal/interface/http/handler"
	"github.com/ignatzorin/farm-market-backend/internal/storage"
)

func SetupRouter(
	cfg *config.Config,
	tokens middleware.AccessTokenParser,
	authHandler *handler.AuthHandler,
	listingHandler *handler.ListingHandler,
	offerHandler *handler.OfferHandler,
	healthHandler *handler.HealthHandler,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	r.GET("/health", healthHandler.Health)
	r.Static(storage.PublicPrefix, cfg.UploadsPath)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	requireAuth := middleware.AuthMiddleware(tokens)
	farmerOnly := middleware.RequireRole(valueobject.RoleFarmer)
	buyerOnly := middleware.RequireRole(valueobject.RoleBuyer)
	validID := middleware.UUIDValidator("id")

	api.GET("/auth/me", requireAuth, authHandler.Me)

	// Публичные маршруты
	api.GET("/listings", listingHandler.ListListings)
	api.GET("/listings/:id", validID, listingHandler.GetListing)

	listings := api.Group("/listings")
	listings.Use(requireAuth, farmerOnly)
	{
		listings.GET("/my", listingHandler.ListMyListings)
		listings.POST("", listingHandler.CreateListing)
		listings.PUT("/:id", validID, listingHandler.UpdateListing)
		listings.DELETE("/:id", validID, listingHandler.DeleteListing)
		listings.POST("/:id/image", validID, listingHandler.UploadImage)
	}

	offers := api.Group("/offers")
	offers.Use(requireAuth)
	{
		offers.POST("", buyerOnly, offerHandler.CreateOffer)
		offers.GET("/sent", buyerOnly, offerHandler.ListSent)
		offers.GET("/received", farmerOnly, offerHandler.ListReceived)
		offers.GET("/received/export", farmerOnly, offerHandler.ExportReceived)
		offers.GET("/:id", validID, offerHandler.GetOffer)
		offers.PUT("/:id/accept", validID, farmerOnly, offerHandler.AcceptOffer)
		offers.PUT("/:id/reject", validID, farmerOnly, offerHandler.RejectOffer)
	}

	return r
}
