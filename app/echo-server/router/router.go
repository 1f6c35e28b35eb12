package router

import (
	"agriMandi/internal/middleware"
	"agriMandi/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupPartnerRoutes(api *echo.Group, handler *rest.PartnerHandler) {
	partners := api.Group("/partners")

	partners.POST("", handler.Register)
	partners.GET("/:id", handler.GetPartnerByID, middleware.AuthMiddleware(), middleware.SelfOrAdmin())
}

func SetupRequirementRoutes(api *echo.Group, handler *rest.RequirementHandler, matchHandler *rest.MatchHandler) {
	requirements := api.Group("/requirements", middleware.AuthMiddleware())

	requirements.POST("", handler.CreateRequirement)
	requirements.POST("/:id/publish", handler.PublishRequirement)
	requirements.GET("", handler.GetMyRequirements)
	requirements.GET("/:id", handler.GetRequirementByID)
	requirements.GET("/:id/matches", matchHandler.MatchesForRequirement)
}

func SetupAvailabilityRoutes(api *echo.Group, handler *rest.AvailabilityHandler, matchHandler *rest.MatchHandler) {
	availabilities := api.Group("/availabilities", middleware.AuthMiddleware())

	availabilities.POST("", handler.CreateAvailability)
	availabilities.POST("/:id/publish", handler.PublishAvailability)
	availabilities.GET("", handler.GetMyAvailabilities)
	availabilities.GET("/:id", handler.GetAvailabilityByID)
	availabilities.GET("/:id/matches", matchHandler.MatchesForAvailability)
}

func SetupAllocationRoutes(api *echo.Group, handler *rest.AllocationHandler) {
	allocations := api.Group("/allocations", middleware.AuthMiddleware())

	allocations.POST("", handler.Allocate)
}

func SetupRiskRoutes(api *echo.Group, handler *rest.RiskHandler) {
	risk := api.Group("/risk", middleware.AuthMiddleware())
	risk.GET("/partners/:id", handler.AssessPartner)

	admin := api.Group("/admin/risk", middleware.AuthMiddleware(), middleware.AdminOnly())
	admin.POST("/recheck/:id", handler.Recheck)
}

func SetupMatchingAdminRoutes(api *echo.Group, handler *rest.MatchingAdminHandler) {
	admin := api.Group("/admin/matching", middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.GET("/config", handler.GetConfig)
	admin.PUT("/config", handler.UpsertConfig)
}
