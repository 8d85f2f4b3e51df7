// Package server assembles the HTTP router: middleware, services, handlers
// and routes.
package server

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"nadlan/internal/cache"
	"nadlan/internal/config"
	_ "nadlan/internal/docs" // swagger spec registration
	"nadlan/internal/handlers"
	"nadlan/internal/middleware"
	"nadlan/internal/models"
	"nadlan/internal/services"
	"nadlan/internal/validator"
)

// New builds the API router. store may be nil, which disables caching.
func New(db *gorm.DB, store *cache.Store, cfg *config.Config) *gin.Engine {
	validator.Register()

	userService := services.NewUserService(db, store)
	calculatorService := services.NewCalculatorService(db, store)
	propertyService := services.NewPropertyService(db, store)
	investmentService := services.NewInvestmentService(db, store)
	analysisService := services.NewAnalysisService(db, store)
	settingService := services.NewSettingService(db, store)
	dashboardService := services.NewDashboardService(db, store)
	auditService := services.NewAuditService(db)

	authHandler := handlers.NewAuthHandler(userService, auditService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	calculatorHandler := handlers.NewCalculatorHandler(calculatorService, auditService)
	propertyHandler := handlers.NewPropertyHandler(propertyService, auditService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService, calculatorService, auditService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService, calculatorService, auditService)
	settingHandler := handlers.NewSettingHandler(settingService, auditService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	api.POST("/register/advisor", authHandler.RegisterAdvisor)
	api.POST("/login", authHandler.Login)
	api.POST("/refresh", authHandler.Refresh)

	// Machine-to-machine routes
	pipeline := api.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.PUT("/settings/:key", settingHandler.PipelineUpdateSetting)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())

	protected.POST("/logout", authHandler.Logout)
	protected.GET("/user", authHandler.CurrentUser)
	protected.POST("/register", middleware.RequireRole(models.RoleAdvisor), authHandler.RegisterInvestor)

	protected.GET("/investors", userHandler.ListInvestors)
	protected.GET("/users/:id", userHandler.GetUser)
	protected.PATCH("/users/:id", userHandler.UpdateUser)

	calculators := protected.Group("/calculators")
	calculators.POST("", calculatorHandler.CreateCalculator)
	calculators.GET("", calculatorHandler.ListCalculators)
	calculators.GET("/recent", calculatorHandler.RecentCalculators)
	calculators.GET("/:id", calculatorHandler.GetCalculator)
	calculators.PATCH("/:id", calculatorHandler.UpdateCalculator)
	calculators.DELETE("/:id", calculatorHandler.DeleteCalculator)
	calculators.POST("/:id/duplicate", calculatorHandler.DuplicateCalculator)

	properties := protected.Group("/properties")
	properties.POST("", propertyHandler.CreateProperty)
	properties.GET("", propertyHandler.ListProperties)
	properties.GET("/:id", propertyHandler.GetProperty)
	properties.PATCH("/:id", propertyHandler.UpdateProperty)
	properties.DELETE("/:id", propertyHandler.DeleteProperty)

	investments := protected.Group("/investments")
	investments.POST("", investmentHandler.CreateInvestment)
	investments.GET("", investmentHandler.ListInvestments)
	investments.GET("/:id", investmentHandler.GetInvestment)
	investments.PATCH("/:id", investmentHandler.UpdateInvestment)
	investments.DELETE("/:id", investmentHandler.DeleteInvestment)

	analyses := protected.Group("/analyses")
	analyses.POST("", analysisHandler.CreateAnalysis)
	analyses.GET("", analysisHandler.ListAnalyses)
	analyses.GET("/:id", analysisHandler.GetAnalysis)
	analyses.PATCH("/:id", analysisHandler.UpdateAnalysis)
	analyses.DELETE("/:id", analysisHandler.DeleteAnalysis)

	settings := protected.Group("/settings")
	settings.GET("", settingHandler.ListSettings)
	settings.GET("/:key", settingHandler.GetSetting)
	settings.PUT("/:key", settingHandler.UpdateSetting)

	protected.GET("/dashboard/overview", dashboardHandler.Overview)

	return router
}

// corsConfig allows every origin when the list is empty or contains "*".
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowMethods(http.MethodPatch)
	cfg.AddAllowHeaders("Authorization", "X-API-Key", "X-Request-ID")
	cfg.AddExposeHeaders("X-Request-ID")
	return cfg
}
