package app

import (
	"career_coach_backend/docs"
	"career_coach_backend/internal/config"
	"career_coach_backend/internal/middleware"
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/util"
	"strconv"
	"time"

	"career_coach_backend/pkg/monitoring"
	"career_coach_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerSeekerRoutes(authGroup, c, cfg)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

// userKey 按登录用户限流
func userKey(ctx *gin.Context) string {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return ""
	}
	return strconv.FormatUint(uint64(claims.UserID), 10)
}

func (a *App) registerSeekerRoutes(rg *gin.RouterGroup, c *controllers, cfg *config.Config) {
	rg.GET("/profile", c.user.GetProfile)
	rg.DELETE("/account", c.user.DeleteAccount)

	// 测评
	generateLimit := security.RateLimiterBy(
		cfg.RateLimit.GenerateMaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
		userKey,
	)
	assessments := rg.Group("/assessments")
	{
		assessments.POST("", generateLimit, c.assessment.Create)
		assessments.GET("", c.assessment.List)
		assessments.GET("/:id", c.assessment.Get)
		assessments.POST("/:id/submit", c.assessment.Submit)
		assessments.GET("/:id/report", c.assessment.Report)
		assessments.POST("/:id/report/export", c.assessment.ExportReport)
		assessments.DELETE("/:id", c.assessment.Delete)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.GET("/assessments/stats", c.assessment.Stats)
	}
}
