package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/courseflow-api/api/swagger"
	"github.com/noah-isme/courseflow-api/internal/middleware"
	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/pkg/config"
	"github.com/noah-isme/courseflow-api/pkg/logger"
	"github.com/noah-isme/courseflow-api/pkg/middleware/cors"
	"github.com/noah-isme/courseflow-api/pkg/middleware/requestid"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *middleware.Metrics

	TokenValidator interface {
		ValidateAccessToken(token string) (*models.JWTClaims, error)
	}
	Auth        *AuthHandler
	Enrollments *EnrollmentHandler
	Dashboard   *DashboardHandler
	Courses     *CourseHandler
	Promotions  *PromotionHandler
}

// NewRouter assembles the gin engine with middleware, the versioned API
// group, and the operational endpoints.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(cors.New(deps.Config.CORS.AllowedOrigins))
	r.Use(logger.GinMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Collect())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readiness(deps.DB, deps.Redis))
	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Handler())
	}
	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.Config.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/refresh", deps.Auth.Refresh)

	authed := api.Group("")
	authed.Use(middleware.Auth(deps.TokenValidator))

	authed.POST("/auth/logout", deps.Auth.Logout)

	admin := string(models.RoleAdmin)
	teacher := string(models.RoleTeacher)
	student := string(models.RoleStudent)

	enrollments := authed.Group("/enrollments")
	enrollments.POST("/enroll", middleware.RequireRoles("", student, admin), deps.Enrollments.Enroll)
	enrollments.POST("/unenroll", middleware.RequireRoles("", student, admin), deps.Enrollments.Unenroll)
	enrollments.PATCH("/status", middleware.RequireStaff(), deps.Enrollments.UpdateStatus)
	enrollments.GET("/availability/:courseId/:sectionId", deps.Enrollments.Availability)
	enrollments.POST("/sync/:courseId/:sectionId", middleware.RequireAdmin(), deps.Enrollments.SyncSection)
	enrollments.POST("/sync", middleware.RequireAdmin(), deps.Enrollments.SyncAll)
	enrollments.GET("/stats/:courseId", middleware.RequireRoles("", teacher, admin), deps.Enrollments.Stats)
	enrollments.GET("/my-enrollments/:studentId", middleware.RequireRoles("studentId", middleware.RoleSelf, admin), deps.Enrollments.MyEnrollments)
	enrollments.GET("/dashboard-stats", middleware.RequireAdmin(), deps.Dashboard.Stats)
	enrollments.GET("", middleware.RequireAdmin(), deps.Enrollments.List)

	courses := authed.Group("/courses")
	courses.GET("", deps.Courses.List)
	courses.GET("/:id", deps.Courses.Detail)
	courses.PATCH("/:id/sections/:sectionId/approval", middleware.RequireAdmin(), deps.Courses.UpdateSectionApproval)

	academic := authed.Group("/academic")
	academic.Use(middleware.RequireAdmin())
	academic.POST("/promote", deps.Promotions.Promote)
	academic.GET("/promote/preview", deps.Promotions.Preview)

	return r
}

func readiness(db *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
