package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/amoylab/taskflow/internal/apiserver/middleware"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/i18n"
	"github.com/amoylab/taskflow/pkg/metrics"
	"github.com/amoylab/taskflow/pkg/version"
)

// RouterOptions are the cross-cutting pieces of the router. Every field
// is optional.
type RouterOptions struct {
	Translator  *i18n.I18n
	Metrics     *metrics.Metrics
	MetricsPath string
	Tracing     bool
}

// NewRouter builds the engine with every route of the API
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(h.errs.RecoveryMiddleware())
	if opts.Tracing {
		r.Use(otelgin.Middleware(cnst.AppName))
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}
	r.Use(opts.Translator.Middleware(), h.errs.ErrorMiddleware())

	r.GET("/api/health", h.Health)

	api := r.Group("/api")
	api.POST("/auth/login", h.Login)

	authed := api.Group("", middleware.JWTAuthMiddleware(h.accounts, h.server.SessionCookie, h.errs))
	authed.POST("/auth/logout", h.Logout)
	authed.POST("/auth/change_password", h.ChangePassword)
	authed.GET("/me", h.Me)

	authed.GET("/companies", h.ListCompanies)
	authed.GET("/company/:slug/tasks", h.ListCompanyTasks)
	authed.GET("/company/:slug/tasks/:code", h.GetCompanyTask)
	authed.POST("/company/:slug/tasks/:code/done", h.MarkTaskDone)

	authed.GET("/push/public_key", h.PushPublicKey)
	authed.POST("/push/subscribe", h.PushSubscribe)
	authed.POST("/push/unsubscribe", h.PushUnsubscribe)
	authed.POST("/push/test", h.PushTest)

	admin := authed.Group("", middleware.AdminAuthMiddleware(h.errs))
	admin.GET("/admin/users", h.ListUsers)
	admin.POST("/admin/users", h.CreateUser)
	admin.GET("/admin/users/:id", h.GetUser)
	admin.PATCH("/admin/users/:id", h.UpdateUser)
	admin.POST("/admin/users/:id/reset_password", h.ResetPassword)
	admin.POST("/admin/users/:id/role", h.SetRole)
	admin.POST("/admin/users/:id/disabled", h.SetDisabled)
	admin.PUT("/admin/users/:id/companies", h.SetUserCompanies)

	admin.GET("/admin/companies", h.AdminListCompanies)
	admin.POST("/admin/companies", h.UpsertCompany)
	admin.POST("/admin/companies/:slug/active", h.SetCompanyActive)
	admin.GET("/admin/companies/:slug/categories", h.ListCategories)
	admin.POST("/admin/companies/:slug/categories", h.CreateCategory)
	admin.PATCH("/admin/categories/:id", h.UpdateCategory)
	admin.GET("/admin/companies/:slug/patients", h.ListPatients)
	admin.POST("/admin/companies/:slug/patients", h.CreatePatient)
	admin.PATCH("/admin/patients/:id", h.UpdatePatient)

	admin.POST("/admin/tasks/bulk", h.BulkCreateTasks)
	admin.GET("/admin/tasks", h.ListRecentTasks)
	admin.POST("/admin/tasks/:code/force_done", h.ForceDoneTask)
	admin.DELETE("/admin/tasks/:code", h.DeleteTask)

	admin.GET("/stats/audit", h.ListAudit)

	return r
}

// Health reports liveness and the running version
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
}
