package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Skotchmaster/museum/internal/handlers"
	authmw "github.com/Skotchmaster/museum/internal/middleware/auth"
	"github.com/Skotchmaster/museum/internal/middleware/csrf"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/internal/service"
	loggingmw "github.com/Skotchmaster/museum/pkg/middleware/logging"
)

type Deps struct {
	DB          *gorm.DB
	Log         *zap.SugaredLogger
	Auth        *service.AuthService
	Catalog     *service.CatalogService
	Admin       *service.AdminService
	Cookies     handlers.CookieConfig
	CORSOrigins []string
}

// New builds an echo instance with the shared middleware stack and every route mounted.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Use(loggingmw.RequestLogger(d.Log))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{DisableErrorHandler: true}))
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit("1M"))
	if len(d.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     d.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	authn := authmw.New(d.Auth.Issuer)
	anyRole := authn.Authenticate()
	adminOnly := authn.Authenticate(models.RoleAdmin)
	staff := authn.Authenticate(models.RoleAdmin, models.RoleCurator)
	canEdit := authmw.CategoryAuthorize("categoryId", d.Catalog)

	health := &handlers.HealthHandler{DB: d.DB}
	authH := &handlers.AuthHandler{Svc: d.Auth, Cookies: d.Cookies}
	museumH := &handlers.MuseumHandler{Svc: d.Catalog}
	categoryH := &handlers.CategoryHandler{Svc: d.Catalog}
	itemH := &handlers.ItemHandler{Svc: d.Catalog, Auth: authn}
	adminH := &handlers.AdminHandler{Svc: d.Admin}

	e.GET("/health/live", health.Live)
	e.GET("/health/ready", health.Ready)

	api := e.Group("/api")

	auth := api.Group("/auth", csrf.Middleware(csrf.Config{AllowedOrigins: d.CORSOrigins}))
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout, anyRole)
	auth.GET("/me", authH.Me, anyRole)

	museums := api.Group("/museums")
	museums.GET("", museumH.List)
	museums.GET("/search", museumH.Search, staff)
	museums.GET("/:museumId", museumH.Get)
	museums.POST("", museumH.Create, adminOnly)
	museums.PUT("/:museumId", museumH.Update, adminOnly)
	museums.DELETE("/:museumId", museumH.Delete, adminOnly)

	categories := museums.Group("/:museumId/categories")
	categories.GET("", categoryH.List)
	categories.GET("/search", categoryH.Search, staff)
	categories.GET("/:categoryId", categoryH.Get)
	categories.POST("", categoryH.Create, adminOnly)
	categories.PUT("/:categoryId", categoryH.Update, adminOnly)
	categories.DELETE("/:categoryId", categoryH.Delete, adminOnly)
	categories.GET("/:categoryId/users", categoryH.Users, adminOnly)
	categories.POST("/:categoryId/adduser", categoryH.AddUser, adminOnly)
	categories.DELETE("/:categoryId/removeuser/:id", categoryH.RemoveUser, adminOnly)

	items := categories.Group("/:categoryId/items")
	items.GET("", itemH.List)
	items.GET("/:id", itemH.Get)
	items.POST("", itemH.Create, staff, canEdit)
	items.PUT("/:id", itemH.Update, staff, canEdit)
	items.DELETE("/:id", itemH.Delete, staff, canEdit)

	admin := api.Group("/admin", adminOnly)
	admin.GET("/users", adminH.Users)
	admin.PATCH("/user/role/:userId", adminH.SetRole)
}
