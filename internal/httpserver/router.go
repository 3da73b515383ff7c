package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mlevchenko/studyhub/internal/middleware"
	"github.com/mlevchenko/studyhub/internal/models"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	SubjectHandler *SubjectHTTP
	AuthMw         *middleware.BearerAuth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.GET("/verify-email", d.AuthHandler.VerifyEmail)
	auth.POST("/activate", d.AuthHandler.RequestActivation)
	auth.POST("/reset-password", d.AuthHandler.ResetPassword)

	private := auth.Group("", d.AuthMw.RequireAuth)
	private.POST("/change-password", d.AuthHandler.ChangePassword)
	private.POST("/signout", d.AuthHandler.SignOut)

	v1 := e.Group("/api/v1")

	subjects := v1.Group("/subjects")
	subjects.GET("", d.SubjectHandler.GetSubjects)
	subjects.GET("/search", d.SubjectHandler.SearchSubjects)
	subjects.GET("/:id", d.SubjectHandler.GetSubject)

	admin := subjects.Group("", d.AuthMw.RequireAuth, d.AuthMw.RequireRole(models.RoleAdmin))
	admin.POST("", d.SubjectHandler.CreateSubject)
	admin.PATCH("/:id", d.SubjectHandler.PatchSubject)
	admin.DELETE("/:id", d.SubjectHandler.DeleteSubject)
}
