package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trackboard/trackboard/internal/handlers"
	authmw "github.com/trackboard/trackboard/internal/middleware/auth"
)

type Deps struct {
	Guard *authmw.Guard

	Auth          *handlers.AuthHandler
	Organizations *handlers.OrganizationHandler
	Projects      *handlers.ProjectHandler
	Boards        *handlers.BoardHandler
	Lists         *handlers.ListHandler
	Issues        *handlers.IssueHandler
	Comments      *handlers.CommentHandler
	Users         *handlers.UserHandler
	Roles         *handlers.RoleHandler
	Permissions   *handlers.PermissionHandler
	Admin         *handlers.AdminHandler
	Search        *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/me", d.Auth.Me, d.Guard.RequireAuth)

	guard := func(route string) echo.MiddlewareFunc {
		return d.Guard.RequirePermissions(Required(route)...)
	}

	api := e.Group("", d.Guard.RequireAuth)

	orgs := api.Group("/organizations")
	orgs.GET("", d.Organizations.List, guard("orgs:read"))
	orgs.POST("", d.Organizations.Create, guard("orgs:write"))

	projects := api.Group("/projects")
	projects.GET("", d.Projects.List, guard("projects:read"))
	projects.GET("/:id", d.Projects.Get, guard("projects:read"))
	projects.POST("", d.Projects.Create, guard("projects:write"))
	projects.PATCH("/:id", d.Projects.Patch, guard("projects:write"))
	projects.DELETE("/:id", d.Projects.Delete, guard("projects:delete"))
	projects.POST("/:id/members", d.Projects.AddMember, guard("projects:member"))
	projects.DELETE("/:id/members/:userId", d.Projects.RemoveMember, guard("projects:member"))

	boards := api.Group("/boards")
	boards.GET("", d.Boards.List, guard("boards:read"))
	boards.GET("/:id", d.Boards.Get, guard("boards:read"))
	boards.POST("", d.Boards.Create, guard("boards:write"))
	boards.PATCH("/:id", d.Boards.Patch, guard("boards:write"))
	boards.DELETE("/:id", d.Boards.Delete, guard("boards:write"))

	lists := api.Group("/lists")
	lists.GET("", d.Lists.List, guard("lists:read"))
	lists.GET("/:id", d.Lists.Get, guard("lists:read"))
	lists.POST("", d.Lists.Create, guard("lists:write"))
	lists.PATCH("/:id", d.Lists.Patch, guard("lists:write"))
	lists.DELETE("/:id", d.Lists.Delete, guard("lists:write"))

	issues := api.Group("/projects/:projectId/issues")
	issues.POST("", d.Issues.Create, guard("issues:write"))
	issues.GET("", d.Issues.List, guard("issues:read"))
	issues.GET("/:id", d.Issues.Get, guard("issues:read"))
	issues.PATCH("/:id", d.Issues.Patch, guard("issues:write"))
	issues.DELETE("/:id", d.Issues.Delete, guard("issues:delete"))

	comments := api.Group("/issues/:issueId/comments")
	comments.POST("", d.Comments.Create, guard("comments:write"))
	comments.GET("", d.Comments.List, guard("comments:read"))

	users := api.Group("/users")
	users.GET("", d.Users.List, guard("users:read"))
	users.GET("/:id", d.Users.Get, guard("users:read"))
	users.PATCH("/:id", d.Users.Patch, guard("users:manage"))
	users.DELETE("/:id", d.Users.Delete, guard("users:manage"))
	users.GET("/:id/permissions", d.Users.Permissions, guard("users:read"))

	roles := api.Group("/roles")
	roles.GET("", d.Roles.List, guard("roles:read"))
	roles.GET("/:id", d.Roles.Get, guard("roles:read"))
	roles.POST("", d.Roles.Create, guard("roles:manage"))
	roles.PATCH("/:id", d.Roles.Patch, guard("roles:manage"))
	roles.DELETE("/:id", d.Roles.Delete, guard("roles:manage"))
	roles.POST("/:roleId/assign", d.Roles.Assign, guard("roles:manage"))

	perms := api.Group("/permissions")
	perms.GET("", d.Permissions.List, guard("permissions:read"))
	perms.GET("/:id", d.Permissions.Get, guard("permissions:read"))
	perms.POST("", d.Permissions.Create, guard("permissions:manage"))
	perms.PATCH("/:id", d.Permissions.Patch, guard("permissions:manage"))
	perms.DELETE("/:id", d.Permissions.Delete, guard("permissions:manage"))

	admin := api.Group("/admin", guard("admin:all"))
	admin.GET("/users", d.Admin.Users)
	admin.POST("/impersonate", d.Admin.Impersonate)
	admin.GET("/audit-logs", d.Admin.AuditLogs)

	if d.Search != nil {
		api.GET("/search", d.Search.Search, guard("search:read"))
	}
}
