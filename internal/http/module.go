package http

import "github.com/gin-gonic/gin"

// Module is a bounded context with its own routes: leads, assignments,
// calls, orders and commissions each provide one.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the groups modules mount on. Both sit under /api/v1
// behind the per-IP limiter.
type RouterContext struct {
	// Protected requires a valid access token; agents land here.
	Protected *gin.RouterGroup
	// Admin is /api/v1/admin, restricted to super admins and managers.
	Admin *gin.RouterGroup
}
