// api/router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openparts/registry/api/controller"
	"github.com/openparts/registry/api/dao"
	"github.com/openparts/registry/api/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	accountDAO dao.IAccountDAO,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))
	router.Use(middleware.Identity(accountDAO))

	api := router.Group("/api/v1")

	controllers.Entry.RegisterRoutes(api)
	controllers.Sample.RegisterRoutes(api)
	controllers.Folder.RegisterRoutes(api)
	controllers.Permission.RegisterRoutes(api)

	return router
}
