package employee

import (
	"go-ees/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RegisterRoutes mounts the employee endpoints. Reads and writes get separate
// per-IP limiters; writes are allowed a fifth of the read rate.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rps rate.Limit, burst int) {
	readLimit := middleware.RateLimitByIP(rps, burst)
	writeLimit := middleware.RateLimitByIP(rps/5, max(burst/5, 1))

	employees := r.Group("/employees")
	{
		employees.GET("", readLimit, handler.GetAll)
		employees.POST("", writeLimit, handler.Create)
		employees.PUT("/:id", writeLimit, handler.Update)
		employees.DELETE("/:id", writeLimit, handler.Delete)
	}
}
