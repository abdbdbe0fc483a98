package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/asset-inventory-backend/controllers"
	"github.com/yashrajoria/asset-inventory-backend/middleware"
)

// RegisterImportRoutes sets up all asset import routes.
func RegisterImportRoutes(r *gin.Engine, ac *controllers.AssetImportController, jwtSecret string) {
	protected := r.Group("")
	protected.Use(middleware.AuthMiddleware(jwtSecret))

	campus := protected.Group("/campus/:campusId")
	campus.POST("/assets/import", middleware.ImportRateLimit(), ac.ImportAssets)
	campus.GET("/imports", ac.ListImports)

	protected.GET("/imports/jobs/:id", ac.GetImportJob)
}
