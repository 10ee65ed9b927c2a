package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, jobHandler *JobHandler) {
	server.POST("/api/v1/imports", importHandler.Import)
	server.POST("/api/v1/imports/:id/approve", importHandler.Approve)
	server.GET("/api/v1/imports/:id", jobHandler.GetJob)
}
