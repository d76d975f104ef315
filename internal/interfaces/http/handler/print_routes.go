package handler

import (
	"github.com/binara/printsvc/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// PrintRoutes creates the versioned route group for print endpoints
func PrintRoutes(handler *PrintHandler, middleware ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("print", "/print")
	group.Use(middleware...)

	group.POST("", handler.PrintBill)
	group.POST("/bill", handler.PrintBill)
	group.POST("/summary", handler.PrintSummary)
	group.POST("/service-cost", handler.PrintServiceCost)

	group.GET("/targets", handler.ListTargets)
	group.GET("/jobs", handler.ListJobs)
	group.GET("/jobs/:id", handler.GetJob)
	group.GET("/files/*path", handler.DownloadFile)

	return group
}

// LegacyPrintRoutes creates the unversioned endpoints existing clinic
// clients post to. Register it with Router.RegisterRoot.
func LegacyPrintRoutes(handler *PrintHandler, middleware ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("legacy-print", "")
	group.Use(middleware...)

	group.POST("/print", handler.PrintBill)
	group.POST("/print-summary", handler.PrintSummary)
	group.POST("/print-service-cost", handler.PrintServiceCost)

	return group
}

// SystemRoutes creates the versioned system group
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")
	group.GET("/health", handler.Health)
	return group
}
