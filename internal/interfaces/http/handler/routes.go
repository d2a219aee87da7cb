package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the renegotiation endpoints onto the API group
func (h *RenegotiationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	renegotiations := rg.Group("/renegotiations")
	{
		renegotiations.POST("", h.Create)
		renegotiations.GET("", h.List)
		renegotiations.GET("/:id", h.Get)
		renegotiations.GET("/:id/installments", h.ListInstallments)
		renegotiations.GET("/:id/lineage", h.GetLineage)
		renegotiations.POST("/:id/break", h.Break)
	}

	customers := rg.Group("/customers")
	{
		customers.GET("/:id/open-records", h.ListOpenRecords)
	}
}

// RegisterRoutes wires the system endpoints onto the API group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/info", h.GetSystemInfo)
	}
}
