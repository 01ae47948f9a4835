package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/handlers"
	"github.com/charlesng35/gatepass/internal/services"
)

func registerRegistrantRoutes(api *gin.RouterGroup, registrants *services.RegistrantService, credentials *services.CredentialService) {
	registrantHandler := handlers.NewRegistrantHandler(registrants)
	credentialHandler := handlers.NewCredentialHandler(credentials)

	group := api.Group("/registrants")
	{
		group.GET("", registrantHandler.List)
		group.POST("", registrantHandler.Import)
		group.GET("/:externalID", registrantHandler.Get)
		group.POST("/:externalID/credential/reissue", credentialHandler.Reissue)
		group.GET("/:externalID/credential/image", credentialHandler.Image)
	}

	api.POST("/credentials/issue", credentialHandler.IssueAll)
}
