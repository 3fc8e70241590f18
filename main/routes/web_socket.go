package routes

import (
	"github.com/P4rz1val22/chat-app/auth"
	"github.com/P4rz1val22/chat-app/hub"

	"github.com/gin-gonic/gin"
)

func SetupWebSocketRoutes(r *gin.Engine, chatHub *hub.Hub) {
	// Persistent chat connection endpoint
	r.GET("/ws", auth.IdentityMiddleware(), chatHub.HandleSocket)
}
