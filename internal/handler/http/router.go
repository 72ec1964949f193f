package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册房间相关接口与健康检查
func RegisterRoutes(router gin.IRouter, rooms *RoomHandler) {
	api := router.Group("/api")
	{
		api.GET("/room", rooms.ListRooms)
		api.GET("/get-room", rooms.GetRoom)
		api.POST("/join-room", rooms.JoinRoom)
		api.POST("/create-room", rooms.CreateRoom)
		api.GET("/user-in-room", rooms.UserInRoom)
		api.POST("/leave-room", rooms.LeaveRoom)
		api.PATCH("/update-room", rooms.UpdateRoom)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
}
