package sync

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // events are public catalog data
	},
}

// WSHandler upgrades the request and streams catalog events until the
// subscriber hangs up.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		if err := hub.AddWS(ws); err != nil {
			log.Printf("[ws] welcome failed: %v", err)
			return
		}
		log.Printf("[ws] subscriber connected: %s", c.ClientIP())

		// subscribers are read-only; block until they hang up
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		log.Printf("[ws] subscriber disconnected: %s", c.ClientIP())
	}
}
