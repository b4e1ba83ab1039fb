package websocket

import (
	"log"
	"sync"

	"github.com/wambuidev/repair_hub/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// The hub tracks connected technician apps and pushes freshly dispatched job
// offers to them. Delivery is best-effort: a technician who is offline still
// sees the offer through the normal listing endpoint.

type Client struct {
	TechnicianID uuid.UUID
	Conn         *websocket.Conn
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var offers = make(chan models.JobOffer, 64)

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Technician connected: %s", client.TechnicianID)
			clientsMu.Lock()
			clients[client.TechnicianID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Technician disconnected: %s", client.TechnicianID)
			clientsMu.Lock()
			if conn, ok := clients[client.TechnicianID]; ok && conn == client.Conn {
				delete(clients, client.TechnicianID)
			}
			clientsMu.Unlock()
		case offer := <-offers:
			clientsMu.RLock()
			conn, ok := clients[offer.TechnicianID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(offer); err != nil {
				log.Printf("Error pushing offer %s to technician %s: %v", offer.ID, offer.TechnicianID, err)
			}
		}
	}
}

// PushOffer queues an offer for delivery to its technician's connection, if
// any. Never blocks the dispatcher.
func PushOffer(offer models.JobOffer) {
	select {
	case offers <- offer:
	default:
		log.Printf("⚠️ Offer push queue full, dropping realtime notification for offer %s", offer.ID)
	}
}
