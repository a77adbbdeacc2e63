// Package broadcast implements the broadcast hub (B): it maintains the set
// of live listener and admin connections, fans out playback events to
// every listener in emission order, and gates admin-intent messages
// through the broadcaster arbiter (A) before relaying them into the
// playback controller (C). Adapted from internal/websocket/handler.go's
// register/unregister/broadcast channel Hub, generalized from a single
// radio-service ticker source to the richer event-bus taxonomy and from an
// ungated client to one split into listener and admin roles by A.
package broadcast

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/waveradio/core/internal/arbiter"
	"github.com/waveradio/core/internal/auth"
	"github.com/waveradio/core/internal/events"
	"github.com/waveradio/core/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Controller is the subset of the playback controller (C) the hub relays
// admin-reported wire messages into.
type Controller interface {
	CurrentlyPlaying() *models.CurrentlyPlaying
	PlaybackCacheForReplay() (*models.PlaybackCache, bool)
	ReportSongStarted(song *models.QueueSong, streamURL string, announcement *models.Announcement, volume int, autoNext bool)
	OnSongEnded()
	Stop()
}

// Hub fans out core events to every live listener connection and relays
// admission-gated admin intents into the playback controller.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	controller  Controller
	arb         *arbiter.Arbiter
	authService *auth.Service
	logger      *log.Logger

	mu         sync.RWMutex
	lastLocked *events.NextSongLockedEvent
}

// NewHub wires B to C (controller), A (arb), and the admin JWT validator.
// The socket itself is open to unauthenticated listener connections; only
// join-admin-room is gated, by authService validating the token carried in
// that message, not by anything at upgrade time.
func NewHub(controller Controller, arb *arbiter.Arbiter, authService *auth.Service, bus *events.EventBus, logger *log.Logger) *Hub {
	h := &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client, 16),
		unregister:  make(chan *Client, 16),
		broadcast:   make(chan []byte, 256),
		controller:  controller,
		arb:         arb,
		authService: authService,
		logger:      logger,
	}

	bus.Subscribe(events.EventNextSongLocked, h.handleNextSongLocked)
	bus.Subscribe(events.EventPlaySong, h.handleSlotConsumed(events.EventPlaySong))
	bus.Subscribe(events.EventPlayAnnouncement, h.handleSlotConsumed(events.EventPlayAnnouncement))
	bus.Subscribe(events.EventPlaybackStopped, h.handleSlotConsumed(events.EventPlaybackStopped))
	bus.Subscribe(events.EventQueueUpdated, h.forward(events.EventQueueUpdated))
	bus.Subscribe(events.EventRecentlyPlayedUpdated, h.forward(events.EventRecentlyPlayedUpdated))
	bus.Subscribe(events.EventPlaybackPaused, h.forward(events.EventPlaybackPaused))
	bus.Subscribe(events.EventPlaybackResumed, h.forward(events.EventPlaybackResumed))
	bus.Subscribe(events.EventVolumeChanged, h.forward(events.EventVolumeChanged))
	bus.Subscribe(events.EventSongEnded, h.forward(events.EventSongEnded))
	bus.Subscribe(events.EventSongPlayingUpdate, h.forward(events.EventSongPlayingUpdate))

	return h
}

// forward re-wraps a core event and pushes it onto the broadcast channel
// verbatim, preserving emission order for every live connection.
func (h *Hub) forward(eventType string) events.EventHandler {
	return func(e events.Event) {
		h.send(eventType, e.Payload)
	}
}

// handleNextSongLocked both forwards the notice and caches it for
// snapshot-on-connect, since a slot may lock before a listener attaches.
func (h *Hub) handleNextSongLocked(e events.Event) {
	locked, ok := e.Payload.(events.NextSongLockedEvent)
	if !ok {
		h.logger.Printf("[ERROR] broadcast: next-song-locked payload cast failed")
		return
	}
	h.mu.Lock()
	h.lastLocked = &locked
	h.mu.Unlock()
	h.send(events.EventNextSongLocked, locked)
}

// handleSlotConsumed clears the cached locked-slot snapshot (the slot has
// now aired or playback stopped) before forwarding.
func (h *Hub) handleSlotConsumed(eventType string) events.EventHandler {
	return func(e events.Event) {
		h.mu.Lock()
		h.lastLocked = nil
		h.mu.Unlock()
		h.send(eventType, e.Payload)
	}
}

func (h *Hub) send(eventType string, payload interface{}) {
	data, err := json.Marshal(ServerMessage{Type: eventType, Payload: payload})
	if err != nil {
		h.logger.Printf("[ERROR] broadcast: marshal %s: %v", eventType, err)
		return
	}
	h.broadcast <- data
}

// forceDisconnect closes the evicted incumbent's connection after sending
// it force-disconnect, per A's takeover protocol.
func (h *Hub) forceDisconnect(connID string) {
	h.mu.RLock()
	var target *Client
	for client := range h.clients {
		if client.connID == connID {
			target = client
			break
		}
	}
	h.mu.RUnlock()
	if target == nil {
		return
	}
	target.sendJSON(evtForceDisconnect, struct{}{})
	target.conn.Close()
}

// Run drives the register/unregister/broadcast channels; it must run in
// its own goroutine for the lifetime of the hub.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			go client.sendSnapshot()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.arb.Disconnect(client.connID)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ServeHTTP upgrades any connection, authenticated or not, and registers it
// as a plain listener; it only becomes the authoritative admin if it later
// sends join-admin-room carrying a token that authService validates.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[ERROR] broadcast: upgrade: %v", err)
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		connID: uuid.NewString(),
		hub:    h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}
