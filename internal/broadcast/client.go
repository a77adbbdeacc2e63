package broadcast

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/waveradio/core/internal/arbiter"
	"github.com/waveradio/core/internal/models"
)

// Client is one live listener or admin connection. Every connection starts
// as a plain listener; sending join-admin-room may upgrade it (per A's
// protocol) to the authoritative admin, after which admin-intent messages
// from it are accepted.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	connID string
	userID string
	hub    *Hub
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ERROR] broadcast: read: %v", err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(data)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("[ERROR] broadcast: unmarshal client message: %v", err)
		return
	}

	switch msg.Type {
	case msgJoinAdminRoom:
		c.handleJoinAdminRoom(msg.Payload)
	case msgSongStarted:
		c.handleSongStarted(msg.Payload)
	case msgSongEndedNotify:
		if c.requireAdmin("song-ended-notify") {
			c.hub.controller.OnSongEnded()
		}
	case msgPlaybackStopped:
		if c.requireAdmin("playback-stopped") {
			c.hub.controller.Stop()
		}
	case msgGetCurrentSong:
		c.handleGetCurrentSong()
	case msgGetPlaybackState:
		if c.requireAdmin("get-playback-state") {
			c.handleGetPlaybackState()
		}
	case msgPlaybackStateUpdate:
		// Client-reported announcement→music transition; informational only,
		// no core state change is specified for it.
	default:
		log.Printf("[WARN] broadcast: unknown client message type %q, dropping", msg.Type)
	}
}

func (c *Client) requireAdmin(action string) bool {
	if c.hub.arb.IsActiveAdmin(c.connID) {
		return true
	}
	log.Printf("[WARN] broadcast: rejected %s from non-admin connection %s", action, c.connID)
	return false
}

func (c *Client) handleJoinAdminRoom(raw []byte) {
	var req joinAdminRoomPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("[ERROR] broadcast: unmarshal join-admin-room: %v", err)
			return
		}
	}

	claims, err := c.hub.authService.ValidateToken(req.Token)
	if err != nil {
		log.Printf("[WARN] broadcast: join-admin-room rejected, invalid token: %v", err)
		c.sendJSON(evtAdminRejected, adminRejectedPayload{})
		return
	}
	c.userID = claims.Username

	result := c.hub.arb.Upgrade(c.connID, c.userID, req.Takeover, c.hub.controller.CurrentlyPlaying())
	switch result.Outcome {
	case arbiter.OutcomeActive:
		c.sendJSON(evtAdminActive, adminActivePayload{SessionID: result.SessionID})
	case arbiter.OutcomeRejected:
		cp := c.hub.controller.CurrentlyPlaying()
		payload := adminRejectedPayload{SongPlaying: cp != nil}
		if cp != nil {
			payload.CurrentSong = cp.Song
		}
		c.sendJSON(evtAdminRejected, payload)
	case arbiter.OutcomeTakeoverWarning:
		cp := c.hub.controller.CurrentlyPlaying()
		payload := takeoverWarningPayload{}
		if cp != nil {
			payload.CurrentSong = cp.Song
		}
		c.sendJSON(evtTakeoverWarning, payload)
		c.sendJSON(evtAdminActive, adminActivePayload{SessionID: result.SessionID})
		c.hub.forceDisconnect(result.IncumbentConnID)
	}
}

func (c *Client) handleSongStarted(raw []byte) {
	if !c.requireAdmin("song-started") {
		return
	}
	var req songStartedPayload
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Printf("[ERROR] broadcast: unmarshal song-started: %v", err)
		return
	}
	if req.Song == nil {
		log.Printf("[WARN] broadcast: song-started with no song, dropping")
		return
	}
	var announcement *models.Announcement
	if req.AnnouncementText != "" || req.AnnouncementURL != "" {
		announcement = &models.Announcement{Text: req.AnnouncementText, AudioURL: req.AnnouncementURL}
	}
	c.hub.controller.ReportSongStarted(req.Song, req.StreamURL, announcement, req.Volume, req.AutoNext)
}

func (c *Client) handleGetCurrentSong() {
	cp := c.hub.controller.CurrentlyPlaying()
	payload := currentSongPayload{}
	if cp != nil {
		payload.Song = cp.Song
		payload.StartedAt = cp.StartedAt.UnixMilli()
	}
	c.sendJSON(evtCurrentSong, payload)
}

func (c *Client) handleGetPlaybackState() {
	cached, ok := c.hub.controller.PlaybackCacheForReplay()
	if !ok {
		c.sendJSON(msgPlaybackStopped, struct{}{})
		return
	}
	payload := replayPlaySongPayload{
		Song:        cached.Song,
		StreamURL:   cached.StreamURL,
		Volume:      cached.Volume,
		AutoNext:    cached.AutoNext,
		IsReconnect: true,
	}
	if cached.Announcement != nil {
		payload.AnnouncementText = cached.Announcement.Text
		payload.AnnouncementAudioURL = cached.Announcement.AudioURL
		c.sendJSON("play-announcement", payload)
		return
	}
	c.sendJSON("play-song", payload)
}

// sendSnapshot is sent once on register: CurrentlyPlaying (if any) and the
// currently locked slot (if any), so clients never need a separate REST
// call at attach time (spec.md §4.4).
func (c *Client) sendSnapshot() {
	cp := c.hub.controller.CurrentlyPlaying()
	payload := currentSongPayload{}
	if cp != nil {
		payload.Song = cp.Song
		payload.StartedAt = cp.StartedAt.UnixMilli()
	}
	c.sendJSON(evtCurrentSong, payload)

	c.hub.mu.RLock()
	locked := c.hub.lastLocked
	c.hub.mu.RUnlock()
	if locked != nil {
		c.sendJSON("next-song-locked", *locked)
	}
}

func (c *Client) sendJSON(msgType string, payload interface{}) {
	data, err := json.Marshal(ServerMessage{Type: msgType, Payload: payload})
	if err != nil {
		log.Printf("[ERROR] broadcast: marshal %s reply: %v", msgType, err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
