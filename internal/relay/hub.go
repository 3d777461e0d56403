package relay

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// MediaSink receives accepted media for off-host processing (cloud speech or
// vision services). Forwarding to a sink is gated by the consent flag.
type MediaSink interface {
	ConsumeAudio(ctx context.Context, msg AudioChunkMessage) error
	ConsumeFrame(ctx context.Context, msg FrameCaptureMessage) error
}

// outbound pairs a payload with its sender so broadcasts can skip the origin.
type outbound struct {
	sender clientInterface
	data   []byte
}

// Hub manages relay connections and fan-out of metadata notifications.
type Hub struct {
	clients        map[clientInterface]bool
	broadcast      chan outbound
	register       chan clientInterface
	unregister     chan clientInterface
	mu             sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
	cloudConsent   bool
	originPatterns []string
	sink           MediaSink
}

// clientInterface allows for both real clients and mock clients.
type clientInterface interface {
	getSendChannel() chan []byte
	close()
}

// Client represents one relay connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) getSendChannel() chan []byte {
	return c.send
}

func (c *Client) close() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

// NewHub creates a relay hub. allowedOrigins is the browser origin allow-list
// checked during the WebSocket handshake; sink may be nil when no off-host
// processing is configured.
func NewHub(cloudConsent bool, allowedOrigins []string, sink MediaSink) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:        make(map[clientInterface]bool),
		broadcast:      make(chan outbound, 256),
		register:       make(chan clientInterface),
		unregister:     make(chan clientInterface),
		ctx:            ctx,
		cancel:         cancel,
		cloudConsent:   cloudConsent,
		originPatterns: hostPatterns(allowedOrigins),
		sink:           sink,
	}
}

// hostPatterns converts configured origins ("http://localhost:5000") into the
// host patterns the handshake matches Origin headers against.
func hostPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}

// Run starts the hub's connection and fan-out loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("relay peer connected (total: %d)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.getSendChannel())
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("relay peer disconnected (total: %d)", count)

		case msg := <-h.broadcast:
			// Full Lock: slow receivers are dropped from the map here.
			h.mu.Lock()
			for client := range h.clients {
				if client == msg.sender {
					continue
				}
				sendChan := client.getSendChannel()
				select {
				case sendChan <- msg.data:
				default:
					close(sendChan)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			log.Println("relay hub stopping...")
			return
		}
	}
}

// Stop gracefully shuts down the hub and closes all connections.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		close(client.getSendChannel())
		client.close()
	}
	h.clients = make(map[clientInterface]bool)
	h.mu.Unlock()
}

// BroadcastExcept queues a payload for every peer but the sender.
func (h *Hub) BroadcastExcept(sender clientInterface, data []byte) {
	select {
	case h.broadcast <- outbound{sender: sender, data: data}:
	default:
		log.Println("WARNING: relay broadcast channel full, dropping notification")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client clientInterface) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client clientInterface) {
	h.unregister <- client
}

// PeerCount returns the number of connected peers.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles relay upgrade requests. The admission check runs before
// the upgrade: a non-local peer without consent never gets a socket.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	allowed, err := PeerAllowed(r.RemoteAddr, h.cloudConsent)
	if err != nil {
		log.Printf("WARNING: relay admission check failed: %v", err)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if !allowed {
		log.Printf("WARNING: relay rejected non-local peer without cloud consent")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Printf("ERROR: relay upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(8 << 20)

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.Register(client)

	go client.writePump()
	go client.readPump()
}

// HandleMessage dispatches one decoded inbound payload from sender. Exported
// for tests; the read pump is the production caller.
func (h *Hub) HandleMessage(ctx context.Context, sender clientInterface, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("WARNING: relay dropped undecodable message (%d bytes)", len(raw))
		return
	}

	switch env.Type {
	case TypeAudioChunk:
		var msg AudioChunkMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("WARNING: relay dropped malformed %s message", env.Type)
			return
		}
		h.forwardAudio(ctx, msg)

	case TypeFrameCapture:
		var msg FrameCaptureMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("WARNING: relay dropped malformed %s message", env.Type)
			return
		}
		h.forwardFrame(ctx, msg)

		data, err := newFrameReceived(msg.TS, len(msg.ImageBase64))
		if err != nil {
			log.Printf("ERROR: relay failed to build frame notification: %v", err)
			return
		}
		h.BroadcastExcept(sender, data)

	default:
		log.Printf("WARNING: relay dropped message of unknown type %q", env.Type)
	}
}

// forwardAudio hands an audio chunk to the off-host sink, consent permitting.
// Logs carry metadata only.
func (h *Hub) forwardAudio(ctx context.Context, msg AudioChunkMessage) {
	if h.sink == nil {
		return
	}
	if !h.cloudConsent {
		log.Printf("WARNING: dropped audio chunk (%d bytes): cloud consent not granted", len(msg.Chunk))
		return
	}
	if err := h.sink.ConsumeAudio(ctx, msg); err != nil {
		log.Printf("ERROR: audio sink failed: %v", err)
	}
}

func (h *Hub) forwardFrame(ctx context.Context, msg FrameCaptureMessage) {
	if h.sink == nil {
		return
	}
	if !h.cloudConsent {
		log.Printf("WARNING: dropped frame (%d bytes): cloud consent not granted", len(msg.ImageBase64))
		return
	}
	if err := h.sink.ConsumeFrame(ctx, msg); err != nil {
		log.Printf("ERROR: frame sink failed: %v", err)
	}
}

// writePump sends queued payloads to the connection.
func (c *Client) writePump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()

		if err != nil {
			log.Printf("ERROR: relay write failed: %v", err)
			return
		}
	}
}

// readPump reads inbound media messages until the connection closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, raw, err := c.conn.Read(c.hub.ctx)
		if err != nil {
			return
		}
		c.hub.HandleMessage(c.hub.ctx, c, raw)
	}
}

// MockClient is a mock client for testing.
type MockClient struct {
	SendChan chan []byte
}

func (m *MockClient) getSendChannel() chan []byte {
	return m.SendChan
}

func (m *MockClient) close() {
	// No-op for mock client
}
