package surface

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/common"
	"github.com/AlexZinkM/wallet-agent/internal/model"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Frame types exchanged with approval UIs.
const (
	FrameLaunch  = "launch"
	FrameApprove = "approve"
	FrameReject  = "reject"
	FrameClosed  = "closed"
	FrameError   = "error"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Frame is the JSON message on the approval websocket.
type Frame struct {
	Type       string              `json:"type"`
	ApprovalID uint64              `json:"approvalId"`
	Launch     *model.LaunchParams `json:"launch,omitempty"`
	Password   string              `json:"password,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Hub is a Host whose surfaces live in approval UIs attached over a websocket.
// Launches opened while no UI is attached wait and are handed to the next UI that attaches.
// When a UI's connection drops, every surface it hosted is considered closed.
type Hub struct {
	upgrader websocket.Upgrader

	mu         sync.Mutex
	decider    Decider
	conns      map[*wsConn]struct{}
	surfaces   map[uint64]*wsSurface
	unassigned []*wsSurface
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return common.IsLocalCaller(r.Host, r.Header.Get("Origin"))
			},
		},
		conns:    make(map[*wsConn]struct{}),
		surfaces: make(map[uint64]*wsSurface),
	}
}

// SetDecider wires the broker in after construction.
func (h *Hub) SetDecider(d Decider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.decider = d
}

// Attached returns the number of connected approval UIs.
func (h *Hub) Attached() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Open implements Host.
func (h *Hub) Open(_ context.Context, params model.LaunchParams) (Surface, error) {
	s := &wsSurface{
		hub:    h,
		id:     params.ApprovalID,
		params: params,
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if _, exists := h.surfaces[s.id]; exists {
		h.mu.Unlock()
		return nil, errors.New("surface already open for approval")
	}
	h.surfaces[s.id] = s
	c := h.pickConnLocked()
	if c == nil {
		h.unassigned = append(h.unassigned, s)
	} else {
		s.conn = c
		c.surfaces[s.id] = struct{}{}
	}
	h.mu.Unlock()

	if c != nil {
		c.push(Frame{Type: FrameLaunch, ApprovalID: s.id, Launch: &s.params})
	}
	log.WithFields(log.Fields{"approvalId": s.id, "kind": params.Kind, "attached": c != nil}).Debug("decision surface opened")
	return s, nil
}

// pickConnLocked returns the UI hosting the fewest surfaces.
func (h *Hub) pickConnLocked() *wsConn {
	var best *wsConn
	for c := range h.conns {
		if best == nil || len(c.surfaces) < len(best.surfaces) {
			best = c
		}
	}
	return best
}

// ServeHTTP upgrades an approval UI connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("approval websocket upgrade failed")
		return
	}

	c := &wsConn{
		hub:      h,
		ws:       ws,
		send:     make(chan Frame, sendBuffer),
		quit:     make(chan struct{}),
		surfaces: make(map[uint64]struct{}),
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	pending := h.unassigned
	h.unassigned = nil
	for _, s := range pending {
		s.conn = c
		c.surfaces[s.id] = struct{}{}
	}
	h.mu.Unlock()

	log.WithField("remote", r.RemoteAddr).Info("approval UI attached")

	go c.writeLoop()
	for _, s := range pending {
		c.push(Frame{Type: FrameLaunch, ApprovalID: s.id, Launch: &s.params})
	}
	c.readLoop(r.Context())
}

// detach drops a connection and closes every surface it hosted.
func (h *Hub) detach(c *wsConn) {
	h.mu.Lock()
	delete(h.conns, c)
	var orphaned []*wsSurface
	for id := range c.surfaces {
		if s, ok := h.surfaces[id]; ok {
			orphaned = append(orphaned, s)
		}
	}
	h.mu.Unlock()

	for _, s := range orphaned {
		s.markDone()
	}
	log.WithField("surfaces", len(orphaned)).Info("approval UI detached")
}

func (h *Hub) remove(s *wsSurface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.surfaces, s.id)
	if s.conn != nil {
		delete(s.conn.surfaces, s.id)
	}
	for i, u := range h.unassigned {
		if u == s {
			h.unassigned = append(h.unassigned[:i], h.unassigned[i+1:]...)
			break
		}
	}
}

// owned returns the surface id if it is hosted by c.
func (h *Hub) owned(c *wsConn, id uint64) (*wsSurface, Decider, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := c.surfaces[id]; !ok {
		return nil, nil, false
	}
	return h.surfaces[id], h.decider, true
}

type wsSurface struct {
	hub    *Hub
	id     uint64
	params model.LaunchParams
	conn   *wsConn // guarded by hub.mu

	once sync.Once
	done chan struct{}
}

func (s *wsSurface) Done() <-chan struct{} {
	return s.done
}

// Close tears the surface down and tells the hosting UI to dismiss it.
func (s *wsSurface) Close() {
	s.hub.mu.Lock()
	c := s.conn
	s.hub.mu.Unlock()

	if s.markDone() && c != nil {
		c.push(Frame{Type: FrameClosed, ApprovalID: s.id})
	}
}

// markDone closes done once and unregisters the surface. Reports whether this call did it.
func (s *wsSurface) markDone() bool {
	closed := false
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
		closed = true
	})
	return closed
}

type wsConn struct {
	hub      *Hub
	ws       *websocket.Conn
	send     chan Frame
	quit     chan struct{}
	quitOnce sync.Once
	surfaces map[uint64]struct{} // guarded by hub.mu
}

// push queues a frame; frames to a dead or stalled UI are dropped.
func (c *wsConn) push(f Frame) {
	select {
	case c.send <- f:
	case <-c.quit:
	default:
		log.WithField("approvalId", f.ApprovalID).Warn("approval UI send buffer full, dropping frame")
	}
}

func (c *wsConn) stop() {
	c.quitOnce.Do(func() { close(c.quit) })
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case f := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(f); err != nil {
				log.WithError(err).Debug("approval websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quit:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (c *wsConn) readLoop(ctx context.Context) {
	defer func() {
		c.stop()
		c.hub.detach(c)
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("approval websocket closed")
			}
			return
		}
		c.handle(ctx, f)
	}
}

func (c *wsConn) handle(ctx context.Context, f Frame) {
	s, decider, ok := c.hub.owned(c, f.ApprovalID)
	if !ok || decider == nil {
		c.push(Frame{Type: FrameError, ApprovalID: f.ApprovalID, Error: model.ErrApprovalNotFound.Error()})
		return
	}

	switch f.Type {
	case FrameApprove:
		password := []byte(f.Password)
		err := decider.Approve(ctx, f.ApprovalID, password)
		clear(password)
		if err != nil {
			c.push(Frame{Type: FrameError, ApprovalID: f.ApprovalID, Error: err.Error()})
		}
	case FrameReject:
		decider.Reject(f.ApprovalID)
	case FrameClosed:
		s.markDone()
	default:
		c.push(Frame{Type: FrameError, ApprovalID: f.ApprovalID, Error: "unknown frame type"})
	}
}
