package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeRoutes ReloadMessageType = "routes-rebuilt"
	ReloadTypeData   ReloadMessageType = "loader-data-update"
	ReloadTypeError  ReloadMessageType = "error"
	ReloadTypeClear  ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type       ReloadMessageType `json:"type"`
	Generation uint64            `json:"generation,omitempty"`
	RoutePaths []string          `json:"routePaths,omitempty"`
	File       string            `json:"file,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Notifier receives dev loop outcomes. ReloadServer implements it.
type Notifier interface {
	NotifyRoutes(generation uint64)
	NotifyData(routePaths []string, file string)
	NotifyError(errMsg string)
	ClearError()
}

const (
	reloadWriteWait  = 10 * time.Second
	reloadPongWait   = 60 * time.Second
	reloadPingPeriod = reloadPongWait * 9 / 10
	reloadQueueSize  = 16
)

// ReloadServer fans dev loop messages out to connected browsers. A client
// connecting while a route error is active receives that error first.
type ReloadServer struct {
	mu        sync.Mutex
	clients   map[*reloadClient]struct{}
	lastError string
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

type reloadClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *reloadClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewReloadServer creates a new reload server.
func NewReloadServer(logger *slog.Logger) *ReloadServer {
	if logger == nil {
		logger = slog.Default().With("component", "reload")
	}
	return &ReloadServer{
		clients: make(map[*reloadClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the request and serves the client until it
// disconnects or the server is closed.
func (r *ReloadServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Debug("reload upgrade failed", "error", err)
		return
	}
	c := &reloadClient{conn: conn, send: make(chan []byte, reloadQueueSize)}

	r.mu.Lock()
	r.clients[c] = struct{}{}
	if r.lastError != "" {
		if data, err := json.Marshal(ReloadMessage{Type: ReloadTypeError, Error: r.lastError}); err == nil {
			c.send <- data
		}
	}
	r.mu.Unlock()

	go r.writeLoop(c)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(reloadPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(reloadPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	r.remove(c)
}

func (r *ReloadServer) writeLoop(c *reloadClient) {
	ticker := time.NewTicker(reloadPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(reloadWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				r.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(reloadWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				r.remove(c)
				return
			}
		}
	}
}

func (r *ReloadServer) remove(c *reloadClient) {
	r.mu.Lock()
	delete(r.clients, c)
	r.mu.Unlock()
	c.close()
}

// NotifyRoutes tells clients the route tree was republished.
func (r *ReloadServer) NotifyRoutes(generation uint64) {
	r.broadcast(ReloadMessage{Type: ReloadTypeRoutes, Generation: generation})
}

// NotifyData tells clients that loader data behind routePaths changed.
func (r *ReloadServer) NotifyData(routePaths []string, file string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeData, RoutePaths: routePaths, File: file})
}

// NotifyError shows errMsg on every client until ClearError.
func (r *ReloadServer) NotifyError(errMsg string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError clears the error overlay on all clients.
func (r *ReloadServer) ClearError() {
	r.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

// broadcast queues msg for every client. Clients whose queue is full are
// dropped; the browser script reconnects.
func (r *ReloadServer) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("reload message encode failed", "type", msg.Type, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch msg.Type {
	case ReloadTypeError:
		r.lastError = msg.Error
	case ReloadTypeClear:
		r.lastError = ""
	}
	for c := range r.clients {
		select {
		case c.send <- data:
		default:
			r.logger.Warn("reload client too slow, dropping")
			delete(r.clients, c)
			c.close()
		}
	}
	r.logger.Debug("reload broadcast", "type", msg.Type, "clients", len(r.clients))
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close disconnects every client.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		delete(r.clients, c)
		c.close()
	}
}

// ReloadPath is where the dev server mounts the reload WebSocket.
const ReloadPath = "/_fsroute/reload"

// DevClientScript connects a page to the reload socket. Loader data
// updates are dispatched as an "fsroute:data" DOM event first; the page
// reloads unless a listener calls preventDefault.
const DevClientScript = `
<script>
(function () {
  var delay = 500, overlayId = 'fsroute-error-overlay';

  function overlay(text) {
    var el = document.getElementById(overlayId);
    if (text === null) {
      if (el) el.remove();
      return;
    }
    if (!el) {
      el = document.createElement('pre');
      el.id = overlayId;
      el.style.cssText = 'position:fixed;inset:0;margin:0;padding:24px;overflow:auto;z-index:2147483647;' +
        'background:rgba(20,20,20,.95);color:#f66;font:13px/1.5 monospace;white-space:pre-wrap;';
      document.body.appendChild(el);
    }
    el.textContent = 'fsroute: route error\n\n' + text;
  }

  function handle(msg) {
    switch (msg.type) {
    case 'routes-rebuilt':
      location.reload();
      break;
    case 'loader-data-update':
      if ((msg.routePaths || []).indexOf(location.pathname) === -1) return;
      var ev = new CustomEvent('fsroute:data', {cancelable: true, detail: msg});
      if (window.dispatchEvent(ev)) location.reload();
      break;
    case 'error':
      overlay(msg.error);
      break;
    case 'clear':
      overlay(null);
      break;
    }
  }

  function connect() {
    var ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '` + ReloadPath + `');
    ws.onopen = function () { delay = 500; };
    ws.onmessage = function (e) {
      try { handle(JSON.parse(e.data)); } catch (_) {}
    };
    ws.onclose = function () {
      setTimeout(connect, delay);
      delay = Math.min(delay * 2, 10000);
    };
  }

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', connect);
  } else {
    connect();
  }
})();
</script>
`
