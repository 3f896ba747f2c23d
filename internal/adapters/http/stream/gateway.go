package stream

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/analysis"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/logger"
)

// CloseUnauthorized is the application close code sent when the caller
// does not own the session. It is emitted before any message is read.
const CloseUnauthorized = 4004

// Authorizer checks that the caller owns the session before the
// gateway accepts any message.
type Authorizer interface {
	OwnsSession(ctx context.Context, sessionID, userID string) bool
}

// Dependencies required by the gateway. The gateway borrows session
// state through these; it never retains it past teardown.
type Dependencies interface {
	Authorizer

	// IngestChunk hands a chunk to the scoring pipeline. False means
	// the chunk was dropped under backpressure.
	IngestChunk(ctx context.Context, chunk model.Chunk) bool

	// SessionReports returns the current analysis summaries.
	SessionReports(ctx context.Context, sessionID string) (analysis.AudioReport, analysis.VisualReport, error)
}

// Gateway upgrades and drives one WebSocket connection per session.
type Gateway struct {
	deps     Dependencies
	hub      *Hub
	upgrader websocket.Upgrader
	log      logger.Logger
	now      func() time.Time
}

// GatewayOption applies a configuration option to the Gateway.
type GatewayOption func(*Gateway)

// WithGatewayLogger sets a custom logger.
func WithGatewayLogger(log logger.Logger) GatewayOption {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}

// WithGatewayClock overrides the time source for tests.
func WithGatewayClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGateway creates the gateway against the given hub.
func NewGateway(deps Dependencies, hub *Hub, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		deps: deps,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from a separate frontend origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logger.Get().Named("stream"),
		now: time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Register attaches the WebSocket route to mux.
func (g *Gateway) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws/", g.HandleStream)
}

// HandleStream handles GET /ws/{session_id}?user_id={user_id}. An
// unauthorized caller gets close code 4004 before any message is read.
func (g *Gateway) HandleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/ws/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		http.NotFound(w, r)
		return
	}
	userID := r.URL.Query().Get("user_id")

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	if !g.deps.OwnsSession(r.Context(), sessionID, userID) {
		conn := &Conn{sessionID: sessionID, ws: ws}
		conn.sendClose(CloseUnauthorized, "session not found or access denied")
		_ = ws.Close()
		return
	}

	conn, displaced := g.hub.Register(sessionID, ws)
	if displaced != nil {
		g.finalize(r.Context(), displaced)
	}

	g.readLoop(r.Context(), conn)
	g.finalize(r.Context(), conn)
}

func (g *Gateway) readLoop(ctx context.Context, conn *Conn) {
	for {
		var msg inboundMessage
		if err := conn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.Debug(ctx, "websocket read ended",
					logger.String("session_id", conn.sessionID),
					logger.Error(err),
				)
			}
			return
		}

		g.handleMessage(ctx, conn, msg)
	}
}

func (g *Gateway) handleMessage(ctx context.Context, conn *Conn, msg inboundMessage) {
	switch msg.Type {
	case msgAudioChunk:
		g.ingest(ctx, conn.sessionID, model.KindAudio, msg.AudioData)
	case msgVideoFrame:
		g.ingest(ctx, conn.sessionID, model.KindVisual, msg.FrameData)
	case msgPing:
		if err := conn.send(newPong(g.now())); err != nil {
			g.log.Debug(ctx, "pong write failed", logger.Error(err))
		}
	case msgRequestFeedback:
		g.sendSummary(ctx, conn, "")
	default:
		g.log.Warn(ctx, "unknown message type",
			logger.String("session_id", conn.sessionID),
			logger.String("type", msg.Type),
		)
	}
}

func (g *Gateway) ingest(ctx context.Context, sessionID string, kind model.SampleKind, data []byte) {
	if len(data) == 0 {
		return
	}

	g.deps.IngestChunk(ctx, model.Chunk{
		SessionID:  sessionID,
		Kind:       kind,
		Data:       data,
		ReceivedAt: g.now(),
	})
}

func (g *Gateway) sendSummary(ctx context.Context, conn *Conn, summaryType string) {
	audioReport, visualReport, err := g.deps.SessionReports(ctx, conn.sessionID)
	if err != nil {
		g.log.Warn(ctx, "session reports unavailable",
			logger.String("session_id", conn.sessionID),
			logger.Error(err),
		)
		return
	}

	if err := conn.send(newFeedbackSummary(audioReport, visualReport, summaryType, g.now())); err != nil {
		g.log.Debug(ctx, "summary write failed", logger.Error(err))
	}
}

// finalize emits the final analysis summary, removes the connection
// from the hub, and closes the socket. It runs at most once per
// connection regardless of how many paths race into it. Session state
// outlives the socket; only the connection entry is removed.
func (g *Gateway) finalize(ctx context.Context, conn *Conn) {
	conn.teardown.Do(func() {
		g.sendSummary(ctx, conn, summaryFinalAnalysis)
		g.hub.Unregister(conn)
		_ = conn.ws.Close()
	})
}
