package live

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/codes"

	ddom "github.com/declarative-dom/ddom-sub003"
	"github.com/declarative-dom/ddom-sub003/pkg/host"
)

// Session owns one engine and streams its reconciliation passes to
// one WebSocket connection at a time. A session survives its
// connection: after a disconnect the engine keeps running and the
// patch history keeps filling until the client resumes or the resume
// TTL evicts the session.
type Session struct {
	// ID is the opaque identifier the client presents to resume.
	ID string

	srv    *Server
	engine *ddom.Engine
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	conn *websocket.Conn

	sendSeq    atomic.Uint64
	ackSeq     atomic.Uint64
	lastActive atomic.Int64
	bytesSent  atomic.Uint64
	bytesRecv  atomic.Uint64

	history *history

	done          chan struct{}
	terminateOnce sync.Once
}

func newSessionID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

func (s *Server) newSession(conn *websocket.Conn) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("session", id)
	engCfg := s.config.Engine
	if engCfg.Logger == nil {
		engCfg.Logger = logger
	}

	engine, err := ddom.New(s.spec, engCfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	sess := &Session{
		ID:      id,
		srv:     s,
		engine:  engine,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		conn:    conn,
		history: newHistory(s.config.HistorySize),
		done:    make(chan struct{}),
	}
	sess.touch()
	return sess, nil
}

// start wires the watchers, sends the hello and the initial tree, and
// spawns the session loops.
func (s *Session) start() {
	for _, u := range s.engine.Units() {
		u := u
		s.engine.Graph().Watch(u.Collection.Items(), func() {
			s.pass(u)
		})
	}

	s.sendHello(false)
	for _, u := range s.engine.Units() {
		s.pass(u)
	}

	go func() {
		err := s.engine.Run(s.ctx)
		if err != nil && err != context.Canceled {
			s.logger.Error("engine stopped", "error", err)
		}
	}()

	conn := s.currentConn()
	go s.readLoop(conn)
	go s.writeLoop(conn)
}

// resume swaps in a fresh connection and brings the client back up to
// date, replaying history when it reaches back to lastSeq and
// rebuilding the containers when it does not.
func (s *Session) resume(conn *websocket.Conn, lastSeq uint64) {
	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}

	s.touch()
	s.logger.Info("session resumed", "last_seq", lastSeq)

	s.sendHello(true)
	s.resync(lastSeq)

	go s.readLoop(conn)
	go s.writeLoop(conn)
}

// pass runs one reconciliation for a unit and streams the result.
// Runs on the engine goroutine.
func (s *Session) pass(u *ddom.Unit) {
	_, span := s.srv.tracer.Start(s.ctx, "ddom.reconcile")
	defer span.End()

	start := time.Now()
	res, ops := u.Sync()
	elapsed := time.Since(start)

	span.SetAttributes(passAttributes(u.Name,
		res.Created, res.Updated, res.Removed, res.Moved, res.Skipped, len(ops))...)
	s.srv.metrics.recordPass(u.Name, elapsed.Seconds(), res.Skipped, opCounts(ops))

	if len(ops) == 0 {
		span.SetStatus(codes.Ok, "")
		return
	}
	if err := s.sendPatches(u.Name, ops); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

func opCounts(ops []host.Op) []hostOpCount {
	byKind := make(map[string]int, 4)
	for _, op := range ops {
		byKind[op.Kind.String()]++
	}
	out := make([]hostOpCount, 0, len(byKind))
	for op, n := range byKind {
		out = append(out, hostOpCount{op: op, n: n})
	}
	return out
}

// sendPatches encodes one pass, splitting it over as many frames as
// it needs. Every frame lands in the history even when the session is
// detached, so a later resume can replay it.
func (s *Session) sendPatches(collection string, ops []host.Op) error {
	chunks, err := splitOps(collection, ops)
	if err != nil {
		s.logger.Error("patch split failed", "collection", collection, "error", err)
		return err
	}

	for i, chunk := range chunks {
		seq := s.sendSeq.Add(1)
		payload, err := EncodePatches(&PatchesFrame{
			Collection: collection,
			Seq:        seq,
			Ops:        chunk,
		})
		if err != nil {
			s.logger.Error("patch encode failed", "collection", collection, "error", err)
			return err
		}

		var flags FrameFlags
		if i == len(chunks)-1 {
			flags = FlagFinal
		}
		data, err := NewFrameWithFlags(FramePatches, flags, payload).Encode()
		if err != nil {
			s.logger.Error("patch frame too large", "collection", collection, "error", err)
			return err
		}

		s.history.add(seq, data)
		s.srv.metrics.patchFramesTotal.Inc()
		s.srv.metrics.patchBytesTotal.Add(float64(len(data)))
		s.writeData(data)
	}
	return nil
}

func (s *Session) sendHello(resumed bool) {
	units := s.engine.Units()
	hello := &HelloFrame{
		SessionID:   s.ID,
		Resumed:     resumed,
		LastSeq:     s.sendSeq.Load(),
		Collections: make([]HelloCollection, 0, len(units)),
	}
	for _, u := range units {
		hello.Collections = append(hello.Collections, HelloCollection{
			Name: u.Name,
			Root: u.Host.Root.ID(),
		})
	}

	data, err := NewFrame(FrameHello, EncodeHello(hello)).Encode()
	if err != nil {
		s.logger.Error("hello frame too large", "error", err)
		return
	}
	s.writeData(data)
}

// resync brings the client past lastSeq. It runs on the engine
// goroutine so replays and rebuilds never interleave with a pass.
func (s *Session) resync(lastSeq uint64) {
	s.engine.Graph().Scheduler().Dispatch(func() {
		frames, ok := s.history.since(lastSeq)
		if ok {
			s.logger.Info("replaying patch history",
				"last_seq", lastSeq, "frames", len(frames))
			for _, f := range frames {
				s.writeData(f)
			}
			return
		}

		s.logger.Info("history gap, rebuilding containers", "last_seq", lastSeq)
		for _, u := range s.engine.Units() {
			if err := s.sendPatches(u.Name, rebuildOps(u.Host.Root)); err != nil {
				return
			}
		}
	})
}

// readLoop consumes frames until its connection dies, then detaches.
func (s *Session) readLoop(conn *websocket.Conn) {
	defer s.detachConn(conn)

	if s.srv.config.MaxMessageSize > 0 {
		conn.SetReadLimit(s.srv.config.MaxMessageSize)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(s.srv.config.ReadTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				s.srv.metrics.wsErrorsTotal.WithLabelValues("read").Inc()
			}
			return
		}

		s.touch()
		s.bytesRecv.Add(uint64(len(msg)))

		frame, err := DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			s.srv.metrics.wsErrorsTotal.WithLabelValues("decode").Inc()
			continue
		}

		switch frame.Type {
		case FrameControl:
			s.handleControl(frame.Payload)
		case FrameAck:
			s.handleAck(frame.Payload)
		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type.String())
		}
	}
}

// writeLoop heartbeats its connection until the connection is
// replaced or the session terminates.
func (s *Session) writeLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(s.srv.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			current := s.conn == conn
			s.mu.Unlock()
			if !current {
				return
			}
			s.sendPing()
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleControl(payload []byte) {
	ct, data, err := DecodeControl(payload)
	if err != nil {
		s.logger.Error("control decode error", "error", err)
		return
	}

	switch ct {
	case ControlPing:
		if pp, ok := data.(*PingPong); ok {
			s.sendPong(pp.Timestamp)
		}

	case ControlPong:
		s.logger.Debug("pong received")

	case ControlResync:
		if rr, ok := data.(*ResyncRequest); ok {
			s.resync(rr.LastSeq)
		}

	case ControlClose:
		if cm, ok := data.(*CloseMessage); ok {
			s.logger.Info("client closing",
				"reason", cm.Reason.String(), "message", cm.Message)
		}
		s.srv.dropSession(s, CloseNormal, "client closed")
	}
}

func (s *Session) handleAck(payload []byte) {
	ack, err := DecodeAck(payload)
	if err != nil {
		s.logger.Error("ack decode error", "error", err)
		return
	}
	s.ackSeq.Store(ack.LastSeq)
	s.logger.Debug("ack", "seq", ack.LastSeq, "window", ack.Window)
}

func (s *Session) sendPing() {
	payload, err := EncodeControl(ControlPing, &PingPong{
		Timestamp: uint64(time.Now().UnixMilli()),
	})
	if err != nil {
		return
	}
	if data, err := NewFrame(FrameControl, payload).Encode(); err == nil {
		s.writeData(data)
	}
}

func (s *Session) sendPong(timestamp uint64) {
	payload, err := EncodeControl(ControlPong, &PingPong{Timestamp: timestamp})
	if err != nil {
		return
	}
	if data, err := NewFrame(FrameControl, payload).Encode(); err == nil {
		s.writeData(data)
	}
}

func (s *Session) sendClose(reason CloseReason, message string) {
	payload, err := EncodeControl(ControlClose, &CloseMessage{
		Reason:  reason,
		Message: message,
	})
	if err != nil {
		return
	}
	if data, err := NewFrame(FrameControl, payload).Encode(); err == nil {
		s.writeData(data)
	}
}

// writeData writes one encoded frame to the current connection. A
// write failure detaches; a detached session drops the write, the
// history already has it.
func (s *Session) writeData(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.srv.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		s.logger.Warn("write failed, detaching", "error", err)
		s.srv.metrics.wsErrorsTotal.WithLabelValues("write").Inc()
		s.conn.Close()
		s.conn = nil
		return
	}
	s.bytesSent.Add(uint64(len(data)))
}

// detachConn drops conn if it is still the active connection. The
// session keeps running for the resume window.
func (s *Session) detachConn(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn && s.conn != nil {
		s.conn.Close()
		s.conn = nil
		s.logger.Info("session detached")
	}
	s.mu.Unlock()
	s.touch()
}

// terminate winds the session down for good: close message, engine
// shutdown, connection close. Idempotent.
func (s *Session) terminate(reason CloseReason, message string) {
	s.terminateOnce.Do(func() {
		s.sendClose(reason, message)
		s.cancel()
		s.engine.Close()
		close(s.done)

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.mu.Unlock()

		s.srv.metrics.sessionsActive.Dec()
		s.logger.Info("session terminated", "reason", reason.String())
	})
}

func (s *Session) currentConn() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Session) detached() bool {
	return s.currentConn() == nil
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) lastActiveAt() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// BytesSent returns the bytes written to clients over the session's
// lifetime.
func (s *Session) BytesSent() uint64 { return s.bytesSent.Load() }

// BytesReceived returns the bytes read from clients.
func (s *Session) BytesReceived() uint64 { return s.bytesRecv.Load() }

// LastSeq returns the last patch sequence handed out.
func (s *Session) LastSeq() uint64 { return s.sendSeq.Load() }

// AckedSeq returns the last sequence the client acknowledged.
func (s *Session) AckedSeq() uint64 { return s.ackSeq.Load() }
