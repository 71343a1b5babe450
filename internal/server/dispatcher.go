package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avelinof/chatrelay/internal/chat"
	"github.com/avelinof/chatrelay/internal/protocol"
	"github.com/avelinof/chatrelay/internal/services"
)

// HandleConn runs the full lifecycle of one client connection: session
// setup, the frame dispatch loop, and teardown with a departure notice. It
// is exported so alternate transports (the WebSocket gateway) can feed
// connections into the same dispatcher.
func (s *Server) HandleConn(conn io.ReadWriteCloser, remote string) {
	sess := chat.NewSession(conn, remote)
	s.hub.Register(sess)
	go sess.WriteLoop()

	s.dispatchLoop(sess, bufio.NewReader(conn))

	if room, ok := s.hub.Leave(sess); ok {
		s.hub.Broadcast(room, protocol.MustEncode(protocol.NewSystem(sess.Username()+" left the room")), nil)
	}
	s.hub.Unregister(sess)
	sess.Close()
}

// dispatchLoop reads control frames until the transport closes or a frame is
// fatally malformed. Decode failures are answered on the offending
// connection; the connection itself continues.
func (s *Server) dispatchLoop(sess *chat.Session, r *bufio.Reader) {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		req, perr := protocol.ParseRequest(line)
		if perr != nil {
			sess.Enqueue(protocol.MustEncode(protocol.NewErrorFrame(perr.Reason)))
			continue
		}

		if err := s.dispatch(sess, r, req); err != nil {
			log.Error().Err(err).Str("remote", sess.Remote()).Msg("Fatal session error")
			return
		}
	}
}

// dispatch applies one request to the session. A returned error is fatal to
// the connection (the stream can no longer be trusted).
func (s *Server) dispatch(sess *chat.Session, r *bufio.Reader, req protocol.Request) error {
	switch req := req.(type) {
	case protocol.Register:
		s.handleRegister(sess, req)
		return nil
	case protocol.Login:
		s.handleLogin(sess, req)
		return nil
	}

	// Everything else requires an authenticated session.
	if sess.State() == chat.StateNew {
		sess.Enqueue(protocol.MustEncode(protocol.NewErrorFrame("not_authenticated")))
		return nil
	}

	switch req := req.(type) {
	case protocol.Join:
		s.handleJoin(sess, req)
	case protocol.Message:
		s.handleMessage(sess, req)
	case protocol.FileMeta:
		return s.handleFileMeta(sess, r, req)
	case protocol.ListRooms:
		sess.Enqueue(protocol.MustEncode(protocol.NewRooms(s.hub.ListRooms())))
	}
	return nil
}

func (s *Server) handleRegister(sess *chat.Session, req protocol.Register) {
	_, err := s.users.Register(req.Username, req.Password)
	switch {
	case err == nil:
		sess.Enqueue(protocol.MustEncode(protocol.NewRegisterResponse(true, "ok")))
	case errors.Is(err, services.ErrUsernameTaken):
		sess.Enqueue(protocol.MustEncode(protocol.NewRegisterResponse(false, "username_taken")))
	default:
		log.Error().Err(err).Str("username", req.Username).Msg("Registration failed")
		sess.Enqueue(protocol.MustEncode(protocol.NewRegisterResponse(false, "internal_error")))
	}
}

func (s *Server) handleLogin(sess *chat.Session, req protocol.Login) {
	var username, userID string

	if req.Token != "" && req.Username == "" {
		claims, err := s.tokens.ValidateToken(req.Token)
		if err != nil {
			sess.Enqueue(protocol.MustEncode(protocol.NewLoginResponse(false, "bad_credentials", "")))
			return
		}
		if _, err := s.users.GetUserByUsername(claims.Username); err != nil {
			sess.Enqueue(protocol.MustEncode(protocol.NewLoginResponse(false, "bad_credentials", "")))
			return
		}
		username, userID = claims.Username, claims.UserID
	} else {
		if !s.users.Verify(req.Username, req.Password) {
			sess.Enqueue(protocol.MustEncode(protocol.NewLoginResponse(false, "bad_credentials", "")))
			return
		}
		username = req.Username
		if user, err := s.users.GetUserByUsername(username); err == nil {
			userID = user.ID
		}
	}

	// A re-login while joined returns the session to the authenticated,
	// room-less state so the registry never disagrees with the session.
	if room, ok := s.hub.Leave(sess); ok {
		s.hub.Broadcast(room, protocol.MustEncode(protocol.NewSystem(sess.Username()+" left the room")), nil)
	}
	sess.Authenticate(username)

	token, err := s.tokens.GenerateToken(userID, username)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Could not issue resume token")
		token = ""
	}
	sess.Enqueue(protocol.MustEncode(protocol.NewLoginResponse(true, "", token)))
	log.Info().Str("username", username).Str("remote", sess.Remote()).Msg("Login successful")
}

func (s *Server) handleJoin(sess *chat.Session, req protocol.Join) {
	username := sess.Username()

	old := s.hub.Join(sess, req.Room)
	if old != "" {
		s.hub.Broadcast(old, protocol.MustEncode(protocol.NewSystem(username+" left the room")), nil)
	}

	sess.Enqueue(protocol.MustEncode(protocol.NewJoinResponse(req.Room)))

	history, err := s.messages.Recent(req.Room, s.cfg.HistoryLimit)
	if err != nil {
		log.Error().Err(err).Str("room", req.Room).Msg("Could not load history")
		history = nil
	}
	sess.Enqueue(protocol.MustEncode(protocol.NewHistory(req.Room, history)))

	s.hub.Broadcast(req.Room, protocol.MustEncode(protocol.NewSystem(username+" joined the room")), sess)
}

func (s *Server) handleMessage(sess *chat.Session, req protocol.Message) {
	room := sess.Room()
	if room == "" {
		room = protocol.DefaultRoom
	}

	// Persist first, then fan out with the server-assigned timestamp.
	msg, err := s.messages.Append(room, sess.Username(), req.Text, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("Could not persist message")
		sess.Enqueue(protocol.MustEncode(protocol.NewErrorFrame("internal_error")))
		return
	}
	s.hub.Broadcast(room, protocol.MustEncode(protocol.NewChatMessage(msg)), nil)
}

// handleFileMeta acknowledges the announcement, then switches the connection
// to raw mode and consumes exactly the declared byte count before any line
// parsing resumes. A short read desynchronizes the stream and is fatal; no
// record is written for a body that was not fully received.
func (s *Server) handleFileMeta(sess *chat.Session, r *bufio.Reader, req protocol.FileMeta) error {
	room := sess.Room()
	if room == "" {
		room = protocol.DefaultRoom
	}

	sess.Enqueue(protocol.MustEncode(protocol.NewFileReady()))

	path, err := s.files.SaveUpload(r, req.Filename, req.Size)
	if err != nil {
		return err
	}

	rec, err := s.files.RecordShare(room, sess.Username(), req.Filename, path, time.Now().UTC())
	if err != nil {
		// Body fully consumed, stream still in sync; fail only this request.
		log.Error().Err(err).Str("room", room).Str("filename", req.Filename).Msg("Could not record file share")
		sess.Enqueue(protocol.MustEncode(protocol.NewErrorFrame("internal_error")))
		return nil
	}

	log.Info().Str("room", room).Str("sender", rec.Sender).Str("filename", rec.Filename).Int64("size", req.Size).Msg("File shared")
	s.hub.Broadcast(room, protocol.MustEncode(protocol.NewFileShared(rec)), nil)
	return nil
}
