package gameserver

import (
	"context"

	"github.com/sm64js/realtime-server/session"
	"github.com/sm64js/realtime-server/wire"
)

// HandleMessage implements session.Handler, routing each decoded message to
// the matching Server operation per spec.md §4.4's dispatch table. Ping is
// handled entirely inside the Session (it never reaches here).
func (s *Server) HandleMessage(sess *session.Session, msg *wire.Sm64JsMsg) {
	socketID := sess.SocketID()

	switch {
	case msg.Mario != nil:
		s.SetData(socketID, *msg.Mario)

	case msg.Attack != nil:
		s.SendAttack(socketID, *msg.Attack)

	case msg.Grab != nil:
		s.SendGrab(socketID, *msg.Grab)

	case msg.Chat != nil:
		if reply := s.SendChat(context.Background(), socketID, msg.Chat.Message); reply != nil {
			sess.Enqueue(wire.EncodeUncompressed(&wire.Sm64JsMsg{Chat: reply}))
		}

	case msg.Skin != nil:
		s.SendSkin(socketID, *msg.Skin)

	case msg.Initialization != nil:
		s.handleInitialization(sess, msg.Initialization)

	default:
		// List, PlayerLists, Announcement, and a bare InitGameData are
		// client-bound only; ignored on inbound per spec.md §4.4.
	}
}

func (s *Server) handleInitialization(sess *session.Session, init *wire.InitializationMsg) {
	socketID := sess.SocketID()

	switch {
	case init.JoinGame != nil:
		result := s.SendJoinGame(socketID, *init.JoinGame)
		frame := wire.EncodeUncompressed(&wire.Sm64JsMsg{
			Initialization: &wire.InitializationMsg{InitGameData: &result},
		})
		sess.Enqueue(frame)

	case init.RequestCosmetics != nil:
		for _, skin := range s.SendRequestCosmetics(socketID) {
			skin := skin
			sess.Enqueue(wire.EncodeUncompressed(&wire.Sm64JsMsg{Skin: &skin}))
		}
	}
}

// HandleClose implements session.Handler.
func (s *Server) HandleClose(sess *session.Session) {
	s.Disconnect(sess.SocketID())
}
