// Package wire implements the length-delimited protobuf framing described in
// spec.md §4.8: a Root envelope carrying either a raw Sm64JsMsg or a
// zlib-compressed one, and the Sm64JsMsg oneof of client/server message
// variants.
//
// Messages are hand-encoded against the protobuf wire format using
// google.golang.org/protobuf/encoding/protowire rather than code generated by
// protoc, which isn't available in this environment (see DESIGN.md). Field
// numbers below are this package's own assignment; they don't need to match
// the original sm64js .proto file since no other implementation talks this
// exact wire format.
package wire

// Vec3 is a position or velocity vector, matching the [x, y, z] float triples
// used throughout the original game's mario/flag messages.
type Vec3 struct {
	X, Y, Z float32
}

// PingMsg is an empty message; Session echoes the verbatim frame bytes back
// to the client on receipt, per spec.md §4.4.
type PingMsg struct{}

// MarioMsg is one client's world-state frame: position, facing, and
// animation, reported ~30x/s.
type MarioMsg struct {
	SocketID    uint32
	Pos         Vec3
	FaceAngle   float32
	AnimationID uint32
}

// FlagMsg is a flag's wire form, as broadcast in every room snapshot.
type FlagMsg struct {
	Pos              Vec3
	LinkedToPlayer   bool
	SocketID         uint32
	HeightBeforeFall float32
}

// MarioListMsg is a room's merged per-tick snapshot.
type MarioListMsg struct {
	Flags  []FlagMsg
	Marios []MarioMsg
}

// SkinMsg carries one player's cosmetic data.
type SkinMsg struct {
	SocketID   uint32
	SkinData   []byte
	PlayerName string
}

// ChatMsg is a chat line, either player-originated or server-originated
// (mute/spam/scream notices, announcements render as AnnouncementMsg
// instead).
type ChatMsg struct {
	Message  string
	Sender   string
	SocketID uint32
	IsServer bool
	IsAdmin  bool
}

// AttackMsg requests a flag drop from whoever the client believes the
// current carrier to be.
type AttackMsg struct {
	FlagID         uint32
	AttackerPos    Vec3
	TargetSocketID uint32
}

// GrabMsg requests a flag grab.
type GrabMsg struct {
	FlagID uint32
	Pos    Vec3
}

// JoinGameMsg requests entry into a level under a chosen name.
type JoinGameMsg struct {
	Level          uint32
	Name           string
	UseDiscordName bool
}

// InitGameDataMsg is the server's reply to a JoinGameMsg.
type InitGameDataMsg struct {
	Accepted bool
	Level    uint32
	Name     string
	SocketID uint32
}

// RequestCosmeticsMsg has no fields; it asks the server to send every
// current player's skin in the sender's room.
type RequestCosmeticsMsg struct{}

// InitializationMsg is a oneof over the three initialization-phase messages.
// Exactly one field is non-nil.
type InitializationMsg struct {
	JoinGame         *JoinGameMsg
	InitGameData     *InitGameDataMsg
	RequestCosmetics *RequestCosmeticsMsg
}

// AnnouncementMsg is a server-wide or room-wide announcement with a
// client-side display timer in milliseconds.
type AnnouncementMsg struct {
	Message string
	Timer   uint32
}

// ValidPlayersMsg lists the socket IDs present in one level, for the
// lobby-wide player list broadcast.
type ValidPlayersMsg struct {
	LevelID   uint32
	SocketIDs []uint32
}

// PlayerListsMsg is the 1Hz lobby-wide broadcast of every room's valid
// player list.
type PlayerListsMsg struct {
	Games []ValidPlayersMsg
}

// Sm64JsMsg is a oneof over every message variant the protocol exchanges.
// Exactly one field is non-nil.
type Sm64JsMsg struct {
	Ping           *PingMsg
	Mario          *MarioMsg
	List           *MarioListMsg
	Skin           *SkinMsg
	Chat           *ChatMsg
	Attack         *AttackMsg
	Grab           *GrabMsg
	Initialization *InitializationMsg
	Announcement   *AnnouncementMsg
	PlayerLists    *PlayerListsMsg
}

// RootMsg is the outermost envelope: either the Sm64JsMsg bytes run through
// zlib (Compressed) or the bytes of an encoded Sm64JsMsg directly
// (Uncompressed). Exactly one is non-nil.
type RootMsg struct {
	Compressed   []byte
	Uncompressed *Sm64JsMsg
}
