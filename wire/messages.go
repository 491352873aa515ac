package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal encodes m using PingMsg's (empty) wire form.
func (m *PingMsg) Marshal() []byte { return nil }

// Unmarshal decodes a PingMsg. PingMsg carries no fields, so this only
// validates that the bytes parse as a (possibly empty) message.
func (m *PingMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(protowire.Number, protowire.Type, []byte) {})
}

// Marshal encodes a MarioMsg.
func (m *MarioMsg) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, m.SocketID)
	b = appendMessageField(b, 2, marshalVec3(m.Pos))
	b = appendFloat32Field(b, 3, m.FaceAngle)
	b = appendUint32Field(b, 4, m.AnimationID)
	return b
}

// Unmarshal decodes a MarioMsg.
func (m *MarioMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.SocketID = decodeUint32(val)
		case 2:
			if v, err := unmarshalVec3(val); err == nil {
				m.Pos = v
			}
		case 3:
			m.FaceAngle = decodeFloat32(val)
		case 4:
			m.AnimationID = decodeUint32(val)
		}
	})
}

// Marshal encodes a FlagMsg.
func (m *FlagMsg) Marshal() []byte {
	var b []byte
	b = appendMessageField(b, 1, marshalVec3(m.Pos))
	b = appendBoolField(b, 2, m.LinkedToPlayer)
	b = appendUint32Field(b, 3, m.SocketID)
	b = appendFloat32Field(b, 4, m.HeightBeforeFall)
	return b
}

// Unmarshal decodes a FlagMsg.
func (m *FlagMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			if v, err := unmarshalVec3(val); err == nil {
				m.Pos = v
			}
		case 2:
			m.LinkedToPlayer = decodeBool(val)
		case 3:
			m.SocketID = decodeUint32(val)
		case 4:
			m.HeightBeforeFall = decodeFloat32(val)
		}
	})
}

// Marshal encodes a MarioListMsg.
func (m *MarioListMsg) Marshal() []byte {
	var b []byte
	for _, f := range m.Flags {
		b = appendMessageField(b, 1, f.Marshal())
	}
	for _, p := range m.Marios {
		b = appendMessageField(b, 2, p.Marshal())
	}
	return b
}

// Unmarshal decodes a MarioListMsg.
func (m *MarioListMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			var f FlagMsg
			if f.Unmarshal(val) == nil {
				m.Flags = append(m.Flags, f)
			}
		case 2:
			var p MarioMsg
			if p.Unmarshal(val) == nil {
				m.Marios = append(m.Marios, p)
			}
		}
	})
}

// Marshal encodes a SkinMsg.
func (m *SkinMsg) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, m.SocketID)
	b = appendBytesField(b, 2, m.SkinData)
	b = appendStringField(b, 3, m.PlayerName)
	return b
}

// Unmarshal decodes a SkinMsg.
func (m *SkinMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.SocketID = decodeUint32(val)
		case 2:
			m.SkinData = decodeBytes(val)
		case 3:
			m.PlayerName = decodeString(val)
		}
	})
}

// Marshal encodes a ChatMsg.
func (m *ChatMsg) Marshal() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Message)
	b = appendStringField(b, 2, m.Sender)
	b = appendUint32Field(b, 3, m.SocketID)
	b = appendBoolField(b, 4, m.IsServer)
	b = appendBoolField(b, 5, m.IsAdmin)
	return b
}

// Unmarshal decodes a ChatMsg.
func (m *ChatMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.Message = decodeString(val)
		case 2:
			m.Sender = decodeString(val)
		case 3:
			m.SocketID = decodeUint32(val)
		case 4:
			m.IsServer = decodeBool(val)
		case 5:
			m.IsAdmin = decodeBool(val)
		}
	})
}

// Marshal encodes an AttackMsg.
func (m *AttackMsg) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, m.FlagID)
	b = appendMessageField(b, 2, marshalVec3(m.AttackerPos))
	b = appendUint32Field(b, 3, m.TargetSocketID)
	return b
}

// Unmarshal decodes an AttackMsg.
func (m *AttackMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.FlagID = decodeUint32(val)
		case 2:
			if v, err := unmarshalVec3(val); err == nil {
				m.AttackerPos = v
			}
		case 3:
			m.TargetSocketID = decodeUint32(val)
		}
	})
}

// Marshal encodes a GrabMsg.
func (m *GrabMsg) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, m.FlagID)
	b = appendMessageField(b, 2, marshalVec3(m.Pos))
	return b
}

// Unmarshal decodes a GrabMsg.
func (m *GrabMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.FlagID = decodeUint32(val)
		case 2:
			if v, err := unmarshalVec3(val); err == nil {
				m.Pos = v
			}
		}
	})
}

// Marshal encodes a JoinGameMsg.
func (m *JoinGameMsg) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, m.Level)
	b = appendStringField(b, 2, m.Name)
	b = appendBoolField(b, 3, m.UseDiscordName)
	return b
}

// Unmarshal decodes a JoinGameMsg.
func (m *JoinGameMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.Level = decodeUint32(val)
		case 2:
			m.Name = decodeString(val)
		case 3:
			m.UseDiscordName = decodeBool(val)
		}
	})
}

// Marshal encodes an InitGameDataMsg.
func (m *InitGameDataMsg) Marshal() []byte {
	var b []byte
	b = appendBoolField(b, 1, m.Accepted)
	b = appendUint32Field(b, 2, m.Level)
	b = appendStringField(b, 3, m.Name)
	b = appendUint32Field(b, 4, m.SocketID)
	return b
}

// Unmarshal decodes an InitGameDataMsg.
func (m *InitGameDataMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.Accepted = decodeBool(val)
		case 2:
			m.Level = decodeUint32(val)
		case 3:
			m.Name = decodeString(val)
		case 4:
			m.SocketID = decodeUint32(val)
		}
	})
}

// Marshal encodes a RequestCosmeticsMsg.
func (m *RequestCosmeticsMsg) Marshal() []byte { return nil }

// Unmarshal decodes a RequestCosmeticsMsg.
func (m *RequestCosmeticsMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(protowire.Number, protowire.Type, []byte) {})
}

// Marshal encodes the InitializationMsg oneof.
func (m *InitializationMsg) Marshal() []byte {
	var b []byte
	switch {
	case m.JoinGame != nil:
		b = appendMessageField(b, 1, m.JoinGame.Marshal())
	case m.InitGameData != nil:
		b = appendMessageField(b, 2, m.InitGameData.Marshal())
	case m.RequestCosmetics != nil:
		b = appendMessageField(b, 3, m.RequestCosmetics.Marshal())
	}
	return b
}

// Unmarshal decodes the InitializationMsg oneof.
func (m *InitializationMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			v := &JoinGameMsg{}
			if v.Unmarshal(val) == nil {
				m.JoinGame = v
			}
		case 2:
			v := &InitGameDataMsg{}
			if v.Unmarshal(val) == nil {
				m.InitGameData = v
			}
		case 3:
			v := &RequestCosmeticsMsg{}
			if v.Unmarshal(val) == nil {
				m.RequestCosmetics = v
			}
		}
	})
}

// Marshal encodes an AnnouncementMsg.
func (m *AnnouncementMsg) Marshal() []byte {
	var b []byte
	b = appendStringField(b, 1, m.Message)
	b = appendUint32Field(b, 2, m.Timer)
	return b
}

// Unmarshal decodes an AnnouncementMsg.
func (m *AnnouncementMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.Message = decodeString(val)
		case 2:
			m.Timer = decodeUint32(val)
		}
	})
}

// Marshal encodes a ValidPlayersMsg.
func (m *ValidPlayersMsg) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, m.LevelID)
	for _, id := range m.SocketIDs {
		b = appendUint32Field(b, 2, id)
	}
	return b
}

// Unmarshal decodes a ValidPlayersMsg.
func (m *ValidPlayersMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.LevelID = decodeUint32(val)
		case 2:
			m.SocketIDs = append(m.SocketIDs, decodeUint32(val))
		}
	})
}

// Marshal encodes a PlayerListsMsg.
func (m *PlayerListsMsg) Marshal() []byte {
	var b []byte
	for _, g := range m.Games {
		b = appendMessageField(b, 1, g.Marshal())
	}
	return b
}

// Unmarshal decodes a PlayerListsMsg.
func (m *PlayerListsMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			var g ValidPlayersMsg
			if g.Unmarshal(val) == nil {
				m.Games = append(m.Games, g)
			}
		}
	})
}

// Marshal encodes the Sm64JsMsg oneof.
func (m *Sm64JsMsg) Marshal() []byte {
	var b []byte
	switch {
	case m.Ping != nil:
		b = appendMessageField(b, 1, m.Ping.Marshal())
	case m.Mario != nil:
		b = appendMessageField(b, 2, m.Mario.Marshal())
	case m.List != nil:
		b = appendMessageField(b, 3, m.List.Marshal())
	case m.Skin != nil:
		b = appendMessageField(b, 4, m.Skin.Marshal())
	case m.Chat != nil:
		b = appendMessageField(b, 5, m.Chat.Marshal())
	case m.Attack != nil:
		b = appendMessageField(b, 6, m.Attack.Marshal())
	case m.Grab != nil:
		b = appendMessageField(b, 7, m.Grab.Marshal())
	case m.Initialization != nil:
		b = appendMessageField(b, 8, m.Initialization.Marshal())
	case m.Announcement != nil:
		b = appendMessageField(b, 9, m.Announcement.Marshal())
	case m.PlayerLists != nil:
		b = appendMessageField(b, 10, m.PlayerLists.Marshal())
	}
	return b
}

// Unmarshal decodes the Sm64JsMsg oneof.
func (m *Sm64JsMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			v := &PingMsg{}
			if v.Unmarshal(val) == nil {
				m.Ping = v
			}
		case 2:
			v := &MarioMsg{}
			if v.Unmarshal(val) == nil {
				m.Mario = v
			}
		case 3:
			v := &MarioListMsg{}
			if v.Unmarshal(val) == nil {
				m.List = v
			}
		case 4:
			v := &SkinMsg{}
			if v.Unmarshal(val) == nil {
				m.Skin = v
			}
		case 5:
			v := &ChatMsg{}
			if v.Unmarshal(val) == nil {
				m.Chat = v
			}
		case 6:
			v := &AttackMsg{}
			if v.Unmarshal(val) == nil {
				m.Attack = v
			}
		case 7:
			v := &GrabMsg{}
			if v.Unmarshal(val) == nil {
				m.Grab = v
			}
		case 8:
			v := &InitializationMsg{}
			if v.Unmarshal(val) == nil {
				m.Initialization = v
			}
		case 9:
			v := &AnnouncementMsg{}
			if v.Unmarshal(val) == nil {
				m.Announcement = v
			}
		case 10:
			v := &PlayerListsMsg{}
			if v.Unmarshal(val) == nil {
				m.PlayerLists = v
			}
		}
	})
}

// scanFields walks every top-level field in data, invoking fn with each
// field's number, wire type, and raw (still wire-encoded) value. It is the
// shared backbone of every Unmarshal method above.
func scanFields(data []byte, fn func(num protowire.Number, typ protowire.Type, val []byte)) error {
	d := decoder{b: data}
	for len(d.b) > 0 {
		num, typ, val, err := d.next()
		if err != nil {
			return fmt.Errorf("wire: %w", err)
		}
		fn(num, typ, val)
	}
	return nil
}
