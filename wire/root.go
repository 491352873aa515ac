package wire

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal encodes the Root envelope: if m.Compressed is set it's framed
// as-is (the caller has already zlib-compressed an Sm64JsMsg); otherwise
// m.Uncompressed is embedded directly.
func (m *RootMsg) Marshal() []byte {
	var b []byte
	switch {
	case m.Compressed != nil:
		b = appendBytesField(b, 1, m.Compressed)
	case m.Uncompressed != nil:
		b = appendMessageField(b, 2, m.Uncompressed.Marshal())
	}
	return b
}

// Unmarshal decodes a Root envelope.
func (m *RootMsg) Unmarshal(data []byte) error {
	return scanFields(data, func(num protowire.Number, typ protowire.Type, val []byte) {
		switch num {
		case 1:
			m.Compressed = decodeBytes(val)
		case 2:
			v := &Sm64JsMsg{}
			if v.Unmarshal(val) == nil {
				m.Uncompressed = v
			}
		}
	})
}

// EncodeUncompressed frames msg directly, for low-frequency or latency
// sensitive messages (chat, join/init, announcements) that aren't worth the
// CPU cost of compressing, per spec.md §4.8.
func EncodeUncompressed(msg *Sm64JsMsg) []byte {
	return (&RootMsg{Uncompressed: msg}).Marshal()
}

// EncodeCompressed zlib-compresses msg at the "fast" compression level and
// frames the result as a Root.Compressed payload. Room snapshot broadcasts
// (MarioListMsg) use this path since they're sent every tick to every
// connected client; PlayerListsMsg is sent uncompressed.
func EncodeCompressed(msg *Sm64JsMsg) ([]byte, error) {
	raw := msg.Marshal()

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("wire: zlib writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("wire: zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("wire: zlib close: %w", err)
	}

	return (&RootMsg{Compressed: buf.Bytes()}).Marshal(), nil
}

// Decode parses a length-delimited frame's payload (the caller is
// responsible for removing any outer length prefix) into an Sm64JsMsg,
// transparently zlib-inflating it if the frame used the Compressed variant.
func Decode(frame []byte) (*Sm64JsMsg, error) {
	var root RootMsg
	if err := root.Unmarshal(frame); err != nil {
		return nil, fmt.Errorf("wire: decoding root: %w", err)
	}

	switch {
	case root.Uncompressed != nil:
		return root.Uncompressed, nil
	case root.Compressed != nil:
		r, err := zlib.NewReader(bytes.NewReader(root.Compressed))
		if err != nil {
			return nil, fmt.Errorf("wire: zlib reader: %w", err)
		}
		defer r.Close()
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("wire: zlib inflate: %w", err)
		}
		msg := &Sm64JsMsg{}
		if err := msg.Unmarshal(raw); err != nil {
			return nil, fmt.Errorf("wire: decoding inflated message: %w", err)
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("wire: root envelope has neither compressed nor uncompressed payload")
	}
}
