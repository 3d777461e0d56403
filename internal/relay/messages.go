// Package relay implements the media relay: a WebSocket hub that accepts
// audio chunks and camera frames from local peers and notifies the other
// peers with metadata only. Media payloads never appear in logs or in
// notifications, and non-local peers are admitted only with explicit consent.
package relay

import "encoding/json"

// Message type tags on the wire.
const (
	TypeAudioChunk    = "audio-chunk"
	TypeFrameCapture  = "frame-capture"
	TypeFrameReceived = "frame-received"
)

// Envelope is the first-pass decode of any incoming message.
type Envelope struct {
	Type string `json:"type"`
}

// AudioChunkMessage carries one chunk of recorded audio.
type AudioChunkMessage struct {
	Type     string `json:"type"`
	Chunk    string `json:"chunk"`
	MimeType string `json:"mimeType,omitempty"`
	TS       int64  `json:"ts,omitempty"`
}

// FrameCaptureMessage carries one camera frame as base64.
type FrameCaptureMessage struct {
	Type        string `json:"type"`
	ImageBase64 string `json:"imageBase64"`
	TS          int64  `json:"ts,omitempty"`
}

// FrameReceivedMessage is the metadata-only notification broadcast to the
// other peers when a frame is accepted. It never includes image data.
type FrameReceivedMessage struct {
	Type  string `json:"type"`
	TS    int64  `json:"ts"`
	Bytes int    `json:"bytes"`
}

func newFrameReceived(ts int64, payloadBytes int) ([]byte, error) {
	return json.Marshal(FrameReceivedMessage{
		Type:  TypeFrameReceived,
		TS:    ts,
		Bytes: payloadBytes,
	})
}
