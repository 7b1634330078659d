package ws

import "encoding/json"

// Event types exchanged with the room endpoint.
const (
	TypeJoinRoom           = "join_room"           // client -> server, JoinPayload
	TypeLeaveRoom          = "leave_room"          // client -> server, JoinPayload
	TypeParticipantsUpdate = "participants_update" // full participant snapshot
	TypeSessionEnded       = "session_ended"       // owner closed the session
	TypeFileAdded          = "file_added"          // a file was uploaded
	TypeAutoExpireSet      = "auto_expire_set"     // owner set an expiry
)

// Message is the outbound envelope.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Envelope is the inbound envelope; Payload is decoded by the handler.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPayload struct {
	Token string `json:"token"`
}

type ParticipantsPayload struct {
	Participants *[]*string `json:"participants"`
}

type FileAddedPayload struct {
	Filename string `json:"filename"`
	Uploader string `json:"uploader"`
}

type AutoExpirePayload struct {
	Minutes *int `json:"minutes"`
}
