package game

const (
	EventRoomCreated    = "room:created"
	EventRoomJoined     = "room:joined"
	EventRoomUpdate     = "room:update"
	EventRoomDeleted    = "room:deleted"
	EventJokerTriggered = "joker_triggered"
	EventJokerEffect    = "joker_effect"
	EventError          = "error"
	EventPong           = "pong"
)

// Event is one outbound message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Sender delivers events to a single connection. Implementations must not
// block.
type Sender interface {
	Send(connID string, event Event)
}

// SessionPayload is sent to a player after creating or joining a room.
type SessionPayload struct {
	Code     string       `json:"code"`
	Token    string       `json:"token"`
	PlayerId string       `json:"playerId"`
	Room     RoomSnapshot `json:"room"`
}

type DeletedPayload struct {
	Code string `json:"code"`
}

type JokerNotice struct {
	Kind     PowerUp `json:"kind"`
	PlayerId string  `json:"playerId"`
	Name     string  `json:"name"`
}

// JokerEffect is only ever sent to the player who spent the joker.
type JokerEffect struct {
	Kind       PowerUp   `json:"kind"`
	Eliminated []int     `json:"eliminated,omitempty"`
	Picks      []SpyPick `json:"picks,omitempty"`
	Gain       int       `json:"gain,omitempty"`
	Loss       int       `json:"loss,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
