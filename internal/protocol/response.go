package protocol

import (
	"encoding/json"
	"time"

	"github.com/avelinof/chatrelay/internal/models"
)

// Server-to-client frames. Each carries its own type discriminator so a
// value can be handed straight to Encode.

type RegisterResponse struct {
	Type   string `json:"type"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

type LoginResponse struct {
	Type   string `json:"type"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Token  string `json:"token,omitempty"`
}

type JoinResponse struct {
	Type string `json:"type"`
	OK   bool   `json:"ok"`
	Room string `json:"room"`
}

type History struct {
	Type     string         `json:"type"`
	Room     string         `json:"room"`
	Messages []HistoryEntry `json:"messages"`
}

type HistoryEntry struct {
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	Ts     time.Time `json:"ts"`
}

type ChatMessage struct {
	Type   string    `json:"type"`
	Room   string    `json:"room"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	Ts     time.Time `json:"ts"`
}

type System struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type FileReady struct {
	Type string `json:"type"`
}

type FileShared struct {
	Type     string    `json:"type"`
	Room     string    `json:"room"`
	Sender   string    `json:"sender"`
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Ts       time.Time `json:"ts"`
}

type Rooms struct {
	Type  string   `json:"type"`
	Rooms []string `json:"rooms"`
}

type ErrorFrame struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func NewRegisterResponse(ok bool, reason string) RegisterResponse {
	return RegisterResponse{Type: "register_response", OK: ok, Reason: reason}
}

func NewLoginResponse(ok bool, reason, token string) LoginResponse {
	return LoginResponse{Type: "login_response", OK: ok, Reason: reason, Token: token}
}

func NewJoinResponse(room string) JoinResponse {
	return JoinResponse{Type: "join_response", OK: true, Room: room}
}

func NewHistory(room string, messages []models.Message) History {
	entries := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, HistoryEntry{Sender: m.Sender, Text: m.Text, Ts: m.Ts})
	}
	return History{Type: "history", Room: room, Messages: entries}
}

func NewChatMessage(m models.Message) ChatMessage {
	return ChatMessage{Type: "message", Room: m.Room, Sender: m.Sender, Text: m.Text, Ts: m.Ts}
}

func NewSystem(text string) System {
	return System{Type: "system", Text: text}
}

func NewFileReady() FileReady {
	return FileReady{Type: "file_ready"}
}

func NewFileShared(rec models.FileRecord) FileShared {
	return FileShared{
		Type:     "file_shared",
		Room:     rec.Room,
		Sender:   rec.Sender,
		Filename: rec.Filename,
		Path:     rec.Path,
		Ts:       rec.Ts,
	}
}

func NewRooms(names []string) Rooms {
	if names == nil {
		names = []string{}
	}
	return Rooms{Type: "rooms", Rooms: names}
}

func NewErrorFrame(reason string) ErrorFrame {
	return ErrorFrame{Type: "error", Reason: reason}
}

// Encode marshals a frame and terminates it with the protocol's line
// delimiter.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// MustEncode is Encode for frames built from our own types, where a marshal
// failure is a programming error.
func MustEncode(v any) []byte {
	data, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return data
}
