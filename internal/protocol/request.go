// Package protocol implements the wire framing of the chat service: a
// sequence of newline-terminated JSON control frames carrying a `type`
// discriminator, interleaved with raw fixed-length file bodies announced by
// file_meta frames.
package protocol

import "encoding/json"

// Request is one decoded control frame from a client. The set of concrete
// types is closed; unknown discriminators are rejected at decode time.
type Request interface {
	requestType() string
}

// Register asks to create a new account. It does not authenticate the
// connection; the client must still log in.
type Register struct {
	Username string
	Password string
}

// Login authenticates the connection, either with credentials or with a
// resume token from an earlier login.
type Login struct {
	Username string
	Password string
	Token    string
}

// Join moves the session into a room, implicitly leaving its current one.
type Join struct {
	Room string
}

// Message posts a text message to the session's current room.
type Message struct {
	Text string
}

// FileMeta announces an upcoming raw file body of exactly Size bytes on the
// same connection.
type FileMeta struct {
	Filename string
	Size     int64
}

// ListRooms asks for the names of all currently non-empty rooms.
type ListRooms struct{}

func (Register) requestType() string  { return "register" }
func (Login) requestType() string     { return "login" }
func (Join) requestType() string      { return "join" }
func (Message) requestType() string   { return "message" }
func (FileMeta) requestType() string  { return "file_meta" }
func (ListRooms) requestType() string { return "list_rooms" }

// DefaultRoom is used when a join or unrouted message names no room.
const DefaultRoom = "main"

// Error is a protocol-level decode failure. It is reported to the offending
// connection as an error frame; the connection itself continues.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "protocol: " + e.Reason }

// Decode failure reasons.
const (
	ReasonInvalidJSON    = "invalid_json"
	ReasonUnknownType    = "unknown_type"
	ReasonInvalidRequest = "invalid_request"
)

type rawRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
	Room     string `json:"room"`
	Text     string `json:"text"`
	Meta     *struct {
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
	} `json:"meta"`
}

// ParseRequest decodes one control line into a typed request, validating the
// fields each kind requires.
func ParseRequest(line []byte) (Request, *Error) {
	var raw rawRequest
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, &Error{Reason: ReasonInvalidJSON}
	}

	switch raw.Type {
	case "register":
		if raw.Username == "" || raw.Password == "" {
			return nil, &Error{Reason: ReasonInvalidRequest}
		}
		return Register{Username: raw.Username, Password: raw.Password}, nil
	case "login":
		if raw.Token == "" && (raw.Username == "" || raw.Password == "") {
			return nil, &Error{Reason: ReasonInvalidRequest}
		}
		return Login{Username: raw.Username, Password: raw.Password, Token: raw.Token}, nil
	case "join":
		room := raw.Room
		if room == "" {
			room = DefaultRoom
		}
		return Join{Room: room}, nil
	case "message":
		return Message{Text: raw.Text}, nil
	case "file_meta":
		if raw.Meta == nil || raw.Meta.Filename == "" || raw.Meta.Size < 0 {
			return nil, &Error{Reason: ReasonInvalidRequest}
		}
		return FileMeta{Filename: raw.Meta.Filename, Size: raw.Meta.Size}, nil
	case "list_rooms":
		return ListRooms{}, nil
	default:
		return nil, &Error{Reason: ReasonUnknownType}
	}
}
