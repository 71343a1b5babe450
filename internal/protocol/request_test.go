package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinof/chatrelay/internal/models"
)

func TestParseRequestRegister(t *testing.T) {
	req, perr := ParseRequest([]byte(`{"type":"register","username":"alice","password":"secret"}`))
	require.Nil(t, perr)
	require.Equal(t, Register{Username: "alice", Password: "secret"}, req)
}

func TestParseRequestRegisterMissingFields(t *testing.T) {
	_, perr := ParseRequest([]byte(`{"type":"register","username":"alice"}`))
	require.NotNil(t, perr)
	assert.Equal(t, ReasonInvalidRequest, perr.Reason)
}

func TestParseRequestLoginWithToken(t *testing.T) {
	req, perr := ParseRequest([]byte(`{"type":"login","token":"abc"}`))
	require.Nil(t, perr)
	require.Equal(t, Login{Token: "abc"}, req)
}

func TestParseRequestLoginWithoutCredentials(t *testing.T) {
	_, perr := ParseRequest([]byte(`{"type":"login","username":"alice"}`))
	require.NotNil(t, perr)
	assert.Equal(t, ReasonInvalidRequest, perr.Reason)
}

func TestParseRequestJoinDefaultsRoom(t *testing.T) {
	req, perr := ParseRequest([]byte(`{"type":"join"}`))
	require.Nil(t, perr)
	require.Equal(t, Join{Room: DefaultRoom}, req)

	req, perr = ParseRequest([]byte(`{"type":"join","room":""}`))
	require.Nil(t, perr)
	require.Equal(t, Join{Room: DefaultRoom}, req)

	req, perr = ParseRequest([]byte(`{"type":"join","room":"dev"}`))
	require.Nil(t, perr)
	require.Equal(t, Join{Room: "dev"}, req)
}

func TestParseRequestFileMeta(t *testing.T) {
	req, perr := ParseRequest([]byte(`{"type":"file_meta","meta":{"filename":"x.txt","size":5}}`))
	require.Nil(t, perr)
	require.Equal(t, FileMeta{Filename: "x.txt", Size: 5}, req)
}

func TestParseRequestFileMetaWithoutMeta(t *testing.T) {
	_, perr := ParseRequest([]byte(`{"type":"file_meta"}`))
	require.NotNil(t, perr)
	assert.Equal(t, ReasonInvalidRequest, perr.Reason)
}

func TestParseRequestUnknownType(t *testing.T) {
	_, perr := ParseRequest([]byte(`{"type":"presence"}`))
	require.NotNil(t, perr)
	assert.Equal(t, ReasonUnknownType, perr.Reason)
}

func TestParseRequestMalformedJSON(t *testing.T) {
	_, perr := ParseRequest([]byte(`{"type":`))
	require.NotNil(t, perr)
	assert.Equal(t, ReasonInvalidJSON, perr.Reason)
}

func TestEncodeTerminatesLines(t *testing.T) {
	frame, err := Encode(NewSystem("alice joined the room"))
	require.NoError(t, err)
	require.Equal(t, byte('\n'), frame[len(frame)-1])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(frame, &decoded))
	assert.Equal(t, "system", decoded["type"])
	assert.Equal(t, "alice joined the room", decoded["text"])
}

func TestNewChatMessageFrame(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	frame := MustEncode(NewChatMessage(models.Message{Room: "main", Sender: "alice", Text: "hi", Ts: ts}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(frame, &decoded))
	assert.Equal(t, "message", decoded["type"])
	assert.Equal(t, "main", decoded["room"])
	assert.Equal(t, "alice", decoded["sender"])
	assert.Equal(t, "hi", decoded["text"])
}

func TestNewHistoryOmitsRoomPerEntry(t *testing.T) {
	frame := MustEncode(NewHistory("main", []models.Message{
		{Room: "main", Sender: "alice", Text: "hi", Ts: time.Now().UTC()},
	}))

	var decoded struct {
		Type     string           `json:"type"`
		Room     string           `json:"room"`
		Messages []map[string]any `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(frame, &decoded))
	require.Len(t, decoded.Messages, 1)
	assert.NotContains(t, decoded.Messages[0], "room")
	assert.Equal(t, "alice", decoded.Messages[0]["sender"])
}
