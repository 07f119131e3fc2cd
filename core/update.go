package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// StartCommand is the message text that triggers the greeting.
const StartCommand = "/start"

// ErrInvalidPayload is returned when the update body is not a JSON object.
var ErrInvalidPayload = errors.New("invalid update payload")

// FieldError reports a required field missing from an update.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// Update is one event delivered by Telegram. Message and JoinRequest are
// checked independently; an update with neither is ignored.
type Update struct {
	ID          int64
	Message     *Message
	JoinRequest *JoinRequest
}

// Message is a chat message. Text is empty for non-text messages.
type Message struct {
	ChatID int64
	Text   string
}

// JoinRequest is a pending request by a user to join a chat.
type JoinRequest struct {
	ChatID        int64
	ChatTitle     string
	UserID        int64
	UserFirstName string
}

// IsStart reports whether the message is exactly the start command.
func (m *Message) IsStart() bool {
	return m != nil && m.Text == StartCommand
}

// wire types mirror the Telegram JSON; pointers mark required fields so
// absence can be told apart from zero values.
type wireUpdate struct {
	UpdateID        int64           `json:"update_id"`
	Message         json.RawMessage `json:"message"`
	ChatJoinRequest json.RawMessage `json:"chat_join_request"`
}

type wireMessage struct {
	Chat *wireChat `json:"chat"`
	Text string    `json:"text"`
}

type wireJoinRequest struct {
	Chat *wireChat `json:"chat"`
	From *wireUser `json:"from"`
}

type wireChat struct {
	ID    *int64  `json:"id"`
	Title *string `json:"title"`
}

type wireUser struct {
	ID        *int64  `json:"id"`
	FirstName *string `json:"first_name"`
}

// DecodeUpdate parses a webhook body into an Update. Null or empty message
// and chat_join_request objects count as absent.
//
// A missing required field yields a *FieldError naming it. The message is
// decoded first: if it is incomplete nothing is returned, but an incomplete
// join request still returns the decoded message alongside the error so the
// caller can act on it.
func DecodeUpdate(data []byte) (Update, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Update{}, fmt.Errorf("%w: expected JSON object", ErrInvalidPayload)
	}

	var w wireUpdate
	if err := json.Unmarshal(data, &w); err != nil {
		return Update{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	u := Update{ID: w.UpdateID}

	var msg wireMessage
	present, err := unmarshalObject(w.Message, &msg)
	if err != nil {
		return Update{}, err
	}
	if present {
		m, err := decodeMessage(&msg)
		if err != nil {
			return Update{}, err
		}
		u.Message = m
	}

	var req wireJoinRequest
	present, err = unmarshalObject(w.ChatJoinRequest, &req)
	if err != nil {
		return u, err
	}
	if present {
		jr, err := decodeJoinRequest(&req)
		if err != nil {
			return u, err
		}
		u.JoinRequest = jr
	}

	return u, nil
}

// unmarshalObject decodes raw into v. It reports false for a missing, null
// or empty object.
func unmarshalObject(raw json.RawMessage, v any) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) == 0 {
		return false, nil
	}
	return true, nil
}

func decodeMessage(w *wireMessage) (*Message, error) {
	if w.Chat == nil {
		return nil, &FieldError{Field: "message.chat"}
	}
	if w.Chat.ID == nil {
		return nil, &FieldError{Field: "message.chat.id"}
	}
	return &Message{ChatID: *w.Chat.ID, Text: w.Text}, nil
}

func decodeJoinRequest(w *wireJoinRequest) (*JoinRequest, error) {
	switch {
	case w.Chat == nil:
		return nil, &FieldError{Field: "chat_join_request.chat"}
	case w.Chat.ID == nil:
		return nil, &FieldError{Field: "chat_join_request.chat.id"}
	case w.Chat.Title == nil:
		return nil, &FieldError{Field: "chat_join_request.chat.title"}
	case w.From == nil:
		return nil, &FieldError{Field: "chat_join_request.from"}
	case w.From.ID == nil:
		return nil, &FieldError{Field: "chat_join_request.from.id"}
	case w.From.FirstName == nil:
		return nil, &FieldError{Field: "chat_join_request.from.first_name"}
	}

	return &JoinRequest{
		ChatID:        *w.Chat.ID,
		ChatTitle:     *w.Chat.Title,
		UserID:        *w.From.ID,
		UserFirstName: *w.From.FirstName,
	}, nil
}
