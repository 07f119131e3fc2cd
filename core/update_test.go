package core

import (
	"errors"
	"testing"
)

func TestDecodeUpdateMessage(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"update_id": 10, "message": {"chat": {"id": 42}, "text": "/start"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 10 {
		t.Errorf("ID = %d, want 10", u.ID)
	}
	if u.Message == nil || u.Message.ChatID != 42 || !u.Message.IsStart() {
		t.Errorf("Message = %+v, want chat 42 /start", u.Message)
	}
	if u.JoinRequest != nil {
		t.Errorf("JoinRequest = %+v, want nil", u.JoinRequest)
	}
}

func TestDecodeUpdateJoinRequest(t *testing.T) {
	u, err := DecodeUpdate(joinBody(7, 99, "Test", "Ada"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := JoinRequest{ChatID: 7, ChatTitle: "Test", UserID: 99, UserFirstName: "Ada"}
	if u.JoinRequest == nil || *u.JoinRequest != want {
		t.Errorf("JoinRequest = %+v, want %+v", u.JoinRequest, want)
	}
	if u.Message != nil {
		t.Errorf("Message = %+v, want nil", u.Message)
	}
}

func TestDecodeUpdateNeither(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"update_id": 3, "message": null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Message != nil || u.JoinRequest != nil {
		t.Errorf("got %+v, want empty update", u)
	}
}

func TestDecodeUpdateMissingFields(t *testing.T) {
	tests := []struct {
		body  string
		field string
	}{
		{`{"message": {"text": "/start"}}`, "message.chat"},
		{`{"message": {"chat": {}, "text": "/start"}}`, "message.chat.id"},
		{`{"chat_join_request": {"from": {"id": 1, "first_name": "A"}}}`, "chat_join_request.chat"},
		{`{"chat_join_request": {"chat": {"title": "T"}, "from": {"id": 1, "first_name": "A"}}}`, "chat_join_request.chat.id"},
		{`{"chat_join_request": {"chat": {"id": 1}, "from": {"id": 1, "first_name": "A"}}}`, "chat_join_request.chat.title"},
		{`{"chat_join_request": {"chat": {"id": 1, "title": "T"}}}`, "chat_join_request.from"},
		{`{"chat_join_request": {"chat": {"id": 1, "title": "T"}, "from": {"first_name": "A"}}}`, "chat_join_request.from.id"},
		{`{"chat_join_request": {"chat": {"id": 1, "title": "T"}, "from": {"id": 1}}}`, "chat_join_request.from.first_name"},
	}

	for _, tt := range tests {
		_, err := DecodeUpdate([]byte(tt.body))
		var fe *FieldError
		if !errors.As(err, &fe) {
			t.Errorf("%s: err = %v, want FieldError", tt.body, err)
			continue
		}
		if fe.Field != tt.field {
			t.Errorf("%s: field = %q, want %q", tt.body, fe.Field, tt.field)
		}
	}
}

func TestDecodeUpdateInvalid(t *testing.T) {
	for _, body := range []string{``, `null`, `[1,2]`, `"x"`, `{"message": 5}`, `{broken`} {
		_, err := DecodeUpdate([]byte(body))
		if !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("%q: err = %v, want ErrInvalidPayload", body, err)
		}
	}
}

func TestDecodeUpdateEmptyObjects(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"update_id": 4, "message": {}, "chat_join_request": { }}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Message != nil || u.JoinRequest != nil {
		t.Errorf("got %+v, want empty update", u)
	}
}

func TestDecodeUpdateKeepsMessageWhenJoinRequestIncomplete(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"message": {"chat": {"id": 42}, "text": "/start"}, "chat_join_request": {"chat": {"id": 7, "title": "T"}}}`))

	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "chat_join_request.from" {
		t.Fatalf("err = %v, want missing chat_join_request.from", err)
	}
	if !u.Message.IsStart() || u.Message.ChatID != 42 {
		t.Errorf("Message = %+v, want chat 42 /start", u.Message)
	}
	if u.JoinRequest != nil {
		t.Errorf("JoinRequest = %+v, want nil", u.JoinRequest)
	}
}

func TestDecodeUpdateIncompleteMessageDropsJoinRequest(t *testing.T) {
	u, err := DecodeUpdate(append([]byte(`{"message": {"text": "/start"}, `), joinBody(7, 99, "T", "A")[1:]...))

	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "message.chat" {
		t.Fatalf("err = %v, want missing message.chat", err)
	}
	if u.Message != nil || u.JoinRequest != nil {
		t.Errorf("got %+v, want empty update", u)
	}
}

func TestDecodeUpdateZeroIDsArePresent(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"message": {"chat": {"id": 0}, "text": "/start"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Message == nil || u.Message.ChatID != 0 {
		t.Errorf("Message = %+v, want chat 0", u.Message)
	}
}
