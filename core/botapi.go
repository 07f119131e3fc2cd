package core

import (
	"context"
	"encoding/json"
)

// Params holds the arguments of one Bot API method call.
type Params map[string]any

// BotAPI invokes a named Telegram Bot API method. Implementations never
// return errors to the caller; failures are reported through Result.Err.
type BotAPI interface {
	Call(ctx context.Context, method string, params Params) Result
}

// Result is the outcome of one Bot API call.
type Result struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Payload     json.RawMessage `json:"result,omitempty"`

	// Err is set when the call failed at the transport or protocol level.
	// The other fields are then meaningless.
	Err error `json:"-"`
}

// Failure builds a Result for a call that did not produce a response.
func Failure(err error) Result {
	return Result{Err: err}
}

// Succeeded reports whether the call completed and Telegram answered ok=true.
func (r Result) Succeeded() bool {
	return r.Err == nil && r.OK
}
