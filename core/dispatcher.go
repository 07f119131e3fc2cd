package core

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/jdelaire/autoapprove/core")

// Dispatcher classifies inbound updates and triggers the matching action.
// It holds no per-update state and is safe for concurrent use.
type Dispatcher struct {
	actions *Actions
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(actions *Actions, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		actions: actions,
		logger:  logger,
	}
}

// Dispatch decodes a raw webhook body and handles it. Decode failures are
// logged and returned; whatever part of the update decoded cleanly is still
// handled.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte, logger *slog.Logger) error {
	if logger == nil {
		logger = d.logger
	}

	ctx, span := tracer.Start(ctx, "dispatch")
	defer span.End()

	u, err := DecodeUpdate(body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		var fe *FieldError
		if errors.As(err, &fe) {
			logger.Error("missing expected field in update", "field", fe.Field)
		} else {
			logger.Error("error processing update", "error", err)
		}
	}

	span.SetAttributes(attribute.Int64("telegram.update_id", u.ID))
	d.Handle(ctx, u, logger.With("update_id", u.ID))
	return err
}

// Handle triggers the start reply for a /start message and the approval flow
// for a join request. The two checks are independent.
func (d *Dispatcher) Handle(ctx context.Context, u Update, logger *slog.Logger) {
	if logger == nil {
		logger = d.logger
	}

	if u.Message.IsStart() {
		logger.Debug("start command", "chat_id", u.Message.ChatID)
		d.actions.SendStartReply(ctx, u.Message.ChatID)
	}

	if u.JoinRequest != nil {
		logger.Debug("join request", "chat_id", u.JoinRequest.ChatID, "user_id", u.JoinRequest.UserID)
		d.actions.ApproveJoin(ctx, *u.JoinRequest, logger)
	}
}
