package core

import (
	"context"
	"fmt"
	"html"
	"log/slog"
)

const (
	startText = "*🇺🇸 Hi there.* \nAdd me as an admin to your channel, and I'll automatically approve all user join requests."

	welcomeFormat = "👋 Hello <b>%s</b>,\nYour request to join channel <b>%s</b> has been approved! 🎉"
	channelButton = "Visit Our Channel"

	// DefaultChannelURL is linked from the welcome message button.
	DefaultChannelURL = "https://t.me/anuj_bots"
)

// InlineKeyboardButton is a button attached to a message.
type InlineKeyboardButton struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// InlineKeyboardMarkup is the reply_markup of a message with inline buttons.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// Actions performs the side effects triggered by updates.
type Actions struct {
	api        BotAPI
	channelURL string
}

// NewActions creates Actions that call api. An empty channelURL falls back to
// DefaultChannelURL.
func NewActions(api BotAPI, channelURL string) *Actions {
	if channelURL == "" {
		channelURL = DefaultChannelURL
	}
	return &Actions{api: api, channelURL: channelURL}
}

// SendStartReply greets a chat. The call result is not inspected.
func (a *Actions) SendStartReply(ctx context.Context, chatID int64) {
	a.api.Call(ctx, "sendMessage", Params{
		"chat_id":    chatID,
		"parse_mode": "markdown",
		"text":       startText,
	})
}

// ApproveJoin approves the request and, only if Telegram confirms it, sends
// the requester a private welcome message.
func (a *Actions) ApproveJoin(ctx context.Context, req JoinRequest, logger *slog.Logger) {
	res := a.api.Call(ctx, "approveChatJoinRequest", Params{
		"chat_id": req.ChatID,
		"user_id": req.UserID,
	})
	if !res.Succeeded() {
		attrs := []any{"user_id", req.UserID, "chat_id", req.ChatID}
		if res.Err != nil {
			attrs = append(attrs, "error", res.Err)
		} else if res.Description != "" {
			attrs = append(attrs, "description", res.Description)
		}
		logger.Error("failed to approve join request", attrs...)
		return
	}

	logger.Info("join request approved", "user_id", req.UserID, "chat_id", req.ChatID)

	a.api.Call(ctx, "sendMessage", Params{
		"chat_id":      req.UserID,
		"parse_mode":   "html",
		"text":         welcomeText(req),
		"reply_markup": a.welcomeKeyboard(),
	})
}

func welcomeText(req JoinRequest) string {
	return fmt.Sprintf(welcomeFormat, html.EscapeString(req.UserFirstName), html.EscapeString(req.ChatTitle))
}

func (a *Actions) welcomeKeyboard() InlineKeyboardMarkup {
	return InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: channelButton, URL: a.channelURL}},
		},
	}
}
