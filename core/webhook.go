package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// WebhookInfo is the subset of getWebhookInfo used by the CLI.
type WebhookInfo struct {
	URL                  string `json:"url"`
	PendingUpdateCount   int    `json:"pending_update_count"`
	LastErrorMessage     string `json:"last_error_message,omitempty"`
	LastErrorDate        int64  `json:"last_error_date,omitempty"`
	HasCustomCertificate bool   `json:"has_custom_certificate"`
}

// RegisterWebhook points Telegram at url. The outcome is logged; a failure
// does not stop the caller from serving.
func RegisterWebhook(ctx context.Context, api BotAPI, url string, logger *slog.Logger) bool {
	res := api.Call(ctx, "setWebhook", Params{"url": url})
	if !res.Succeeded() {
		logger.Error("failed to set webhook", "error", describe(res))
		return false
	}
	logger.Info("webhook set successfully")
	return true
}

// DeleteWebhook removes the registered webhook.
func DeleteWebhook(ctx context.Context, api BotAPI, dropPending bool) error {
	res := api.Call(ctx, "deleteWebhook", Params{"drop_pending_updates": dropPending})
	if !res.Succeeded() {
		return fmt.Errorf("delete webhook: %s", describe(res))
	}
	return nil
}

// GetWebhookInfo returns the currently registered webhook.
func GetWebhookInfo(ctx context.Context, api BotAPI) (WebhookInfo, error) {
	res := api.Call(ctx, "getWebhookInfo", nil)
	if !res.Succeeded() {
		return WebhookInfo{}, fmt.Errorf("get webhook info: %s", describe(res))
	}

	var info WebhookInfo
	if err := json.Unmarshal(res.Payload, &info); err != nil {
		return WebhookInfo{}, fmt.Errorf("decode webhook info: %w", err)
	}
	return info, nil
}

func describe(res Result) string {
	switch {
	case res.Err != nil:
		return res.Err.Error()
	case res.Description != "":
		return res.Description
	default:
		return "api returned ok=false"
	}
}
