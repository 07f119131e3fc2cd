package telegram_api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jdelaire/autoapprove/core"
)

// DefaultBaseURL is the public Telegram Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

const maxResponseBytes = 1 << 20

var tracer = otel.Tracer("github.com/jdelaire/autoapprove/adapters/telegram_api")

// Client calls Telegram Bot API methods. It implements core.BotAPI.
type Client struct {
	botToken string
	client   *http.Client
	baseURL  string
	logger   *slog.Logger
}

// New creates a Bot API client for the given token.
func New(botToken string, logger *slog.Logger) *Client {
	return &Client{
		botToken: botToken,
		client:   &http.Client{},
		baseURL:  DefaultBaseURL,
		logger:   logger,
	}
}

// WithBaseURL sets a custom base URL (for testing or a local Bot API server).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// Call performs one POST to <base>/bot<token>/<method> with form-encoded
// params. Failures are logged and returned as a failed Result.
func (c *Client) Call(ctx context.Context, method string, params core.Params) core.Result {
	ctx, span := tracer.Start(ctx, "telegram."+method)
	defer span.End()
	span.SetAttributes(attribute.String("telegram.method", method))

	res, err := c.do(ctx, method, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("error calling telegram api", "method", method, "error", err)
		return core.Failure(err)
	}

	span.SetAttributes(attribute.Bool("telegram.ok", res.OK))
	return res
}

func (c *Client) do(ctx context.Context, method string, params core.Params) (core.Result, error) {
	if method == "" {
		return core.Result{}, fmt.Errorf("method is required")
	}

	form, err := encodeParams(params)
	if err != nil {
		return core.Result{}, err
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return core.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return core.Result{}, fmt.Errorf("telegram request: %w", redact(err, c.botToken))
	}
	defer resp.Body.Close()

	var body core.Result
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Result{}, fmt.Errorf("telegram API error %d: %s", resp.StatusCode, body.Description)
	}
	if decodeErr != nil {
		return core.Result{}, fmt.Errorf("decode response: %w", decodeErr)
	}

	return body, nil
}

// encodeParams renders params as form values. Structured values such as
// reply_markup are sent as JSON.
func encodeParams(params core.Params) (url.Values, error) {
	form := url.Values{}
	for key, v := range params {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			form.Set(key, val)
		case int:
			form.Set(key, strconv.Itoa(val))
		case int64:
			form.Set(key, strconv.FormatInt(val, 10))
		case bool:
			form.Set(key, strconv.FormatBool(val))
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("encode param %q: %w", key, err)
			}
			form.Set(key, string(b))
		}
	}
	return form, nil
}

// redact strips the bot token from transport errors, which embed the URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<token>"))
}
