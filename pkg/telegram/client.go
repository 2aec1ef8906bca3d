// Package telegram implements the outbound transport to the Telegram Bot
// API on top of telego.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mymmrac/telego"
	ta "github.com/mymmrac/telego/telegoapi"
	"golang.org/x/time/rate"

	"github.com/tinyland-inc/dropgram/pkg/assemble"
	"github.com/tinyland-inc/dropgram/pkg/config"
	"github.com/tinyland-inc/dropgram/pkg/relay"
)

// sendRate paces outbound API calls below Telegram's flood limits; the
// dispatcher's per-item delays sit on top of this floor.
var sendRate = rate.Every(time.Second)

// Client sends assembled payloads to one bot's API endpoint.
type Client struct {
	bot     *telego.Bot
	limiter *rate.Limiter
}

func New(cfg *config.Config) (*Client, error) {
	opts := []telego.BotOption{telego.WithDiscardLogger()}
	if cfg.APIServer != "" {
		opts = append(opts, telego.WithAPIServer(cfg.APIServer))
	}

	bot, err := telego.NewBot(cfg.BotAPIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating bot client: %w", err)
	}

	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(sendRate, 1),
	}, nil
}

// Send dispatches one payload on its route. Rate-limit responses and
// no-response transport failures come back as *relay.RetryableError;
// other API errors are permanent for the item.
func (c *Client) Send(ctx context.Context, payload assemble.Payload) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var err error
	switch payload.Route {
	case assemble.RouteSendText:
		_, err = c.bot.SendMessage(ctx, payload.Text)
	case assemble.RouteSendPhoto:
		_, err = c.bot.SendPhoto(ctx, payload.Photo)
	case assemble.RouteSendAudio:
		_, err = c.bot.SendAudio(ctx, payload.Audio)
	case assemble.RouteSendDocument:
		_, err = c.bot.SendDocument(ctx, payload.Document)
	case assemble.RouteSendVideo:
		_, err = c.bot.SendVideo(ctx, payload.Video)
	case assemble.RouteSendAnimation:
		_, err = c.bot.SendAnimation(ctx, payload.Animation)
	case assemble.RouteSendMediaGroup:
		_, err = c.bot.SendMediaGroup(ctx, payload.MediaGroup)
	default:
		return fmt.Errorf("unknown route %q", payload.Route)
	}

	if err == nil {
		return nil
	}
	return Classify(err)
}

// Classify maps a telego error onto the relay's retry taxonomy.
func Classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *ta.Error
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode == http.StatusTooManyRequests {
			retryAfter := time.Duration(0)
			if apiErr.Parameters != nil {
				retryAfter = time.Duration(apiErr.Parameters.RetryAfter) * time.Second
			}
			return &relay.RetryableError{Err: err, RetryAfter: retryAfter}
		}
		// The API answered with a definite error; retrying the same
		// payload will not change its mind.
		return err
	}

	// No API response at all: network or server unavailable.
	return &relay.RetryableError{Err: err}
}
