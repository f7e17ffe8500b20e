// Package telegram delivers scan reports through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wonny/pennyscan/pkg/config"
	"github.com/wonny/pennyscan/pkg/httputil"
	"github.com/wonny/pennyscan/pkg/logger"
)

// MaxMessageLength is the Bot API limit for one text message
const MaxMessageLength = 4096

// Notifier sends text to one Telegram chat
// ⭐ SSOT: Bot API calls are made from this notifier only
type Notifier struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	maxRetries int
	retryDelay time.Duration
	logger     *logger.Logger
}

// NewNotifier creates a notifier. No request is made until the first Notify.
func NewNotifier(httpClient *httputil.Client, cfg config.TelegramConfig, log *logger.Logger) *Notifier {
	endpoint := cfg.APIBaseURL
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot := &tgbotapi.BotAPI{
		Token:  cfg.BotToken,
		Buffer: 100,
		// the notifier owns the retry policy
		Client: httpClient.Clone().DisableRetry(),
	}
	bot.SetAPIEndpoint(endpoint)

	return &Notifier{
		bot:        bot,
		chatID:     cfg.ChatID,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Second,
		logger:     log.Component("telegram"),
	}
}

// WithRetryDelay sets the initial backoff delay
func (n *Notifier) WithRetryDelay(d time.Duration) *Notifier {
	n.retryDelay = d
	return n
}

// Notify sends text, split into several messages when it exceeds the Bot API limit
func (n *Notifier) Notify(ctx context.Context, text string) error {
	for i, part := range Split(text, MaxMessageLength) {
		if err := n.send(ctx, part); err != nil {
			return fmt.Errorf("telegram send part %d: %w", i+1, err)
		}
	}
	return nil
}

// Verify checks the bot token with getMe
func (n *Notifier) Verify(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	me, err := n.bot.GetMe()
	if err != nil {
		return "", fmt.Errorf("telegram getMe: %w", err)
	}
	return me.UserName, nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true

	attempt := 0
	operation := func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		_, err := n.bot.Send(msg)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		n.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay,
			"error":   err.Error(),
		}).Warn("Retrying Telegram send")
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = n.retryDelay
	policy.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(n.maxRetries)), ctx)
	return backoff.RetryNotify(operation, b, notify)
}

// retryable reports whether a send failure may succeed on a later attempt
func retryable(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	// transport failure
	return true
}

// Split breaks text into chunks of at most limit runes, preferring line boundaries
func Split(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if currentLen+lineLen > limit {
			flush()
		}
		// a single line longer than the limit is cut hard
		for lineLen > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			lineLen -= limit
		}
		current.WriteString(line)
		currentLen += lineLen
	}
	flush()

	return parts
}
