// Package notify pushes match events to the operator.
//
// The notifier acts only on outcomes whose event type is notification
// worthy (new and changed matches, including sold transitions). Everything
// else, including unchanged matches, stays quiet.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fwagner/gtswatch/internal/engine"
	"github.com/fwagner/gtswatch/internal/logging"
	"github.com/fwagner/gtswatch/internal/track"
)

// Notifier delivers one message per notable outcome.
type Notifier interface {
	Notify(ctx context.Context, o engine.Outcome) error
}

// ShouldNotify is the single gate deciding whether an outcome reaches the
// operator.
func ShouldNotify(o engine.Outcome) bool {
	return o.Err == nil && o.Event.Type.NotificationWorthy()
}

// Telegram sends messages through the Bot API.
type Telegram struct {
	token   string
	chatID  string
	client  *http.Client
	baseURL string
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://api.telegram.org",
	}
}

func (t *Telegram) Notify(ctx context.Context, o engine.Outcome) error {
	payload := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     Message(o),
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram send: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// Message builds the notification text for one outcome.
func Message(o engine.Outcome) string {
	l := o.Listing
	var b strings.Builder

	switch o.Event.Type {
	case track.NewMatch:
		b.WriteString("New match: ")
	case track.ChangedMatch:
		if o.Event.Diff.StatusSold {
			b.WriteString("Sold: ")
		} else {
			b.WriteString("Changed: ")
		}
	}
	if l.Title != "" {
		b.WriteString(l.Title)
	} else {
		b.WriteString(l.Key().String())
	}
	b.WriteString("\n")

	if l.PriceEUR != nil {
		fmt.Fprintf(&b, "Price: %s EUR\n", humanize.Comma(int64(*l.PriceEUR)))
	}
	if l.MileageKM != nil {
		fmt.Fprintf(&b, "Mileage: %s km\n", humanize.Comma(int64(*l.MileageKM)))
	}
	if o.Result.Passed {
		fmt.Fprintf(&b, "Score: %d.%02d\n", o.Result.Score/100, absInt(o.Result.Score)%100)
	}
	if o.Event.Type == track.ChangedMatch && !o.Event.Diff.Empty() {
		fmt.Fprintf(&b, "Changes: %s\n", o.Event.Diff.Summary())
	}
	if l.URL != "" {
		b.WriteString(l.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NotifyAll sends every notable outcome, logging and continuing on delivery
// failures. Returns the number of messages delivered.
func NotifyAll(ctx context.Context, n Notifier, outcomes []engine.Outcome) int {
	log := logging.WithPrefix("notify")
	sent := 0
	for _, o := range outcomes {
		if !ShouldNotify(o) {
			continue
		}
		if err := n.Notify(ctx, o); err != nil {
			log.Error("delivery failed", "key", o.Listing.Key(), "error", err)
			continue
		}
		sent++
	}
	return sent
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
