package alerts

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ALERT DISPATCHER - At most one notification per symbol per window
// ═══════════════════════════════════════════════════════════════════════════════
//
// The "last sent" record updates only after a successful send. A delivery
// failure leaves the record untouched so the next cycle may retry.
//

// Sender delivers one rendered alert.
type Sender interface {
	Send(text string) error
}

// TelegramSender sends HTML-formatted messages to a fixed chat.
type TelegramSender struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender authenticates against the bot API.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token not set")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &TelegramSender{api: api, chatID: chatID}, nil
}

func (s *TelegramSender) Send(text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := s.api.Send(msg)
	return err
}

// Dispatcher gates alert delivery by confidence floor and send window.
type Dispatcher struct {
	mu                sync.Mutex
	sender            Sender
	window            time.Duration
	sniperFloor       float64
	continuationFloor float64
	lastSent          map[string]time.Time
	log               zerolog.Logger
}

// NewDispatcher builds a dispatcher. The window normally mirrors the
// decision-side cooldown.
func NewDispatcher(sender Sender, window time.Duration, sniperFloor, continuationFloor float64, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:            sender,
		window:            window,
		sniperFloor:       sniperFloor,
		continuationFloor: continuationFloor,
		lastSent:          map[string]time.Time{},
		log:               log,
	}
}

// Dispatch sends the alert for a firing decision if it clears the floor and
// the window. Returns whether a message went out.
func (d *Dispatcher) Dispatch(dec types.Decision, now time.Time) bool {
	if !dec.Action.Fires() {
		return false
	}
	if dec.Confidence < d.floor(dec.Mode) {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.lastSent[dec.Symbol]; ok && now.Sub(last) < d.window {
		return false
	}

	if err := d.sender.Send(Format(dec)); err != nil {
		// Record stays untouched: eligible to retry next cycle.
		d.log.Warn().Err(err).Str("symbol", dec.Symbol).Msg("⚠️ Alert delivery failed")
		return false
	}
	d.lastSent[dec.Symbol] = now

	d.log.Info().
		Str("symbol", dec.Symbol).
		Str("action", string(dec.Action)).
		Float64("confidence", dec.Confidence).
		Msg("📣 Alert sent")
	return true
}

func (d *Dispatcher) floor(m types.Mode) float64 {
	if m == types.ModeContinuation {
		return d.continuationFloor
	}
	return d.sniperFloor
}

// Format renders a decision as a Telegram HTML message.
func Format(dec types.Decision) string {
	emoji := "🟢"
	if dec.Action == types.ActionSellNow {
		emoji = "🔴"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b> — %s (%s)\n", emoji, dec.Action, dec.Symbol, dec.Mode)
	fmt.Fprintf(&b, "Confidence: <b>%.1f</b>/10\n", dec.Confidence)

	if p := dec.Plan; p != nil {
		fmt.Fprintf(&b, "Entry: <code>%s</code>\n", p.Entry)
		fmt.Fprintf(&b, "Stop: <code>%s</code>\n", p.Stop)
		fmt.Fprintf(&b, "TP1: <code>%s</code>\n", p.TP1)
		fmt.Fprintf(&b, "TP2: <code>%s</code>\n", p.TP2)
		fmt.Fprintf(&b, "RR: <b>%.2f</b>\n", p.RR)
	}
	if dec.RiskPct > 0 {
		fmt.Fprintf(&b, "Risk: %.2f%% (size %s)\n", dec.RiskPct*100, dec.Size.StringFixed(0))
	}
	if dec.Commentary != "" {
		fmt.Fprintf(&b, "<i>%s</i>", dec.Commentary)
	}
	return b.String()
}
