package mailer

import (
	"context"
	"fmt"
	"log"
	"time"

	"training-backend/internal/platform/config"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Result is the outcome of one message. Results are returned in message order.
type Result struct {
	ID  string
	Err error
}

func (r Result) Sent() bool { return r.Err == nil }

type Sender interface {
	Send(ctx context.Context, msgs []Message) []Result
}

// New は email.provider に応じた Sender を返す
func New(cfg config.EmailConfig) (Sender, error) {
	switch cfg.Provider {
	case config.EmailProviderNone:
		return noneSender{}, nil
	case config.EmailProviderLive:
		from := cfg.From
		if cfg.FromName != "" {
			from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
		}
		return NewResendSender(cfg.APIURL, cfg.APIKey, from, 30*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// noneSender は配信せずに全件送信済みとして返す（開発用）
type noneSender struct{}

func (noneSender) Send(_ context.Context, msgs []Message) []Result {
	if len(msgs) > 0 {
		log.Printf("[WARN] email provider is none: %d message(s) marked sent without delivery", len(msgs))
	}
	out := make([]Result, len(msgs))
	for i := range out {
		out[i] = Result{ID: "none"}
	}
	return out
}
