package mailer

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/oklog/ulid/v2"
)

// Resend の batch API は1リクエスト100件まで
const MaxBatch = 100

type ResendSender struct {
	client *resty.Client
	from   string
	newKey func() string
}

func NewResendSender(baseURL, apiKey, from string, timeout time.Duration) *ResendSender {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &ResendSender{client: c, from: from, newKey: newIdempotencyKey}
}

func newIdempotencyKey() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendBatchResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send は100件ずつ送る。失敗したチャンクの分だけ失敗扱いにし、残りは続行する。
func (s *ResendSender) Send(ctx context.Context, msgs []Message) []Result {
	out := make([]Result, len(msgs))
	for start := 0; start < len(msgs); start += MaxBatch {
		end := start + MaxBatch
		if end > len(msgs) {
			end = len(msgs)
		}
		ids, err := s.sendChunk(ctx, msgs[start:end])
		for i := start; i < end; i++ {
			if err != nil {
				out[i] = Result{Err: err}
				continue
			}
			out[i] = Result{ID: ids[i-start]}
		}
	}
	return out
}

func (s *ResendSender) sendChunk(ctx context.Context, chunk []Message) ([]string, error) {
	body := make([]resendEmail, len(chunk))
	for i, m := range chunk {
		body[i] = resendEmail{From: s.from, To: []string{m.To}, Subject: m.Subject, HTML: m.HTML}
	}

	key := s.newKey()
	var ok resendBatchResponse
	var apiErr resendError
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", key).
		SetBody(body).
		SetResult(&ok).
		SetError(&apiErr).
		Post("/emails/batch")
	if err != nil {
		log.Printf("[ERROR] resend batch key=%s: %v", key, err)
		return nil, fmt.Errorf("send batch: %w", err)
	}
	if resp.IsError() {
		log.Printf("[ERROR] resend batch key=%s: status=%d %s", key, resp.StatusCode(), apiErr.Message)
		return nil, fmt.Errorf("send batch: status %d: %s", resp.StatusCode(), apiErr.Message)
	}
	// 2xx なら受理済み。ID 数が合わなくても送信扱いにする
	if len(ok.Data) != len(chunk) {
		log.Printf("[WARN] resend batch key=%s: expected %d ids, got %d", key, len(chunk), len(ok.Data))
	}
	ids := make([]string, len(chunk))
	for i := range ids {
		if i < len(ok.Data) {
			ids[i] = ok.Data[i].ID
		}
	}
	return ids, nil
}
