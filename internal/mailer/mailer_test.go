package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-backend/internal/platform/config"
)

func messages(n int) []Message {
	out := make([]Message, n)
	for i := range out {
		out[i] = Message{To: fmt.Sprintf("a%03d@example.com", i), Subject: "s", HTML: "<p>x</p>"}
	}
	return out
}

type batchServer struct {
	mu       sync.Mutex
	calls    int
	sizes    []int
	keys     []string
	failCall int // 1-based; 0 = never
}

func (b *batchServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls++
		call := b.calls
		b.mu.Unlock()

		assert.Equal(t, "/emails/batch", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))

		var body []resendEmail
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		b.mu.Lock()
		b.sizes = append(b.sizes, len(body))
		b.keys = append(b.keys, r.Header.Get("Idempotency-Key"))
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if call == b.failCall {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"name":"validation_error","message":"bad recipient"}`))
			return
		}
		ids := make([]map[string]string, len(body))
		for i := range body {
			ids[i] = map[string]string{"id": fmt.Sprintf("msg-%d-%d", call, i)}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": ids})
	}
}

func TestResendSenderChunks(t *testing.T) {
	bs := &batchServer{}
	srv := httptest.NewServer(bs.handler(t))
	defer srv.Close()

	s := NewResendSender(srv.URL, "re_test", "Training <noreply@example.com>", 5*time.Second)
	res := s.Send(context.Background(), messages(250))

	require.Len(t, res, 250)
	assert.Equal(t, []int{100, 100, 50}, bs.sizes)
	for _, r := range res {
		assert.True(t, r.Sent())
	}
	assert.Equal(t, "msg-3-49", res[249].ID)
	assert.NotEqual(t, bs.keys[0], bs.keys[1])
	assert.Len(t, bs.keys[0], 26)
}

func TestResendSenderFailedChunk(t *testing.T) {
	bs := &batchServer{failCall: 2}
	srv := httptest.NewServer(bs.handler(t))
	defer srv.Close()

	s := NewResendSender(srv.URL, "re_test", "noreply@example.com", 5*time.Second)
	res := s.Send(context.Background(), messages(150))

	sent := 0
	for i, r := range res {
		if r.Sent() {
			sent++
			assert.Less(t, i, 100)
		} else {
			assert.Contains(t, r.Err.Error(), "bad recipient")
		}
	}
	assert.Equal(t, 100, sent)
}

func TestNewProvider(t *testing.T) {
	s, err := New(config.EmailConfig{Provider: config.EmailProviderNone})
	require.NoError(t, err)
	res := s.Send(context.Background(), messages(3))
	require.Len(t, res, 3)
	assert.True(t, res[2].Sent())

	s, err = New(config.EmailConfig{Provider: config.EmailProviderLive, APIKey: "k", From: "a@b.co", APIURL: "https://api.resend.com"})
	require.NoError(t, err)
	assert.IsType(t, &ResendSender{}, s)

	_, err = New(config.EmailConfig{Provider: "smtp"})
	assert.Error(t, err)
}

func TestCertificateEmail(t *testing.T) {
	m, err := CertificateEmail(CertificateEmailData{
		To:               "jane@example.com",
		AttendeeName:     "Jane <Doe>",
		CourseName:       "Bioinformatics Bootcamp",
		CertificateType:  "participation",
		DaysAttended:     3,
		TotalDays:        5,
		VerificationCode: "ABCDEFGHJKMN",
		VerifyURL:        "https://training.example.com/cert/ABCDEFGHJKMN",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", m.To)
	assert.Equal(t, "Your Certificate of Participation - Bioinformatics Bootcamp", m.Subject)
	assert.Contains(t, m.HTML, "Jane &lt;Doe&gt;")
	assert.Contains(t, m.HTML, "You attended 3 of 5 days.")
	assert.Contains(t, m.HTML, `href="https://training.example.com/cert/ABCDEFGHJKMN"`)
	assert.True(t, strings.HasPrefix(m.HTML, "<!DOCTYPE html>"))
	assert.NotContains(t, m.HTML, `<a href="https://doublehelix`)
}

func TestCertificateEmailCompanyLink(t *testing.T) {
	m, err := CertificateEmail(CertificateEmailData{
		To:              "jane@example.com",
		AttendeeName:    "Jane",
		CourseName:      "Bioinformatics Bootcamp",
		CertificateType: "completion",
		CompanyName:     "Double Helix LLC",
		CompanyURL:      "https://doublehelix.example.com",
	})
	require.NoError(t, err)
	assert.Contains(t, m.HTML, `<a href="https://doublehelix.example.com" style="color: #666666;">Double Helix LLC</a>`)
}

func TestResendSenderIDCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"msg-0"}]}`))
	}))
	defer srv.Close()

	s := NewResendSender(srv.URL, "re_test", "noreply@example.com", 5*time.Second)
	res := s.Send(context.Background(), messages(3))

	require.Len(t, res, 3)
	for _, r := range res {
		assert.True(t, r.Sent())
	}
	assert.Equal(t, "msg-0", res[0].ID)
	assert.Empty(t, res[2].ID)
}
