package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const eskizBaseURL = "https://notify.eskiz.uz/api"

// EskizSender talks to the Eskiz SMS gateway. It owns an expiring bearer
// token cache guarded by a mutex rather than sharing process-wide state.
type EskizSender struct {
	httpClient *http.Client
	baseURL    string
	email      string
	secret     string
	from       string

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewEskizSender(email, secret, from string) *EskizSender {
	return &EskizSender{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    eskizBaseURL,
		email:      email,
		secret:     secret,
		from:       from,
	}
}

func (s *EskizSender) Send(ctx context.Context, phone, text string) Result {
	token, err := s.getToken(ctx)
	if err != nil {
		return Result{Sent: false, Provider: "eskiz", Detail: err.Error()}
	}

	form := url.Values{}
	form.Set("mobile_phone", strings.TrimPrefix(phone, "+"))
	form.Set("message", text)
	form.Set("from", s.from)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/message/sms/send", strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Sent: false, Provider: "eskiz", Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Result{Sent: false, Provider: "eskiz", Detail: err.Error()}
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)

	if resp.StatusCode == http.StatusUnauthorized {
		// Token likely stale, drop the cached one.
		s.mu.Lock()
		s.token = ""
		s.mu.Unlock()
	}

	ok := resp.StatusCode == http.StatusOK && body.Status == "success"
	detail := ""
	if !ok {
		detail = fmt.Sprintf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return Result{Sent: ok, Provider: "eskiz", Detail: detail}
}

func (s *EskizSender) getToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.tokenExp) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("email", s.email)
	form.Set("password", s.secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("eskiz login: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("eskiz login: non-json response, status=%d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || body.Data.Token == "" {
		return "", fmt.Errorf("eskiz login failed: status=%d", resp.StatusCode)
	}

	s.token = body.Data.Token
	s.tokenExp = time.Now().Add(24 * time.Hour)
	return s.token, nil
}
