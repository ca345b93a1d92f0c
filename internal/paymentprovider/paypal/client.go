// Package paypal REST клиент PayPal Orders v2: создание и capture заказа.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/magabrotheeeer/watchhub/internal/config"
)

// Client клиент PayPal с кэшем OAuth токена и повтором временных ошибок.
type Client struct {
	clientID   string
	secret     string
	apiURL     string
	maxRetries uint64
	httpClient *http.Client

	// newBackOff позволяет тестам обойтись без реальных пауз.
	newBackOff func() backoff.BackOff

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewClient создает клиент по настройкам PayPal.
func NewClient(cfg config.PayPal) *Client {
	timeout := cfg.PayPalTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		clientID:   cfg.PayPalClientID,
		secret:     cfg.PayPalClientSecret,
		apiURL:     strings.TrimRight(cfg.PayPalAPIURL, "/"),
		maxRetries: cfg.PayPalMaxRetries,
		httpClient: &http.Client{Timeout: timeout},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
}

// CreateOrder создает заказ. requestID передается в PayPal-Request-Id,
// поэтому повтор с тем же ключом не создаст второй заказ.
func (c *Client) CreateOrder(ctx context.Context, requestID string, order CreateOrderRequest) (*Order, error) {
	const op = "paypal.CreateOrder"
	var out Order
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", requestID, order, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// CaptureOrder списывает деньги по одобренному заказу.
func (c *Client) CaptureOrder(ctx context.Context, requestID, orderID string) (*Order, error) {
	const op = "paypal.CaptureOrder"
	if orderID == "" {
		return nil, fmt.Errorf("%s: empty order id", op)
	}
	var out Order
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.do(ctx, http.MethodPost, path, requestID, struct{}{}, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, requestID string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	operation := func() error {
		token, err := c.accessToken(ctx)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Temporary() {
				return backoff.Permanent(err)
			}
			return err
		}
		req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
		if requestID != "" {
			req.Header.Set("PayPal-Request-Id", requestID)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			c.resetToken()
		}
		if err := checkResponse(resp); err != nil {
			return classify(err)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	return backoff.Retry(operation, b)
}

// accessToken возвращает кэшированный токен или получает новый через client_credentials.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return "", err
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	c.token = tr.AccessToken
	// минус минута, чтобы токен не истек посреди запроса
	c.expiresAt = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, apiErr)
	return apiErr
}

// classify отмечает ошибки, которые не имеет смысла повторять.
func classify(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && !apiErr.Temporary() && apiErr.StatusCode != http.StatusUnauthorized {
		return backoff.Permanent(err)
	}
	return err
}
