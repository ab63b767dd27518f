package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flightstats-client/flightstats/domain"
)

const (
	DefaultBaseURL = "https://api.flightstats.com/flex/flightstatus/historical/rest/v3/json/airport/status/"

	AppIDParam  = "appId"
	AppKeyParam = "appKey"

	defaultTimeout     = 30 * time.Second
	defaultBaseBackoff = 1 * time.Second
	maxBackoff         = 30 * time.Second
)

var (
	ErrReservedParam      = errors.New("query parameter collides with an authentication parameter")
	ErrMissingCredentials = errors.New("missing API credentials")
)

// Credentials é o par appId/appKey do provedor. Construído uma vez na
// inicialização e passado para cada cliente.
type Credentials struct {
	AppID  string
	AppKey string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.AppID) == "" || strings.TrimSpace(c.AppKey) == "" {
		return ErrMissingCredentials
	}
	return nil
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithStats faz o cliente registrar cada chamada em store, marcada com key/airport.
func WithStats(store domain.StatsStore, key domain.Key, airport string) ClientOption {
	return func(c *Client) {
		c.stats = store
		c.statsKey = key
		c.airport = airport
	}
}

// WithLimiters faz cada tentativa esperar, em ordem, em todos os limiters.
// A espera acontece antes da requisição e não conta no timeout HTTP.
func WithLimiters(limiters ...domain.Limiter) ClientOption {
	return func(c *Client) { c.limiters = append(c.limiters, limiters...) }
}

// WithRetries repete apenas falhas de transporte, com backoff exponencial.
// Erros do provedor nunca são repetidos.
func WithRetries(max int, base time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		if base > 0 {
			c.baseBackoff = base
		}
	}
}

// Client faz GETs na API de status histórico por aeroporto.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	limiters   []domain.Limiter

	stats    domain.StatsStore
	statsKey domain.Key
	airport  string

	maxRetries  int
	baseBackoff time.Duration
}

func NewClient(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		creds:       creds,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseBackoff: defaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}
	return c
}

// ComposeURL monta base + path + parâmetros. Os parâmetros de autenticação
// entram primeiro e não podem ser sobrescritos pelo chamador.
func (c *Client) ComposeURL(path string, params url.Values) (string, error) {
	q := url.Values{}
	q.Set(AppIDParam, c.creds.AppID)
	q.Set(AppKeyParam, c.creds.AppKey)

	for k, vs := range params {
		if k == AppIDParam || k == AppKeyParam {
			return "", fmt.Errorf("%w: %q", ErrReservedParam, k)
		}
		q[k] = append([]string(nil), vs...)
	}

	return c.baseURL + strings.TrimPrefix(path, "/") + "?" + q.Encode(), nil
}

// Call implementa domain.Caller.
//
// Devolve o corpo sem modificação quando não há objeto "error"; caso
// contrário devolve *domain.APIError com código, mensagem e payload.
func (c *Client) Call(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u, err := c.ComposeURL(path, params)
	if err != nil {
		return nil, err
	}

	body, status, err := c.getWithRetry(ctx, u)
	if err != nil {
		c.record(ctx, path, domain.OutcomeTransportError)
		return nil, err
	}

	if err := checkResponse(body, status); err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			c.record(ctx, path, domain.OutcomeProviderError)
		} else {
			c.record(ctx, path, domain.OutcomeDecodeError)
		}
		return nil, err
	}

	c.record(ctx, path, domain.OutcomeOK)
	return body, nil
}

func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, int, error) {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(backoff)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, 0, ctx.Err()
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		body, status, err := c.get(ctx, u)
		if err == nil {
			return body, status, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
	}

	if c.maxRetries > 0 {
		return nil, 0, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
	}
	return nil, 0, lastErr
}

func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	for _, lim := range c.limiters {
		if lim == nil {
			continue
		}
		if err := lim.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("waiting for rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("executing request: %w", redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) record(ctx context.Context, path string, outcome domain.Outcome) {
	if c.stats == nil {
		return
	}
	_ = c.stats.Record(ctx, domain.StatsEvent{
		Key:     c.statsKey,
		Airport: c.airport,
		Path:    path,
		Outcome: outcome,
		At:      time.Now(),
	})
}

type errorEnvelope struct {
	Error *struct {
		HTTPStatusCode json.RawMessage `json:"httpStatusCode"`
		ErrorID        string          `json:"errorId"`
		ErrorMessage   string          `json:"errorMessage"`
	} `json:"error"`
}

// checkResponse procura o objeto "error" no corpo. Sem ele, um status HTTP
// >= 400 também vira APIError.
func checkResponse(body []byte, status int) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status >= http.StatusBadRequest {
			return &domain.APIError{
				Code:    strconv.Itoa(status),
				Message: http.StatusText(status),
				Payload: body,
			}
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	if env.Error == nil {
		if status >= http.StatusBadRequest {
			return &domain.APIError{Code: strconv.Itoa(status), Message: http.StatusText(status), Payload: body}
		}
		return nil
	}

	msg := env.Error.ErrorMessage
	if msg == "" {
		msg = env.Error.ErrorID
	}
	code := strings.Trim(string(bytes.TrimSpace(env.Error.HTTPStatusCode)), `"`)
	if code == "null" {
		code = ""
	}
	return &domain.APIError{Code: code, Message: msg, Payload: body}
}

// redact remove appKey da URL presente em *url.Error antes de logar.
func redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return err
	}
	q := u.Query()
	if q.Has(AppKeyParam) {
		q.Set(AppKeyParam, "REDACTED")
		u.RawQuery = q.Encode()
	}
	return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
}
