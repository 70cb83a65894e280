// Package fetch retrieves the encrypted transaction blob from the card
// service.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mealtrail/mealtrail/internal/logger"
)

// ErrMissingCredentials is returned before any request when the account
// serial or session cookie is empty.
var ErrMissingCredentials = errors.New("idserial and servicehall are required")

// CookieName is the session cookie the card service expects.
const CookieName = "servicehall"

// maxBodyBytes bounds the response body; 5000 rows fit well within it.
const maxBodyBytes = 32 << 20

// Credentials identify the cardholder to the card service.
type Credentials struct {
	IDSerial    string
	ServiceHall string
}

// Options configures the request window and resilience.
type Options struct {
	Endpoint       string
	PageSize       int
	StartDate      string
	EndDate        string
	MaxRetries     int
	InitialBackoff time.Duration
}

// ServiceError reports a failed exchange with the card service.
type ServiceError struct {
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("card service returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("card service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Client calls the transaction-list endpoint.
type Client struct {
	httpClient *http.Client
	opts       Options
	cb         *gobreaker.CircuitBreaker
}

// NewClient creates a Client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		opts:       opts,
		cb:         NewCircuitBreaker("card-service"),
	}
}

type envelope struct {
	Data *string `json:"data"`
}

// FetchBlob requests one page of transactions and returns the encrypted
// blob from the response's data field.
func (c *Client) FetchBlob(ctx context.Context, creds Credentials) (string, error) {
	if creds.IDSerial == "" || creds.ServiceHall == "" {
		return "", ErrMissingCredentials
	}
	log := logger.FromContext(ctx)

	var blob string
	_, err := c.cb.Execute(func() (any, error) {
		attempt := 0
		return nil, RetryWithBackoff(ctx, c.opts.MaxRetries, c.opts.InitialBackoff, func() error {
			attempt++
			log.Debug().Int("attempt", attempt).Str("endpoint", c.opts.Endpoint).Msg("fetching transactions")

			b, err := c.do(ctx, creds)
			if err != nil {
				log.Warn().Err(err).Int("attempt", attempt).Msg("fetch attempt failed")
				return err
			}
			blob = b
			return nil
		})
	})
	if err != nil {
		var se *ServiceError
		if errors.As(err, &se) {
			return "", err
		}
		return "", &ServiceError{Err: err}
	}
	return blob, nil
}

func (c *Client) requestURL(creds Credentials) (string, error) {
	u, err := url.Parse(c.opts.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}
	q := u.Query()
	q.Set("pageNumber", "0")
	q.Set("pageSize", strconv.Itoa(c.opts.PageSize))
	q.Set("starttime", c.opts.StartDate)
	q.Set("endtime", c.opts.EndDate)
	q.Set("idserial", creds.IDSerial)
	q.Set("tradetype", "-1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, creds Credentials) (string, error) {
	target, err := c.requestURL(creds)
	if err != nil {
		return "", permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return "", permanent(fmt.Errorf("creating request: %w", err))
	}
	req.AddCookie(&http.Cookie{Name: CookieName, Value: creds.ServiceHall})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling card service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		se := &ServiceError{StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		if resp.StatusCode >= 500 {
			return "", se
		}
		return "", permanent(se)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", permanent(&ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("parsing response: %w", err)})
	}
	if env.Data == nil || *env.Data == "" {
		return "", permanent(&ServiceError{StatusCode: resp.StatusCode, Err: errors.New("response has no data field")})
	}
	return *env.Data, nil
}
