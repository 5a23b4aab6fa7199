package netbox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gopkg.in/resty.v1"

	"github.com/cimnine/netbox-forager/logger"
	"github.com/cimnine/netbox-forager/metrics"
	"github.com/cimnine/netbox-forager/netbox/models"
)

// StatusGatewayTimeout marks the empty page returned after the retry budget
// for timeouts is exhausted.
var StatusGatewayTimeout = http.StatusText(http.StatusGatewayTimeout)

var credentialsMessage = regexp.MustCompile(`(?i)invalid token|credentials`)

type Resolver interface {
	Resolve() string
}

type Client struct {
	Config  *NetboxConfig
	Logger  logger.Logger
	Metrics *metrics.Metrics

	rest *resty.Client
}

func NewClient(config *NetboxConfig, log logger.Logger, m *metrics.Metrics) *Client {
	rest := resty.New().
		SetTimeout(config.Timeout()).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", fmt.Sprintf("Token %s", config.API.Token)).
		SetLogger(io.Discard)

	if config.API.Insecure {
		rest.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &Client{
		Config:  config,
		Logger:  logger.OrNoop(log),
		Metrics: m,
		rest:    rest,
	}
}

// Resolve returns the absolute URL of r below the API root.
func (c *Client) Resolve(r Resolver) string {
	return strings.TrimRight(c.Config.API.URL, "/") + "/" + r.Resolve()
}

// Fetch loads one page of a list endpoint.
//
// A 4xx answer (e.g. a filter value NetBox does not know) and a timeout that
// persists through all retries both yield an empty page and a warning. A 403
// caused by the token fails immediately with ErrCredentials, a 5xx that
// persists through all retries fails with ErrServer.
func (c *Client) Fetch(ctx context.Context, rawURL string) (models.Page, error) {
	body, status, err := c.get(ctx, rawURL)
	if err != nil {
		return models.Page{}, err
	}
	if body == nil {
		return models.Page{Status: status}, nil
	}

	var page models.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return models.Page{}, fmt.Errorf("can't decode the page from '%s': %w", rawURL, err)
	}

	return page, nil
}

// Count reads only the total item count of a list response. It is meant
// for probes with limit=1.
func (c *Client) Count(ctx context.Context, rawURL string) (int, error) {
	body, _, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	if body == nil {
		return 0, nil
	}

	count := gjson.GetBytes(body, "count")
	if !count.Exists() {
		return 0, fmt.Errorf("the response from '%s' has no count", rawURL)
	}

	return int(count.Int()), nil
}

// Check asks NetBox for its status to verify the URL and the token and
// returns the reported NetBox version.
func (c *Client) Check(ctx context.Context) (string, error) {
	rawURL := strings.TrimRight(c.Config.API.URL, "/") + "/status/"

	body, status, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if body == nil {
		return "", fmt.Errorf("can't read the NetBox status from '%s': %s", rawURL, status)
	}

	return gjson.GetBytes(body, "netbox-version").String(), nil
}

// get performs the request with retries. A nil body with a nil error means the
// request was absorbed as empty; status then says why.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var response *resty.Response
	attempt := 0

	operation := func() error {
		if attempt > 0 {
			c.Metrics.IncRetries()
			c.Logger.Debug("Retrying request.", zap.String("url", rawURL), zap.Int("attempt", attempt+1))
		}
		attempt++

		start := time.Now()
		r, err := c.rest.R().SetContext(ctx).Get(rawURL)
		c.Metrics.ObserveRequest(statusCode(r), time.Since(start))

		if err != nil {
			if isTimeout(err) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}

		response = r
		if r.StatusCode() >= http.StatusInternalServerError {
			return &ResponseError{URL: rawURL, StatusCode: r.StatusCode(), Message: message(r), kind: ErrServer}
		}

		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.Config.Sleep()), uint64(c.Config.Retries())),
		ctx,
	)

	err := backoff.Retry(operation, policy)
	if err != nil {
		if isTimeout(err) && ctx.Err() == nil {
			c.Logger.Warn("NetBox did not answer in time, treating the request as empty.",
				zap.String("url", rawURL), zap.Int("attempts", attempt), zap.Error(err))
			return nil, StatusGatewayTimeout, nil
		}

		var responseErr *ResponseError
		if errors.As(err, &responseErr) {
			return nil, "", responseErr
		}

		return nil, "", fmt.Errorf("request to '%s' failed: %w", rawURL, err)
	}

	code := response.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return response.Body(), "", nil
	case code == http.StatusForbidden && credentialsMessage.MatchString(response.String()):
		return nil, "", &ResponseError{URL: rawURL, StatusCode: code, Message: message(response), kind: ErrCredentials}
	case code >= 400:
		c.Logger.Warn("NetBox rejected the query, treating it as empty.",
			zap.String("url", rawURL), zap.Int("status", code), zap.String("response", message(response)))
		return nil, response.Status(), nil
	default:
		return nil, "", fmt.Errorf("unexpected status %d from '%s'", code, rawURL)
	}
}

func statusCode(r *resty.Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode()
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func message(r *resty.Response) string {
	msg := strings.TrimSpace(r.String())
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
