package vehicle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swdee/go-rcfollow/dispatch"
)

// ErrStatus is returned when the vehicle responds with a non 200 status
var ErrStatus = errors.New("unexpected vehicle response status")

const (
	// GesturePath receives drive commands as form field "gesture"
	GesturePath = "/hand-gesture"
	// TrackingPath receives steering commands as form field "action"
	TrackingPath = "/person-tracking"
)

// Options defines the vehicle endpoint and timeouts
type Options struct {
	IP   string
	Port int
	// RequestTimeout bounds each command request
	RequestTimeout time.Duration
	// ConnectionTimeout bounds the liveness probe
	ConnectionTimeout time.Duration
}

// DefaultOptions returns the default vehicle access point settings
func DefaultOptions() Options {
	return Options{
		IP:                "192.168.4.1",
		Port:              80,
		RequestTimeout:    2 * time.Second,
		ConnectionTimeout: 5 * time.Second,
	}
}

// Client sends commands to the vehicle firmware web server
type Client struct {
	baseURL      string
	client       *http.Client
	probeTimeout time.Duration
	log          logrus.FieldLogger
}

// NewClient returns a vehicle Client
func NewClient(opts Options, log logrus.FieldLogger) *Client {
	return NewClientURL("http://"+net.JoinHostPort(opts.IP, strconv.Itoa(opts.Port)),
		opts, log)
}

// NewClientURL returns a vehicle Client addressing the given base URL
func NewClientURL(baseURL string, opts Options, log logrus.FieldLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: opts.RequestTimeout,
		},
		probeTimeout: opts.ConnectionTimeout,
		log:          log.WithField("component", "vehicle"),
	}
}

// BaseURL returns the address of the vehicle
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send transmits a command value on a dispatch channel
func (c *Client) Send(ctx context.Context, ch dispatch.Channel, value string) error {

	switch ch {
	case dispatch.Drive:
		return c.SendGesture(ctx, value)
	case dispatch.Steering:
		return c.SendTracking(ctx, value)
	default:
		return fmt.Errorf("vehicle has no channel %q", ch)
	}
}

// SendGesture posts a hand gesture drive command
func (c *Client) SendGesture(ctx context.Context, gesture string) error {
	return c.post(ctx, GesturePath, url.Values{"gesture": {gesture}})
}

// SendTracking posts a person tracking steering command
func (c *Client) SendTracking(ctx context.Context, action string) error {
	return c.post(ctx, TrackingPath, url.Values{"action": {action}})
}

func (c *Client) post(ctx context.Context, path string, form url.Values) error {

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(form.Encode()))

	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := c.do(req); err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}

	c.log.WithField("path", path).WithField("form", form.Encode()).Info("Command sent")

	return nil
}

// Ping probes the vehicle web server for liveness
func (c *Client) Ping(ctx context.Context) error {

	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)

	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	// the probe timeout may exceed the per request client timeout
	probe := *c.client
	probe.Timeout = c.probeTimeout

	resp, err := probe.Do(req)

	if err != nil {
		return fmt.Errorf("ping %s: %w", c.baseURL, err)
	}

	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping %s: %w: %d", c.baseURL, ErrStatus, resp.StatusCode)
	}

	c.log.WithField("url", c.baseURL).Info("Connected to vehicle")

	return nil
}

func (c *Client) do(req *http.Request) error {

	resp, err := c.client.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	return nil
}
