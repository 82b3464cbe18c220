package activity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gputcoerrors "github.com/opencost/gputco/pkg/errors"
	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/util/httputil"
	"github.com/opencost/gputco/pkg/util/json"
	"github.com/opencost/gputco/pkg/util/retry"
)

// HTTPRecorder posts events to the /activity endpoint of a gputco server.
type HTTPRecorder struct {
	url    string
	token  string
	client *http.Client
}

func NewHTTPRecorder(baseURL, token string) *HTTPRecorder {
	return &HTTPRecorder{
		url:    strings.TrimSuffix(baseURL, "/") + "/activity",
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (hr *HTTPRecorder) Record(event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, hr.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if hr.token != "" {
		req.Header.Set("Authorization", "Bearer "+hr.token)
	}

	resp, err := hr.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if httputil.IsRateLimitedResponse(resp) {
		return &RateLimitedError{RetryAfter: httputil.RateLimitedRetryFor(resp, time.Second, 0)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("activity endpoint %s returned %s", hr.url, resp.Status)
	}
	return nil
}

// maxRateLimitWait caps how long the sender honors a Retry-After header.
const maxRateLimitWait = 30 * time.Second

// RateLimitedError is returned by a Recorder that was asked to back off.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("activity endpoint rate limited, retry after %s", e.RetryAfter)
}

// ClientOpts tunes the background sender.
type ClientOpts struct {
	BufferSize  int
	Attempts    uint
	RetryDelay  time.Duration
	OnDropped   func()
	OnDelivered func(success bool)
}

func DefaultClientOpts() *ClientOpts {
	return &ClientOpts{
		BufferSize: 256,
		Attempts:   3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Client delivers events to a Recorder from a background goroutine so that callers never block.
// Events that arrive while the buffer is full are dropped and counted.
type Client struct {
	recorder Recorder
	opts     ClientOpts
	events   chan Event
	dropped  uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
	closeLock sync.RWMutex
	closed    bool
}

// NewClient starts the background sender. opts may be nil.
func NewClient(recorder Recorder, opts *ClientOpts) *Client {
	if opts == nil {
		opts = DefaultClientOpts()
	}
	o := *opts
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultClientOpts().BufferSize
	}
	if o.Attempts == 0 {
		o.Attempts = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		recorder: recorder,
		opts:     o,
		events:   make(chan Event, o.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.run()
	return c
}

// Log enqueues event without blocking.
func (c *Client) Log(event Event) {
	c.closeLock.RLock()
	defer c.closeLock.RUnlock()

	if c.closed {
		n := c.drop()
		log.DedupedWarningf(5, "Activity client is closed, dropped %s event (%d dropped so far)", event.Type, n)
		return
	}

	select {
	case c.events <- event:
	default:
		n := c.drop()
		log.DedupedWarningf(5, "Activity buffer full, dropped %d events so far", n)
	}
}

func (c *Client) drop() uint64 {
	n := atomic.AddUint64(&c.dropped, 1)
	if c.opts.OnDropped != nil {
		c.opts.OnDropped()
	}
	return n
}

// Dropped returns the number of events dropped so far.
func (c *Client) Dropped() uint64 {
	return atomic.LoadUint64(&c.dropped)
}

func (c *Client) run() {
	defer close(c.done)
	defer gputcoerrors.HandlePanic()

	for event := range c.events {
		e := event
		_, err := retry.Retry(c.ctx, func() (struct{}, error) {
			err := c.recorder.Record(e)

			var rl *RateLimitedError
			if errors.As(err, &rl) {
				c.backoff(rl.RetryAfter)
			}
			return struct{}{}, err
		}, c.opts.Attempts, c.opts.RetryDelay)

		if err != nil {
			log.DedupedWarningf(5, "Failed to record %s activity event: %s", e.Type, err)
		}
		if c.opts.OnDelivered != nil {
			c.opts.OnDelivered(err == nil)
		}
	}
}

func (c *Client) backoff(d time.Duration) {
	if d > maxRateLimitWait {
		d = maxRateLimitWait
	}
	if d <= 0 {
		return
	}

	select {
	case <-c.ctx.Done():
	case <-time.After(d):
	}
}

// Close stops accepting events and waits for the buffered ones to be delivered. When ctx ends
// first, in-flight retries are abandoned and the remaining events are discarded.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closeLock.Lock()
		c.closed = true
		close(c.events)
		c.closeLock.Unlock()
	})

	select {
	case <-c.done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		return ctx.Err()
	}
}
