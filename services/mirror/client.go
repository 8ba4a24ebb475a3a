// Package mirrorsvc forwards Domain Store mutations to the optional remote
// API. Every call is advisory: any network error or non-2xx response is
// swallowed after raising a warning notification, and the offline-mode flag
// makes later calls skip the network entirely until a probe succeeds again.
package mirrorsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/student"
)

// Flags persists the offline-mode flag across restarts.
type Flags interface {
	OfflineMode() bool
	SetOfflineMode(bool) error
}

type Client struct {
	baseURL       string
	client        *http.Client
	probeClient   *http.Client
	probeInterval time.Duration
	flags         Flags
	notifier      student.Notifier
	logger        core.Logger
}

var _ student.Mirror = (*Client)(nil)

func NewClient(conf *core.Config, flags Flags, notifier student.Notifier, logger core.Logger) *Client {
	return &Client{
		baseURL:       conf.Mirror.BaseURL,
		client:        &http.Client{Timeout: conf.Mirror.RequestTimeout},
		probeClient:   &http.Client{Timeout: conf.Mirror.ProbeTimeout},
		probeInterval: conf.Mirror.ProbeInterval,
		flags:         flags,
		notifier:      notifier,
		logger:        logger,
	}
}

func (c *Client) CreateStudent(st student.Student) {
	if c.offline() {
		return
	}
	if err := c.do(http.MethodPost, "/api/students", st); err != nil {
		c.fail("Étudiant", err)
	}
}

func (c *Client) UpdateStudent(st student.Student) {
	if c.offline() {
		return
	}
	if err := c.do(http.MethodPut, "/api/students/"+strconv.FormatInt(st.ID, 10), st); err != nil {
		c.fail("Étudiant", err)
	}
}

func (c *Client) DeleteStudent(id int64) {
	if c.offline() {
		return
	}
	if err := c.do(http.MethodDelete, "/api/students/"+strconv.FormatInt(id, 10), nil); err != nil {
		c.fail("Suppression", err)
	}
}

func (c *Client) CreateResult(res student.Result) {
	if c.offline() {
		return
	}
	if err := c.do(http.MethodPost, "/api/results", res); err != nil {
		c.fail("Résultat", err)
	}
}

// Ping probes the remote API under the short probe timeout.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/test", nil)
	if err != nil {
		return false
	}
	res, err := c.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode < http.StatusMultipleChoices
}

// StartProbeLoop periodically probes the remote API and flips the
// offline-mode flag on transitions. It blocks until ctx is done.
func (c *Client) StartProbeLoop(ctx context.Context) {
	c.setOffline(!c.Ping(ctx))

	ticker := time.NewTicker(c.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.setOffline(!c.Ping(ctx))
		}
	}
}

func (c *Client) offline() bool {
	return c.flags.OfflineMode()
}

func (c *Client) setOffline(offline bool) {
	if c.offline() == offline {
		return
	}
	if err := c.flags.SetOfflineMode(offline); err != nil {
		c.logger.Error(fmt.Sprintf("saving offline flag: %v", err), err)
		return
	}
	if offline {
		c.notifier.Notify("warning", "Serveur hors ligne, les données sont enregistrées localement")
	} else {
		c.notifier.Notify("success", "Connexion au serveur rétablie")
	}
}

// fail downgrades a mirroring error to a warning and marks the client
// offline; the local mutation has already committed by now.
func (c *Client) fail(label string, err error) {
	c.logger.Warn(fmt.Sprintf("mirroring %s: %v", label, err))
	c.notifier.Notify("warning", label+" enregistré localement, le serveur est injoignable")
	if err := c.flags.SetOfflineMode(true); err != nil {
		c.logger.Error(fmt.Sprintf("saving offline flag: %v", err), err)
	}
}

func (c *Client) do(method, path string, payload interface{}) error {
	var body *bytes.Buffer
	if payload != nil {
		body = new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return errors.Wrap(err, "encoding payload")
		}
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequest(method, c.baseURL+path, nil)
	}
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("remote API: %s %s: %s", method, path, res.Status)
	}
	return nil
}
