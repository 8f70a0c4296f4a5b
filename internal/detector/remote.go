package detector

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// RemoteConfig configures the connection to a landmark service.
type RemoteConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
	JPEGQuality  int
}

func (c *RemoteConfig) fillDefaults() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = 80
	}
}

type frameRequest struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Image  string `json:"image"`
}

type landmarkResponse struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Error string         `json:"error,omitempty"`
	Faces [][][3]float64 `json:"faces"`
}

// Remote is a landmark backend served by an external process over
// WebSocket (typically a mediapipe sidecar). Frames go out as base64
// JPEG, normalized landmark triples come back and are denormalized to
// frame pixels; depth is discarded at this boundary. One request is in
// flight at a time and a dead connection is re-dialed on the next
// frame.
type Remote struct {
	config RemoteConfig
	log    *logrus.Entry

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewRemote dials the landmark service; an unreachable service fails
// startup rather than the first frame.
func NewRemote(config RemoteConfig, log *logrus.Entry) (*Remote, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("remote: empty service URL")
	}
	config.fillDefaults()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	r := &Remote{config: config, log: log}
	if err := r.reconnect(); err != nil {
		return nil, err
	}
	go r.keepAlive()
	return r, nil
}

// Detect sends one frame and waits for its landmark response.
func (r *Remote) Detect(img image.Image) ([]Face, error) {
	if img == nil {
		return nil, fmt.Errorf("remote: nil image")
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(r.config.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("remote: encoding frame: %w", err)
	}

	req := frameRequest{
		Type:   "frame",
		ID:     uuid.NewString(),
		Width:  width,
		Height: height,
		Image:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	}

	payload, err := r.roundTrip(&req)
	if err != nil {
		// One fresh connection attempt; the frame after this one is
		// never far away.
		if rerr := r.reconnect(); rerr != nil {
			return nil, fmt.Errorf("remote: %w", err)
		}
		if payload, err = r.roundTrip(&req); err != nil {
			return nil, fmt.Errorf("remote: %w", err)
		}
	}

	var resp landmarkResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("remote: unmarshaling response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("remote: service error: %s", resp.Error)
	}
	if resp.ID != "" && resp.ID != req.ID {
		return nil, fmt.Errorf("remote: response id %q does not match request %q", resp.ID, req.ID)
	}

	faces := make([]Face, 0, len(resp.Faces))
	for _, raw := range resp.Faces {
		mesh := make(Mesh, len(raw))
		for i, lm := range raw {
			mesh[i] = Point{
				X: float32(lm[0] * float64(width)),
				Y: float32(lm[1] * float64(height)),
			}
		}
		// The service reports only faces it already accepted, so
		// confidence comes back as certain.
		faces = append(faces, Face{Mesh: mesh, Score: 1})
	}
	return faces, nil
}

func (r *Remote) roundTrip(req *frameRequest) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("backend closed")
	}
	if r.conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	r.conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
	if err := r.conn.WriteJSON(req); err != nil {
		r.dropConnLocked()
		return nil, fmt.Errorf("sending frame: %w", err)
	}

	r.conn.SetReadDeadline(time.Now().Add(r.config.ReadTimeout))
	_, payload, err := r.conn.ReadMessage()
	if err != nil {
		r.dropConnLocked()
		return nil, fmt.Errorf("reading landmarks: %w", err)
	}

	r.conn.SetReadDeadline(time.Time{})
	r.conn.SetWriteDeadline(time.Time{})
	return payload, nil
}

func (r *Remote) reconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("remote: backend closed")
	}
	r.dropConnLocked()

	dialer := websocket.Dialer{HandshakeTimeout: r.config.DialTimeout}
	conn, _, err := dialer.Dial(r.config.URL, nil)
	if err != nil {
		return fmt.Errorf("remote: connecting to %s: %w", r.config.URL, err)
	}
	r.conn = conn
	r.log.WithField("url", r.config.URL).Info("connected to landmark service")
	return nil
}

func (r *Remote) keepAlive() {
	ticker := time.NewTicker(r.config.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		if r.conn != nil {
			deadline := time.Now().Add(r.config.WriteTimeout)
			if err := r.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				r.log.WithError(err).Warn("ping failed, dropping landmark service connection")
				r.dropConnLocked()
			}
		}
		r.mu.Unlock()
	}
}

// dropConnLocked closes and clears the connection; callers hold mu.
func (r *Remote) dropConnLocked() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}

// Close shuts the backend down; Detect calls after Close fail.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.conn != nil {
		deadline := time.Now().Add(r.config.WriteTimeout)
		r.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err := r.conn.Close()
		r.conn = nil
		return err
	}
	return nil
}
