package camera

import (
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Capture owns the webcam handle feeding the monitor loop.
type Capture struct {
	webcam   *gocv.VideoCapture
	deviceID int
	width    int
	height   int
	frame    gocv.Mat
	mu       sync.Mutex
}

// NewCapture opens the capture device and requests the given frame
// size. Cameras are free to negotiate a different size; the actual
// dimensions are recorded and logged when they differ.
func NewCapture(deviceID, width, height int, log *logrus.Entry) (*Capture, error) {
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w", deviceID, err)
	}

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(height))

	actualWidth := int(webcam.Get(gocv.VideoCaptureFrameWidth))
	actualHeight := int(webcam.Get(gocv.VideoCaptureFrameHeight))
	if log != nil && (actualWidth != width || actualHeight != height) {
		log.WithFields(logrus.Fields{
			"requested": fmt.Sprintf("%dx%d", width, height),
			"actual":    fmt.Sprintf("%dx%d", actualWidth, actualHeight),
		}).Warn("camera negotiated a different frame size")
	}

	return &Capture{
		webcam:   webcam,
		deviceID: deviceID,
		width:    actualWidth,
		height:   actualHeight,
		frame:    gocv.NewMat(),
	}, nil
}

// Read captures a frame into the provided Mat.
func (c *Capture) Read(frame *gocv.Mat) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return false
	}
	return c.webcam.Read(frame)
}

// ReadImage captures a frame and converts it for backends working on
// image.Image. The returned image does not alias capture memory, so it
// stays valid after the next Read.
func (c *Capture) ReadImage() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return nil, fmt.Errorf("camera closed")
	}
	if ok := c.webcam.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, fmt.Errorf("no frame from camera %d", c.deviceID)
	}

	img, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	return img, nil
}

// Width returns the negotiated frame width.
func (c *Capture) Width() int {
	return c.width
}

// Height returns the negotiated frame height.
func (c *Capture) Height() int {
	return c.height
}

// Close releases the camera and the conversion buffer.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return nil
	}
	err := c.webcam.Close()
	c.webcam = nil
	c.frame.Close()
	return err
}
