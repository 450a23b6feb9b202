// Package capture reads video frames from a webcam through GoCV.
package capture

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	ErrCameraNotOpen = errors.New("camera is not open")
	ErrReadFailed    = errors.New("camera read failed")
	ErrEmptyFrame    = errors.New("captured frame is empty")
)

// Camera is a frame source for the workout loop. Frames returned by
// ReadFrame belong to the caller, who must Close them.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	// FPS is the rate the loop should poll at.
	FPS() int
}

// Format is a frame size and rate.
type Format struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`
}

// Options selects the device and the format to ask it for.
// Zero format fields fall back to the defaults.
type Options struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
}

func (o Options) requested() Format {
	f := Format{Width: o.Width, Height: o.Height, FPS: o.FPS}
	if f.Width <= 0 {
		f.Width = DefaultWidth
	}
	if f.Height <= 0 {
		f.Height = DefaultHeight
	}
	if f.FPS <= 0 {
		f.FPS = DefaultFPS
	}
	return f
}

// Webcam is a local video device.
type Webcam struct {
	device    int
	requested Format

	mu         sync.Mutex
	vc         *gocv.VideoCapture
	negotiated Format
}

// NewCamera creates a Webcam. The device is not touched until Open.
func NewCamera(opts Options) *Webcam {
	return &Webcam{device: opts.DeviceID, requested: opts.requested()}
}

// Open opens the device and asks for the requested format. Drivers are free
// to pick something else; Negotiated reports what they chose.
func (w *Webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.vc != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(w.device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", w.device, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(w.requested.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(w.requested.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(w.requested.FPS))

	w.vc = vc
	w.negotiated = Format{
		Width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
		FPS:    int(vc.Get(gocv.VideoCaptureFPS)),
	}

	log.WithFields(log.Fields{
		"device":    w.device,
		"requested": fmt.Sprintf("%dx%d@%d", w.requested.Width, w.requested.Height, w.requested.FPS),
		"got":       fmt.Sprintf("%dx%d@%d", w.negotiated.Width, w.negotiated.Height, w.negotiated.FPS),
	}).Info("camera opened")
	return nil
}

func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.vc == nil {
		return nil
	}
	err := w.vc.Close()
	w.vc = nil
	w.negotiated = Format{}
	log.WithField("device", w.device).Info("camera closed")
	return err
}

// ReadFrame grabs the next frame.
func (w *Webcam) ReadFrame() (*gocv.Mat, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.vc == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if !w.vc.Read(&mat) {
		mat.Close()
		return nil, ErrReadFailed
	}
	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}
	return &mat, nil
}

// FPS returns the requested rate. Many drivers report 0 or a nominal 30
// regardless of what they deliver, so the negotiated value is not used.
func (w *Webcam) FPS() int {
	return w.requested.FPS
}

// Requested returns the format asked of the device.
func (w *Webcam) Requested() Format {
	return w.requested
}

// Negotiated returns the format the driver reported after Open, or the zero
// Format while closed.
func (w *Webcam) Negotiated() Format {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.negotiated
}

func (w *Webcam) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.vc != nil
}
