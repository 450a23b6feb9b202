package pose

import "gocv.io/x/gocv"

// Detector defines the interface for body-landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected pose.
	// A Detection with a nil Pose is returned when no body is visible.
	Detect(frame *gocv.Mat) (Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// Python is the interpreter used to run the detection service.
	// Empty means autodetect a virtualenv, then fall back to python3.
	Python string

	// Script is the path to pose_service.py. Empty means search the usual locations.
	Script string

	// ModelComplexity selects the MediaPipe model (0=lite, 1=full, 2=heavy).
	ModelComplexity int

	// MinDetectionConf is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
// The lite model keeps CPU usage low on small machines.
func DefaultConfig() Config {
	return Config{
		ModelComplexity:  0,
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
	}
}
