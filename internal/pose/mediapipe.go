package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	// idleShutdown is how long the service may sit unused before it is stopped.
	idleShutdown = 30 * time.Second

	// frameQuality is the JPEG quality of frames sent to the service.
	frameQuality = 90
)

// ErrScriptNotFound is returned when pose_service.py cannot be located.
var ErrScriptNotFound = errors.New("pose_service.py not found")

// MediaPipeDetector runs MediaPipe Pose in a Python subprocess.
//
// Each request is a 4-byte big-endian length followed by a JPEG frame; each
// response is one JSON line, {"pose": {"landmarks": [...]}} or {"pose": null}
// when no body was found. The process starts on the first frame, stops after
// idleShutdown without frames, and is restarted after a failed exchange.
type MediaPipeDetector struct {
	config Config
	script string

	mu   sync.Mutex
	proc *service
	idle *time.Timer
}

// service is one running pose_service.py process.
type service struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *io.PipeWriter
}

// NewMediaPipeDetector checks that the service script exists. The process
// itself is not started until the first Detect.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.Script
	if script == "" {
		script = locate(filepath.Join("scripts", "pose_service.py"))
	} else if _, err := os.Stat(script); err != nil {
		script = ""
	}
	if script == "" {
		return nil, ErrScriptNotFound
	}
	return &MediaPipeDetector{config: config, script: script}, nil
}

func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (Detection, error) {
	if frame == nil || frame.Empty() {
		return Detection{}, nil
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{gocv.IMWriteJpegQuality, frameQuality})
	if err != nil {
		return Detection{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	proc, err := d.running()
	if err != nil {
		return Detection{}, err
	}

	det, err := proc.roundTrip(buf.GetBytes())
	if err != nil {
		if stopErr := d.stop(); stopErr != nil {
			log.Debugf("pose: stop after failed exchange: %s", stopErr)
		}
		return Detection{}, err
	}

	d.touch()
	return det, nil
}

// Close stops the service if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) running() (*service, error) {
	if d.proc != nil {
		return d.proc, nil
	}

	python := d.config.Python
	if python == "" {
		python = locate(filepath.Join("venv", "bin", "python"))
	}
	if python == "" {
		python = "python3"
	}

	cmd := exec.Command(python, append([]string{d.script}, d.config.args()...)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr := log.WithField("component", "pose_service").WriterLevel(log.WarnLevel)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		stderr.Close()
		return nil, fmt.Errorf("start pose service: %w", err)
	}

	log.WithFields(log.Fields{
		"python": python,
		"script": d.script,
		"pid":    cmd.Process.Pid,
	}).Info("pose service started")

	d.proc = &service{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		stderr: stderr,
	}
	return d.proc, nil
}

// stop closes the service's stdin and waits for it to exit. Callers hold d.mu.
func (d *MediaPipeDetector) stop() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.proc == nil {
		return nil
	}

	p := d.proc
	d.proc = nil

	p.stdin.Close()
	err := p.cmd.Wait()
	p.stderr.Close()

	log.Info("pose service stopped")
	return err
}

func (d *MediaPipeDetector) touch() {
	if d.idle != nil {
		d.idle.Stop()
	}
	d.idle = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.stop(); err != nil {
			log.Debugf("pose: idle shutdown: %s", err)
		}
	})
}

func (s *service) roundTrip(jpeg []byte) (Detection, error) {
	if err := writeFrame(s.stdin, jpeg); err != nil {
		return Detection{}, fmt.Errorf("send frame: %w", err)
	}
	line, err := s.stdout.ReadBytes('\n')
	if err != nil {
		return Detection{}, fmt.Errorf("read pose: %w", err)
	}
	return DecodeResponse(line)
}

// writeFrame sends one length-prefixed JPEG in a single write.
func writeFrame(w io.Writer, jpeg []byte) error {
	msg := make([]byte, 0, 4+len(jpeg))
	msg = binary.BigEndian.AppendUint32(msg, uint32(len(jpeg)))
	msg = append(msg, jpeg...)
	_, err := w.Write(msg)
	return err
}

func (c Config) args() []string {
	return []string{
		"--model-complexity", strconv.Itoa(c.ModelComplexity),
		"--min-detection-confidence", strconv.FormatFloat(c.MinDetectionConf, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(c.MinTrackingConf, 'f', -1, 64),
	}
}

// DecodeResponse parses one JSON line from the pose service.
// Landmarks beyond NumLandmarks are ignored; missing ones keep zero visibility.
func DecodeResponse(line []byte) (Detection, error) {
	var resp struct {
		Pose *struct {
			Landmarks []Landmark `json:"landmarks"`
		} `json:"pose"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return Detection{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.Pose == nil || len(resp.Pose.Landmarks) == 0 {
		return Detection{}, nil
	}

	p := &Pose{}
	copy(p.Landmarks[:], resp.Pose.Landmarks)
	return Detection{Pose: p}, nil
}

// locate returns the absolute path of rel under the first of the working
// directory, its parent, the executable's directory and ~/.repcoach that has it.
func locate(rel string) string {
	dirs := []string{".", ".."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".repcoach"))
	}

	for _, dir := range dirs {
		p := filepath.Join(dir, rel)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
