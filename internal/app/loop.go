package app

import (
	"bytes"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/coach"
	"github.com/ayusman/repcoach/internal/pose"
)

// run is the frame loop of one workout. The stop channel is checked between
// frames, so a frame in flight is always finished. The camera is released on exit.
func (a *App) run(sess *coach.Session, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if err := a.config.Camera.Close(); err != nil {
			log.Warnf("app: close camera: %s", err)
		}
	}()

	fps := a.config.Camera.FPS()
	if fps <= 0 {
		fps = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			a.processFrame(sess)
		}
	}
}

func (a *App) processFrame(sess *coach.Session) {
	start := time.Now()
	m := a.config.Metrics

	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		log.Debugf("app: read frame: %s", err)
		return
	}
	defer frame.Close()

	det, err := a.config.Detector.Detect(frame)
	if err != nil {
		// a detector failure reads as an empty frame
		log.Warnf("app: detect pose: %s", err)
		det = pose.Detection{}
	}

	res := sess.Process(det)
	m.CounterFrames.Inc()
	if !res.BodyVisible {
		m.CounterFramesNoBody.Inc()
	}
	if res.Counted {
		m.CounterReps.WithLabelValues(string(res.Exercise)).Inc()
	}
	if res.SetAdvanced {
		m.CounterSets.WithLabelValues(string(res.Exercise)).Inc()
	}

	Draw(frame, res, sess.Profile(), a.config.MinVisibility)
	jpeg := a.encode(frame)

	a.publish(res, jpeg)
	if res.NewFeedback {
		a.announce(res.Feedback)
	}
	m.HistFrameDuration.Observe(time.Since(start).Seconds())
}

func (a *App) encode(frame *gocv.Mat) []byte {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{gocv.IMWriteJpegQuality, a.config.JPEGQuality})
	if err != nil {
		log.Debugf("app: encode frame: %s", err)
		return nil
	}
	defer buf.Close()
	return bytes.Clone(buf.GetBytes())
}

func (a *App) publish(res coach.Result, jpeg []byte) {
	a.mu.Lock()
	a.last = res
	if jpeg != nil {
		a.jpeg = jpeg
		a.frameSeq++
	}
	subs := a.subscribers
	a.mu.Unlock()

	for _, fn := range subs {
		fn(res)
	}
}
