// Package tray puts workout controls and live progress in the desktop menu bar.
package tray

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/repcoach/internal/coach"
	"github.com/ayusman/repcoach/internal/rep"
)

const (
	titleStart = "▶ Start Workout"
	titleStop  = "■ Stop Workout"
	idleText   = "Idle"
)

// Controls are the actions behind the menu items. Any of them may be nil.
type Controls struct {
	// Toggle starts (true) or stops (false) a workout. The menu only flips
	// when it returns nil; an error is shown in place of the feedback line.
	Toggle func(start bool) error
	Open   func()
	Quit   func()
}

type Tray struct {
	controls Controls

	mu       sync.Mutex
	running  bool
	feedback string
	progress string
	items    *menu
}

type menu struct {
	toggle   *systray.MenuItem
	progress *systray.MenuItem
	feedback *systray.MenuItem
	open     *systray.MenuItem
	quit     *systray.MenuItem
}

func New(c Controls) *Tray {
	return &Tray{controls: c, feedback: idleText}
}

// Run shows the tray and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.build, func() {})
}

func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) build() {
	systray.SetTitle("RepCoach")
	systray.SetTooltip("RepCoach rep counter")

	t.mu.Lock()
	m := &menu{}
	m.toggle = systray.AddMenuItem(toggleTitle(t.running), "Start or stop the workout")
	systray.AddSeparator()
	m.progress = systray.AddMenuItem(t.progressTitle(), "Current set and reps")
	m.progress.Disable()
	m.feedback = systray.AddMenuItem(t.feedback, "Latest coaching feedback")
	m.feedback.Disable()
	systray.AddSeparator()
	m.open = systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	m.quit = systray.AddMenuItem("Quit", "Quit RepCoach")
	t.items = m
	t.mu.Unlock()

	go t.listen(m)
}

func (t *Tray) listen(m *menu) {
	for {
		select {
		case <-m.toggle.ClickedCh:
			t.toggle()
		case <-m.open.ClickedCh:
			if t.controls.Open != nil {
				t.controls.Open()
			}
		case <-m.quit.ClickedCh:
			if t.controls.Quit != nil {
				t.controls.Quit()
			}
			systray.Quit()
			return
		}
	}
}

func (t *Tray) toggle() {
	start := !t.IsRunning()
	if t.controls.Toggle != nil {
		if err := t.controls.Toggle(start); err != nil {
			t.SetFeedback(err.Error())
			return
		}
	}
	t.SetRunning(start)
}

// SetRunning syncs the toggle with a workout started or stopped elsewhere.
// Stopping clears the progress line.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running == running {
		return
	}
	t.running = running
	if !running {
		t.progress = ""
	}
	t.refresh()
}

// SetFeedback replaces the feedback line. Empty text shows "Idle".
func (t *Tray) SetFeedback(text string) {
	if text == "" {
		text = idleText
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.feedback = text
	t.refresh()
}

// Update shows a frame's progress and feedback and marks the workout running.
func (t *Tray) Update(r coach.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = true
	t.progress = progressText(r)
	if r.Feedback != "" {
		t.feedback = r.Feedback
	}
	t.refresh()
}

func (t *Tray) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Status returns the progress and feedback lines as shown.
func (t *Tray) Status() (progress, feedback string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progressTitle(), t.feedback
}

// refresh pushes state to the menu once it exists. Callers hold t.mu.
func (t *Tray) refresh() {
	if t.items == nil {
		return
	}
	t.items.toggle.SetTitle(toggleTitle(t.running))
	t.items.progress.SetTitle(t.progressTitle())
	t.items.feedback.SetTitle(t.feedback)
}

func (t *Tray) progressTitle() string {
	if t.progress == "" {
		return "No workout"
	}
	return t.progress
}

func progressText(r coach.Result) string {
	reps := fmt.Sprintf("%d/%d", r.RepsLeft, r.TargetReps)
	switch r.Side {
	case rep.Right:
		reps = fmt.Sprintf("%d/%d", r.RepsRight, r.TargetReps)
	case rep.Both:
		reps = fmt.Sprintf("L %d R %d /%d", r.RepsLeft, r.RepsRight, r.TargetReps)
	}
	return fmt.Sprintf("%s · Set %d/%d · %s", r.DisplayName, r.CurrentSet, r.TargetSets, reps)
}

func toggleTitle(running bool) string {
	if running {
		return titleStop
	}
	return titleStart
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	go cmd.Wait()
	return nil
}
