package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultCommand runs espeak-ng reading the text from stdin.
var DefaultCommand = []string{"espeak-ng", "--stdin", "-v", "{engine}"}

// CommandSpeaker speaks through an external TTS program. The utterance text
// is written to the program's stdin; "{lang}", "{engine}" and "{voice}" in
// the arguments are replaced with the utterance's selectors.
type CommandSpeaker struct {
	command   []string
	timeoutMs int
}

// NewCommandSpeaker creates a speaker. An empty command uses DefaultCommand.
func NewCommandSpeaker(command []string, timeoutMs int) *CommandSpeaker {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}
	return &CommandSpeaker{command: command, timeoutMs: timeoutMs}
}

// Speak runs the command in the background and returns immediately.
func (c *CommandSpeaker) Speak(u Utterance) {
	go func() {
		if err := c.Run(context.Background(), u); err != nil {
			log.WithField("text", u.Text).Warnf("speech: %s", err)
		}
	}()
}

// Run speaks u and waits for the command to finish or time out.
func (c *CommandSpeaker) Run(ctx context.Context, u Utterance) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.timeoutMs)*time.Millisecond)
	defer cancel()

	args := c.args(u)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(u.Text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("tts command timeout after %dms", c.timeoutMs)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("tts command failed: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("tts command failed: %w", err)
	}
	return nil
}

func (c *CommandSpeaker) args(u Utterance) []string {
	engine := u.Lang
	if l, ok := LookupLanguage(u.Lang); ok {
		engine = l.Engine
	}
	r := strings.NewReplacer("{lang}", u.Lang, "{engine}", engine, "{voice}", u.Voice)

	args := make([]string, len(c.command))
	for i, a := range c.command {
		args[i] = r.Replace(a)
	}
	return args
}
