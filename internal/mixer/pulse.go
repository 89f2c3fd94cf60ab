package mixer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// normVolume is PA_VOLUME_NORM, the raw value for 100%.
const normVolume = 65536

// DefaultTimeout bounds each pactl invocation.
const DefaultTimeout = 2 * time.Second

// PulseMixer controls per-application volume through PulseAudio (or
// PipeWire's pulse server) using the pactl command line tool.
type PulseMixer struct {
	binary  string
	timeout time.Duration
}

// NewPulseMixer creates a PulseMixer. An empty binary means "pactl" on PATH;
// a non-positive timeout selects DefaultTimeout.
func NewPulseMixer(binary string, timeout time.Duration) *PulseMixer {
	if binary == "" {
		binary = "pactl"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PulseMixer{
		binary:  binary,
		timeout: timeout,
	}
}

// sinkInput is the subset of `pactl -f json list sink-inputs` we read.
type sinkInput struct {
	Index      int                        `json:"index"`
	Mute       bool                       `json:"mute"`
	Volume     map[string]channelVolume   `json:"volume"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type channelVolume struct {
	Value int `json:"value"`
}

// Sessions lists the current sink inputs. Mute and volume are captured from
// the same listing, so the returned controls report the state at enumeration.
func (m *PulseMixer) Sessions(ctx context.Context) ([]Session, error) {
	out, err := m.run(ctx, "-f", "json", "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("list sink inputs: %w", err)
	}

	var inputs []sinkInput
	if err := json.Unmarshal(out, &inputs); err != nil {
		return nil, fmt.Errorf("parse sink inputs: %w", err)
	}

	sessions := make([]Session, 0, len(inputs))
	for _, in := range inputs {
		key := strconv.Itoa(in.Index)
		sessions = append(sessions, Session{
			ProcessName: in.processName(),
			Key:         key,
			Control: &pulseControl{
				mixer:  m,
				key:    key,
				muted:  in.Mute,
				volume: in.level(),
			},
		})
	}

	return sessions, nil
}

// Close is a no-op; pactl is invoked per call.
func (m *PulseMixer) Close() error {
	return nil
}

// run executes pactl with a timeout, returning stdout.
func (m *PulseMixer) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.binary, args...)
	cmd.WaitDelay = 500 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("pactl timeout after %s", m.timeout)
	}

	if err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if strings.Contains(stderrStr, "No such entity") {
			return nil, ErrStaleControl
		}
		if stderrStr != "" {
			return nil, fmt.Errorf("pactl failed: %w, stderr: %s", err, stderrStr)
		}
		return nil, fmt.Errorf("pactl failed: %w", err)
	}

	return stdout.Bytes(), nil
}

// processName prefers the binary name and falls back to the application name.
func (in sinkInput) processName() string {
	for _, key := range []string{"application.process.binary", "application.name"} {
		raw, ok := in.Properties[key]
		if !ok {
			continue
		}
		var name string
		if err := json.Unmarshal(raw, &name); err == nil && name != "" {
			return name
		}
	}
	return ""
}

// level averages the channel volumes into [0,1].
func (in sinkInput) level() float64 {
	if len(in.Volume) == 0 {
		return 0
	}

	var sum float64
	for _, ch := range in.Volume {
		sum += float64(ch.Value)
	}
	avg := sum / float64(len(in.Volume)) / normVolume

	return math.Max(0, math.Min(1, avg))
}

type pulseControl struct {
	mixer  *PulseMixer
	key    string
	muted  bool
	volume float64
}

func (c *pulseControl) Mute() (bool, error) {
	return c.muted, nil
}

func (c *pulseControl) Volume() (float64, error) {
	return c.volume, nil
}

func (c *pulseControl) SetVolume(level float64) error {
	level = math.Max(0, math.Min(1, level))
	raw := strconv.Itoa(int(math.Round(level * normVolume)))

	if _, err := c.mixer.run(context.Background(), "set-sink-input-volume", c.key, raw); err != nil {
		return &ControlError{Op: "set volume", Key: c.key, Err: err}
	}

	c.volume = level
	return nil
}
