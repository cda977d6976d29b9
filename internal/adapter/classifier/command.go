// Package classifier runs an external bird-call classifier over a single
// recording and normalizes its output into detections.
package classifier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// outputTruncateLength bounds the process output echoed into errors.
const outputTruncateLength = 512

// Command is a domain.Classifier backed by a BirdNET-compatible command
// line tool. Argument templates may reference {input}, {output}, {lat},
// {lon}, {date}, {week} and {min_conf}. {output} is a fresh directory; the
// tool's CSV result is read from it, or from stdout when the directory is
// left empty.
type Command struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommand creates a command classifier. A zero timeout disables the
// per-recording deadline.
func NewCommand(command string, args []string, timeout time.Duration, logger *slog.Logger) *Command {
	return &Command{
		command: command,
		args:    slices.Clone(args),
		timeout: timeout,
		logger:  logger,
	}
}

// Analyze classifies one recording.
func (c *Command) Analyze(ctx context.Context, req domain.AnalyzeRequest) ([]domain.Detection, error) {
	if err := ValidateWAV(req.Path); err != nil {
		return nil, err
	}

	outDir, err := os.MkdirTemp("", "birdetl-classify-*")
	if err != nil {
		return nil, fmt.Errorf("create classifier output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := ExpandArgs(c.args, req, outDir)
	// Command and args come from operator configuration.
	cmd := exec.CommandContext(ctx, c.command, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("classifier %s on %s: %w", c.command, filepath.Base(req.Path), ctx.Err())
		}
		return nil, fmt.Errorf("classifier %s on %s failed: %w, output: %s",
			c.command, filepath.Base(req.Path), err, truncate(stderr.String(), outputTruncateLength))
	}
	c.logger.Debug("classifier finished", "file", filepath.Base(req.Path), "duration", time.Since(start))

	result, err := readResult(outDir, stdout.Bytes())
	if err != nil {
		return nil, err
	}
	dets, err := ParseCSV(bytes.NewReader(result))
	if err != nil {
		return nil, fmt.Errorf("parse classifier output for %s: %w", filepath.Base(req.Path), err)
	}
	return FilterConfidence(dets, req.MinConfidence), nil
}

// ValidateWAV rejects files that are not readable RIFF/WAVE containers.
func ValidateWAV(path string) error {
	if !domain.IsWAV(path) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedAudio, filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return fmt.Errorf("%w: %s is not a valid WAV file", domain.ErrUnsupportedAudio, filepath.Base(path))
	}
	return nil
}

// ExpandArgs substitutes request values into the argument templates.
func ExpandArgs(templates []string, req domain.AnalyzeRequest, outDir string) []string {
	r := strings.NewReplacer(
		"{input}", req.Path,
		"{output}", outDir,
		"{lat}", strconv.FormatFloat(req.Lat, 'f', -1, 64),
		"{lon}", strconv.FormatFloat(req.Lon, 'f', -1, 64),
		"{date}", req.Date.Format("2006-01-02"),
		"{week}", strconv.Itoa(Week48(req.Date)),
		"{min_conf}", strconv.FormatFloat(req.MinConfidence, 'f', -1, 64),
	)
	out := make([]string, len(templates))
	for i, a := range templates {
		out[i] = r.Replace(a)
	}
	return out
}

// Week48 maps a date onto BirdNET's 48-week year of four weeks per month.
func Week48(d time.Time) int {
	if d.IsZero() {
		return -1
	}
	week := (d.Day()-1)/7 + 1
	if week > 4 {
		week = 4
	}
	return (int(d.Month())-1)*4 + week
}

func readResult(outDir string, stdout []byte) ([]byte, error) {
	matches, err := filepath.Glob(filepath.Join(outDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return stdout, nil
	}
	slices.Sort(matches)
	b, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("read classifier result: %w", err)
	}
	return b, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
