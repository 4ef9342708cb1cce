package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Info holds the probed properties of a video's primary stream.
type Info struct {
	Width     int
	Height    int
	FrameRate float64
	Duration  float64
	Codec     string
}

// Transcoder invokes the external ffprobe/ffmpeg binaries. A zero value is
// not usable; construct with NewTranscoder.
type Transcoder struct {
	ffprobe string
	ffmpeg  string
	run     commandRunner
}

// commandRunner executes one external command and returns its captured
// stdout and stderr. Swappable in tests so no real binary is needed.
type commandRunner func(ctx context.Context, name string, args []string) (stdout []byte, stderr string, err error)

func runExec(ctx context.Context, name string, args []string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.String(), err
}

func NewTranscoder(ffprobePath, ffmpegPath string) *Transcoder {
	return &Transcoder{ffprobe: ffprobePath, ffmpeg: ffmpegPath, run: runExec}
}

// probeArgs constructs the ffprobe argument slice for a single-call probe of
// the primary video stream.
func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,duration,codec_name",
		"-of", "json",
		path,
	}
}

// Probe runs a single ffprobe call against path and returns the parsed
// primary video stream properties.
func (t *Transcoder) Probe(ctx context.Context, path string) (Info, error) {
	out, stderr, err := t.run(ctx, t.ffprobe, probeArgs(path))
	if err != nil {
		return Info{}, &ProbeError{Path: path, Detail: strings.TrimSpace(stderr), Err: err}
	}

	info, err := ParseProbeJSON(out)
	if err != nil {
		return Info{}, &ProbeError{Path: path, Err: err}
	}
	return info, nil
}

// ParseProbeJSON converts raw ffprobe JSON output into an Info. Exported for
// testing without a real ffprobe binary.
func ParseProbeJSON(data []byte) (Info, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if len(raw.Streams) == 0 {
		return Info{}, fmt.Errorf("no video stream in ffprobe output")
	}

	s := raw.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return Info{}, fmt.Errorf("invalid stream dimensions %dx%d", s.Width, s.Height)
	}

	fps, err := parseFrameRate(s.RFrameRate)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Width:     s.Width,
		Height:    s.Height,
		FrameRate: fps,
		Duration:  parseFloat(s.Duration),
		Codec:     s.CodecName,
	}, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	Duration   string `json:"duration"`
}

// parseFrameRate decodes ffprobe's rational "num/den" frame rate notation.
// A bare number is accepted as-is.
func parseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
		}
		return f, nil
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	if d == 0 {
		return 0, fmt.Errorf("parse frame rate %q: zero denominator", s)
	}
	return n / d, nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
