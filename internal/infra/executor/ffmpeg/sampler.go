package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/storelens/internal/domain/media"
)

// DefaultMaxInput matches the upload limit of the HTTP server.
const DefaultMaxInput int64 = 200 << 20

// ErrInputTooLarge is returned when a video exceeds the spool limit.
var ErrInputTooLarge = errors.New("video exceeds size limit")

// Sampler implements media.FrameSampler by running ffmpeg as a subprocess.
// The video is spooled to WorkDir because ffmpeg needs a seekable input for
// most containers; at most maxInput bytes are spooled.
type Sampler struct {
	binary   string
	workDir  string
	maxInput int64
	log      *zap.Logger
}

func NewSampler(binary, workDir string, maxInput int64, log *zap.Logger) *Sampler {
	if binary == "" {
		binary = "ffmpeg"
	}
	if workDir == "" {
		workDir = filepath.Join(".", "temp")
	}
	if maxInput <= 0 {
		maxInput = DefaultMaxInput
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sampler{binary: binary, workDir: workDir, maxInput: maxInput, log: log.With(zap.String("component", "ffmpeg"))}
}

// Available reports whether the ffmpeg binary can be found.
func (s *Sampler) Available() bool {
	_, err := exec.LookPath(s.binary)
	return err == nil
}

func (s *Sampler) Sample(ctx context.Context, req media.SampleRequest) (media.SampleResult, error) {
	start := time.Now()
	if req.FrameRate <= 0 {
		req.FrameRate = 1
	}

	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return media.SampleResult{}, err
	}
	dir, err := os.MkdirTemp(s.workDir, "frames-")
	if err != nil {
		return media.SampleResult{}, err
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input")
	if err := spool(ctx, input, req.Video, s.maxInput); err != nil {
		return media.SampleResult{}, fmt.Errorf("spool video: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.binary, Args(input, dir, req.FrameRate, req.MaxFrames)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return media.SampleResult{}, ctx.Err()
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return media.SampleResult{}, fmt.Errorf("ffmpeg exit %d: %s", ee.ExitCode(), tail(out))
		}
		return media.SampleResult{}, fmt.Errorf("run ffmpeg: %w", err)
	}

	frames, err := LoadFrames(dir)
	if err != nil {
		return media.SampleResult{}, err
	}
	res := media.SampleResult{
		Frames:     frames,
		Interval:   time.Duration(float64(time.Second) / req.FrameRate),
		DurationMS: time.Since(start).Milliseconds(),
	}
	s.log.Debug("video sampled",
		zap.String("asset_id", req.AssetID),
		zap.Int("frames", len(frames)),
		zap.Int64("duration_ms", res.DurationMS))
	return res, nil
}

// Args builds the ffmpeg command line: keep rate frames per second, at most
// maxFrames, scaled down to 320px wide PNGs in outDir.
func Args(input, outDir string, rate float64, maxFrames int) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-i", input,
		"-vf", "fps=" + strconv.FormatFloat(rate, 'f', -1, 64) + ",scale=320:-2",
	}
	if maxFrames > 0 {
		args = append(args, "-frames:v", strconv.Itoa(maxFrames))
	}
	return append(args, filepath.Join(outDir, "frame-%05d.png"))
}

// LoadFrames decodes every frame-*.png in dir in name order.
func LoadFrames(dir string) ([]image.Image, error) {
	names, err := filepath.Glob(filepath.Join(dir, "frame-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	frames := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, err := decodePNG(name)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(name), err)
		}
		frames = append(frames, img)
	}
	return frames, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// spool copies r to path, stopping at max bytes or when ctx is done.
func spool(ctx context.Context, path string, r io.Reader, max int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, io.LimitReader(ctxReader{ctx: ctx, r: r}, max+1))
	if err == nil && n > max {
		err = fmt.Errorf("%w (%d bytes)", ErrInputTooLarge, max)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// tail keeps the end of ffmpeg's output, where the actual error is.
func tail(out []byte) string {
	const max = 512
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return string(out)
}
