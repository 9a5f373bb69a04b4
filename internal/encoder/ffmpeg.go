package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"vidgen/config"
	"vidgen/types"

	"golang.org/x/sync/errgroup"
)

var ErrNoFrames = errors.New("no frames to export")

// Ffmpeg streams PNG frames into an ffmpeg process and muxes them to MP4.
type Ffmpeg struct {
	bin    string
	codec  string
	preset string
	crf    int
}

func NewFfmpeg(cfg config.ExportConfig) *Ffmpeg {
	return &Ffmpeg{
		bin:    cfg.Ffmpeg,
		codec:  cfg.Codec,
		preset: cfg.Preset,
		crf:    cfg.Crf,
	}
}

// Args builds the ffmpeg argument list for writing an fps-rate clip to output.
func (f *Ffmpeg) Args(output string, fps int) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}

	// Input: PNG stream on stdin
	args = append(args, "-f", "image2pipe", "-framerate", strconv.Itoa(fps), "-c:v", "png", "-i", "-")

	// yuv420p needs even dimensions
	args = append(args, "-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2")

	args = append(args, "-c:v", f.codec)
	if f.preset != "" {
		args = append(args, "-preset", f.preset)
	}
	args = append(args, "-crf", strconv.Itoa(f.crf))
	args = append(args, "-pix_fmt", "yuv420p")

	args = append(args, "-movflags", "+faststart") // Web optimization
	args = append(args, "-f", "mp4", output)

	return args
}

// Export writes frames to output at fps. The output directory must exist.
func (f *Ffmpeg) Export(ctx context.Context, frames types.FrameSequence, output string, fps int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", fps)
	}

	encoded, err := encodeFrames(ctx, frames)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, f.bin, f.Args(output, fps)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", f.bin, err)
	}

	var writeErr error
	for i, frame := range encoded {
		if _, writeErr = stdin.Write(frame); writeErr != nil {
			writeErr = fmt.Errorf("write frame %d: %w", i, writeErr)
			break
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg exited: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return writeErr
}

// encodeFrames PNG-encodes frames in parallel, preserving order.
func encodeFrames(ctx context.Context, frames types.FrameSequence) ([][]byte, error) {
	out := make([][]byte, len(frames))
	enc := png.Encoder{CompressionLevel: png.BestSpeed}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, frame := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if frame == nil {
				return fmt.Errorf("frame %d is nil", i)
			}
			var buf bytes.Buffer
			if err := enc.Encode(&buf, frame); err != nil {
				return fmt.Errorf("encode frame %d: %w", i, err)
			}
			out[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LookPath resolves the configured ffmpeg binary.
func (f *Ffmpeg) LookPath() (string, error) {
	return exec.LookPath(f.bin)
}

// Version runs "ffmpeg -version" and returns the reported version string.
func (f *Ffmpeg) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, f.bin, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", f.bin, err)
	}
	return parseVersion(string(out)), nil
}

func parseVersion(output string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	fields := strings.Fields(line)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "version" {
			return fields[i+1]
		}
	}
	return "unknown"
}
