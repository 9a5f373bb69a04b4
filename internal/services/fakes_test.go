package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"

	"vidgen/internal/clients/huggingface"
	"vidgen/types"

	"github.com/charmbracelet/log"
)

type fakeLoader struct {
	img image.Image
	err error
	ref string
}

func (f *fakeLoader) Load(_ context.Context, ref string) (image.Image, error) {
	f.ref = ref
	return f.img, f.err
}

type fakePipeline struct {
	frames types.FrameSequence
	err    error

	image types.ImageToVideoParams
	text  types.TextToVideoParams
	calls int
}

func (f *fakePipeline) ImageToVideo(_ context.Context, p types.ImageToVideoParams) (types.FrameSequence, error) {
	f.calls++
	f.image = p
	return f.frames, f.err
}

func (f *fakePipeline) TextToVideo(_ context.Context, p types.TextToVideoParams) (types.FrameSequence, error) {
	f.calls++
	f.text = p
	return f.frames, f.err
}

type fakeExporter struct {
	mu     sync.Mutex
	output string
	fps    int
	frames int
	err    error
}

func (f *fakeExporter) Export(_ context.Context, frames types.FrameSequence, output string, fps int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.output, f.fps, f.frames = output, fps, len(frames)
	return f.err
}

type fakeWorker struct {
	env      types.Environment
	envErr   error
	probeErr error
	probed   []string
}

func (f *fakeWorker) Environment(context.Context, []string) (types.Environment, error) {
	return f.env, f.envErr
}

func (f *fakeWorker) Probe(_ context.Context, device string) error {
	f.probed = append(f.probed, device)
	return f.probeErr
}

type fakeTool struct {
	path    string
	version string
	err     error
}

func (f fakeTool) LookPath() (string, error) {
	if f.path == "" {
		return "", errors.New(`exec: "ffmpeg": executable file not found in $PATH`)
	}
	return f.path, nil
}

func (f fakeTool) Version(context.Context) (string, error) { return f.version, f.err }

type fakeHub struct {
	infos map[string]huggingface.ModelInfo
	err   error
	asked []string
}

func (f *fakeHub) ModelInfo(_ context.Context, id string) (huggingface.ModelInfo, error) {
	f.asked = append(f.asked, id)
	if f.err != nil {
		return huggingface.ModelInfo{}, f.err
	}
	return f.infos[id], nil
}

func frames(n, w, h int) types.FrameSequence {
	seq := make(types.FrameSequence, n)
	for i := range seq {
		seq[i] = image.NewNRGBA(image.Rect(0, 0, w, h))
	}
	return seq
}

func captureLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf), &buf
}
