package services

import (
	"context"
	"fmt"
	"maps"

	"vidgen/config"
	"vidgen/types"
	"vidgen/utils"

	"github.com/charmbracelet/log"
)

type TextPipeline interface {
	TextToVideo(ctx context.Context, params types.TextToVideoParams) (types.FrameSequence, error)
}

// TextAnimator renders a prompt into a clip. Parameters are passed through unchecked.
type TextAnimator struct {
	pipeline TextPipeline
	exporter Exporter
	clock    utils.Clock

	cfg    config.TextConfig
	logger *log.Logger
}

func NewTextAnimator(cfg config.TextConfig, pipeline TextPipeline, exporter Exporter, clock utils.Clock) *TextAnimator {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &TextAnimator{
		pipeline: pipeline,
		exporter: exporter,
		clock:    clock,
		cfg:      cfg,
		logger:   ComponentLogger("text_to_video"),
	}
}

// options carries the runtime environment to the worker instead of mutating ours.
func (a *TextAnimator) options() types.PipelineOptions {
	return types.PipelineOptions{
		Model:      a.cfg.Model,
		DType:      a.cfg.DType,
		Device:     types.DeviceCPU,
		RuntimeEnv: maps.Clone(a.cfg.RuntimeEnv),
	}
}

func (a *TextAnimator) Generate(ctx context.Context, req types.TextToVideoRequest) (string, error) {
	reqID := utils.NewRequestID()
	logger := RunLogger(a.logger, reqID, "generate")

	logger.Info("generating video from prompt", "prompt", truncate(req.Prompt, 200))
	logger.Info("settings", "frames", req.Frames, "fps", req.Fps, "steps", req.Steps, "guidance", req.Guidance)

	opts := a.options()
	logger.Info("using cpu (stable for large models)", "device", opts.Device)
	logger.Info("this will take 15-45 minutes depending on settings")
	logger.Info("loading model", "model", opts.Model)

	logger.Info("generating video")
	frames, err := a.pipeline.TextToVideo(ctx, types.TextToVideoParams{
		RequestID:         reqID,
		Options:           opts,
		Prompt:            req.Prompt,
		NumInferenceSteps: req.Steps,
		GuidanceScale:     req.Guidance,
		NumFrames:         req.Frames,
	})
	if err != nil {
		return "", fmt.Errorf("generate video: %w", err)
	}

	output := req.Output
	if output == "" {
		output = utils.TextOutputName(a.clock.Now())
	}
	if err := save(ctx, a.exporter, logger, frames, output, req.Fps); err != nil {
		return "", err
	}
	return output, nil
}
