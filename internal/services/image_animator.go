package services

import (
	"context"
	"errors"
	"fmt"
	"image"

	"vidgen/config"
	"vidgen/internal/preprocess"
	"vidgen/types"
	"vidgen/utils"

	"github.com/charmbracelet/log"
)

// Frame counts the image model was trained around. Values outside only warn.
const (
	RecommendedMinFrames = 14
	RecommendedMaxFrames = 25
)

type ImagePipeline interface {
	ImageToVideo(ctx context.Context, params types.ImageToVideoParams) (types.FrameSequence, error)
}

type ImageLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

type Exporter interface {
	Export(ctx context.Context, frames types.FrameSequence, output string, fps int) error
}

// ImageAnimator turns one still image into a short clip.
type ImageAnimator struct {
	pipeline ImagePipeline
	loader   ImageLoader
	exporter Exporter
	clock    utils.Clock

	cfg    config.ImageConfig
	logger *log.Logger
}

func NewImageAnimator(cfg config.ImageConfig, pipeline ImagePipeline, loader ImageLoader, exporter Exporter, clock utils.Clock) *ImageAnimator {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &ImageAnimator{
		pipeline: pipeline,
		loader:   loader,
		exporter: exporter,
		clock:    clock,
		cfg:      cfg,
		logger:   ComponentLogger("image_to_video"),
	}
}

func (a *ImageAnimator) options() types.PipelineOptions {
	return types.PipelineOptions{
		Model:            a.cfg.Model,
		DType:            a.cfg.DType,
		Device:           types.DeviceCPU,
		AttentionSlicing: true,
		DecodeChunkSize:  a.cfg.DecodeChunkSize,
	}
}

// Generate runs the full flow and returns the path of the written video.
func (a *ImageAnimator) Generate(ctx context.Context, req types.ImageToVideoRequest) (string, error) {
	reqID := utils.NewRequestID()
	logger := RunLogger(a.logger, reqID, "generate")

	logger.Info("generating video from image", "image", truncate(req.Image, 200))
	logger.Info("settings", "frames", req.Frames, "fps", req.Fps, "steps", req.Steps)
	logger.Info("motion", "level", fmt.Sprintf("%d/255", req.Motion), "noise", req.Noise)
	if req.Frames < RecommendedMinFrames || req.Frames > RecommendedMaxFrames {
		logger.Warn("num_frames should be between 14-25 for best results", "frames", req.Frames)
	}

	opts := a.options()
	logger.Info("using cpu (stable for large models)", "device", opts.Device)

	logger.Info("loading input image")
	img, err := a.loader.Load(ctx, req.Image)
	if err != nil {
		return "", err
	}

	resized, err := preprocess.Resize(img, a.cfg.MaxSize)
	if err != nil {
		b := img.Bounds()
		return "", fmt.Errorf("resize %dx%d image: %w", b.Dx(), b.Dy(), err)
	}
	logger.Info("image size", "width", resized.Bounds().Dx(), "height", resized.Bounds().Dy())

	logger.Info("loading model, this may take a few minutes on first run", "model", opts.Model)
	logger.Info("generating video")
	frames, err := a.pipeline.ImageToVideo(ctx, types.ImageToVideoParams{
		RequestID:         reqID,
		Options:           opts,
		Image:             resized,
		NumInferenceSteps: req.Steps,
		NumFrames:         req.Frames,
		MotionBucketID:    req.Motion,
		NoiseAugStrength:  req.Noise,
	})
	if err != nil {
		return "", fmt.Errorf("generate video: %w", err)
	}

	output := req.Output
	if output == "" {
		output = utils.ImageOutputName(req.Image, a.clock.Now())
	}
	if err := save(ctx, a.exporter, logger, frames, output, req.Fps); err != nil {
		return "", err
	}
	return output, nil
}

// save ensures the parent directory then hands frames to the exporter.
func save(ctx context.Context, exporter Exporter, logger *log.Logger, frames types.FrameSequence, output string, fps int) error {
	if len(frames) == 0 {
		return errors.New("pipeline produced no frames")
	}
	if err := utils.EnsureParentDir(output); err != nil {
		return err
	}

	logger.Info("saving video", "path", output, "frames", len(frames))
	if err := exporter.Export(ctx, frames, output, fps); err != nil {
		return fmt.Errorf("export %s: %w", output, err)
	}

	logger.Info("video generation complete", "output", output)
	return nil
}
