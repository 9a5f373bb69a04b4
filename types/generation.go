package types

import "image"

// Execution devices understood by the pipeline worker.
const (
	DeviceCPU = "cpu"
	DeviceMPS = "mps"
)

// ImageToVideoRequest is the image-conditioned generation bundle collected from the CLI.
type ImageToVideoRequest struct {
	Image  string `validate:"required"`
	Output string

	Steps  int
	Frames int
	Fps    int

	// Motion is the motion bucket id. Higher means more motion.
	Motion int     `validate:"min=1,max=255"`
	Noise  float64 `validate:"gte=0,lte=1"`
}

// TextToVideoRequest carries no range constraints; values reach the pipeline as given.
type TextToVideoRequest struct {
	Prompt string `validate:"required"`
	Output string

	Steps    int
	Guidance float64
	Frames   int
	Fps      int
}

// PipelineOptions are sent with every generation call. RuntimeEnv replaces
// process-wide environment tweaks the worker's tensor runtime may need.
type PipelineOptions struct {
	Model            string
	DType            string
	Device           string
	AttentionSlicing bool
	DecodeChunkSize  int
	RuntimeEnv       map[string]string
}

type ImageToVideoParams struct {
	RequestID string
	Options   PipelineOptions

	Image             image.Image
	NumInferenceSteps int
	NumFrames         int
	MotionBucketID    int
	NoiseAugStrength  float64
}

type TextToVideoParams struct {
	RequestID string
	Options   PipelineOptions

	Prompt            string
	NumInferenceSteps int
	GuidanceScale     float64
	NumFrames         int
}

// FrameSequence is one generated clip, in presentation order.
type FrameSequence []image.Image

// LibraryStatus is the worker's answer for one required library.
type LibraryStatus struct {
	Version string
	Error   string
}

func (l LibraryStatus) Importable() bool { return l.Error == "" }

type Accelerator struct {
	Name      string
	Available bool
}

// Environment describes the worker's tensor runtime.
type Environment struct {
	Runtime        string
	RuntimeVersion string
	Libraries      map[string]LibraryStatus
	Accelerator    Accelerator
}
