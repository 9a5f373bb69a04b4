package dependencies

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net"
	"time"

	"vidgen/config"
	"vidgen/types"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "vidgen.pipeline.v1.Pipeline"

const (
	MethodImageToVideo = "/" + ServiceName + "/ImageToVideo"
	MethodTextToVideo  = "/" + ServiceName + "/TextToVideo"
	MethodEnvironment  = "/" + ServiceName + "/Environment"
	MethodProbe        = "/" + ServiceName + "/Probe"
)

var (
	ErrEmptyFrames = errors.New("pipeline returned no frames")
	ErrProbeFailed = errors.New("probe computation failed")
)

// Rpc talks to the pipeline worker. Messages are google.protobuf.Struct so the
// worker side needs no generated stubs beyond the well-known types.
type Rpc struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

func NewRpc(cfg config.RpcConfig, opts ...grpc.DialOption) (*Rpc, error) {

	maxBytes := cfg.MaxMessageMB << 20
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxBytes),
			grpc.MaxCallSendMsgSize(maxBytes),
		),
	}, opts...)

	conn, err := grpc.NewClient("passthrough:///"+net.JoinHostPort(cfg.Peer, cfg.Port), dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("error creating newrpc: %w", err)
	}

	return &Rpc{
		conn:    conn,
		timeout: cfg.Timeout,
	}, nil
}

func (r *Rpc) Target() string {
	return r.conn.Target()
}

func (r *Rpc) ImageToVideo(ctx context.Context, params types.ImageToVideoParams) (types.FrameSequence, error) {
	if params.Image == nil {
		return nil, errors.New("image to video: missing image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, params.Image); err != nil {
		return nil, fmt.Errorf("encode conditioning image: %w", err)
	}
	bounds := params.Image.Bounds()

	req := optionsFields(params.RequestID, params.Options)
	req["decode_chunk_size"] = params.Options.DecodeChunkSize
	req["image"] = buf.Bytes()
	req["width"] = bounds.Dx()
	req["height"] = bounds.Dy()
	req["num_inference_steps"] = params.NumInferenceSteps
	req["num_frames"] = params.NumFrames
	req["motion_bucket_id"] = params.MotionBucketID
	req["noise_aug_strength"] = params.NoiseAugStrength

	resp, err := r.call(ctx, params.RequestID, MethodImageToVideo, req)
	if err != nil {
		return nil, err
	}
	return decodeFrames(resp)
}

func (r *Rpc) TextToVideo(ctx context.Context, params types.TextToVideoParams) (types.FrameSequence, error) {
	req := optionsFields(params.RequestID, params.Options)
	req["prompt"] = params.Prompt
	req["num_inference_steps"] = params.NumInferenceSteps
	req["guidance_scale"] = params.GuidanceScale
	req["num_frames"] = params.NumFrames

	resp, err := r.call(ctx, params.RequestID, MethodTextToVideo, req)
	if err != nil {
		return nil, err
	}
	return decodeFrames(resp)
}

// Environment asks the worker which of libraries it can import and what accelerator it sees.
func (r *Rpc) Environment(ctx context.Context, libraries []string) (types.Environment, error) {
	names := make([]any, 0, len(libraries))
	for _, l := range libraries {
		names = append(names, l)
	}

	resp, err := r.call(ctx, "", MethodEnvironment, map[string]any{"libraries": names})
	if err != nil {
		return types.Environment{}, err
	}

	fields := resp.GetFields()
	env := types.Environment{
		Runtime:        fields["runtime"].GetStringValue(),
		RuntimeVersion: fields["runtime_version"].GetStringValue(),
		Libraries:      make(map[string]types.LibraryStatus, len(libraries)),
	}

	reported := fields["libraries"].GetStructValue().GetFields()
	for _, name := range libraries {
		lib, ok := reported[name]
		if !ok {
			env.Libraries[name] = types.LibraryStatus{Error: "not reported by worker"}
			continue
		}
		lf := lib.GetStructValue().GetFields()
		env.Libraries[name] = types.LibraryStatus{
			Version: lf["version"].GetStringValue(),
			Error:   lf["error"].GetStringValue(),
		}
	}

	accel := fields["accelerator"].GetStructValue().GetFields()
	env.Accelerator = types.Accelerator{
		Name:      accel["name"].GetStringValue(),
		Available: accel["available"].GetBoolValue(),
	}

	return env, nil
}

// Probe runs a tiny tensor computation on device inside the worker.
func (r *Rpc) Probe(ctx context.Context, device string) error {
	resp, err := r.call(ctx, "", MethodProbe, map[string]any{"device": device})
	if err != nil {
		return err
	}

	fields := resp.GetFields()
	if fields["ok"].GetBoolValue() {
		return nil
	}
	if msg := fields["error"].GetStringValue(); msg != "" {
		return fmt.Errorf("%w on %s: %s", ErrProbeFailed, device, msg)
	}
	return fmt.Errorf("%w on %s", ErrProbeFailed, device)
}

func (r *Rpc) Close() {
	r.conn.Close()
}

func (r *Rpc) call(ctx context.Context, requestID, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", method, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if requestID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", requestID)
	}

	out := new(structpb.Struct)
	if err := r.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

func optionsFields(requestID string, opts types.PipelineOptions) map[string]any {
	env := make(map[string]any, len(opts.RuntimeEnv))
	for k, v := range opts.RuntimeEnv {
		env[k] = v
	}

	return map[string]any{
		"request_id":        requestID,
		"model":             opts.Model,
		"dtype":             opts.DType,
		"device":            opts.Device,
		"attention_slicing": opts.AttentionSlicing,
		"runtime_env":       env,
	}
}

func decodeFrames(resp *structpb.Struct) (types.FrameSequence, error) {
	values := resp.GetFields()["frames"].GetListValue().GetValues()
	if len(values) == 0 {
		return nil, ErrEmptyFrames
	}

	frames := make(types.FrameSequence, 0, len(values))
	for i, v := range values {
		raw, err := base64.StdEncoding.DecodeString(v.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, img)
	}
	return frames, nil
}
