package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "localhost", cfg.Rpc.Peer)
	assert.Equal(t, "50051", cfg.Rpc.Port)
	assert.Equal(t, 512, cfg.Rpc.MaxMessageMB)
	assert.Zero(t, cfg.Rpc.Timeout)
	assert.Equal(t, "stabilityai/stable-video-diffusion-img2vid-xt", cfg.Image.Model)
	assert.Equal(t, 8, cfg.Image.DecodeChunkSize)
	assert.Equal(t, 1024, cfg.Image.MaxSize)
	assert.Equal(t, "THUDM/CogVideoX-2b", cfg.Text.Model)
	assert.Equal(t, map[string]string{"PYTORCH_ENABLE_MPS_FALLBACK": "1"}, cfg.Text.RuntimeEnv)
	assert.Equal(t, 2*time.Minute, cfg.Fetch.Timeout)
	assert.Equal(t, "ffmpeg", cfg.Export.Ffmpeg)
	assert.Equal(t, 23, cfg.Export.Crf)
	assert.Equal(t, []string{"diffusers", "transformers", "accelerate", "opencv-python", "imageio"}, cfg.Verify.Libraries)
	assert.Equal(t, []string{"text_to_video", "image_to_video"}, cfg.Verify.Scripts)
	assert.True(t, cfg.Verify.HubEnabled())
}

func TestApplyDefaultsKeepsProvidedValues(t *testing.T) {
	off := false
	cfg := Config{
		Rpc:    RpcConfig{Peer: "worker", Port: "6000", MaxMessageMB: 64},
		Image:  ImageConfig{Model: "custom/svd", DecodeChunkSize: 2},
		Text:   TextConfig{RuntimeEnv: map[string]string{}},
		Export: ExportConfig{Codec: "libx265", Crf: 18},
		Verify: VerifyConfig{Libraries: []string{"torch"}, CheckHub: &off},
	}
	cfg.applyDefaults()

	assert.Equal(t, "worker", cfg.Rpc.Peer)
	assert.Equal(t, "6000", cfg.Rpc.Port)
	assert.Equal(t, 64, cfg.Rpc.MaxMessageMB)
	assert.Equal(t, "custom/svd", cfg.Image.Model)
	assert.Equal(t, 2, cfg.Image.DecodeChunkSize)
	assert.Empty(t, cfg.Text.RuntimeEnv, "explicit empty env must not be replaced")
	assert.Equal(t, "libx265", cfg.Export.Codec)
	assert.Equal(t, 18, cfg.Export.Crf)
	assert.Equal(t, []string{"torch"}, cfg.Verify.Libraries)
	assert.False(t, cfg.Verify.HubEnabled())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "rpc:\n  peer: gpu-box\n  port: \"7070\"\nexport:\n  crf: 30\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpu-box", cfg.Rpc.Peer)
	assert.Equal(t, "7070", cfg.Rpc.Port)
	assert.Equal(t, 30, cfg.Export.Crf)
	assert.Equal(t, "libx264", cfg.Export.Codec, "unset fields get defaults")
}
