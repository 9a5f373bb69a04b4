package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/TypeTerrors/gonfig"
)

// PathEnv names the environment variable that overrides the config file location.
const PathEnv = "VIDGEN_CONFIG"

const DefaultPath = "config/config.yaml"

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Rpc    RpcConfig    `yaml:"rpc"`
	Image  ImageConfig  `yaml:"image"`
	Text   TextConfig   `yaml:"text"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Export ExportConfig `yaml:"export"`
	Hub    HubConfig    `yaml:"hub"`
	Verify VerifyConfig `yaml:"verify"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Timestamps bool   `yaml:"timestamps"`
}

// RpcConfig points at the pipeline worker. A zero Timeout means calls never time out.
type RpcConfig struct {
	Peer         string        `yaml:"peer"`
	Port         string        `yaml:"port"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxMessageMB int           `yaml:"max_message_mb"`
}

type ImageConfig struct {
	Model           string `yaml:"model"`
	DType           string `yaml:"dtype"`
	DecodeChunkSize int    `yaml:"decode_chunk_size"`
	MaxSize         int    `yaml:"max_size"`
}

type TextConfig struct {
	Model      string            `yaml:"model"`
	DType      string            `yaml:"dtype"`
	RuntimeEnv map[string]string `yaml:"runtime_env"`
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type ExportConfig struct {
	Ffmpeg string `yaml:"ffmpeg"`
	Codec  string `yaml:"codec"`
	Preset string `yaml:"preset"`
	Crf    int    `yaml:"crf"`
}

type HubConfig struct {
	ApiUrl  string        `yaml:"api_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type VerifyConfig struct {
	Libraries []string `yaml:"libraries"`
	Scripts   []string `yaml:"scripts"`
	CheckHub  *bool    `yaml:"check_hub"`
}

// HubEnabled reports whether test_setup should query the model hub. Defaults to true.
func (v VerifyConfig) HubEnabled() bool {
	return v.CheckHub == nil || *v.CheckHub
}

func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads the config file at path. A missing file yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg, err := gonfig.Load[Config](
		gonfig.WithConfigFile(path),
		gonfig.WithDotenv(".env"), // ignored if missing
	)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromEnv resolves the config path from VIDGEN_CONFIG.
func LoadFromEnv() (Config, error) {
	return Load(os.Getenv(PathEnv))
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Rpc.Peer == "" {
		c.Rpc.Peer = "localhost"
	}
	if c.Rpc.Port == "" {
		c.Rpc.Port = "50051"
	}
	if c.Rpc.MaxMessageMB <= 0 {
		c.Rpc.MaxMessageMB = 512
	}

	if c.Image.Model == "" {
		c.Image.Model = "stabilityai/stable-video-diffusion-img2vid-xt"
	}
	if c.Image.DType == "" {
		c.Image.DType = "float32"
	}
	if c.Image.DecodeChunkSize <= 0 {
		c.Image.DecodeChunkSize = 8
	}
	if c.Image.MaxSize <= 0 {
		c.Image.MaxSize = 1024
	}

	if c.Text.Model == "" {
		c.Text.Model = "THUDM/CogVideoX-2b"
	}
	if c.Text.DType == "" {
		c.Text.DType = "float32"
	}
	if c.Text.RuntimeEnv == nil {
		c.Text.RuntimeEnv = map[string]string{"PYTORCH_ENABLE_MPS_FALLBACK": "1"}
	}

	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 2 * time.Minute
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "vidgen/1.0"
	}

	if c.Export.Ffmpeg == "" {
		c.Export.Ffmpeg = "ffmpeg"
	}
	if c.Export.Codec == "" {
		c.Export.Codec = "libx264"
	}
	if c.Export.Preset == "" {
		c.Export.Preset = "medium"
	}
	if c.Export.Crf <= 0 {
		c.Export.Crf = 23
	}

	if c.Hub.ApiUrl == "" {
		c.Hub.ApiUrl = "https://huggingface.co/api/models/{id}"
	}
	if c.Hub.Timeout <= 0 {
		c.Hub.Timeout = 15 * time.Second
	}

	if len(c.Verify.Libraries) == 0 {
		c.Verify.Libraries = []string{"diffusers", "transformers", "accelerate", "opencv-python", "imageio"}
	}
	if len(c.Verify.Scripts) == 0 {
		c.Verify.Scripts = []string{"text_to_video", "image_to_video"}
	}
}
