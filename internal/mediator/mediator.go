package mediator

import (
	"fmt"
	"os"

	"vidgen/config"
	"vidgen/internal/clients/huggingface"
	"vidgen/internal/dependencies"
	"vidgen/internal/encoder"
	"vidgen/internal/preprocess"
	"vidgen/internal/services"
	"vidgen/utils"
)

// App wires config into the services a binary runs.
type App struct {
	Images   *services.ImageAnimator
	Texts    *services.TextAnimator
	Verifier *services.Verifier

	rpc *dependencies.Rpc
	// settings
	Config config.Config
}

func NewApp(config config.Config) (*App, error) {

	services.ConfigureLogging(config.Log, os.Stderr)

	rpc, err := dependencies.NewRpc(config.Rpc)
	if err != nil {
		return nil, fmt.Errorf("error creating newapp: %w", err)
	}

	dir, err := os.Getwd()
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("error creating newapp: %w", err)
	}

	ffmpeg := encoder.NewFfmpeg(config.Export)
	loader := preprocess.NewLoader(config.Fetch)
	hub := huggingface.NewHfClient(config.Hub)
	clock := utils.SystemClock{}

	return &App{
		Images:   services.NewImageAnimator(config.Image, rpc, loader, ffmpeg, clock),
		Texts:    services.NewTextAnimator(config.Text, rpc, ffmpeg, clock),
		Verifier: services.NewVerifier(config.Verify, rpc, ffmpeg, hub, []string{config.Image.Model, config.Text.Model}, dir),
		rpc:      rpc,
		Config:   config,
	}, nil
}

func (a *App) Shutdown() {
	if a.rpc != nil {
		a.rpc.Close()
	}
}
