package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"vidgen/config"
	"vidgen/internal/clients/huggingface"
	"vidgen/types"

	"github.com/charmbracelet/log"
)

// Check sections, in the order Verify runs them.
const (
	SectionLibraries   = "libraries"
	SectionAccelerator = "accelerator"
	SectionProbe       = "probe"
	SectionScripts     = "scripts"
	SectionModels      = "models"
)

type WorkerInspector interface {
	Environment(ctx context.Context, libraries []string) (types.Environment, error)
	Probe(ctx context.Context, device string) error
}

type ToolInspector interface {
	LookPath() (string, error)
	Version(ctx context.Context) (string, error)
}

type ModelLookup interface {
	ModelInfo(ctx context.Context, id string) (huggingface.ModelInfo, error)
}

type CheckResult struct {
	Section string
	Name    string
	Passed  bool
	// Fatal results fail the whole report when they do not pass.
	Fatal  bool
	Detail string
}

type Report struct {
	Results []CheckResult
}

func (r *Report) add(res CheckResult) {
	r.Results = append(r.Results, res)
}

// Passed is true when no fatal check failed.
func (r Report) Passed() bool {
	return len(r.Failures()) == 0
}

func (r Report) Failures() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if res.Fatal && !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

func (r Report) Section(name string) []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if res.Section == name {
			out = append(out, res)
		}
	}
	return out
}

// Verifier inspects the local setup without changing anything.
type Verifier struct {
	worker WorkerInspector
	ffmpeg ToolInspector
	hub    ModelLookup // nil skips the models section

	cfg    config.VerifyConfig
	models []string
	dir    string
	goos   string
	logger *log.Logger
}

func NewVerifier(cfg config.VerifyConfig, worker WorkerInspector, ffmpeg ToolInspector, hub ModelLookup, models []string, dir string) *Verifier {
	if !cfg.HubEnabled() {
		hub = nil
	}
	return &Verifier{
		worker: worker,
		ffmpeg: ffmpeg,
		hub:    hub,
		cfg:    cfg,
		models: models,
		dir:    dir,
		goos:   runtime.GOOS,
		logger: ComponentLogger("test_setup"),
	}
}

func (v *Verifier) Verify(ctx context.Context) Report {
	var report Report

	env, envErr := v.worker.Environment(ctx, v.cfg.Libraries)
	if envErr != nil {
		v.logger.Error("pipeline worker unavailable", "err", envErr)
	}

	v.checkLibraries(ctx, &report, env, envErr)
	device := v.checkAccelerator(&report, env, envErr)
	v.checkProbe(ctx, &report, device)
	v.checkScripts(&report)
	v.checkModels(ctx, &report)

	v.logger.Debug("verification finished", "checks", len(report.Results), "failures", len(report.Failures()))
	return report
}

func (v *Verifier) checkLibraries(ctx context.Context, report *Report, env types.Environment, envErr error) {
	for _, name := range v.cfg.Libraries {
		res := CheckResult{Section: SectionLibraries, Name: name, Fatal: true}
		switch status, ok := env.Libraries[name]; {
		case envErr != nil:
			res.Detail = envErr.Error()
		case !ok:
			res.Detail = "not reported by worker"
		case !status.Importable():
			res.Detail = status.Error
		default:
			res.Passed = true
			res.Detail = status.Version
		}
		report.add(res)
	}

	res := CheckResult{Section: SectionLibraries, Name: "ffmpeg", Fatal: true}
	if _, err := v.ffmpeg.LookPath(); err != nil {
		res.Detail = err.Error()
	} else if version, err := v.ffmpeg.Version(ctx); err != nil {
		res.Detail = err.Error()
	} else {
		res.Passed = true
		res.Detail = version
	}
	report.add(res)
}

// checkAccelerator records what the worker sees and returns the device to probe on.
func (v *Verifier) checkAccelerator(report *Report, env types.Environment, envErr error) string {
	if envErr != nil {
		report.add(CheckResult{Section: SectionAccelerator, Name: "runtime", Detail: "worker unreachable"})
		return types.DeviceCPU
	}

	report.add(CheckResult{
		Section: SectionAccelerator,
		Name:    nonEmpty(env.Runtime, "runtime"),
		Passed:  true,
		Detail:  env.RuntimeVersion,
	})

	accel := env.Accelerator
	name := nonEmpty(accel.Name, types.DeviceMPS)
	if accel.Available {
		report.add(CheckResult{Section: SectionAccelerator, Name: name, Passed: true, Detail: "available, videos will generate faster"})
		return name
	}
	report.add(CheckResult{Section: SectionAccelerator, Name: name, Detail: "not available (will use cpu), videos will generate slower"})
	return types.DeviceCPU
}

func (v *Verifier) checkProbe(ctx context.Context, report *Report, device string) {
	res := CheckResult{Section: SectionProbe, Name: "tensor operations on " + device, Fatal: true}
	if err := v.worker.Probe(ctx, device); err != nil {
		res.Detail = err.Error()
	} else {
		res.Passed = true
		res.Detail = "working"
	}
	report.add(res)
}

func (v *Verifier) checkScripts(report *Report) {
	for _, script := range v.cfg.Scripts {
		if v.goos == "windows" && filepath.Ext(script) == "" {
			script += ".exe"
		}
		res := CheckResult{Section: SectionScripts, Name: script, Fatal: true}

		info, err := os.Stat(filepath.Join(v.dir, script))
		switch {
		case err != nil:
			res.Detail = "not found"
		case !info.Mode().IsRegular():
			res.Detail = "not a regular file"
		default:
			res.Passed = true
			res.Detail = "found"
		}
		report.add(res)
	}
}

func (v *Verifier) checkModels(ctx context.Context, report *Report) {
	if v.hub == nil {
		return
	}
	for _, id := range v.models {
		res := CheckResult{Section: SectionModels, Name: id}
		info, err := v.hub.ModelInfo(ctx, id)
		if err != nil {
			res.Detail = err.Error()
			report.add(res)
			continue
		}

		res.Passed = !info.Disabled
		parts := []string{"modified " + info.LastModified.String()}
		if info.Sha != "" {
			parts = append([]string{"revision " + shortSha(info.Sha)}, parts...)
		}
		if info.Gated.Gated() {
			parts = append(parts, "gated, a hub token is required")
		}
		if info.Disabled {
			parts = append(parts, "disabled on the hub")
		}
		res.Detail = strings.Join(parts, ", ")
		report.add(res)
	}
}

var sectionTitles = map[string]string{
	SectionLibraries:   "Testing imports...",
	SectionAccelerator: "Testing accelerator...",
	SectionProbe:       "Testing tensor operations...",
	SectionScripts:     "Testing scripts...",
	SectionModels:      "Checking model hub...",
}

const rule = "============================================================"

// Render writes the console report, including the closing summary.
func (r Report) Render(w io.Writer) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "AI Video Generation Setup Test")
	fmt.Fprintln(w, rule)

	section := ""
	for _, res := range r.Results {
		if res.Section != section {
			section = res.Section
			fmt.Fprintf(w, "\n🔍 %s\n", sectionTitles[section])
		}
		fmt.Fprintf(w, "%s %s: %s\n", mark(res), res.Name, res.Detail)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	if r.Passed() {
		fmt.Fprintln(w, "✅ All tests passed! Your setup is ready to generate videos.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Try these commands:")
		fmt.Fprintln(w, `  ./text_to_video "A cat playing piano"`)
		fmt.Fprintln(w, "  ./image_to_video path/to/image.jpg")
	} else {
		fmt.Fprintln(w, "❌ Some tests failed. Please check the errors above.")
	}
	fmt.Fprintln(w, rule)
}

func mark(res CheckResult) string {
	switch {
	case res.Passed:
		return "✅"
	case res.Fatal:
		return "❌"
	default:
		return "⚠️ "
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func shortSha(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
