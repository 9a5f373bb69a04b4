// Package cli parses the command lines of the vidgen binaries.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"vidgen/types"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ErrHelp is returned when -h/--help was requested; usage has already been printed.
var ErrHelp = pflag.ErrHelp

// UsageError is a bad command line. Nothing has run yet.
type UsageError struct {
	Prog  string
	Usage string
	Msg   string
}

func (e *UsageError) Error() string {
	return e.Prog + ": error: " + e.Msg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// rangeMessages phrases struct tag violations for the command line.
var rangeMessages = map[string]string{
	"Motion": "motion must be between 1 and 255",
	"Noise":  "noise must be between 0.0 and 1.0",
	"Image":  "the following arguments are required: image",
	"Prompt": "the following arguments are required: prompt",
}

type command struct {
	prog        string
	description string
	positional  string
	flags       *pflag.FlagSet
}

func newCommand(prog, description, positional string, stderr io.Writer) *command {
	c := &command{
		prog:        prog,
		description: description,
		positional:  positional,
		flags:       pflag.NewFlagSet(prog, pflag.ContinueOnError),
	}
	c.flags.SetOutput(stderr)
	c.flags.SortFlags = false
	c.flags.Usage = func() {
		fmt.Fprintln(c.flags.Output(), c.usage())
		fmt.Fprintln(c.flags.Output())
		fmt.Fprintln(c.flags.Output(), c.description)
		if c.positional != "" {
			fmt.Fprintf(c.flags.Output(), "\npositional arguments:\n  %s\n", c.positional)
		}
		fmt.Fprintf(c.flags.Output(), "\noptions:\n  -h, --help   show this help message and exit\n%s", c.flags.FlagUsages())
	}
	return c
}

func (c *command) usage() string {
	line := "usage: " + c.prog + " [-h]"
	c.flags.VisitAll(func(f *pflag.Flag) {
		name := "--" + f.Name
		if f.Shorthand != "" {
			name = "-" + f.Shorthand
		}
		line += fmt.Sprintf(" [%s %s]", name, strings.ToUpper(f.Name))
	})
	if c.positional != "" {
		name, _, _ := strings.Cut(c.positional, " ")
		line += " " + name
	}
	return line
}

func (c *command) fail(format string, args ...any) *UsageError {
	return &UsageError{Prog: c.prog, Usage: c.usage(), Msg: fmt.Sprintf(format, args...)}
}

// parse returns the positional arguments once flags are consumed.
func (c *command) parse(args []string, want int) ([]string, error) {
	if err := c.flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, c.fail("%s", err.Error())
	}

	rest := c.flags.Args()
	switch {
	case len(rest) < want:
		name, _, _ := strings.Cut(c.positional, " ")
		return nil, c.fail("the following arguments are required: %s", name)
	case len(rest) > want:
		return nil, c.fail("unrecognized arguments: %s", strings.Join(rest[want:], " "))
	}
	return rest, nil
}

func (c *command) validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].StructField()
		if msg, ok := rangeMessages[field]; ok {
			return c.fail("%s", msg)
		}
		return c.fail("invalid %s", strings.ToLower(field))
	}
	return c.fail("%s", err.Error())
}

// Exit reports err on w the way the binaries do and returns the exit status.
func Exit(w io.Writer, err error) int {
	if err == nil || errors.Is(err, ErrHelp) {
		return ExitOK
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		if usage.Usage != "" {
			fmt.Fprintln(w, usage.Usage)
		}
		fmt.Fprintln(w, usage.Error())
		return ExitUsage
	}
	return ExitFailure
}

func ParseImageToVideo(args []string, stderr io.Writer) (types.ImageToVideoRequest, error) {
	c := newCommand("image_to_video", "Generate videos from images", "image        Path to input image (local path or URL)", stderr)

	var req types.ImageToVideoRequest
	f := c.flags
	f.StringVarP(&req.Output, "output", "o", "", "Output video file path (default: auto-generated)")
	f.IntVarP(&req.Steps, "steps", "s", 25, "Number of inference steps")
	f.IntVarP(&req.Frames, "frames", "f", 25, "Number of frames, range: 14-25")
	f.IntVar(&req.Fps, "fps", 7, "Frames per second")
	f.IntVarP(&req.Motion, "motion", "m", 127, "Motion amount, range: 1-255")
	f.Float64VarP(&req.Noise, "noise", "n", 0.02, "Noise augmentation strength, range: 0.0-1.0")

	rest, err := c.parse(args, 1)
	if err != nil {
		return types.ImageToVideoRequest{}, err
	}
	req.Image = rest[0]

	if err := c.validate(req); err != nil {
		return types.ImageToVideoRequest{}, err
	}
	return req, nil
}

func ParseTextToVideo(args []string, stderr io.Writer) (types.TextToVideoRequest, error) {
	c := newCommand("text_to_video", "Generate videos from text prompts", "prompt       Text description of the video to generate", stderr)

	var req types.TextToVideoRequest
	f := c.flags
	f.StringVarP(&req.Output, "output", "o", "", "Output video file path (default: auto-generated)")
	f.IntVarP(&req.Steps, "steps", "s", 50, "Number of inference steps")
	f.Float64VarP(&req.Guidance, "guidance", "g", 6.0, "Guidance scale")
	f.IntVarP(&req.Frames, "frames", "f", 49, "Number of frames")
	f.IntVar(&req.Fps, "fps", 8, "Frames per second")

	rest, err := c.parse(args, 1)
	if err != nil {
		return types.TextToVideoRequest{}, err
	}
	req.Prompt = rest[0]

	if err := c.validate(req); err != nil {
		return types.TextToVideoRequest{}, err
	}
	return req, nil
}

// ParseSetup accepts no arguments besides -h.
func ParseSetup(args []string, stderr io.Writer) error {
	c := newCommand("test_setup", "Verify the video generation setup", "", stderr)
	_, err := c.parse(args, 0)
	return err
}
