package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/example/snapshade/internal/display"
	"github.com/example/snapshade/internal/overlay"
	"github.com/example/snapshade/internal/pipeline"
)

// captureCmd backs the area, window and fullscreen subcommands. All three
// open an interactive overlay session; fullscreen can alternatively capture
// without the overlay when a display is named up front.
type captureCmd struct {
	*root
	fs   *flag.FlagSet
	name string
	mode overlay.Mode

	file        string
	toStdout    bool
	toClipboard bool
	shadow      bool
	displayID   string
	all         bool
}

func parseCaptureCmd(name string, mode overlay.Mode, args []string, r *root) (*captureCmd, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cmd := &captureCmd{root: r, fs: fs, name: name, mode: mode}
	fs.Usage = usageFunc(cmd)
	fs.StringVar(&cmd.file, "file", "", "write the capture to this file (PNG)")
	fs.BoolVar(&cmd.toStdout, "stdout", false, "write the capture to standard output (PNG)")
	fs.BoolVar(&cmd.toClipboard, "clipboard", false, "copy the capture to the clipboard")
	if mode == overlay.ModeWindow {
		fs.BoolVar(&cmd.shadow, "shadow", false, "composite a drop shadow behind the captured window")
	}
	if mode == overlay.ModeFullscreen {
		fs.StringVar(&cmd.displayID, "display", "", "capture the named display without opening the overlay")
		fs.BoolVar(&cmd.all, "all", false, "capture every display stitched together, without the overlay")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	if cmd.displayID != "" && cmd.all {
		return nil, fmt.Errorf("-display and -all are mutually exclusive")
	}
	return cmd, nil
}

func (c *captureCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *captureCmd) Run() error {
	if c.mode == overlay.ModeFullscreen && (c.all || c.displayID != "") {
		res, err := c.captureDirect()
		if err != nil {
			return err
		}
		return c.deliver(res)
	}

	res, err := runSessionFn(c.mode, c.activeTheme)
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Fprintln(os.Stderr, "capture cancelled")
		return nil
	}
	return c.deliver(res)
}

// captureDirect skips the overlay for the fullscreen shortcuts.
func (c *captureCmd) captureDirect() (*pipeline.Result, error) {
	reg, err := display.NewRegistry(display.NewBackend())
	if err != nil {
		return nil, err
	}
	defer reg.Close()
	pipe := pipeline.New(reg, pipeline.NewService(), pipeline.WithPermissionCheck(pipeline.HasCapturePermission))

	ctx := context.Background()
	if c.all {
		return pipe.CaptureFullscreen(ctx)
	}
	for _, d := range reg.Current() {
		if d.ID == c.displayID {
			return pipe.CaptureRegion(ctx, d.Frame)
		}
	}
	return nil, fmt.Errorf("no display named %q; run %q to list them", c.displayID, c.program+" displays")
}
