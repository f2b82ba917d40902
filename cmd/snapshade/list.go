package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/example/snapshade/internal/display"
	"github.com/example/snapshade/internal/wincat"
)

type displaysCmd struct {
	*root
	fs *flag.FlagSet
}

func parseDisplaysCmd(args []string, r *root) (*displaysCmd, error) {
	fs := flag.NewFlagSet("displays", flag.ExitOnError)
	cmd := &displaysCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *displaysCmd) Run() error {
	reg, err := display.NewRegistry(display.NewBackend())
	if err != nil {
		return err
	}
	defer reg.Close()

	fmt.Fprintln(os.Stdout, "connected displays (* marks the primary display):")
	for _, d := range reg.Current() {
		marker := " "
		if d.Primary {
			marker = "*"
		}
		px := d.PixelSize()
		fmt.Fprintf(os.Stdout, "%s %-8s %dx%d at (%d,%d), %dx%d px, scale %.1f\n",
			marker, d.ID, d.Frame.Dx(), d.Frame.Dy(), d.Frame.Min.X, d.Frame.Min.Y,
			px.X, px.Y, d.Scale)
	}
	return nil
}

func (c *displaysCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

type windowsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseWindowsCmd(args []string, r *root) (*windowsCmd, error) {
	fs := flag.NewFlagSet("windows", flag.ExitOnError)
	cmd := &windowsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *windowsCmd) Run() error {
	reg, err := display.NewRegistry(display.NewBackend())
	if err != nil {
		return err
	}
	defer reg.Close()

	scale := 1.0
	if descs := reg.Current(); len(descs) > 0 {
		scale = descs[0].Scale
	}
	catalog := wincat.New(wincat.NewSource(scale))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	windows, err := catalog.Enumerate(ctx, reg.Current())
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "windows eligible for capture, front-most first:")
	for _, w := range windows {
		title := w.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(os.Stdout, "  0x%08X %dx%d at (%d,%d)  %s\n",
			w.ID, w.Frame.Dx(), w.Frame.Dy(), w.Frame.Min.X, w.Frame.Min.Y, title)
	}
	return nil
}

func (c *windowsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}
