package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/example/snapshade/internal/clipboard"
	"github.com/example/snapshade/internal/pipeline"
	"github.com/example/snapshade/internal/render"
)

// deliver routes a finished capture to the requested destinations. With no
// destination flags the capture is saved to the configured save directory
// under a timestamped name.
func (c *captureCmd) deliver(res *pipeline.Result) error {
	if c.shadow {
		res = &pipeline.Result{
			Image: render.ApplyShadow(res.Image, render.DefaultShadowOptions()),
			Rect:  res.Rect,
		}
	}
	c.notifyCapture(fmt.Sprintf("%dx%d", res.Rect.Dx(), res.Rect.Dy()), res.Image)

	delivered := false
	if c.toStdout {
		if err := png.Encode(os.Stdout, res.Image); err != nil {
			return fmt.Errorf("write capture to stdout: %w", err)
		}
		delivered = true
	}
	if c.toClipboard {
		if err := clipboard.WriteImage(res.Image); err != nil {
			return fmt.Errorf("copy capture to clipboard: %w", err)
		}
		c.notifyCopy("image")
		delivered = true
	}
	if c.file != "" || !delivered {
		path, err := c.savePNG(res)
		if err != nil {
			return err
		}
		c.notifySave(path)
		fmt.Fprintln(os.Stderr, path)
	}
	return nil
}

func (c *captureCmd) savePNG(res *pipeline.Result) (string, error) {
	path := c.file
	if path == "" {
		dir := c.config.SaveDir
		if dir == "" {
			dir = "."
		}
		name := fmt.Sprintf("snapshade-%s.png", time.Now().Format("2006-01-02-150405"))
		path = filepath.Join(dir, name)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create save directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create capture file: %w", err)
	}
	if err := png.Encode(f, res.Image); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("encode capture: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write capture file: %w", err)
	}
	return path, nil
}
