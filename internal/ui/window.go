package ui

import (
	"time"

	"gocv.io/x/gocv"
)

const keyEscape = 27

// Window is the live preview of the monitor. It owns the highgui
// handle and a frame-rate estimate refreshed once per second; all
// calls must come from the thread that created it.
type Window struct {
	win  *gocv.Window
	name string

	fpsSince  time.Time
	fpsFrames int
	fps       float64
}

// NewWindow opens the preview sized to the negotiated capture frame.
func NewWindow(name string, width, height int) *Window {
	w := gocv.NewWindow(name)
	w.ResizeWindow(width, height)
	w.MoveWindow(100, 100)
	return &Window{
		win:      w,
		name:     name,
		fpsSince: time.Now(),
	}
}

// Show displays one annotated frame and feeds the FPS estimate.
func (w *Window) Show(frame *gocv.Mat) {
	w.fpsFrames++
	if elapsed := time.Since(w.fpsSince); elapsed >= time.Second {
		w.fps = float64(w.fpsFrames) / elapsed.Seconds()
		w.fpsFrames = 0
		w.fpsSince = time.Now()
	}

	drawFPS(frame, w.fps)
	w.win.IMShow(*frame)
}

// WaitKey pumps window events for delayMs and returns the pressed key,
// or -1. Required on macOS even when the key is ignored.
func (w *Window) WaitKey(delayMs int) int {
	return w.win.WaitKey(delayMs)
}

// QuitRequested reports whether the key asks to end the session.
func QuitRequested(key int) bool {
	return key == 'q' || key == keyEscape
}

// FPS returns the current frame-rate estimate.
func (w *Window) FPS() float64 {
	return w.fps
}

// Close releases the window handle.
func (w *Window) Close() error {
	if w.win != nil {
		return w.win.Close()
	}
	return nil
}
