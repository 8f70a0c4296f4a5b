package ui

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/veldtlab/vigil/internal/detector"
	"github.com/veldtlab/vigil/internal/pipeline"
)

var (
	colorNormal   = color.RGBA{G: 255, A: 255}
	colorAbnormal = color.RGBA{R: 255, A: 255}
	colorNeutral  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorEye      = color.RGBA{B: 255, A: 255}
	colorIris     = color.RGBA{G: 255, A: 255}
	colorDrift    = color.RGBA{R: 255, G: 255, A: 255}
)

// drawFPS renders the frame-rate estimate on the first status line.
func drawFPS(frame *gocv.Mat, fps float64) {
	gocv.PutText(frame, fmt.Sprintf("FPS: %.1f", fps), image.Pt(10, 30),
		gocv.FontHersheyPlain, 2, colorNormal, 2)
}

// DrawOverlay renders the per-frame monitor state onto the preview
// frame: iris and eye-center markers with their drift lines, the head
// angle, and the two signal verdicts.
func DrawOverlay(frame *gocv.Mat, res *pipeline.Result) {
	if res == nil {
		return
	}

	if res.Mesh != nil {
		drawGazeMarkers(frame, res.Mesh)
	}
	drawStatus(frame, res)
}

// drawGazeMarkers marks both eyes: blue eye center, green iris center,
// yellow line between them showing the measured drift.
func drawGazeMarkers(frame *gocv.Mat, mesh detector.Mesh) {
	left, right := detector.EyeCenters(mesh)

	for _, eye := range []struct{ center, iris detector.Point }{
		{left, mesh.At(detector.LeftIris)},
		{right, mesh.At(detector.RightIris)},
	} {
		centerPt := image.Pt(int(eye.center.X), int(eye.center.Y))
		irisPt := image.Pt(int(eye.iris.X), int(eye.iris.Y))
		gocv.Line(frame, centerPt, irisPt, colorDrift, 1)
		gocv.Circle(frame, centerPt, 2, colorEye, -1)
		gocv.Circle(frame, irisPt, 2, colorIris, -1)
	}
}

func drawStatus(frame *gocv.Mat, res *pipeline.Result) {
	// FPS occupies the first line, drawn by Window.Show.
	line := 60
	put := func(text string, c color.RGBA) {
		gocv.PutText(frame, text, image.Pt(10, line),
			gocv.FontHersheyPlain, 2, c, 2)
		line += 30
	}

	if res.PoseOK {
		put(fmt.Sprintf("Head Angle: %.1f", res.Angles.Yaw), colorNeutral)
	} else if res.FaceCount > 0 {
		put("Head Angle: --", colorNeutral)
	}

	headText, headColor := "Head: Normal", colorNormal
	if res.HeadAbnormal {
		headText, headColor = "Head: Abnormal", colorAbnormal
	}
	put(headText, headColor)

	gazeText, gazeColor := "Gaze: Normal", colorNormal
	if res.GazeAbnormal {
		gazeText, gazeColor = "Gaze: Abnormal", colorAbnormal
	}
	put(fmt.Sprintf("%s (%d)", gazeText, res.GazeSamples), gazeColor)

	if res.HeadShaky {
		put("Head: Shaky", colorAbnormal)
	}
	if res.MouthAbnormal {
		put("Mouth: Abnormal", colorAbnormal)
	}

	if res.FaceCount != 1 {
		put(fmt.Sprintf("Faces: %d", res.FaceCount), colorNeutral)
	}
}
