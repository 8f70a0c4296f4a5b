package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/disintegration/imaging"

	"github.com/veldtlab/vigil/internal/detector"
	"github.com/veldtlab/vigil/internal/inference"
	"github.com/veldtlab/vigil/internal/pose"
)

func main() {
	modelPath := flag.String("model", "models/face_mesh.onnx", "Face mesh ONNX model path")
	ortLib := flag.String("ort-lib", "", "onnxruntime shared library path override")
	minScore := flag.Float64("min-score", 0.5, "Face presence score threshold")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: meshcheck [options] <image>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Runs one face mesh detection plus head pose solve on a still image.")
		fmt.Fprintln(os.Stderr, "Diagnostic for model and runtime install problems.")
		fmt.Fprintln(os.Stderr, "")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := check(flag.Arg(0), *modelPath, *ortLib, float32(*minScore)); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func check(imagePath, modelPath, ortLib string, minScore float32) error {
	fmt.Printf("Loading image: %s\n", imagePath)
	img, err := imaging.Open(imagePath)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}
	bounds := img.Bounds()
	fmt.Printf("✓ Image loaded: %dx%d\n", bounds.Dx(), bounds.Dy())

	if ortLib != "" {
		inference.SetLibraryPath(ortLib)
	}
	fmt.Println("Initializing ONNX Runtime...")
	if err := inference.Initialize(); err != nil {
		return fmt.Errorf("initializing onnxruntime: %w", err)
	}
	defer inference.Shutdown()
	fmt.Println("✓ ONNX Runtime initialized")

	fmt.Printf("Loading model: %s\n", modelPath)
	mesh, err := detector.NewFaceMesh(modelPath, minScore)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	defer mesh.Close()
	fmt.Println("✓ Model loaded")

	fmt.Println("\nRunning detection...")
	faces, err := mesh.Detect(img)
	if err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if len(faces) == 0 {
		fmt.Println("No face found (presence score below threshold)")
		return nil
	}

	face := faces[0]
	fmt.Printf("\n✅ Face found: score=%.3f, %d landmarks\n", face.Score, len(face.Mesh))

	fmt.Println("\nKey landmarks:")
	for _, lm := range []struct {
		name string
		idx  detector.Index
	}{
		{"nose tip", detector.NoseTip},
		{"chin", detector.Chin},
		{"left eye outer", detector.LeftEyeOuter},
		{"right eye outer", detector.RightEyeOuter},
		{"left iris", detector.LeftIris},
		{"right iris", detector.RightIris},
	} {
		p := face.Mesh.At(lm.idx)
		fmt.Printf("  %-16s (%.1f, %.1f)\n", lm.name, p.X, p.Y)
	}

	if !face.Mesh.Complete() {
		fmt.Println("\nMesh is missing iris points, pose solve skipped")
		return nil
	}

	fmt.Println("\nSolving head pose...")
	k := pose.IntrinsicsFor(bounds.Dx(), bounds.Dy())
	pz, err := pose.Solve(pose.ModelPoints(), pose.ImagePointsFor(face.Mesh), k)
	if err != nil {
		return fmt.Errorf("pose solve: %w", err)
	}
	angles := pz.Angles()
	fmt.Printf("✓ Pose: yaw=%.1f pitch=%.1f roll=%.1f\n", angles.Yaw, angles.Pitch, angles.Roll)

	fmt.Printf("✓ Gaze offset: %.1f px\n", detector.GazeOffset(face.Mesh))
	return nil
}
