// rasteriso - terminal 3D model viewer and rasterizer demo.
//
// Controls:
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Scroll      - Zoom in/out
//	Space       - Apply random spin impulse
//	R           - Reset rotation
//	N           - Toggle normal mapping
//	X           - Toggle wireframe mode
//	B           - Toggle bounding-box visualization
//	Z           - Toggle depth visualization
//	C           - Cycle cull mode
//	M           - Cycle shading mode
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/rasteriso/pkg/math3d"
	"github.com/taigrr/rasteriso/pkg/models"
	"github.com/taigrr/rasteriso/pkg/render"
	"github.com/taigrr/rasteriso/pkg/texture"
)

var (
	texturePath = flag.String("texture", "", "path to a diffuse texture image (PNG/JPG), overrides any embedded texture")
	targetFPS   = flag.Int("fps", 60, "target frames per second")
	bgColor     = flag.String("bg", "30,30,40", "background color as R,G,B")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rasteriso - terminal 3D model viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: rasteriso [options] <model.obj|model.glb>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// spinAxis tracks rotational position and velocity for one axis, with a
// critically-damped spring decaying velocity back toward rest.
type spinAxis struct {
	Position, Velocity float64
	spring             harmonica.Spring
	springVel          float64
}

func newSpinAxis(fps int) spinAxis {
	return spinAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (a *spinAxis) update() {
	a.Position += a.Velocity
	a.Velocity, a.springVel = a.spring.Update(a.Velocity, a.springVel, 0)
}

type spinState struct {
	pitch, yaw, roll spinAxis
	fps              int
}

func newSpinState(fps int) *spinState {
	return &spinState{pitch: newSpinAxis(fps), yaw: newSpinAxis(fps), roll: newSpinAxis(fps), fps: fps}
}

func (s *spinState) update() {
	s.pitch.update()
	s.yaw.update()
	s.roll.update()
}

func (s *spinState) impulse(pitch, yaw, roll float64) {
	s.pitch.Velocity += pitch
	s.yaw.Velocity += yaw
	s.roll.Velocity += roll
}

func (s *spinState) reset() {
	*s = *newSpinState(s.fps)
}

func loadMesh(path string) (*models.Mesh, *texture.Texture, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".glb", ".gltf":
		mesh, img, err := models.LoadGLBWithTexture(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load model: %w", err)
		}
		var tex *texture.Texture
		if img != nil {
			tex = texture.FromImage(img)
		}
		return mesh, tex, nil
	case ".obj":
		mesh, err := models.LoadOBJ(path, true)
		if err != nil {
			return nil, nil, fmt.Errorf("load model: %w", err)
		}
		return mesh, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported format: %s (use .obj or .glb)", ext)
	}
}

func run(modelPath string) error {
	var bgR, bgG, bgB uint8 = 30, 30, 40
	fmt.Sscanf(*bgColor, "%d,%d,%d", &bgR, &bgG, &bgB)

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	renderer := render.NewRenderer(width, height*2)
	renderer.SetClearColor(render.RGB(bgR, bgG, bgB))
	renderer.Camera.SetAspect(float64(width) / float64(height*2))
	renderer.Camera.SetClipPlanes(0.1, 100)

	mesh, tex, err := loadMesh(modelPath)
	if err != nil {
		return err
	}
	if *texturePath != "" {
		loaded, err := texture.Load(*texturePath)
		if err != nil {
			fmt.Printf("Warning: could not load texture: %v\n", err)
		} else {
			tex = loaded
		}
	}
	if tex == nil {
		tex = texture.NewChecker(64, 64, 8, math3d.Color{R: 0.78, G: 0.78, B: 0.78, A: 1}, math3d.Color{R: 0.39, G: 0.39, B: 0.39, A: 1})
	}
	mesh.Diffuse = tex

	mesh.CalculateBounds()
	center := mesh.Center()
	size := mesh.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	scale := 1.0
	if maxDim > 0 {
		scale = 2.0 / maxDim
	}

	cameraZ := 5.0
	renderer.Camera.SetPosition(math3d.V3(0, 0, cameraZ))
	renderer.Camera.LookAt(math3d.V3(0, 0, 0), math3d.Up())

	spin := newSpinState(*targetFPS)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	const torqueStrength = 3.0
	var inputTorque struct{ pitch, yaw, roll float64 }
	var mouseDown bool
	var lastMouseX, lastMouseY int

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				renderer.Resize(width, height*2)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					cancel()
					return
				case ev.MatchString("r"):
					spin.reset()
					cameraZ = 5.0
					renderer.Camera.SetPosition(math3d.V3(0, 0, cameraZ))
				case ev.MatchString("w", "up"):
					inputTorque.pitch = -torqueStrength
				case ev.MatchString("s", "down"):
					inputTorque.pitch = torqueStrength
				case ev.MatchString("a", "left"):
					inputTorque.yaw = -torqueStrength
				case ev.MatchString("d", "right"):
					inputTorque.yaw = torqueStrength
				case ev.MatchString("q"):
					inputTorque.roll = -torqueStrength
				case ev.MatchString("e"):
					inputTorque.roll = torqueStrength
				case ev.MatchString("space"):
					spin.impulse((rand.Float64()-0.5)*1.5, (rand.Float64()-0.5)*1.5, (rand.Float64()-0.5)*1.5)
				case ev.MatchString("+", "="):
					cameraZ = math.Max(1, cameraZ-0.5)
					renderer.Camera.SetPosition(math3d.V3(0, 0, cameraZ))
				case ev.MatchString("-", "_"):
					cameraZ = math.Min(20, cameraZ+0.5)
					renderer.Camera.SetPosition(math3d.V3(0, 0, cameraZ))
				case ev.MatchString("n"):
					renderer.ToggleNormalMap()
				case ev.MatchString("x"):
					renderer.ToggleWireframe()
				case ev.MatchString("b"):
					renderer.ToggleBBoxViz()
				case ev.MatchString("z"):
					renderer.ToggleDepthViz()
				case ev.MatchString("c"):
					renderer.CycleCullMode()
				case ev.MatchString("m"):
					renderer.CycleShadingMode()
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
					inputTorque.pitch = 0
				case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
					inputTorque.yaw = 0
				case ev.MatchString("q"), ev.MatchString("e"):
					inputTorque.roll = 0
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx := ev.X - lastMouseX
					dy := ev.Y - lastMouseY
					spin.impulse(float64(dy)*0.03, float64(dx)*0.03, 0)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					cameraZ = math.Max(1, cameraZ-0.5)
				case uv.MouseWheelDown:
					cameraZ = math.Min(20, cameraZ+0.5)
				}
				renderer.Camera.SetPosition(math3d.V3(0, 0, cameraZ))
			}
		}
	}()

	renderer.AddMesh("model", mesh)

	targetDuration := time.Second / time.Duration(*targetFPS)
	lastFrame := time.Now()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now
		if dt > 0.1 {
			dt = 0.1
		}

		spin.impulse(inputTorque.pitch*dt, inputTorque.yaw*dt, inputTorque.roll*dt)
		inputTorque.pitch *= 0.9
		inputTorque.yaw *= 0.9
		inputTorque.roll *= 0.9
		spin.update()

		rotation := math3d.RotateX(spin.pitch.Position).
			Mul(math3d.RotateY(spin.yaw.Position)).
			Mul(math3d.RotateZ(spin.roll.Position))
		world := rotation.Mul(math3d.Translate(center.Scale(-1))).Mul(math3d.ScaleUniform(scale))
		mesh.SetWorld(world)

		fb := renderer.Render()
		fb.Draw(term, uv.Rectangle{Max: uv.Position{X: width, Y: height}})
		if err := term.Flush(); err != nil {
			cleanup()
			return fmt.Errorf("flush: %w", err)
		}

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
