package render

import (
	"image/color"

	"github.com/taigrr/rasteriso/pkg/math3d"
	"github.com/taigrr/rasteriso/pkg/models"
)

// Renderer owns a framebuffer, its rasterizer, a camera, a light, and the
// set of meshes to draw each frame. It is the entry point callers outside
// this package use to produce a frame.
type Renderer struct {
	Camera *Camera
	Light  *DirectionalLight
	Config Config

	rasterizer *Rasterizer
	meshes     map[string]*models.Mesh
	order      []string // insertion order, for a deterministic draw order
	clearColor color.RGBA
}

// NewRenderer creates a renderer targeting a width x height framebuffer
// (height should already be 2x the terminal row count for half-block
// output, matching Framebuffer's convention).
func NewRenderer(width, height int) *Renderer {
	fb := NewFramebuffer(width, height)
	return &Renderer{
		Camera:     NewCamera(),
		Light:      NewDirectionalLight(math3d.V3(-0.4, -1, -0.3)),
		Config:     DefaultConfig(),
		rasterizer: NewRasterizer(fb),
		meshes:     make(map[string]*models.Mesh),
		clearColor: color.RGBA{A: 255},
	}
}

// Resize rebuilds the framebuffer and depth buffer for a new size.
func (rn *Renderer) Resize(width, height int) {
	fb := NewFramebuffer(width, height)
	rn.rasterizer.Resize(fb)
	rn.Camera.SetAspect(float64(width) / float64(height))
}

// SetClearColor sets the color the framebuffer is reset to each frame.
func (rn *Renderer) SetClearColor(c color.RGBA) {
	rn.clearColor = c
}

// AddMesh registers a mesh under key, replacing any mesh already at that
// key. The renderer holds a borrowed reference; it does not copy the mesh.
func (rn *Renderer) AddMesh(key string, mesh *models.Mesh) {
	if _, exists := rn.meshes[key]; !exists {
		rn.order = append(rn.order, key)
	}
	rn.meshes[key] = mesh
}

// RemoveMesh drops the mesh registered under key, if any.
func (rn *Renderer) RemoveMesh(key string) {
	if _, exists := rn.meshes[key]; !exists {
		return
	}
	delete(rn.meshes, key)
	for i, k := range rn.order {
		if k == key {
			rn.order = append(rn.order[:i], rn.order[i+1:]...)
			break
		}
	}
}

// Mesh returns the mesh registered under key, or nil.
func (rn *Renderer) Mesh(key string) *models.Mesh {
	return rn.meshes[key]
}

// Framebuffer returns the renderer's color framebuffer.
func (rn *Renderer) Framebuffer() *Framebuffer {
	return rn.rasterizer.FB
}

// Render clears the framebuffer and depth buffer, then draws every
// registered mesh in registration order. Opaque meshes and transparent
// meshes are not separated or depth-sorted against each other; within a
// registration order, later meshes blend over earlier ones where alpha
// blending applies.
func (rn *Renderer) Render() *Framebuffer {
	rn.rasterizer.FB.Clear(rn.clearColor)
	rn.rasterizer.ClearDepth()

	for _, key := range rn.order {
		mesh := rn.meshes[key]
		rn.rasterizer.DrawMesh(mesh, rn.Camera, rn.Light, rn.Config)
	}

	return rn.rasterizer.FB
}

// CycleShadingMode advances Config.ShadingMode to the next mode, wrapping
// around after ShadeSpecular.
func (rn *Renderer) CycleShadingMode() {
	rn.Config.ShadingMode = (rn.Config.ShadingMode + 1) % (ShadeSpecular + 1)
}

// ToggleNormalMap flips Config.UseNormalMap.
func (rn *Renderer) ToggleNormalMap() {
	rn.Config.UseNormalMap = !rn.Config.UseNormalMap
}

// ToggleDepthViz flips Config.DepthViz.
func (rn *Renderer) ToggleDepthViz() {
	rn.Config.DepthViz = !rn.Config.DepthViz
}

// ToggleBBoxViz flips Config.BBoxViz.
func (rn *Renderer) ToggleBBoxViz() {
	rn.Config.BBoxViz = !rn.Config.BBoxViz
}

// ToggleWireframe flips Config.Wireframe.
func (rn *Renderer) ToggleWireframe() {
	rn.Config.Wireframe = !rn.Config.Wireframe
}

// CycleCullMode advances Config.CullMode to the next mode, wrapping around
// after CullNone.
func (rn *Renderer) CycleCullMode() {
	rn.Config.CullMode = (rn.Config.CullMode + 1) % (CullNone + 1)
}
