package geometry

import (
	"math"

	"github.com/df07/go-gpu-raytracer/pkg/core"
)

// CameraBlockFloats is the size of the flattened camera block: eight vec4 slots
const CameraBlockFloats = 32

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera is looking at
	Up            core.Vec3 // Up direction (usually 0,1,0)
	AspectRatio   float64   // Width / height
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter; 0 is a pinhole
	FocusDistance float64   // Distance to the focus plane; 0 means |Center - LookAt|
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	zero := core.Vec3{}

	if !override.Center.Equals(zero) {
		result.Center = override.Center
	}
	if !override.LookAt.Equals(zero) {
		result.LookAt = override.LookAt
	}
	if !override.Up.Equals(zero) {
		result.Up = override.Up
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.Aperture != 0 {
		result.Aperture = override.Aperture
	}
	if override.FocusDistance != 0 {
		result.FocusDistance = override.FocusDistance
	}
	return result
}

// Camera generates primary rays for a thin-lens perspective projection
type Camera struct {
	config          CameraConfig
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3 // Camera coordinate system
	lensRadius      float64
	focusDistance   float64
	halfWidth       float64 // Half the viewport width on the focus plane
	halfHeight      float64
}

// NewCamera creates a camera from the given configuration
func NewCamera(config CameraConfig) *Camera {
	focusDistance := config.FocusDistance
	if focusDistance == 0 {
		focusDistance = config.Center.Subtract(config.LookAt).Length()
	}

	theta := config.VFov * math.Pi / 180.0
	h := math.Tan(theta / 2)
	viewportHeight := 2.0 * h * focusDistance
	viewportWidth := config.AspectRatio * viewportHeight

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(viewportWidth)
	vertical := v.Multiply(viewportHeight)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focusDistance))

	return &Camera{
		config:          config,
		origin:          config.Center,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      config.Aperture / 2,
		focusDistance:   focusDistance,
		halfWidth:       viewportWidth / 2,
		halfHeight:      viewportHeight / 2,
	}
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// GetRay generates a ray for normalized screen coordinates (s, t), where s grows to the
// right and t grows upward. lensSample is a unit-square sample mapped onto the aperture;
// it is consumed even by a pinhole camera so the random stream stays aligned.
func (c *Camera) GetRay(s, t float64, lensSample core.Vec2) core.Ray {
	rd := core.SamplePointInUnitDisk(lensSample).Multiply(c.lensRadius)
	offset := c.u.Multiply(rd.X).Add(c.v.Multiply(rd.Y))

	origin := c.origin.Add(offset)
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(origin)

	return core.NewRay(origin, direction)
}

// GetCameraForward returns the direction the camera looks at
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.w.Negate()
}

// Flatten serializes the camera into the fixed-order block read by the compute kernel:
// origin, u, v, w, lower-left corner, horizontal, vertical, each padded to four floats,
// then (lens radius, focus distance, half width, half height).
func (c *Camera) Flatten() [CameraBlockFloats]float32 {
	var block [CameraBlockFloats]float32
	vectors := [...]core.Vec3{c.origin, c.u, c.v, c.w, c.lowerLeftCorner, c.horizontal, c.vertical}
	for i, vec := range vectors {
		block[i*4+0] = float32(vec.X)
		block[i*4+1] = float32(vec.Y)
		block[i*4+2] = float32(vec.Z)
	}
	block[28] = float32(c.lensRadius)
	block[29] = float32(c.focusDistance)
	block[30] = float32(c.halfWidth)
	block[31] = float32(c.halfHeight)
	return block
}
