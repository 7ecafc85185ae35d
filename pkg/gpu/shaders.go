package gpu

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/naga"
)

// KernelLocator names the path tracing kernel for a ShaderSource
const KernelLocator = "pathtrace.wgsl"

//go:embed shaders/pathtrace.wgsl
var embeddedShaders embed.FS

// ShaderSource resolves a shader locator to WGSL source. Failing to resolve the kernel is a
// fatal initialization error.
type ShaderSource interface {
	Load(locator string) (string, error)
}

// EmbeddedShaders serves the kernels compiled into the binary
type EmbeddedShaders struct{}

// Load returns the embedded shader with the given name
func (EmbeddedShaders) Load(locator string) (string, error) {
	src, err := embeddedShaders.ReadFile("shaders/" + locator)
	if err != nil {
		return "", fmt.Errorf("embedded shader %q: %w", locator, err)
	}
	return string(src), nil
}

// DirShaders loads shaders from a directory, for iterating on a kernel without rebuilding
type DirShaders struct {
	Dir string
}

// Load reads the shader file from the directory
func (d DirShaders) Load(locator string) (string, error) {
	src, err := os.ReadFile(filepath.Join(d.Dir, filepath.Clean("/"+locator)))
	if err != nil {
		return "", fmt.Errorf("shader %q: %w", locator, err)
	}
	return string(src), nil
}

// CompileSPIRV compiles WGSL source to SPIR-V words
func CompileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return spirvCode, nil
}
