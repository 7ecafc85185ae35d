package scene

import (
	"fmt"
	"sort"
	"strings"

	"github.com/df07/go-gpu-raytracer/pkg/geometry"
)

// SceneInfo describes a built-in scene
type SceneInfo struct {
	ID          string `json:"id"`          // Identifier accepted by Load
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
}

type sceneBuilder func(cameraOverrides ...geometry.CameraConfig) *Scene

type catalogEntry struct {
	description string
	build       sceneBuilder
}

var builtInScenes = map[string]catalogEntry{
	"default":     {"Diffuse, hollow glass and gold spheres on a ground sphere", NewDefaultScene},
	"single":      {"One diffuse sphere in front of the camera", NewSingleSphereScene},
	"random":      {"Field of random small spheres around three large ones", NewRandomScene},
	"sphere-grid": {"10x10 grid of rainbow-colored metallic spheres", NewSphereGridScene},
}

// ListScenes returns the built-in scenes sorted by identifier
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtInScenes))
	for id, entry := range builtInScenes {
		scenes = append(scenes, SceneInfo{
			ID:          id,
			DisplayName: titleCase(id),
			Description: entry.description,
		})
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].ID < scenes[j].ID
	})
	return scenes
}

// Load builds the built-in scene with the given identifier
func Load(id string, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	entry, ok := builtInScenes[id]
	if !ok {
		ids := make([]string, 0, len(builtInScenes))
		for _, info := range ListScenes() {
			ids = append(ids, info.ID)
		}
		return nil, fmt.Errorf("unknown scene %q (available: %s)", id, strings.Join(ids, ", "))
	}
	return entry.build(cameraOverrides...), nil
}

// titleCase converts an identifier to title case
// e.g., "sphere-grid" -> "Sphere Grid"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
