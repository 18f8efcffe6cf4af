// Package overlays keeps the pool of filler clips laid under the main
// footage.
package overlays

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sort"

	"github.com/kikiluvv/autocut/pkg/util"
)

// Registry manages available filler videos by name
type Registry struct {
	overlays map[string]string
	rng      *rand.Rand
}

// NewRegistry creates an empty registry. A zero seed picks randomly, any
// other seed makes Pick repeatable.
func NewRegistry(seed uint64) *Registry {
	var src rand.Source
	if seed == 0 {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	} else {
		src = rand.NewPCG(seed, seed)
	}
	return &Registry{
		overlays: make(map[string]string),
		rng:      rand.New(src),
	}
}

// Register adds an overlay to the registry
func (r *Registry) Register(name, path string) {
	r.overlays[name] = path
}

// LoadDir registers every video directly inside dir under its file stem.
func (r *Registry) LoadDir(dir string) (int, error) {
	files, err := util.ListMediaFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to load overlays from %s: %w", dir, err)
	}
	for _, f := range files {
		r.Register(util.Stem(f), f)
	}
	return len(files), nil
}

// Get retrieves an overlay path by name
func (r *Registry) Get(name string) (string, bool) {
	path, ok := r.overlays[name]
	return path, ok
}

// List returns all registered overlay names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.overlays))
	for name := range r.overlays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int { return len(r.overlays) }

// Pick draws one overlay path at random.
func (r *Registry) Pick() (string, bool) {
	names := r.List()
	if len(names) == 0 {
		return "", false
	}
	return r.overlays[names[r.rng.IntN(len(names))]], true
}

// Presets for common overlays
var (
	MinecraftParkour = "minecraft_parkour"
	CSGOSurfing      = "csgo_surfing"
	SubwaySurfers    = "subway_surfers"
)

// PresetPaths maps the built-in preset names to files named after them in
// dir. Only files that exist are returned.
func PresetPaths(dir string) map[string]string {
	out := make(map[string]string)
	for _, name := range []string{MinecraftParkour, CSGOSurfing, SubwaySurfers} {
		path := filepath.Join(dir, name+".mp4")
		if util.FileExists(path) {
			out[name] = path
		}
	}
	return out
}
