// Package loudmap reads and writes loud-interval maps: per-file lists of
// the spans worth keeping, in the JSON layout auto-editor exports.
package loudmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/timeline"
	"github.com/kikiluvv/autocut/pkg/util"
)

// Suffix is appended to the source stem to name its loud map.
const Suffix = "_loud_map.json"

// Interval is one loud span, in frames of the map's timebase.
type Interval struct {
	Source   int64   // position in the source file
	Timeline int64   // position in the tool's own output timeline
	Duration int64
	Speed    float64 // 0 when the tool did not report one
}

// KnownSilent reports an interval the tool kept but retimed, which it only
// does for spans it judged silent.
func (iv Interval) KnownSilent() bool {
	return iv.Speed != 0 && iv.Speed != 1
}

// Map is the loud map of one source file.
type Map struct {
	FPS       int64
	Intervals []Interval
}

type rawMap struct {
	Timebase string          `json:"timebase"`
	V        [][]rawInterval `json:"v"`
}

// auto-editor names the source position "offset" and the output position
// "start", the reverse of the timeline's convention.
type rawInterval struct {
	Offset int64    `json:"offset"`
	Start  int64    `json:"start"`
	Dur    int64    `json:"dur"`
	Speed  *float64 `json:"speed,omitempty"`
}

// Parse decodes a loud map. Only the first video track is used.
func Parse(data []byte) (*Map, error) {
	var raw rawMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	fps, err := rational.ParseRate(raw.Timebase)
	if err != nil {
		return nil, err
	}

	m := &Map{FPS: fps}
	if len(raw.V) == 0 {
		return m, nil
	}
	for _, r := range raw.V[0] {
		iv := Interval{Source: r.Offset, Timeline: r.Start, Duration: r.Dur}
		if r.Speed != nil {
			iv.Speed = *r.Speed
		}
		m.Intervals = append(m.Intervals, iv)
	}
	return m, nil
}

// Load reads the loud map at path. A missing file is ErrMissingResource,
// an unreadable one ErrExternalTool.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: loud map %s", errs.ErrMissingResource, path)
		}
		return nil, fmt.Errorf("failed to read loud map %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed loud map %s: %v", errs.ErrExternalTool, path, err)
	}
	return m, nil
}

// Write stores m at path in the auto-editor layout.
func (m *Map) Write(path string) error {
	raw := rawMap{
		Timebase: strconv.FormatInt(m.FPS, 10) + "/1",
		V:        [][]rawInterval{make([]rawInterval, 0, len(m.Intervals))},
	}
	for _, iv := range m.Intervals {
		r := rawInterval{Offset: iv.Source, Start: iv.Timeline, Dur: iv.Duration}
		if iv.Speed != 0 {
			speed := iv.Speed
			r.Speed = &speed
		}
		raw.V[0] = append(raw.V[0], r)
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Store locates loud maps in one folder by source file stem.
type Store struct {
	Dir string
}

// Path is where the loud map of source is kept.
func (s Store) Path(source string) string {
	return filepath.Join(s.Dir, util.Stem(source)+Suffix)
}

// LoudMap loads the map generated for asset.
func (s Store) LoudMap(asset timeline.AssetResource) (*Map, error) {
	return Load(s.Path(asset.Path))
}
