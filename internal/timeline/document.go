// Package timeline holds the in-memory project: resources, the track of
// clip entries, and the per-asset view the edit passes drain and refill.
package timeline

import (
	"container/list"
	"fmt"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/internal/rational"
)

// Document is a project timeline. The track is a single ordered container
// holding every lane in spine order; the reference index points into it, so
// the two can only change together.
type Document struct {
	formats  []FormatResource
	assets   []AssetResource
	formatAt map[string]int
	assetAt  map[string]int
	nextID   int

	// canonical format: first one added
	fps    int64
	width  int
	height int

	refs  []string
	track *list.List
	index map[string][]*list.Element

	duration int64
}

// New returns an empty document.
func New() *Document {
	return &Document{
		formatAt: make(map[string]int),
		assetAt:  make(map[string]int),
		track:    list.New(),
		index:    make(map[string][]*list.Element),
	}
}

func (d *Document) allocID() string {
	id := fmt.Sprintf("r%d", d.nextID)
	d.nextID++
	return id
}

// AddFormat appends a format resource. The first one fixes the project
// frame rate and canvas.
func (d *Document) AddFormat(fps int64, width, height int, name string) (string, error) {
	if fps <= 0 {
		return "", fmt.Errorf("%w: format %q fps %d", errs.ErrInvalidTimebase, name, fps)
	}
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("format %q has invalid size %dx%d", name, width, height)
	}

	f := FormatResource{ID: d.allocID(), FPS: fps, Width: width, Height: height, Name: name}
	d.formatAt[f.ID] = len(d.formats)
	d.formats = append(d.formats, f)

	if len(d.formats) == 1 {
		d.fps, d.width, d.height = fps, width, height
	}
	return f.ID, nil
}

// AddAsset appends an asset resource and opens an empty clip queue for it.
func (d *Document) AddAsset(fps, frames int64, audioChannels int, name, path, formatRef string) (string, error) {
	if fps <= 0 {
		return "", fmt.Errorf("%w: asset %q fps %d", errs.ErrInvalidTimebase, name, fps)
	}
	if frames < 0 {
		return "", fmt.Errorf("%w: asset %q has %d frames", errs.ErrInvalidClip, name, frames)
	}
	if _, ok := d.formatAt[formatRef]; !ok {
		return "", fmt.Errorf("%w: format %q for asset %q", errs.ErrMissingResource, formatRef, name)
	}

	a := AssetResource{
		ID:            d.allocID(),
		Path:          path,
		Name:          name,
		Frames:        frames,
		FPS:           fps,
		AudioChannels: audioChannels,
		FormatRef:     formatRef,
	}
	d.assetAt[a.ID] = len(d.assets)
	d.assets = append(d.assets, a)
	d.refs = append(d.refs, a.ID)
	d.index[a.ID] = nil
	return a.ID, nil
}

func (d *Document) validate(c ClipEntry) error {
	if _, ok := d.assetAt[c.Ref]; !ok {
		return fmt.Errorf("%w: clip %q references unknown asset %q", errs.ErrMissingResource, c.Name, c.Ref)
	}
	if c.FPS != d.fps {
		return fmt.Errorf("%w: clip %q is %d fps, project is %d fps",
			errs.ErrInvalidTimebase, c.Name, c.FPS, d.fps)
	}
	if c.Duration <= 0 || c.Start < 0 || c.Offset < 0 || c.Lane < 0 {
		return fmt.Errorf("%w: %q start=%d offset=%d duration=%d lane=%d",
			errs.ErrInvalidClip, c.Name, c.Start, c.Offset, c.Duration, c.Lane)
	}
	return nil
}

// AppendClip pushes c to the end of the track and of its reference's queue.
func (d *Document) AppendClip(c ClipEntry) error {
	if err := d.validate(c); err != nil {
		return err
	}
	e := d.track.PushBack(c)
	d.index[c.Ref] = append(d.index[c.Ref], e)
	return nil
}

// PopFrontClip removes and returns the oldest clip for ref.
func (d *Document) PopFrontClip(ref string) (ClipEntry, error) {
	q := d.index[ref]
	if len(q) == 0 {
		return ClipEntry{}, fmt.Errorf("%w: %s", errs.ErrEmptyQueue, ref)
	}
	e := q[0]
	q[0] = nil
	d.index[ref] = q[1:]
	return d.track.Remove(e).(ClipEntry), nil
}

// ReplaceClip pops the oldest clip for ref and appends next in its place.
// Nothing changes when any replacement is invalid.
func (d *Document) ReplaceClip(ref string, next ...ClipEntry) (ClipEntry, error) {
	if d.QueueLen(ref) == 0 {
		return ClipEntry{}, fmt.Errorf("%w: %s", errs.ErrEmptyQueue, ref)
	}
	for _, c := range next {
		if err := d.validate(c); err != nil {
			return ClipEntry{}, err
		}
	}

	old, err := d.PopFrontClip(ref)
	if err != nil {
		return ClipEntry{}, err
	}
	for _, c := range next {
		e := d.track.PushBack(c)
		d.index[c.Ref] = append(d.index[c.Ref], e)
	}
	return old, nil
}

// RewriteClips replaces every clip with fn(clip), keeping track order.
func (d *Document) RewriteClips(fn func(ClipEntry) ClipEntry) error {
	rewritten := make([]ClipEntry, 0, d.track.Len())
	for e := d.track.Front(); e != nil; e = e.Next() {
		old := e.Value.(ClipEntry)
		c := fn(old)
		if c.Ref != old.Ref {
			return fmt.Errorf("%w: rewrite moved %q from %s to %s", errs.ErrInvalidClip, old.Name, old.Ref, c.Ref)
		}
		if err := d.validate(c); err != nil {
			return err
		}
		rewritten = append(rewritten, c)
	}

	i := 0
	for e := d.track.Front(); e != nil; e = e.Next() {
		e.Value = rewritten[i]
		i++
	}
	return nil
}

// RecomputeDuration sets the sequence duration to the latest clip end.
func (d *Document) RecomputeDuration() rational.Time {
	var end int64
	for e := d.track.Front(); e != nil; e = e.Next() {
		if c := e.Value.(ClipEntry); c.End() > end {
			end = c.End()
		}
	}
	d.duration = end
	return d.Duration()
}

// Duration is the sequence duration as of the last RecomputeDuration.
func (d *Document) Duration() rational.Time {
	return rational.Time{Frames: d.duration, FPS: d.fps}
}

// FPS is the project frame rate, 0 before any format exists.
func (d *Document) FPS() int64 { return d.fps }

// Canvas returns the project width and height.
func (d *Document) Canvas() (int, int) { return d.width, d.height }

// CanonicalFormat returns the first format added.
func (d *Document) CanonicalFormat() (FormatResource, bool) {
	if len(d.formats) == 0 {
		return FormatResource{}, false
	}
	return d.formats[0], true
}

// Refs lists asset references in provenance order.
func (d *Document) Refs() []string {
	return append([]string(nil), d.refs...)
}

// QueueLen is the number of clips currently representing ref.
func (d *Document) QueueLen(ref string) int {
	return len(d.index[ref])
}

// Front returns the oldest clip for ref without removing it.
func (d *Document) Front(ref string) (ClipEntry, bool) {
	q := d.index[ref]
	if len(q) == 0 {
		return ClipEntry{}, false
	}
	return q[0].Value.(ClipEntry), true
}

// Queue returns the clips for ref, oldest first.
func (d *Document) Queue(ref string) []ClipEntry {
	q := d.index[ref]
	out := make([]ClipEntry, len(q))
	for i, e := range q {
		out[i] = e.Value.(ClipEntry)
	}
	return out
}

// Clips returns the whole track in spine order.
func (d *Document) Clips() []ClipEntry {
	out := make([]ClipEntry, 0, d.track.Len())
	for e := d.track.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(ClipEntry))
	}
	return out
}

// Len is the number of clips on the track.
func (d *Document) Len() int { return d.track.Len() }

// MaxLane is the highest lane in use, or -1 for an empty track.
func (d *Document) MaxLane() int {
	lane := -1
	for e := d.track.Front(); e != nil; e = e.Next() {
		if c := e.Value.(ClipEntry); c.Lane > lane {
			lane = c.Lane
		}
	}
	return lane
}

func (d *Document) Formats() []FormatResource {
	return append([]FormatResource(nil), d.formats...)
}

func (d *Document) Assets() []AssetResource {
	return append([]AssetResource(nil), d.assets...)
}

func (d *Document) Format(id string) (FormatResource, bool) {
	i, ok := d.formatAt[id]
	if !ok {
		return FormatResource{}, false
	}
	return d.formats[i], true
}

func (d *Document) Asset(ref string) (AssetResource, bool) {
	i, ok := d.assetAt[ref]
	if !ok {
		return AssetResource{}, false
	}
	return d.assets[i], true
}

// WholeAssetClip builds a lane 0 clip covering all of asset ref.
func (d *Document) WholeAssetClip(ref string, offset int64) (ClipEntry, error) {
	a, ok := d.Asset(ref)
	if !ok {
		return ClipEntry{}, fmt.Errorf("%w: asset %s", errs.ErrMissingResource, ref)
	}
	return ClipEntry{
		Ref:          a.ID,
		Name:         a.Name,
		FormatRef:    a.FormatRef,
		FPS:          a.FPS,
		Start:        0,
		Offset:       offset,
		Duration:     a.Frames,
		IncludeAudio: true,
	}, nil
}
