package fcpxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/internal/timeline"
)

// Decode parses an fcpxml document.
func Decode(r io.Reader) (*FCPXML, error) {
	var f FCPXML
	if err := xml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fcpxml: %w", err)
	}
	return &f, nil
}

// ReadFile decodes the project at path.
func ReadFile(path string) (*FCPXML, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Decode(file)
}

// Sequence returns the first sequence in the library.
func (f *FCPXML) Sequence() (*Sequence, error) {
	for i := range f.Library.Events {
		for j := range f.Library.Events[i].Projects {
			if p := &f.Library.Events[i].Projects[j]; len(p.Sequences) > 0 {
				return &p.Sequences[0], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: fcpxml has no sequence", errs.ErrMissingResource)
}

// ToDocument rebuilds a timeline document. Resource ids are reassigned in
// their original numeric order, which reproduces ids written by Encode.
func ToDocument(f *FCPXML) (*timeline.Document, error) {
	seq, err := f.Sequence()
	if err != nil {
		return nil, err
	}

	type resource struct {
		order  int
		format *Format
		asset  *Asset
	}
	var resources []resource
	for i := range f.Resources.Formats {
		resources = append(resources, resource{order: idOrder(f.Resources.Formats[i].ID), format: &f.Resources.Formats[i]})
	}
	for i := range f.Resources.Assets {
		resources = append(resources, resource{order: idOrder(f.Resources.Assets[i].ID), asset: &f.Resources.Assets[i]})
	}
	sort.SliceStable(resources, func(i, j int) bool { return resources[i].order < resources[j].order })

	doc := timeline.New()
	ids := make(map[string]string)

	for _, r := range resources {
		if r.format != nil {
			fd := r.format.FrameDuration
			if fd.Frames <= 0 || fd.FPS%fd.Frames != 0 {
				return nil, fmt.Errorf("%w: format %s frameDuration %s", errs.ErrInvalidTimebase, r.format.ID, fd)
			}
			id, err := doc.AddFormat(fd.FPS/fd.Frames, r.format.Width, r.format.Height, r.format.Name)
			if err != nil {
				return nil, err
			}
			ids[r.format.ID] = id
			continue
		}

		a := r.asset
		formatRef, ok := ids[a.Format]
		if !ok {
			return nil, fmt.Errorf("%w: asset %s format %s", errs.ErrMissingResource, a.ID, a.Format)
		}
		path := a.MediaRep.Src
		if u, err := url.Parse(a.MediaRep.Src); err == nil && u.Scheme == "file" {
			path = u.Path
		}
		id, err := doc.AddAsset(a.Duration.FPS, a.Duration.Frames, a.AudioChannels, a.Name, path, formatRef)
		if err != nil {
			return nil, err
		}
		ids[a.ID] = id
	}

	fps := doc.FPS()
	for _, ac := range seq.Spine.AssetClips {
		ref, ok := ids[ac.Ref]
		if !ok {
			return nil, fmt.Errorf("%w: clip %q ref %s", errs.ErrMissingResource, ac.Name, ac.Ref)
		}

		start, err := ac.Start.ConvertTo(fps)
		if err != nil {
			return nil, fmt.Errorf("clip %q start: %w", ac.Name, err)
		}
		offset, err := ac.Offset.ConvertTo(fps)
		if err != nil {
			return nil, fmt.Errorf("clip %q offset: %w", ac.Name, err)
		}
		duration, err := ac.Duration.ConvertTo(fps)
		if err != nil {
			return nil, fmt.Errorf("clip %q duration: %w", ac.Name, err)
		}

		x, y := parsePair(ac.AdjustTransform.Position)
		zoom, _ := parsePair(ac.AdjustTransform.Scale)
		if zoom == 1 {
			zoom = 0
		}

		clip := timeline.ClipEntry{
			Ref:          ref,
			Name:         ac.Name,
			FormatRef:    ids[ac.Format],
			FPS:          fps,
			Start:        start.Frames,
			Offset:       offset.Frames,
			Duration:     duration.Frames,
			Lane:         ac.Lane,
			IncludeAudio: ac.SrcEnable != "video",
			Transform:    timeline.Transform{X: x, Y: y, Zoom: zoom},
		}
		if err := doc.AppendClip(clip); err != nil {
			return nil, err
		}
	}

	doc.RecomputeDuration()
	return doc, nil
}

func idOrder(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "r"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

func parsePair(s string) (float64, float64) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0
	}
	a, _ := strconv.ParseFloat(fields[0], 64)
	b, _ := strconv.ParseFloat(fields[1], 64)
	return a, b
}
