package fcpxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/timeline"
)

const (
	header   = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	doctype  = "<!DOCTYPE fcpxml>\n"
	tcFormat = "NDF"

	// DefaultName is used for the event and project when none is given.
	DefaultName = "Timeline 1"
)

// Options names the library containers of a written project.
type Options struct {
	EventName   string
	ProjectName string
	UID         string
}

// Build converts doc to the fcpxml element tree.
func Build(doc *timeline.Document, opts Options) (*FCPXML, error) {
	canonical, ok := doc.CanonicalFormat()
	if !ok {
		return nil, fmt.Errorf("document has no format")
	}
	if opts.EventName == "" {
		opts.EventName = DefaultName
	}
	if opts.ProjectName == "" {
		opts.ProjectName = DefaultName
	}

	out := &FCPXML{Version: Version}

	for _, f := range doc.Formats() {
		out.Resources.Formats = append(out.Resources.Formats, Format{
			ID:            f.ID,
			FrameDuration: f.FrameDuration(),
			Width:         f.Width,
			Height:        f.Height,
			Name:          f.Name,
		})
	}

	for _, a := range doc.Assets() {
		out.Resources.Assets = append(out.Resources.Assets, Asset{
			Duration:      a.Duration(),
			HasVideo:      1,
			ID:            a.ID,
			AudioSources:  1,
			HasAudio:      boolInt(a.HasAudio()),
			Start:         rational.Time{Frames: 0, FPS: 1},
			Name:          a.Name,
			AudioChannels: a.AudioChannels,
			Format:        a.FormatRef,
			MediaRep: MediaRep{
				Src:  FileURL(a.Path),
				Kind: "original-media",
			},
		})
	}

	spine := Spine{}
	for _, c := range doc.Clips() {
		ac := AssetClip{
			Ref:       c.Ref,
			Duration:  c.DurationTime(),
			TCFormat:  tcFormat,
			Enabled:   1,
			Offset:    c.OffsetTime(),
			Start:     c.StartTime(),
			Name:      c.Name,
			Format:    c.FormatRef,
			Lane:      c.Lane,
			AdjustTransform: AdjustTransform{
				Position: pair(c.Transform.X, c.Transform.Y),
				Anchor:   "0 0",
				Scale:    pair(c.Transform.Scale(), c.Transform.Scale()),
			},
		}
		if !c.IncludeAudio {
			ac.SrcEnable = "video"
		}
		spine.AssetClips = append(spine.AssetClips, ac)
	}

	out.Library.Events = []Event{{
		Name: opts.EventName,
		UID:  opts.UID,
		Projects: []Project{{
			Name: opts.ProjectName,
			Sequences: []Sequence{{
				Duration: doc.Duration(),
				TCFormat: tcFormat,
				TCStart:  rational.Time{Frames: 0, FPS: 1},
				Format:   canonical.ID,
				Spine:    spine,
			}},
		}},
	}}

	return out, nil
}

// Encode writes doc as an indented fcpxml document.
func Encode(w io.Writer, doc *timeline.Document, opts Options) error {
	tree, err := Build(doc, opts)
	if err != nil {
		return err
	}

	body, err := xml.MarshalIndent(tree, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal fcpxml: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString(doctype)
	buf.Write(body)
	buf.WriteByte('\n')

	_, err = w.Write(buf.Bytes())
	return err
}

// WriteFile encodes doc to path, creating parent directories.
func WriteFile(path string, doc *timeline.Document, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(f, doc, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileURL renders an absolute path as a file://localhost URL.
func FileURL(path string) string {
	u := url.URL{Scheme: "file", Host: "localhost", Path: filepath.ToSlash(path)}
	return u.String()
}

func pair(a, b float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64) + " " + strconv.FormatFloat(b, 'f', -1, 64)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
