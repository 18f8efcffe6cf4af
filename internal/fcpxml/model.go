// Package fcpxml reads and writes Final Cut Pro XML project files.
package fcpxml

import (
	"encoding/xml"

	"github.com/kikiluvv/autocut/internal/rational"
)

// Version is the fcpxml schema version written to new projects.
const Version = "1.11"

type FCPXML struct {
	XMLName   xml.Name  `xml:"fcpxml"`
	Version   string    `xml:"version,attr"`
	Resources Resources `xml:"resources"`
	Library   Library   `xml:"library"`
}

type Resources struct {
	Formats []Format `xml:"format"`
	Assets  []Asset  `xml:"asset"`
}

type Format struct {
	ID            string        `xml:"id,attr"`
	FrameDuration rational.Time `xml:"frameDuration,attr"`
	Width         int           `xml:"width,attr"`
	Height        int           `xml:"height,attr"`
	Name          string        `xml:"name,attr"`
}

type Asset struct {
	Duration      rational.Time `xml:"duration,attr"`
	HasVideo      int           `xml:"hasVideo,attr"`
	ID            string        `xml:"id,attr"`
	AudioSources  int           `xml:"audioSources,attr"`
	HasAudio      int           `xml:"hasAudio,attr"`
	Start         rational.Time `xml:"start,attr"`
	Name          string        `xml:"name,attr"`
	AudioChannels int           `xml:"audioChannels,attr"`
	Format        string        `xml:"format,attr"`
	MediaRep      MediaRep      `xml:"media-rep"`
}

type MediaRep struct {
	Src  string `xml:"src,attr"`
	Kind string `xml:"kind,attr"`
}

type Library struct {
	Events []Event `xml:"event"`
}

type Event struct {
	Name     string    `xml:"name,attr"`
	UID      string    `xml:"uid,attr,omitempty"`
	Projects []Project `xml:"project"`
}

type Project struct {
	Name      string     `xml:"name,attr"`
	UID       string     `xml:"uid,attr,omitempty"`
	Sequences []Sequence `xml:"sequence"`
}

type Sequence struct {
	Duration rational.Time `xml:"duration,attr"`
	TCFormat string        `xml:"tcFormat,attr"`
	TCStart  rational.Time `xml:"tcStart,attr"`
	Format   string        `xml:"format,attr"`
	Spine    Spine         `xml:"spine"`
}

type Spine struct {
	AssetClips []AssetClip `xml:"asset-clip"`
}

type AssetClip struct {
	Ref             string          `xml:"ref,attr"`
	Duration        rational.Time   `xml:"duration,attr"`
	TCFormat        string          `xml:"tcFormat,attr"`
	Enabled         int             `xml:"enabled,attr"`
	Offset          rational.Time   `xml:"offset,attr"`
	Start           rational.Time   `xml:"start,attr"`
	Name            string          `xml:"name,attr"`
	Format          string          `xml:"format,attr"`
	Lane            int             `xml:"lane,attr,omitempty"`
	SrcEnable       string          `xml:"srcEnable,attr,omitempty"`
	AdjustTransform AdjustTransform `xml:"adjust-transform"`
}

type AdjustTransform struct {
	Position string `xml:"position,attr"`
	Anchor   string `xml:"anchor,attr"`
	Scale    string `xml:"scale,attr"`
}
