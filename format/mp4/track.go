package mp4

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ugparu/mp4box/format/mp4/mp4io"
)

// Summary is the part of a file's structure callers usually look for first.
type Summary struct {
	MajorBrand       string   `json:"major_brand"`
	MinorVersion     uint32   `json:"minor_version"`
	CompatibleBrands []string `json:"compatible_brands"`
	Fragmented       bool     `json:"fragmented"`
	// Movie time scale and duration from mvhd.
	TimeScale uint32        `json:"time_scale,omitempty"`
	Duration  uint64        `json:"duration,omitempty"`
	Length    time.Duration `json:"length,omitempty"`
	Tracks    []Track       `json:"tracks"`
}

// Track describes one trak box.
type Track struct {
	Index         int           `json:"index"`
	TrackID       uint32        `json:"track_id,omitempty"`
	Handler       string        `json:"handler"`
	HandlerName   string        `json:"handler_name,omitempty"`
	TimeScale     uint32        `json:"time_scale"`
	Duration      uint64        `json:"duration"`
	Length        time.Duration `json:"length"`
	Language      string        `json:"language"`
	Format        string        `json:"format,omitempty"`
	Width         int           `json:"width,omitempty"`
	Height        int           `json:"height,omitempty"`
	NALUnitLength int           `json:"nal_unit_length,omitempty"`
	PixelAspect   [2]uint32     `json:"pixel_aspect"`
	Channels      int           `json:"channels,omitempty"`
	SampleSize    int           `json:"sample_size,omitempty"`
	SampleRate    int           `json:"sample_rate,omitempty"`
}

// Summarize reports brands and tracks of a parsed top level box sequence. It needs a moov box.
func Summarize(boxes []*mp4io.Box) (s Summary, err error) {
	if ftyp := findTop(boxes, mp4io.FTYP); ftyp != nil {
		s.MajorBrand = ftyp.Fields.Tag("major_brand").String()
		s.MinorVersion = uint32(ftyp.Fields.Uint("minor_version")) //nolint:gosec
		v, _ := ftyp.Fields.Get("compatible_brands")
		if brands, ok := v.([]mp4io.Tag); ok {
			for _, b := range brands {
				s.CompatibleBrands = append(s.CompatibleBrands, b.String())
			}
		}
	}

	moov := findTop(boxes, mp4io.MOOV)
	if moov == nil {
		err = errors.New("mp4: 'moov' atom not found")
		return
	}
	s.Fragmented = moov.Child(mp4io.MVEX) != nil || findTop(boxes, mp4io.MOOF) != nil
	if mvhd := moov.Child(mp4io.MVHD); mvhd != nil {
		s.TimeScale = uint32(mvhd.Fields.Uint("timescale")) //nolint:gosec
		s.Duration = mvhd.Fields.Uint("duration")
		s.Length = length(s.Duration, s.TimeScale)
	}

	s.Tracks = []Track{}
	for i, trak := range moov.FindAll(mp4io.TRAK) {
		var track Track
		if track, err = newTrack(i, trak); err != nil {
			return
		}
		s.Tracks = append(s.Tracks, track)
	}
	return
}

func findTop(boxes []*mp4io.Box, tag mp4io.Tag) *mp4io.Box {
	for _, b := range boxes {
		if b.Type == tag {
			return b
		}
	}
	return nil
}

func newTrack(index int, trak *mp4io.Box) (t Track, err error) {
	t.Index = index

	mdia := trak.Child(mp4io.MDIA)
	if mdia == nil {
		err = fmt.Errorf("mp4: track %d: 'mdia' atom not found", index)
		return
	}
	mdhd := mdia.Child(mp4io.MDHD)
	if mdhd == nil {
		err = fmt.Errorf("mp4: track %d: 'mdhd' atom not found", index)
		return
	}
	t.TimeScale = uint32(mdhd.Fields.Uint("timescale")) //nolint:gosec
	t.Duration = mdhd.Fields.Uint("duration")
	t.Language = mdhd.Fields.Text("language")
	t.Length = length(t.Duration, t.TimeScale)

	if tkhd := trak.Child(mp4io.TKHD); tkhd != nil {
		t.TrackID = uint32(tkhd.Fields.Uint("track_ID")) //nolint:gosec
		// 16.16 presentation size, used until a visual sample entry says otherwise.
		t.Width = int(tkhd.Fields.Uint("width") >> 16)
		t.Height = int(tkhd.Fields.Uint("height") >> 16)
	}

	if hdlr := mdia.Child(mp4io.HDLR); hdlr != nil {
		t.Handler = hdlr.Fields.Tag("handler_type").String()
		t.HandlerName = strings.TrimRight(hdlr.Fields.Text("name"), "\x00")
	}

	stsd := mdia.Find(mp4io.STSD)
	if stsd == nil || len(stsd.Children) == 0 {
		return
	}
	entry := stsd.Children[0]
	t.Format = entry.Type.String()
	if entry.Fields.Has("width") {
		t.Width = int(entry.Fields.Uint("width"))
		t.Height = int(entry.Fields.Uint("height"))
	}
	if entry.Fields.Has("channel_count") {
		t.Channels = int(entry.Fields.Uint("channel_count"))
		t.SampleSize = int(entry.Fields.Uint("sample_size"))
		t.SampleRate = int(entry.Fields.Uint("sample_rate"))
	}
	t.NALUnitLength = mp4io.NALUnitLength(entry.Child(mp4io.AVCC))
	if pasp := entry.Child(mp4io.PASP); pasp != nil {
		t.PixelAspect = [2]uint32{
			uint32(pasp.Fields.Uint("h_spacing")), //nolint:gosec
			uint32(pasp.Fields.Uint("v_spacing")), //nolint:gosec
		}
	}
	return
}

func length(duration uint64, timeScale uint32) time.Duration {
	if timeScale == 0 {
		return 0
	}
	return time.Duration(float64(duration) / float64(timeScale) * float64(time.Second))
}
