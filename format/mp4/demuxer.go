// Package mp4 reads and rewrites the box structure of MP4 files.
package mp4

import (
	"io"
	"math"
	"os"

	"github.com/ugparu/mp4box/format/mp4/mp4io"
	"github.com/ugparu/mp4box/utils/bits/pio"
	"github.com/ugparu/mp4box/utils/logger"
)

// Payload boxes are not loaded: ReadBoxes returns them with Offset, End and
// Type only, and Remux copies their bytes from the source.
var payloadTags = map[mp4io.Tag]bool{
	mp4io.MDAT: true,
}

func isPayload(b *mp4io.Box) bool {
	return payloadTags[b.Type] && b.Raw == nil
}

// Demuxer exposes the box tree and track summary of one file.
type Demuxer struct {
	r       *os.File
	url     string
	boxes   []*mp4io.Box
	summary *Summary
}

func NewDemuxer(url string) *Demuxer {
	dmx := new(Demuxer)
	dmx.url = url
	return dmx
}

// Demux opens the file and summarises it. Calling it again returns the cached result.
func (dmx *Demuxer) Demux() (Summary, error) {
	if dmx.summary != nil {
		return *dmx.summary, nil
	}
	var err error
	if dmx.r == nil {
		if dmx.r, err = os.Open(dmx.url); err != nil {
			return Summary{}, err
		}
	}
	if err = dmx.load(); err != nil {
		return Summary{}, err
	}
	return *dmx.summary, nil
}

func (dmx *Demuxer) Boxes() []*mp4io.Box {
	return dmx.boxes
}

// Source gives access to the file for payload copies. It is nil before Demux.
func (dmx *Demuxer) Source() io.ReaderAt {
	if dmx.r == nil {
		return nil
	}
	return dmx.r
}

func (dmx *Demuxer) Close() {
	if dmx.r != nil {
		dmx.r.Close()
	}
}

func (dmx *Demuxer) load() (err error) {
	fi, err := dmx.r.Stat()
	if err != nil {
		return
	}
	if dmx.boxes, err = ReadBoxes(dmx.r, fi.Size()); err != nil {
		return
	}
	summary, err := Summarize(dmx.boxes)
	if err != nil {
		return
	}
	logger.Debugf(dmx, "%s: %d top level boxes, %d tracks", dmx.url, len(dmx.boxes), len(summary.Tracks))
	dmx.summary = &summary
	return
}

func (dmx *Demuxer) String() string {
	return "MP4_DEMUXER"
}

// ReadFile parses the top level boxes of the file at path.
func ReadFile(path string) ([]*mp4io.Box, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ReadBoxes(f, fi.Size())
}

// ReadBoxes parses the box sequence in the first size bytes of r. Payload
// boxes are skipped without reading their bodies.
func ReadBoxes(r io.ReaderAt, size int64) (boxes []*mp4io.Box, err error) {
	for pos := int64(0); pos < size; {
		var box *mp4io.Box
		if box, err = skipPayload(r, pos, size); err != nil {
			return
		}
		if box == nil {
			c := mp4io.NewReaderAt(io.NewSectionReader(r, pos, size-pos), pos)
			if box, err = mp4io.Parse(c, size-pos); err != nil {
				return
			}
		}
		boxes = append(boxes, box)
		pos = box.End
	}
	return
}

// skipPayload returns a body-less box when the header at pos belongs to a payload box.
func skipPayload(r io.ReaderAt, pos, size int64) (*mp4io.Box, error) {
	left := size - pos
	if left < mp4io.HeaderSize {
		return nil, nil
	}
	hdr := make([]byte, 16)
	n, err := r.ReadAt(hdr[:mp4io.HeaderSize], pos)
	if n < mp4io.HeaderSize {
		return nil, err
	}
	tag := mp4io.Tag(pio.U32BE(hdr[4:]))
	if !payloadTags[tag] {
		return nil, nil
	}

	boxSize := int64(pio.U32BE(hdr))
	switch boxSize {
	case 0:
		boxSize = left
	case 1:
		if left < 16 {
			return nil, nil
		}
		if _, err = r.ReadAt(hdr[8:], pos+8); err != nil {
			return nil, err
		}
		ext := pio.U64BE(hdr[8:])
		if ext > uint64(left) {
			return nil, &mp4io.TruncatedInputError{What: "mdat", Offset: pos, Need: int64(min(ext, math.MaxInt64)), Have: left}
		}
		boxSize = int64(ext)
	}
	if boxSize < mp4io.HeaderSize || boxSize > left {
		// Let the box framework report the malformed header.
		return nil, nil
	}
	return &mp4io.Box{Offset: pos, End: pos + boxSize, Type: tag}, nil
}
