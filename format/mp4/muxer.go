package mp4

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ugparu/mp4box/format/mp4/mp4io"
	"github.com/ugparu/mp4box/utils/bits/pio"
	"github.com/ugparu/mp4box/utils/logger"
)

// Muxer writes a top level box sequence. Boxes are re-encoded from their
// tree; payload boxes read without their body are copied from a source.
//
// Chunk offsets inside moov are not rewritten, so boxes placed before mdat
// must keep their encoded size for the output to stay playable.
type Muxer struct {
	writer         io.Writer
	bufferedWriter *bufio.Writer
	writePosition  int64
}

func NewMuxer(writer io.Writer) *Muxer {
	return &Muxer{
		writer:         writer,
		bufferedWriter: bufio.NewWriterSize(writer, pio.RecommendBufioSize),
	}
}

// WriteBox encodes box at the current position.
func (mux *Muxer) WriteBox(box *mp4io.Box) (err error) {
	var n int64
	n, err = mp4io.Write(mux.bufferedWriter, box)
	mux.writePosition += n
	return
}

// CopyBox copies the bytes of box verbatim from src.
func (mux *Muxer) CopyBox(src io.ReaderAt, box *mp4io.Box) (err error) {
	if src == nil {
		return fmt.Errorf("mp4: no source to copy '%s' payload from", box.Type)
	}
	var n int64
	n, err = io.Copy(mux.bufferedWriter, io.NewSectionReader(src, box.Offset, box.Size()))
	mux.writePosition += n
	if err == nil && n != box.Size() {
		err = io.ErrUnexpectedEOF
	}
	return
}

// WriteTrailer flushes buffered output.
func (mux *Muxer) WriteTrailer() error {
	return mux.bufferedWriter.Flush()
}

func (mux *Muxer) Written() int64 {
	return mux.writePosition
}

func (mux *Muxer) String() string {
	return "MP4_MUXER"
}

// Remux writes boxes to dst, taking payload bodies from src.
func Remux(dst io.Writer, src io.ReaderAt, boxes []*mp4io.Box) (err error) {
	mux := NewMuxer(dst)
	for _, box := range boxes {
		if isPayload(box) {
			err = mux.CopyBox(src, box)
		} else {
			err = mux.WriteBox(box)
		}
		if err != nil {
			logger.Errorf(mux, "writing '%s' at %d: %v", box.Type, mux.Written(), err)
			return err
		}
	}
	return mux.WriteTrailer()
}
