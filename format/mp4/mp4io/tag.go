package mp4io

import (
	"encoding/json"

	"github.com/ugparu/mp4box/utils/bits/pio"
)

// Tag is a four character box type. Tags are compared byte for byte.
type Tag uint32

const (
	FTYP = Tag(0x66747970)
	STYP = Tag(0x73747970)
	MOOV = Tag(0x6d6f6f76)
	MVHD = Tag(0x6d766864)
	TKHD = Tag(0x746b6864)
	MVEX = Tag(0x6d766578)
	MEHD = Tag(0x6d656864)
	TREX = Tag(0x74726578)
	TRAK = Tag(0x7472616b)
	EDTS = Tag(0x65647473)
	MDIA = Tag(0x6d646961)
	MDHD = Tag(0x6d646864)
	HDLR = Tag(0x68646c72)
	MINF = Tag(0x6d696e66)
	SMHD = Tag(0x736d6864)
	VMHD = Tag(0x766d6864)
	DINF = Tag(0x64696e66)
	STBL = Tag(0x7374626c)
	STSD = Tag(0x73747364)
	MOOF = Tag(0x6d6f6f66)
	TRAF = Tag(0x74726166)
	MDAT = Tag(0x6d646174)
	FREE = Tag(0x66726565)
	UDTA = Tag(0x75647461)
	META = Tag(0x6d657461)
	ILST = Tag(0x696c7374)
	NAME = Tag(0x6e616d65)
	TNAM = Tag(0x746e616d)
	TITL = Tag(0x7469746c)
	AVC1 = Tag(0x61766331)
	AVC3 = Tag(0x61766333)
	AVCC = Tag(0x61766343)
	HEV1 = Tag(0x68657631)
	HVC1 = Tag(0x68766331)
	MP4A = Tag(0x6d703461)
	ESDS = Tag(0x65736473)
	PASP = Tag(0x70617370)
	TX3G = Tag(0x74783367)
	FTAB = Tag(0x66746162)
)

// StringToTag packs the first four bytes of tag; shorter strings are zero padded.
func StringToTag(tag string) Tag {
	var b [4]byte
	copy(b[:], tag)
	return Tag(pio.U32BE(b[:]))
}

func (t Tag) Bytes() [4]byte {
	var b [4]byte
	pio.PutU32BE(b[:], uint32(t))
	return b
}

func (t Tag) String() string {
	b := t.Bytes()
	return string(b[:])
}

func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}
