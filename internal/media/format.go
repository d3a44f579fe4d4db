package media

import "bytes"

// Format is an audio container recognized by its leading bytes.
type Format int

const (
	FormatMP4 Format = iota
	FormatMP3
	FormatOgg
	FormatWAV
)

// MIME returns the media type used when handing the clip to a player.
func (f Format) MIME() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatOgg:
		return "audio/ogg"
	case FormatWAV:
		return "audio/wav"
	default:
		return "audio/mp4"
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatMP3:
		return ".mp3"
	case FormatOgg:
		return ".ogg"
	case FormatWAV:
		return ".wav"
	default:
		return ".m4a"
	}
}

func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "mp3"
	case FormatOgg:
		return "ogg"
	case FormatWAV:
		return "wav"
	default:
		return "mp4"
	}
}

// Sniff inspects the first bytes of a decoded clip. Anything unrecognized is
// treated as MPEG-4 audio, which is what the backend records voice notes in.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return FormatMP4
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync.
		return FormatMP3
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatOgg
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	default:
		return FormatMP4
	}
}
