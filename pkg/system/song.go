package system

import "github.com/zurustar/paperrpg/pkg/value"

// SongKind is the channel a song plays on.
type SongKind int

const (
	SongMusic SongKind = iota
	SongBackgroundSound
	SongSound
	SongMusicEffect
)

func (k SongKind) String() string {
	switch k {
	case SongMusic:
		return "music"
	case SongBackgroundSound:
		return "background sound"
	case SongSound:
		return "sound"
	case SongMusicEffect:
		return "music effect"
	}
	return "unknown song kind"
}

// Song is a sound file. MIDI files are synthesized, WAV files are decoded.
type Song struct {
	ID   int      `yaml:"id"`
	Name string   `yaml:"name"`
	Kind SongKind `yaml:"kind"`
	Path string   `yaml:"path"`
}

// PlaySong is a song reference with its playback settings.
type PlaySong struct {
	SongID value.Value `yaml:"song"`
	Volume value.Value `yaml:"volume"`
}

// IsNone reports whether no song is set.
func (p PlaySong) IsNone() bool {
	return p.SongID.Kind() <= value.Default
}
