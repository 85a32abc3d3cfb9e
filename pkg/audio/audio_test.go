package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/zurustar/paperrpg/pkg/fileutil"
	"github.com/zurustar/paperrpg/pkg/reaction"
	"github.com/zurustar/paperrpg/pkg/system"
)

var _ reaction.Audio = (*Player)(nil)

// sampleWAV builds a 16-bit stereo PCM file of n silent frames.
func sampleWAV(n int) []byte {
	var b bytes.Buffer
	dataLen := uint32(n * 4)
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, 36+dataLen)
	b.WriteString("WAVEfmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(SampleRate*4))
	binary.Write(&b, binary.LittleEndian, uint16(4))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, dataLen)
	b.Write(make([]byte, dataLen))
	return b.Bytes()
}

func newMutedPlayer() *Player {
	fsys := fileutil.NewFS(fstest.MapFS{
		"Songs/Theme.WAV":  {Data: sampleWAV(64)},
		"Songs/other.wav":  {Data: sampleWAV(8)},
		"Songs/broken.wav": {Data: []byte("not a wav file")},
		"Songs/march.mid":  {Data: []byte("MThd")},
		"Songs/voice.ogg":  {Data: []byte("OggS")},
	})
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(fsys, WithMuted(true), WithLogger(quiet))
}

func TestPlayMusicMuted(t *testing.T) {
	p := newMutedPlayer()
	theme := &system.Song{ID: 1, Name: "Theme", Path: "Songs/theme.wav"}

	if err := p.PlayMusic(theme, 0.8); err != nil {
		t.Fatalf("PlayMusic failed: %v", err)
	}
	if p.Music() != theme {
		t.Errorf("Music() = %v, want %v", p.Music(), theme)
	}

	// the same file again keeps the track
	again := &system.Song{ID: 2, Name: "Theme again", Path: "Songs/theme.wav"}
	if err := p.PlayMusic(again, 0.5); err != nil {
		t.Fatalf("PlayMusic failed: %v", err)
	}
	if p.Music() != theme {
		t.Error("replaying the current file must not restart it")
	}
	if p.music.volume != 0.5 {
		t.Errorf("volume = %v, want 0.5", p.music.volume)
	}

	other := &system.Song{ID: 3, Name: "Other", Path: "/Songs/other.wav"}
	if err := p.PlayMusic(other, 1); err != nil {
		t.Fatalf("PlayMusic failed: %v", err)
	}
	if p.Music() != other {
		t.Errorf("Music() = %v, want %v", p.Music(), other)
	}

	p.StopMusic()
	if p.Music() != nil {
		t.Error("Music() should be nil after StopMusic")
	}
	p.StopMusic()
}

func TestPlayErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing file", "Songs/none.wav", ErrSongNotFound},
		{"unsupported format", "Songs/voice.ogg", ErrUnsupportedFormat},
		{"invalid wav", "Songs/broken.wav", ErrInvalidFormat},
		{"midi without soundfont", "Songs/march.mid", ErrNoSoundFont},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newMutedPlayer()
			song := &system.Song{ID: 1, Name: tt.name, Path: tt.path}
			if err := p.PlayMusic(song, 1); !errors.Is(err, tt.want) {
				t.Errorf("PlayMusic error = %v, want %v", err, tt.want)
			}
			if err := p.PlaySound(song, 1); !errors.Is(err, tt.want) {
				t.Errorf("PlaySound error = %v, want %v", err, tt.want)
			}
			if p.Music() != nil {
				t.Error("a failed song must not replace the music")
			}
		})
	}
}

func TestPlayerWithoutFiles(t *testing.T) {
	p := New(nil, WithMuted(true))
	err := p.PlaySound(&system.Song{Path: "a.wav"}, 1)
	if !errors.Is(err, ErrSongNotFound) {
		t.Errorf("PlaySound error = %v, want ErrSongNotFound", err)
	}
}

func TestPlaySoundMuted(t *testing.T) {
	p := newMutedPlayer()
	if err := p.PlaySound(&system.Song{ID: 1, Path: "Songs/other.wav"}, 1); err != nil {
		t.Fatalf("PlaySound failed: %v", err)
	}
	if len(p.sounds) != 0 {
		t.Error("a muted player must not open players")
	}
	p.Update()
	p.Close()
}

func TestSetMuted(t *testing.T) {
	p := newMutedPlayer()
	if !p.IsMuted() {
		t.Fatal("player should start muted")
	}
	p.SetMuted(false)
	if p.IsMuted() {
		t.Error("IsMuted() = true after SetMuted(false)")
	}
}

func TestMIDIStreamSilence(t *testing.T) {
	tests := []struct {
		name   string
		stream *midiStream
	}{
		{"no sequencer", &midiStream{}},
		{"stopped", &midiStream{stopped: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bytes.Repeat([]byte{0xff}, 16)
			n, err := tt.stream.Read(buf)
			if err != nil || n != len(buf) {
				t.Fatalf("Read = %d, %v", n, err)
			}
			if !bytes.Equal(buf, make([]byte, 16)) {
				t.Errorf("Read should return silence, got %v", buf)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{-2, -1},
		{-0.5, -0.5},
		{0, 0},
		{3, 1},
	}
	for _, tt := range tests {
		if got := clamp(tt.in, -1, 1); got != tt.want {
			t.Errorf("clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDecodeWAVLoop(t *testing.T) {
	once, err := decodeWAV(sampleWAV(4), false)
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	data, err := io.ReadAll(once)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(data) != 16 {
		t.Errorf("decoded %d bytes, want 16", len(data))
	}

	looped, err := decodeWAV(sampleWAV(4), true)
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	buf := make([]byte, 64)
	if _, err := io.ReadFull(looped, buf); err != nil {
		t.Errorf("a looped stream should never end: %v", err)
	}
}

func TestLoadSoundFont(t *testing.T) {
	fsys := fileutil.NewFS(fstest.MapFS{"GeneralUser-GS.sf2": {Data: []byte("RIFF....")}})

	if _, err := LoadSoundFont(fsys, "missing.sf2"); !errors.Is(err, ErrSoundFontNotFound) {
		t.Errorf("error = %v, want ErrSoundFontNotFound", err)
	}
	if _, err := LoadSoundFont(fsys, "generaluser-gs.sf2"); err == nil {
		t.Error("a malformed SoundFont should fail to parse")
	}
}
