package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/zurustar/paperrpg/pkg/fileutil"
)

var (
	// ErrSongNotFound is returned when the file of a song cannot be found.
	ErrSongNotFound = errors.New("song file not found")

	// ErrUnsupportedFormat is returned for files that are neither MIDI nor WAV.
	ErrUnsupportedFormat = errors.New("unsupported song format")

	// ErrInvalidFormat is returned when a song file cannot be decoded.
	ErrInvalidFormat = errors.New("invalid song file")

	// ErrNoSoundFont is returned when a MIDI song is played without a SoundFont.
	ErrNoSoundFont = errors.New("SoundFont file is required for MIDI playback")

	// ErrSoundFontNotFound is returned when the SoundFont file cannot be found.
	ErrSoundFontNotFound = errors.New("SoundFont file not found")
)

// midiStream renders a MIDI sequence as 16-bit little-endian stereo.
type midiStream struct {
	sequencer *meltysynth.MidiFileSequencer
	stopped   bool
	mu        sync.Mutex
}

// Read renders len(p)/4 frames. A stopped stream reads silence.
func (s *midiStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.sequencer == nil {
		clear(p)
		return len(p), nil
	}

	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}
	left := make([]float32, samples)
	right := make([]float32, samples)
	s.sequencer.Render(left, right)

	for i := range samples {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return samples * 4, nil
}

// Stop silences the stream.
func (s *midiStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func decodeMIDI(data []byte, sf *meltysynth.SoundFont, loop bool) (*midiStream, error) {
	if sf == nil {
		return nil, ErrNoSoundFont
	}
	midi, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	synth, err := meltysynth.NewSynthesizer(sf, meltysynth.NewSynthesizerSettings(SampleRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	seq := meltysynth.NewMidiFileSequencer(synth)
	seq.Play(midi, loop)
	return &midiStream{sequencer: seq}, nil
}

// LoadSoundFont reads and parses a SoundFont (.sf2) file from fsys.
func LoadSoundFont(fsys *fileutil.FileSystem, name string) (*meltysynth.SoundFont, error) {
	actual, err := fsys.Find(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSoundFontNotFound, name)
	}
	data, err := fsys.ReadFile(actual)
	if err != nil {
		return nil, fmt.Errorf("failed to read SoundFont file: %w", err)
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}
	return sf, nil
}
