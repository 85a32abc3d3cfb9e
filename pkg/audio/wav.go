package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// decodeWAV decodes a WAV file, resampled to SampleRate. Looped streams
// restart at the beginning when they reach the end.
func decodeWAV(data []byte, loop bool) (io.Reader, error) {
	stream, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if loop {
		return audio.NewInfiniteLoop(stream, stream.Length()), nil
	}
	return stream, nil
}
