// Package audio plays the songs of a project.
//
// Music is looped on a single channel; sounds are fire-and-forget and mix
// with each other. MIDI files are synthesized with go-meltysynth and WAV
// files are decoded by Ebitengine. A muted Player resolves and decodes every
// song but never opens the audio device, which is what headless runs use.
package audio

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/zurustar/paperrpg/pkg/fileutil"
	"github.com/zurustar/paperrpg/pkg/logger"
	"github.com/zurustar/paperrpg/pkg/system"
)

// SampleRate is the output sample rate of every stream.
const SampleRate = 44100

// track is the music currently playing.
type track struct {
	song   *system.Song
	volume float64
	player *audio.Player
	stream *midiStream
}

func (t *track) close() {
	if t.stream != nil {
		t.stream.Stop()
	}
	if t.player != nil {
		t.player.Close()
	}
}

// Player implements reaction.Audio on top of an Ebitengine audio context.
type Player struct {
	fsys      *fileutil.FileSystem
	soundFont *meltysynth.SoundFont
	ctx       *audio.Context
	muted     bool
	log       *slog.Logger

	music  *track
	sounds []*audio.Player

	mu sync.Mutex
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Player) {
		p.log = log
	}
}

// WithSoundFont sets the SoundFont used for MIDI songs. Without one, MIDI
// songs fail with ErrNoSoundFont.
func WithSoundFont(sf *meltysynth.SoundFont) Option {
	return func(p *Player) {
		p.soundFont = sf
	}
}

// WithMuted starts the player muted.
func WithMuted(muted bool) Option {
	return func(p *Player) {
		p.muted = muted
	}
}

// WithContext shares an existing audio context.
func WithContext(ctx *audio.Context) Option {
	return func(p *Player) {
		p.ctx = ctx
	}
}

// New creates a player reading song files from fsys.
func New(fsys *fileutil.FileSystem, opts ...Option) *Player {
	p := &Player{fsys: fsys, log: logger.GetLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// context returns the audio context, creating it on first use.
// Ebitengine allows one context per process.
func (p *Player) context() *audio.Context {
	if p.ctx == nil {
		if c := audio.CurrentContext(); c != nil {
			p.ctx = c
		} else {
			p.ctx = audio.NewContext(SampleRate)
		}
	}
	return p.ctx
}

// PlayMusic replaces the current music. Playing the song that is already
// playing only changes its volume.
func (p *Player) PlayMusic(song *system.Song, volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.music != nil && p.music.song.Path == song.Path {
		p.music.volume = volume
		if p.music.player != nil && !p.muted {
			p.music.player.SetVolume(volume)
		}
		return nil
	}

	src, err := p.open(song, true)
	if err != nil {
		return err
	}
	p.stopMusic()

	t := &track{song: song, volume: volume}
	if s, ok := src.(*midiStream); ok {
		t.stream = s
	}
	if !p.muted {
		player, err := p.context().NewPlayer(src)
		if err != nil {
			return fmt.Errorf("failed to create audio player: %w", err)
		}
		player.SetVolume(volume)
		player.Play()
		t.player = player
	}
	p.music = t
	p.log.Debug("Music started", "song", song.ID, "name", song.Name, "volume", volume, "muted", p.muted)
	return nil
}

// StopMusic stops the current music, if any.
func (p *Player) StopMusic() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopMusic()
}

func (p *Player) stopMusic() {
	if p.music == nil {
		return
	}
	p.music.close()
	p.log.Debug("Music stopped", "song", p.music.song.ID)
	p.music = nil
}

// PlaySound plays song once over whatever is already playing.
func (p *Player) PlaySound(song *system.Song, volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cleanupFinishedSounds()
	src, err := p.open(song, false)
	if err != nil {
		return err
	}
	if p.muted {
		return nil
	}
	player, err := p.context().NewPlayer(src)
	if err != nil {
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	player.SetVolume(volume)
	player.Play()
	p.sounds = append(p.sounds, player)
	return nil
}

// Music returns the song playing on the music channel, or nil.
func (p *Player) Music() *system.Song {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.music == nil {
		return nil
	}
	return p.music.song
}

// SetMuted mutes or unmutes every channel. Songs started while muted stay
// silent.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.muted = muted
	if p.music != nil && p.music.player != nil {
		if muted {
			p.music.player.SetVolume(0)
		} else {
			p.music.player.SetVolume(p.music.volume)
		}
	}
	if muted {
		for _, s := range p.sounds {
			s.SetVolume(0)
		}
	}
}

// IsMuted reports whether the player is muted.
func (p *Player) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Update releases the sounds that have finished. Call it once per frame.
func (p *Player) Update() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanupFinishedSounds()
}

// Close stops every channel.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopMusic()
	for _, s := range p.sounds {
		s.Close()
	}
	p.sounds = nil
}

func (p *Player) cleanupFinishedSounds() {
	active := p.sounds[:0]
	for _, s := range p.sounds {
		if s.IsPlaying() {
			active = append(active, s)
		} else {
			s.Close()
		}
	}
	p.sounds = active
}

// open finds, reads and decodes the file of song.
func (p *Player) open(song *system.Song, loop bool) (io.Reader, error) {
	if p.fsys == nil {
		return nil, fmt.Errorf("%w: %s", ErrSongNotFound, song.Path)
	}
	name, err := p.fsys.Find(song.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSongNotFound, song.Path)
	}
	ext := strings.ToLower(path.Ext(name))
	if !isMIDI(ext) && ext != ".wav" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, song.Path)
	}
	if isMIDI(ext) && p.soundFont == nil {
		return nil, ErrNoSoundFont
	}
	data, err := p.fsys.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if isMIDI(ext) {
		return decodeMIDI(data, p.soundFont, loop)
	}
	return decodeWAV(data, loop)
}

func isMIDI(ext string) bool {
	return ext == ".mid" || ext == ".midi"
}
