package reaction

import (
	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/value"
)

type playSongParams struct {
	songID value.Value
	volume value.Value
}

// decodePlaySong reads [song id, volume]. Volume is a percentage, 100 by
// default.
func decodePlaySong(r *value.Reader) (any, error) {
	return &playSongParams{songID: r.Value(), volume: r.Value().Or(value.NumberOf(100))}, nil
}

func (p *playSongParams) resolve(c *Cursor) (*system.Song, float64, bool) {
	ctx := c.Context()
	if ctx.Audio == nil || ctx.DB == nil {
		c.Report(unavailable("audio"))
		return nil, 0, false
	}
	env := c.Env()
	song, err := ctx.DB.Song(p.songID.Int(env))
	if err != nil {
		c.Report(unknownID(err))
		return nil, 0, false
	}
	return song, p.volume.Number(env) / 100, true
}

func updatePlayMusic(c *Cursor, cmd *Command, _ State) Signal {
	if song, vol, ok := cmd.Params.(*playSongParams).resolve(c); ok {
		if err := c.Context().Audio.PlayMusic(song, vol); err != nil {
			c.Report(NewRuntimeError(ErrorUnavailable, "play music %q: %v", song.Name, err))
		}
	}
	return AdvanceOne
}

func updatePlaySound(c *Cursor, cmd *Command, _ State) Signal {
	if song, vol, ok := cmd.Params.(*playSongParams).resolve(c); ok {
		if err := c.Context().Audio.PlaySound(song, vol); err != nil {
			c.Report(NewRuntimeError(ErrorUnavailable, "play sound %q: %v", song.Name, err))
		}
	}
	return AdvanceOne
}

func updateStopMusic(c *Cursor, _ *Command, _ State) Signal {
	if a := c.Context().Audio; a != nil {
		a.StopMusic()
	}
	return AdvanceOne
}
