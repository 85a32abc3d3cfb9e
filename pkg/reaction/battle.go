package reaction

import "github.com/zurustar/paperrpg/pkg/value"

type startBattleParams struct {
	troopID        value.Value
	canEscape      bool
	gameOverOnLose bool
}

// decodeStartBattle reads [troop id, can escape, game over on lose].
func decodeStartBattle(r *value.Reader) (any, error) {
	return &startBattleParams{troopID: r.Value(), canEscape: r.Bool(), gameOverOnLose: r.Bool()}, nil
}

type startBattleState struct {
	handle BattleHandle
	done   bool
}

func initStartBattle(*Cursor, *Command) State { return &startBattleState{} }

// updateStartBattle starts the battle, waits for its end then runs the IfWin
// or IfLose branch matching the outcome.
func updateStartBattle(c *Cursor, cmd *Command, st State) Signal {
	s := st.(*startBattleState)
	if s.done {
		return c.JumpTo(c.End())
	}
	p := cmd.Params.(*startBattleParams)
	ctx := c.Context()
	if s.handle == nil {
		if ctx.Battles == nil {
			c.Report(unavailable("battle"))
			return c.JumpTo(c.End())
		}
		h, err := ctx.Battles.StartBattle(BattleRequest{
			TroopID:        p.troopID.Int(c.Env()),
			CanEscape:      p.canEscape,
			GameOverOnLose: p.gameOverOnLose,
		})
		if err != nil {
			c.Report(err)
			return c.JumpTo(c.End())
		}
		s.handle = h
	}
	if !s.handle.Finished() {
		return Continue
	}

	s.done = true
	outcome := s.handle.Outcome()
	c.Log().Debug("Battle finished", "outcome", outcome)
	branch := Kind(-1)
	switch outcome {
	case OutcomeWin:
		branch = IfWin
	case OutcomeLose:
		branch = IfLose
	}
	for _, child := range c.Children() {
		if c.Reaction().Node(child).Command.Kind == branch {
			return c.JumpTo(child)
		}
	}
	if outcome == OutcomeLose && p.gameOverOnLose {
		ctx.GameOver()
	}
	return c.JumpTo(c.End())
}

type endBattleParams struct {
	outcome Outcome
}

// decodeEndBattle reads [outcome]: 1 win, 2 lose, 3 escape. Anything else
// is a win.
func decodeEndBattle(r *value.Reader) (any, error) {
	o := Outcome(r.Int())
	if o < OutcomeWin || o > OutcomeEscape {
		o = OutcomeWin
	}
	return &endBattleParams{outcome: o}, nil
}

func updateEndBattle(c *Cursor, cmd *Command, _ State) Signal {
	b := c.Context().Battle
	if b == nil {
		c.Report(NewRuntimeError(ErrorInvalidOperation, "EndBattle outside of a battle"))
		return AdvanceOne
	}
	b.EndBattle(cmd.Params.(*endBattleParams).outcome)
	return AdvanceOne
}
