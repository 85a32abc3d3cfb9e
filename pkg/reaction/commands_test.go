package reaction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/value"
)

func TestShowTextWaitsForAction(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	ctx.State.Variables.Set(1, float64(1234))
	r := build(t, 1,
		[]any{0, int(ShowText), 8, "Alice", 8, `Score \v[1]` + "\nBye"},
		setVar(0, 2, 1),
	)
	in := run(t, ctx, r)
	require.False(t, in.IsFinished())
	assert.Equal(t, ShowText, in.CurrentCommand().Kind)

	var canvas hud.List
	in.DrawHUD(&canvas)
	assert.Equal(t, []string{"Alice", "Score 1,234", "Bye"}, canvas.Texts())

	in.OnKeyPressed(system.KeyCancel)
	in.Update()
	assert.False(t, in.IsFinished())

	in.OnKeyPressed(system.KeyAction)
	in.Update()
	assert.True(t, in.IsFinished())
	assert.Equal(t, float64(1), variable(ctx, 2))
}

func TestDisplayChoice(t *testing.T) {
	tests := []struct {
		name   string
		cancel int
		keys   func(in *Interpreter)
		want   any
	}{
		{
			name: "first choice",
			keys: func(in *Interpreter) { in.OnKeyPressed(system.KeyAction) },
			want: float64(1),
		},
		{
			name: "second choice",
			keys: func(in *Interpreter) {
				in.OnKeyPressedAndRepeat(system.KeyDown)
				in.OnKeyPressed(system.KeyAction)
			},
			want: float64(2),
		},
		{
			name: "wraps upwards",
			keys: func(in *Interpreter) {
				in.OnKeyPressedAndRepeat(system.KeyUp)
				in.OnKeyPressed(system.KeyAction)
			},
			want: float64(2),
		},
		{
			name:   "cancel picks the cancel choice",
			cancel: 2,
			keys:   func(in *Interpreter) { in.OnKeyPressed(system.KeyCancel) },
			want:   float64(2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(newFakeDB())
			r := build(t, 1,
				[]any{0, int(DisplayChoice), tt.cancel},
				[]any{1, int(Choice), 8, "Yes"},
				setVar(2, 1, 1),
				[]any{1, int(Choice), 8, "No"},
				setVar(2, 1, 2),
				setVar(0, 2, 9),
			)
			in := run(t, ctx, r)
			require.False(t, in.IsFinished())

			var canvas hud.List
			in.DrawHUD(&canvas)
			assert.Equal(t, []string{"Yes", "No"}, canvas.Texts())

			tt.keys(in)
			in.Update()
			assert.True(t, in.IsFinished())
			assert.Equal(t, tt.want, variable(ctx, 1))
			assert.Equal(t, float64(9), variable(ctx, 2))
		})
	}
}

func TestDisplayChoiceCannotBeCancelledByDefault(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	r := build(t, 1,
		[]any{0, int(DisplayChoice), 0},
		[]any{1, int(Choice), 8, "Yes"},
	)
	in := run(t, ctx, r)
	in.OnKeyPressed(system.KeyCancel)
	in.Update()
	assert.False(t, in.IsFinished())
}

func TestInputNumber(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	in := run(t, ctx, build(t, 1, []any{0, int(InputNumber), 5, 2}))
	require.False(t, in.IsFinished())

	in.OnKeyPressedAndRepeat(system.KeyUp)
	in.OnKeyPressedAndRepeat(system.KeyRight)
	in.OnKeyPressedAndRepeat(system.KeyDown)
	in.Update()
	assert.Nil(t, variable(ctx, 5))

	in.OnKeyPressed(system.KeyAction)
	in.Update()
	assert.True(t, in.IsFinished())
	assert.Equal(t, float64(19), variable(ctx, 5))
}

func TestCallCommonReactionParameters(t *testing.T) {
	db := newFakeDB()
	common := build(t, 10, []any{0, int(ChangeVariables), 0, 1, 1, int(OperationEqual), int(value.Parameter), 1})
	common.Parameters = map[int]Parameter{1: {ID: 1, Name: "amount", Default: value.NumberOf(7)}}
	db.reactions[10] = common

	tests := []struct {
		name string
		call []any
		want any
	}{
		{"default keyword uses the declared default", []any{0, int(CallACommonReaction), 10, 1, int(value.Default), nil}, float64(7)},
		{"literal", []any{0, int(CallACommonReaction), 10, 1, 3, 3}, float64(3)},
		{"caller variable", []any{0, int(CallACommonReaction), 10, 1, int(value.Variable), 9}, float64(5)},
		{"missing parameter is empty", []any{0, int(CallACommonReaction), 10}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(db)
			ctx.State.Variables.Set(9, float64(5))
			in := run(t, ctx, build(t, 1, tt.call))
			assert.True(t, in.IsFinished())
			assert.NoError(t, in.Err())
			assert.Equal(t, tt.want, variable(ctx, 1))
		})
	}
}

func TestResolveParametersDoesNotShareMaps(t *testing.T) {
	r := build(t, 10, []any{0, int(Comment), ""})
	r.Parameters = map[int]Parameter{1: {ID: 1, Default: value.NumberOf(7)}}
	given := map[int]value.Value{1: value.DefaultValue}

	a := ResolveParameters(r, given)
	b := ResolveParameters(r, given)
	a[1] = value.NumberOf(1)
	assert.Equal(t, value.NumberOf(7), b[1])
	assert.True(t, given[1].IsDefault())
}

func TestCallCommonReactionInvocationsAreIndependent(t *testing.T) {
	db := newFakeDB()
	db.reactions[20] = build(t, 20,
		[]any{0, int(ShowText), 8, "", 8, "hi"},
		addVar(0, 1, 1),
	)
	ctx, _ := newTestContext(db)
	caller := build(t, 1, []any{0, int(CallACommonReaction), 20})

	in1 := run(t, ctx, caller)
	in2 := run(t, ctx, caller)
	require.False(t, in1.IsFinished())
	require.False(t, in2.IsFinished())
	assert.NotSame(t, in1.CurrentState(), in2.CurrentState())

	in1.OnKeyPressed(system.KeyAction)
	in1.Update()
	in2.Update()
	assert.True(t, in1.IsFinished())
	assert.False(t, in2.IsFinished())
	assert.Equal(t, float64(1), variable(ctx, 1))

	in2.OnKeyPressed(system.KeyAction)
	in2.Update()
	assert.True(t, in2.IsFinished())
	assert.Equal(t, float64(2), variable(ctx, 1))
}

func TestCallCommonReactionTwiceInSequence(t *testing.T) {
	db := newFakeDB()
	db.reactions[20] = build(t, 20, []any{0, int(ShowText), 8, "", 8, "hi"})
	ctx, _ := newTestContext(db)
	in := run(t, ctx, build(t, 1,
		[]any{0, int(CallACommonReaction), 20},
		[]any{0, int(CallACommonReaction), 20},
	))

	in.OnKeyPressed(system.KeyAction)
	in.Update()
	assert.False(t, in.IsFinished(), "the second call starts with a fresh state")
	assert.Equal(t, 1, in.Index())

	in.OnKeyPressed(system.KeyAction)
	in.Update()
	assert.True(t, in.IsFinished())
}

func TestCallCommonReactionBlocksHero(t *testing.T) {
	db := newFakeDB()
	common := build(t, 20, []any{0, int(ShowText), 8, "", 8, "hi"})
	common.BlockingHero = true
	db.reactions[20] = common
	ctx, _ := newTestContext(db)

	in := run(t, ctx, build(t, 1, []any{0, int(CallACommonReaction), 20}))
	assert.True(t, ctx.BlockingHero())

	in.OnKeyPressed(system.KeyAction)
	in.Update()
	assert.True(t, in.IsFinished())
	assert.False(t, ctx.BlockingHero())
}

func TestCallUnknownReactionIsNotFatal(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	in := run(t, ctx, build(t, 1, []any{0, int(CallACommonReaction), 99}, setVar(0, 1, 1)))
	assert.True(t, in.IsFinished())
	assert.NoError(t, in.Err())
	assert.Equal(t, float64(1), variable(ctx, 1))
}

func TestRecursiveCallOverflowsTheStack(t *testing.T) {
	db := newFakeDB()
	db.reactions[1] = build(t, 1, []any{0, int(CallACommonReaction), 1})
	ctx, _ := newTestContext(db)

	in := run(t, ctx, build(t, 2, []any{0, int(CallACommonReaction), 1}, setVar(0, 1, 1)))
	require.Error(t, in.Err())
	var rerr *RuntimeError
	require.True(t, errors.As(in.Err(), &rerr))
	assert.Equal(t, ErrorStackOverflow, rerr.Type)
	assert.True(t, in.IsFinished())
	assert.Nil(t, variable(ctx, 1))
}

type fakeBattle struct {
	req      BattleRequest
	finished bool
	outcome  Outcome
}

func (b *fakeBattle) StartBattle(req BattleRequest) (BattleHandle, error) {
	b.req = req
	return b, nil
}

func (b *fakeBattle) Finished() bool   { return b.finished }
func (b *fakeBattle) Outcome() Outcome { return b.outcome }

func TestStartBattleBranches(t *testing.T) {
	full := [][]any{
		{0, int(StartBattle), 3, 5, 1, 1},
		{1, int(IfWin)},
		setVar(2, 1, 1),
		{1, int(IfLose)},
		setVar(2, 1, 2),
		setVar(0, 3, 3),
	}
	winOnly := [][]any{
		{0, int(StartBattle), 3, 5, 1, 1},
		{1, int(IfWin)},
		setVar(2, 1, 1),
		setVar(0, 3, 3),
	}
	tests := []struct {
		name     string
		lists    [][]any
		outcome  Outcome
		want     any
		gameOver bool
	}{
		{"win", full, OutcomeWin, float64(1), false},
		{"lose", full, OutcomeLose, float64(2), false},
		{"escape", full, OutcomeEscape, nil, false},
		{"lose without branch", winOnly, OutcomeLose, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			battle := &fakeBattle{}
			ctx, _ := newTestContext(newFakeDB(), WithBattles(battle))
			in := run(t, ctx, build(t, 1, tt.lists...))
			require.False(t, in.IsFinished())
			assert.Equal(t, BattleRequest{TroopID: 5, CanEscape: true, GameOverOnLose: true}, battle.req)

			in.Update()
			assert.False(t, in.IsFinished())

			battle.finished, battle.outcome = true, tt.outcome
			in.Update()
			assert.True(t, in.IsFinished())
			assert.Equal(t, tt.want, variable(ctx, 1))
			assert.Equal(t, float64(3), variable(ctx, 3))
			assert.Equal(t, tt.gameOver, ctx.IsGameOver())
		})
	}
}

func TestStartBattleWithoutStarter(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	in := run(t, ctx, build(t, 1,
		[]any{0, int(StartBattle), 3, 5},
		[]any{1, int(IfWin)},
		setVar(2, 1, 1),
		setVar(0, 3, 3),
	))
	assert.True(t, in.IsFinished())
	assert.NoError(t, in.Err())
	assert.Nil(t, variable(ctx, 1))
	assert.Equal(t, float64(3), variable(ctx, 3))
}

type fakeControl struct {
	outcome Outcome
}

func (c *fakeControl) EndBattle(o Outcome) { c.outcome = o }

func TestEndBattle(t *testing.T) {
	tests := []struct {
		raw  int
		want Outcome
	}{
		{1, OutcomeWin},
		{2, OutcomeLose},
		{3, OutcomeEscape},
		{0, OutcomeWin},
	}
	for _, tt := range tests {
		ctrl := &fakeControl{}
		ctx, _ := newTestContext(newFakeDB())
		run(t, ctx.WithBattle(ctrl), build(t, 1, []any{0, int(EndBattle), tt.raw}))
		assert.Equal(t, tt.want, ctrl.outcome)
	}
}

func TestChangeVariables(t *testing.T) {
	tests := []struct {
		name  string
		start any
		cmd   []any
		want  any
	}{
		{"assign", nil, []any{0, int(ChangeVariables), 0, 1, 0, int(OperationEqual), 3, 4}, float64(4)},
		{"plus", float64(2), []any{0, int(ChangeVariables), 0, 1, 0, int(OperationPlus), 3, 4}, float64(6)},
		{"minus", float64(2), []any{0, int(ChangeVariables), 0, 1, 0, int(OperationMinus), 3, 4}, float64(-2)},
		{"times", float64(2), []any{0, int(ChangeVariables), 0, 1, 0, int(OperationTimes), 3, 4}, float64(8)},
		{"divide", float64(8), []any{0, int(ChangeVariables), 0, 1, 0, int(OperationDivide), 3, 4}, float64(2)},
		{"modulo", float64(9), []any{0, int(ChangeVariables), 0, 1, 0, int(OperationModulo), 3, 4}, float64(1)},
		{"divide by zero keeps the value", float64(8), []any{0, int(ChangeVariables), 0, 1, 0, int(OperationDivide), 3, 0}, float64(8)},
		{"text concatenation", "ab", []any{0, int(ChangeVariables), 0, 1, 0, int(OperationPlus), 8, "c"}, "abc"},
		{"formula", float64(3), []any{0, int(ChangeVariables), 0, 1, 0, int(OperationEqual), 9, "variable(1) * 2"}, float64(6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(newFakeDB())
			if tt.start != nil {
				ctx.State.Variables.Set(1, tt.start)
			}
			in := run(t, ctx, build(t, 1, tt.cmd))
			assert.NoError(t, in.Err())
			assert.Equal(t, tt.want, variable(ctx, 1))
		})
	}
}

func TestChangeVariablesRange(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	run(t, ctx, build(t, 1, []any{0, int(ChangeVariables), 1, 2, 4, int(OperationEqual), 3, 1}))
	assert.Nil(t, variable(ctx, 1))
	assert.Equal(t, float64(1), variable(ctx, 2))
	assert.Equal(t, float64(1), variable(ctx, 3))
	assert.Equal(t, float64(1), variable(ctx, 4))
	assert.Nil(t, variable(ctx, 5))
}

func TestChangeVariablesRangeIndex(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	in := run(t, ctx, build(t, 1, []any{0, int(ChangeVariables), 1, 2, 4, int(OperationEqual), 9, "i * 10"}))
	assert.NoError(t, in.Err())
	assert.Equal(t, float64(20), variable(ctx, 2))
	assert.Equal(t, float64(30), variable(ctx, 3))
	assert.Equal(t, float64(40), variable(ctx, 4))
}

func TestModifyInventoryAndCurrency(t *testing.T) {
	db := newFakeDB()
	db.items[3] = &system.CommonItem{ID: 3, Name: "Sword", Kind: system.ItemKindWeapon}
	ctx, _ := newTestContext(db)
	in := run(t, ctx, build(t, 1,
		[]any{0, int(ModifyInventory), int(system.ItemKindWeapon), 3, 3, 0, 3, 2},
		[]any{0, int(ModifyInventory), int(system.ItemKindWeapon), 3, 4, 0, 3, 2},
		[]any{0, int(ModifyCurrency), 3, 1, 0, 3, 100},
		[]any{0, int(ModifyCurrency), 3, 1, 1, 3, 30},
		[]any{0, int(ModifyCurrency), 3, 2, 1, 3, 30},
	))
	assert.NoError(t, in.Err())
	assert.Equal(t, 2, ctx.State.Inventory.Count(system.ItemKindWeapon, 3))
	assert.Equal(t, 0, ctx.State.Inventory.Count(system.ItemKindWeapon, 4))
	assert.Equal(t, 70, ctx.State.Currency(1))
	assert.Equal(t, 0, ctx.State.Currency(2))

	run(t, ctx, build(t, 2, []any{0, int(ModifyInventory), int(system.ItemKindWeapon), 3, 3, 1, 3, 5}))
	assert.Equal(t, 0, ctx.State.Inventory.Count(system.ItemKindWeapon, 3))
}

func testDBWithHero(t *testing.T) *fakeDB {
	t.Helper()
	db := newFakeDB()
	db.bs = &system.BattleSystem{
		Statistics: []*system.Statistic{
			{ID: 1, Name: "Level", Abbreviation: "lv", IsFix: true},
			{ID: 2, Name: "HP", Abbreviation: "hp"},
		},
		LevelStatisticID: 1,
	}
	require.NoError(t, db.bs.Init())
	db.heroes[1] = &system.Character{
		ID:         1,
		Name:       "Lucas",
		Level:      1,
		Statistics: map[int]value.Value{2: value.FormulaOf("u.lv * 10")},
	}
	db.skills[4] = &system.Skill{ID: 4, Name: "Fire"}
	db.items[3] = &system.CommonItem{ID: 3, Name: "Sword", Kind: system.ItemKindWeapon}
	return db
}

func TestModifyTeamAndCharacterCommands(t *testing.T) {
	db := testDBWithHero(t)
	ctx, _ := newTestContext(db)
	ctx.State.Inventory.Add(system.ItemKindWeapon, 3, 1)
	in := run(t, ctx, build(t, 1,
		[]any{0, int(ModifyTeam), 0, 3, 2, int(game.GroupTeam), 3, 1, 7},
		[]any{0, int(ChangeAStatistic), 4, 7, 3, 2, int(OperationMinus), 3, 5, 0},
		[]any{0, int(ChangeAStatistic), 4, 7, 3, 2, int(OperationPlus), 3, 50, 0},
		[]any{0, int(ChangeASkill), 4, 7, 3, 4, 0},
		[]any{0, int(ChangeName), 4, 7, 8, "Hero"},
		[]any{0, int(ChangeEquipment), 4, 7, 1, int(system.ItemKindWeapon), 3, 3, 1},
	))
	require.NoError(t, in.Err())
	require.True(t, in.IsFinished())

	id, ok := variable(ctx, 7).(float64)
	require.True(t, ok)
	pl, group, found := ctx.State.Party.Find(int(id))
	require.True(t, found)
	assert.Equal(t, game.GroupTeam, group)
	assert.Equal(t, float64(2), pl.StatOrZero("lv"))
	assert.Equal(t, float64(20), pl.StatOrZero("hp"), "capped at the maximum")
	assert.True(t, pl.HasSkill(4))
	assert.Equal(t, "Hero", pl.Name)
	assert.Equal(t, &game.Item{Kind: system.ItemKindWeapon, ID: 3}, pl.Equipment[1])
	assert.Equal(t, 0, ctx.State.Inventory.Count(system.ItemKindWeapon, 3))

	run(t, ctx, build(t, 2,
		[]any{0, int(ChangeEquipment), 4, 7, 1, int(system.ItemKindWeapon), 3, 0, 1},
		[]any{0, int(ModifyTeam), 1, 4, 7, 0, int(game.GroupReserve)},
	))
	assert.Nil(t, pl.Equipment[1])
	assert.Equal(t, 1, ctx.State.Inventory.Count(system.ItemKindWeapon, 3))
	_, group, _ = ctx.State.Party.Find(int(id))
	assert.Equal(t, game.GroupReserve, group)

	run(t, ctx, build(t, 3, []any{0, int(ModifyTeam), 1, 4, 7, 1, 0}))
	_, _, found = ctx.State.Party.Find(int(id))
	assert.False(t, found)
}

func TestMoveAndTeleportObject(t *testing.T) {
	ctx, clk := newTestContext(newFakeDB())
	in := run(t, ctx, build(t, 1,
		[]any{0, int(TeleportObject), 3, game.HeroObjectID, 3, 4, 3, 5, int(game.North)},
		[]any{0, int(MoveObject), 3, game.HeroObjectID, 1, int(game.East), int(game.East)},
		setVar(0, 1, 1),
	))
	hero, _ := ctx.State.Object(game.HeroObjectID)
	assert.Equal(t, game.North, hero.Facing)
	assert.False(t, in.IsFinished())
	assert.Equal(t, 2, hero.Pending())

	for i := 0; i < 3; i++ {
		hero.Advance(clk.Now())
		clk.Advance(game.StepDuration)
		in.Update()
	}
	hero.Advance(clk.Now())
	in.Update()
	assert.True(t, in.IsFinished())
	assert.Equal(t, 6, hero.X)
	assert.Equal(t, 5, hero.Y)
	assert.Equal(t, game.East, hero.Facing)
	assert.Equal(t, float64(1), variable(ctx, 1))
}

type recordingAudio struct {
	played  []string
	volumes []float64
	stopped int
}

func (a *recordingAudio) PlayMusic(s *system.Song, v float64) error {
	a.played = append(a.played, "music:"+s.Name)
	a.volumes = append(a.volumes, v)
	return nil
}

func (a *recordingAudio) StopMusic() { a.stopped++ }

func (a *recordingAudio) PlaySound(s *system.Song, v float64) error {
	a.played = append(a.played, "sound:"+s.Name)
	a.volumes = append(a.volumes, v)
	return nil
}

func TestAudioCommands(t *testing.T) {
	db := newFakeDB()
	db.songs[1] = &system.Song{ID: 1, Name: "theme", Kind: system.SongMusic}
	db.songs[2] = &system.Song{ID: 2, Name: "door", Kind: system.SongSound}
	a := &recordingAudio{}
	ctx, _ := newTestContext(db, WithAudio(a))
	in := run(t, ctx, build(t, 1,
		[]any{0, int(PlayMusic), 3, 1},
		[]any{0, int(PlaySound), 3, 2, 3, 50},
		[]any{0, int(PlaySound), 3, 99},
		[]any{0, int(StopMusic)},
	))
	assert.NoError(t, in.Err())
	assert.Equal(t, []string{"music:theme", "sound:door"}, a.played)
	assert.Equal(t, []float64{1, 0.5}, a.volumes)
	assert.Equal(t, 1, a.stopped)
}
