package reaction

import (
	"errors"
	"fmt"
	"math"

	"github.com/zurustar/paperrpg/pkg/formula"
	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/value"
)

// Operation is an arithmetic assignment applied by data commands.
type Operation int

const (
	OperationEqual Operation = iota
	OperationPlus
	OperationMinus
	OperationTimes
	OperationDivide
	OperationModulo
)

var errDivisionByZero = errors.New("division by zero")

// Apply returns the result of the operation on old and operand.
func (op Operation) Apply(old, operand float64) (float64, error) {
	switch op {
	case OperationEqual:
		return operand, nil
	case OperationPlus:
		return old + operand, nil
	case OperationMinus:
		return old - operand, nil
	case OperationTimes:
		return old * operand, nil
	case OperationDivide:
		if operand == 0 {
			return old, errDivisionByZero
		}
		return old / operand, nil
	case OperationModulo:
		if operand == 0 {
			return old, errDivisionByZero
		}
		return math.Mod(old, operand), nil
	}
	return old, fmt.Errorf("unknown operation %d", op)
}

func unknownID(err error) error {
	return NewRuntimeError(ErrorUnknownID, "%v", err)
}

func unavailable(what string) error {
	return NewRuntimeError(ErrorUnavailable, "%s is not available", what)
}

// state returns the live game state, reporting its absence.
func state(c *Cursor) (*game.State, bool) {
	s := c.Context().State
	if s == nil {
		c.Report(unavailable("game state"))
		return nil, false
	}
	return s, true
}

func battleSystem(c *Cursor) (*system.BattleSystem, bool) {
	db := c.Context().DB
	if db == nil || db.BattleSystem() == nil {
		c.Report(unavailable("battle system"))
		return nil, false
	}
	return db.BattleSystem(), true
}

func findPlayer(c *Cursor, instanceID int) (*game.Player, bool) {
	s, ok := state(c)
	if !ok {
		return nil, false
	}
	p, _, ok := s.Party.Find(instanceID)
	if !ok {
		c.Report(NewRuntimeError(ErrorUnknownID, "unknown hero instance id %d", instanceID))
		return nil, false
	}
	return p, true
}

// ChangeVariables

type changeVariablesParams struct {
	from, to  int
	operation Operation
	operand   value.Value
}

// decodeChangeVariables reads [selection, from, to, operation, value].
// A single selection only uses from.
func decodeChangeVariables(r *value.Reader) (any, error) {
	single := r.Int() == 0
	p := &changeVariablesParams{from: r.Int(), to: r.Int()}
	if single {
		p.to = p.from
	}
	if p.to < p.from {
		return nil, fmt.Errorf("empty variable range %d..%d", p.from, p.to)
	}
	p.operation = Operation(r.Int())
	p.operand = r.Value()
	return p, nil
}

func updateChangeVariables(c *Cursor, cmd *Command, _ State) Signal {
	p := cmd.Params.(*changeVariablesParams)
	s, ok := state(c)
	if !ok {
		return AdvanceOne
	}
	var env value.Env
	if c.Env() != nil {
		env = *c.Env()
	}
	for id := p.from; id <= p.to; id++ {
		// i is the id of the variable being changed
		env.Index = &id
		operand := p.operand.Evaluate(&env)
		if p.operation == OperationEqual {
			s.Variables.Set(id, operand)
			continue
		}
		old, _ := s.Variables.Get(id)
		if str, isText := old.(string); isText && p.operation == OperationPlus {
			s.Variables.Set(id, str+formula.ToString(operand))
			continue
		}
		got, err := p.operation.Apply(formula.ToFloat64(old), formula.ToFloat64(operand))
		if err != nil {
			c.Report(NewRuntimeError(ErrorInvalidOperation, "variable %d: %v", id, err))
			continue
		}
		s.Variables.Set(id, got)
	}
	return AdvanceOne
}

// ModifyInventory

type modifyInventoryParams struct {
	kind   system.ItemKind
	itemID value.Value
	remove bool
	amount value.Value
}

// decodeModifyInventory reads [item kind, item id, operation, amount] where
// operation is 0 to add and 1 to remove.
func decodeModifyInventory(r *value.Reader) (any, error) {
	return &modifyInventoryParams{
		kind:   system.ItemKind(r.Int()),
		itemID: r.Value(),
		remove: r.Int() == 1,
		amount: r.Value(),
	}, nil
}

func updateModifyInventory(c *Cursor, cmd *Command, _ State) Signal {
	p := cmd.Params.(*modifyInventoryParams)
	s, ok := state(c)
	if !ok {
		return AdvanceOne
	}
	env := c.Env()
	id := p.itemID.Int(env)
	if db := c.Context().DB; db != nil {
		if _, err := db.Item(p.kind, id); err != nil {
			c.Report(unknownID(err))
			return AdvanceOne
		}
	}
	n := p.amount.Int(env)
	if p.remove {
		n = -n
	}
	s.Inventory.Add(p.kind, id, n)
	return AdvanceOne
}

// ModifyCurrency

type modifyCurrencyParams struct {
	currencyID value.Value
	remove     bool
	amount     value.Value
}

// decodeModifyCurrency reads [currency id, operation, amount].
func decodeModifyCurrency(r *value.Reader) (any, error) {
	return &modifyCurrencyParams{currencyID: r.Value(), remove: r.Int() == 1, amount: r.Value()}, nil
}

func updateModifyCurrency(c *Cursor, cmd *Command, _ State) Signal {
	p := cmd.Params.(*modifyCurrencyParams)
	s, ok := state(c)
	if !ok {
		return AdvanceOne
	}
	env := c.Env()
	n := p.amount.Int(env)
	if p.remove {
		n = -n
	}
	s.AddCurrency(p.currencyID.Int(env), n)
	return AdvanceOne
}

// ModifyTeam

type modifyTeamParams struct {
	add bool

	// add
	level         value.Value
	heroID        value.Value
	storeVariable int

	// edit
	instanceID value.Value
	remove     bool

	group game.Group
}

// decodeModifyTeam reads one of
//
//	[0, level, group, hero id, variable id]       add a new hero instance
//	[1, instance id, operation, group]            move (0) or remove (1)
//
// A variable id of 0 does not store the new instance id.
func decodeModifyTeam(r *value.Reader) (any, error) {
	switch mode := r.Int(); mode {
	case 0:
		return &modifyTeamParams{
			add:           true,
			level:         r.Value(),
			group:         game.Group(r.Int()),
			heroID:        r.Value(),
			storeVariable: r.Int(),
		}, nil
	case 1:
		p := &modifyTeamParams{instanceID: r.Value(), remove: r.Int() == 1}
		p.group = game.Group(r.Int())
		return p, nil
	default:
		return nil, fmt.Errorf("unknown team modification %d", mode)
	}
}

func updateModifyTeam(c *Cursor, cmd *Command, _ State) Signal {
	p := cmd.Params.(*modifyTeamParams)
	s, ok := state(c)
	if !ok {
		return AdvanceOne
	}
	env := c.Env()
	if !p.add {
		id := p.instanceID.Int(env)
		var found bool
		if p.remove {
			_, found = s.Party.Remove(id)
		} else {
			found = s.Party.Move(id, p.group)
		}
		if !found {
			c.Report(NewRuntimeError(ErrorUnknownID, "unknown hero instance id %d", id))
		}
		return AdvanceOne
	}

	bs, ok := battleSystem(c)
	if !ok {
		return AdvanceOne
	}
	def, err := c.Context().DB.Hero(p.heroID.Int(env))
	if err != nil {
		c.Report(unknownID(err))
		return AdvanceOne
	}
	pl := game.NewPlayer(system.Hero, def, s.NextInstanceID(), p.level.Int(env), bs, c.Log())
	s.Party.Add(p.group, pl)
	if p.storeVariable > 0 {
		s.Variables.Set(p.storeVariable, float64(pl.InstanceID))
	}
	c.Log().Debug("Hero joined the party", "hero", def.ID, "instance", pl.InstanceID, "group", p.group)
	return AdvanceOne
}

// ChangeAStatistic

type changeStatisticParams struct {
	instanceID  value.Value
	statisticID value.Value
	operation   Operation
	operand     value.Value
	canAboveMax bool
}

// decodeChangeAStatistic reads [instance id, statistic id, operation, value,
// can exceed max].
func decodeChangeAStatistic(r *value.Reader) (any, error) {
	return &changeStatisticParams{
		instanceID:  r.Value(),
		statisticID: r.Value(),
		operation:   Operation(r.Int()),
		operand:     r.Value(),
		canAboveMax: r.Bool(),
	}, nil
}

func updateChangeAStatistic(c *Cursor, cmd *Command, _ State) Signal {
	p := cmd.Params.(*changeStatisticParams)
	env := c.Env()
	pl, ok := findPlayer(c, p.instanceID.Int(env))
	if !ok {
		return AdvanceOne
	}
	bs, ok := battleSystem(c)
	if !ok {
		return AdvanceOne
	}
	stat, err := bs.Statistic(p.statisticID.Int(env))
	if err != nil {
		c.Report(unknownID(err))
		return AdvanceOne
	}
	got, err := p.operation.Apply(pl.StatOrZero(stat.Abbreviation), p.operand.Number(env.With(pl, nil, 0)))
	if err != nil {
		c.Report(NewRuntimeError(ErrorInvalidOperation, "statistic %s: %v", stat.Abbreviation, err))
		return AdvanceOne
	}
	if !stat.IsFix && !p.canAboveMax {
		if limit, ok := pl.Stat(stat.MaxAbbreviation()); ok && got > limit {
			got = limit
		}
	}
	pl.SetStat(stat.Abbreviation, got)
	return AdvanceOne
}

// ChangeASkill

type changeSkillParams struct {
	instanceID value.Value
	skillID    value.Value
	forget     bool
}

// decodeChangeASkill reads [instance id, skill id, operation] where operation
// is 0 to learn and 1 to forget.
func decodeChangeASkill(r *value.Reader) (any, error) {
	return &changeSkillParams{instanceID: r.Value(), skillID: r.Value(), forget: r.Int() == 1}, nil
}

func updateChangeASkill(c *Cursor, cmd *Command, _ State) Signal {
	p := cmd.Params.(*changeSkillParams)
	env := c.Env()
	pl, ok := findPlayer(c, p.instanceID.Int(env))
	if !ok {
		return AdvanceOne
	}
	id := p.skillID.Int(env)
	if p.forget {
		pl.ForgetSkill(id)
		return AdvanceOne
	}
	if db := c.Context().DB; db != nil {
		if _, err := db.Skill(id); err != nil {
			c.Report(unknownID(err))
			return AdvanceOne
		}
	}
	pl.LearnSkill(id)
	return AdvanceOne
}

// ChangeName

type changeNameParams struct {
	instanceID value.Value
	name       value.Value
}

func decodeChangeName(r *value.Reader) (any, error) {
	return &changeNameParams{instanceID: r.Value(), name: r.Value()}, nil
}

func updateChangeName(c *Cursor, cmd *Command, _ State) Signal {
	p := cmd.Params.(*changeNameParams)
	env := c.Env()
	if pl, ok := findPlayer(c, p.instanceID.Int(env)); ok {
		pl.Name = p.name.Text(env)
	}
	return AdvanceOne
}

// ChangeEquipment

type changeEquipmentParams struct {
	instanceID    value.Value
	slot          int
	kind          system.ItemKind
	itemID        value.Value
	fromInventory bool
}

// decodeChangeEquipment reads [instance id, slot, item kind, item id, from
// inventory]. An item id of 0 empties the slot.
func decodeChangeEquipment(r *value.Reader) (any, error) {
	return &changeEquipmentParams{
		instanceID:    r.Value(),
		slot:          r.Int(),
		kind:          system.ItemKind(r.Int()),
		itemID:        r.Value(),
		fromInventory: r.Bool(),
	}, nil
}

func updateChangeEquipment(c *Cursor, cmd *Command, _ State) Signal {
	p := cmd.Params.(*changeEquipmentParams)
	env := c.Env()
	pl, ok := findPlayer(c, p.instanceID.Int(env))
	if !ok {
		return AdvanceOne
	}
	s := c.Context().State
	id := p.itemID.Int(env)
	if id != 0 {
		if db := c.Context().DB; db != nil {
			if _, err := db.Item(p.kind, id); err != nil {
				c.Report(unknownID(err))
				return AdvanceOne
			}
		}
		if p.fromInventory && s.Inventory.Count(p.kind, id) == 0 {
			c.Report(NewRuntimeError(ErrorInvalidOperation, "%s %d is not in the inventory", p.kind, id))
			return AdvanceOne
		}
	}
	if old := pl.Equipment[p.slot]; old != nil && p.fromInventory {
		s.Inventory.Add(old.Kind, old.ID, 1)
	}
	if id == 0 {
		delete(pl.Equipment, p.slot)
		return AdvanceOne
	}
	if p.fromInventory {
		s.Inventory.Add(p.kind, id, -1)
	}
	pl.Equipment[p.slot] = &game.Item{Kind: p.kind, ID: id}
	return AdvanceOne
}
