package game

import "time"

// Group identifies where a hero instance sits in the party.
type Group int

const (
	GroupTeam Group = iota
	GroupReserve
	GroupHidden
)

func (g Group) String() string {
	switch g {
	case GroupTeam:
		return "team"
	case GroupReserve:
		return "reserve"
	case GroupHidden:
		return "hidden"
	}
	return "unknown group"
}

// Party holds the hero instances split in their three groups.
type Party struct {
	Team    []*Player
	Reserve []*Player
	Hidden  []*Player
}

func (p *Party) group(g Group) *[]*Player {
	switch g {
	case GroupReserve:
		return &p.Reserve
	case GroupHidden:
		return &p.Hidden
	default:
		return &p.Team
	}
}

// Members returns the players of a group.
func (p *Party) Members(g Group) []*Player {
	return *p.group(g)
}

// Add appends a player to a group.
func (p *Party) Add(g Group, pl *Player) {
	list := p.group(g)
	*list = append(*list, pl)
}

// Find looks a player up by instance id in every group.
func (p *Party) Find(instanceID int) (*Player, Group, bool) {
	for _, g := range []Group{GroupTeam, GroupReserve, GroupHidden} {
		for _, pl := range *p.group(g) {
			if pl.InstanceID == instanceID {
				return pl, g, true
			}
		}
	}
	return nil, 0, false
}

// Remove takes a player out of the party.
func (p *Party) Remove(instanceID int) (*Player, bool) {
	for _, g := range []Group{GroupTeam, GroupReserve, GroupHidden} {
		list := p.group(g)
		for i, pl := range *list {
			if pl.InstanceID == instanceID {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return pl, true
			}
		}
	}
	return nil, false
}

// Move transfers a player to another group, appending it at the end.
func (p *Party) Move(instanceID int, to Group) bool {
	pl, ok := p.Remove(instanceID)
	if !ok {
		return false
	}
	p.Add(to, pl)
	return true
}

// Direction is an orientation on the map grid.
type Direction int

const (
	South Direction = iota
	West
	North
	East
)

// Delta returns the grid offset of one step in direction d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case South:
		return 0, 1
	case West:
		return -1, 0
	case North:
		return 0, -1
	case East:
		return 1, 0
	}
	return 0, 0
}

// MapObject is an object placed on the current map.
type MapObject struct {
	ID        int
	Name      string
	MapID     int
	X, Y      int
	Facing    Direction
	Moving    bool
	Invisible bool

	queue    []Direction
	nextStep time.Time
}

// StepDuration is the time an object takes to walk one square.
const StepDuration = 200 * time.Millisecond

// Step moves the object one square in direction d and faces it that way.
func (o *MapObject) Step(d Direction) {
	dx, dy := d.Delta()
	o.X += dx
	o.Y += dy
	o.Facing = d
}

// Enqueue schedules steps to be walked by Advance.
func (o *MapObject) Enqueue(dirs ...Direction) {
	o.queue = append(o.queue, dirs...)
}

// Pending returns the number of steps still to walk.
func (o *MapObject) Pending() int {
	return len(o.queue)
}

// Advance walks every queued step whose time has come. The first step of a
// movement completes StepDuration after the first call that sees it.
func (o *MapObject) Advance(now time.Time) {
	if len(o.queue) == 0 {
		o.Moving = false
		return
	}
	if !o.Moving {
		o.Moving = true
		o.nextStep = now.Add(StepDuration)
	}
	for len(o.queue) > 0 && !now.Before(o.nextStep) {
		o.Step(o.queue[0])
		o.queue = o.queue[1:]
		o.nextStep = o.nextStep.Add(StepDuration)
	}
	if len(o.queue) == 0 {
		o.Moving = false
	}
}
