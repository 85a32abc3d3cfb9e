package reaction

import "fmt"

// Kind identifies a command. The numbering follows the authoring tool.
type Kind int

const (
	ShowText            Kind = 1
	ChangeVariables     Kind = 2
	EndGame             Kind = 3
	While               Kind = 4
	WhileBreak          Kind = 5
	InputNumber         Kind = 6
	If                  Kind = 7
	Else                Kind = 8
	ModifyInventory     Kind = 11
	ModifyTeam          Kind = 12
	StartBattle         Kind = 13
	IfWin               Kind = 14
	IfLose              Kind = 15
	TeleportObject      Kind = 18
	MoveObject          Kind = 19
	Wait                Kind = 20
	PlayMusic           Kind = 22
	StopMusic           Kind = 23
	PlaySound           Kind = 26
	DisplayChoice       Kind = 29
	Choice              Kind = 30
	StopReaction        Kind = 39
	CallACommonReaction Kind = 42
	Label               Kind = 43
	JumpToLabel         Kind = 44
	Comment             Kind = 45
	ChangeAStatistic    Kind = 46
	ChangeASkill        Kind = 47
	ChangeName          Kind = 48
	ChangeEquipment     Kind = 49
	ModifyCurrency      Kind = 50
	EndBattle           Kind = 63
)

var kindNames = map[Kind]string{
	ShowText:            "ShowText",
	ChangeVariables:     "ChangeVariables",
	EndGame:             "EndGame",
	While:               "While",
	WhileBreak:          "WhileBreak",
	InputNumber:         "InputNumber",
	If:                  "If",
	Else:                "Else",
	ModifyInventory:     "ModifyInventory",
	ModifyTeam:          "ModifyTeam",
	StartBattle:         "StartBattle",
	IfWin:               "IfWin",
	IfLose:              "IfLose",
	TeleportObject:      "TeleportObject",
	MoveObject:          "MoveObject",
	Wait:                "Wait",
	PlayMusic:           "PlayMusic",
	StopMusic:           "StopMusic",
	PlaySound:           "PlaySound",
	DisplayChoice:       "DisplayChoice",
	Choice:              "Choice",
	StopReaction:        "StopReaction",
	CallACommonReaction: "CallACommonReaction",
	Label:               "Label",
	JumpToLabel:         "JumpToLabel",
	Comment:             "Comment",
	ChangeAStatistic:    "ChangeAStatistic",
	ChangeASkill:        "ChangeASkill",
	ChangeName:          "ChangeName",
	ChangeEquipment:     "ChangeEquipment",
	ModifyCurrency:      "ModifyCurrency",
	EndBattle:           "EndBattle",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// blockKinds are the commands whose children form a block.
var blockKinds = map[Kind]bool{
	While:         true,
	If:            true,
	Else:          true,
	DisplayChoice: true,
	Choice:        true,
	StartBattle:   true,
	IfWin:         true,
	IfLose:        true,
}

// IsBlock reports whether commands of kind k may have children.
func (k Kind) IsBlock() bool {
	return blockKinds[k]
}
