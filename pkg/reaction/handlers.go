package reaction

// Handler tables, one per capability. A kind missing from a table gets the
// default behavior: no state, advance by one, ignore keys, draw nothing.
// The tables are filled in init because handlers reach back into the
// interpreter, which reads them.
var (
	decoders                    map[Kind]decodeFunc
	initializers                map[Kind]initFunc
	updaters                    map[Kind]updateFunc
	keyPressedHandlers          map[Kind]keyFunc
	keyReleasedHandlers         map[Kind]keyFunc
	keyPressedRepeatHandlers    map[Kind]repeatFunc
	keyPressedAndRepeatHandlers map[Kind]repeatFunc
	hudDrawers                  map[Kind]drawFunc
)

func init() {
	decoders = map[Kind]decodeFunc{
		ShowText:            decodeShowText,
		ChangeVariables:     decodeChangeVariables,
		EndGame:             decodeNone,
		While:               decodeNone,
		WhileBreak:          decodeNone,
		InputNumber:         decodeInputNumber,
		If:                  decodeIf,
		Else:                decodeNone,
		ModifyInventory:     decodeModifyInventory,
		ModifyTeam:          decodeModifyTeam,
		StartBattle:         decodeStartBattle,
		IfWin:               decodeNone,
		IfLose:              decodeNone,
		TeleportObject:      decodeTeleportObject,
		MoveObject:          decodeMoveObject,
		Wait:                decodeWait,
		PlayMusic:           decodePlaySong,
		StopMusic:           decodeNone,
		PlaySound:           decodePlaySong,
		DisplayChoice:       decodeDisplayChoice,
		Choice:              decodeChoice,
		StopReaction:        decodeNone,
		CallACommonReaction: decodeCallACommonReaction,
		Label:               decodeLabel,
		JumpToLabel:         decodeLabel,
		Comment:             decodeComment,
		ChangeAStatistic:    decodeChangeAStatistic,
		ChangeASkill:        decodeChangeASkill,
		ChangeName:          decodeChangeName,
		ChangeEquipment:     decodeChangeEquipment,
		ModifyCurrency:      decodeModifyCurrency,
		EndBattle:           decodeEndBattle,
	}

	initializers = map[Kind]initFunc{
		ShowText:            initShowText,
		While:               initWhile,
		InputNumber:         initInputNumber,
		If:                  initBranch,
		Else:                initBranch,
		StartBattle:         initStartBattle,
		IfWin:               initBranch,
		IfLose:              initBranch,
		MoveObject:          initMoveObject,
		Wait:                initWait,
		DisplayChoice:       initDisplayChoice,
		Choice:              initBranch,
		CallACommonReaction: initCallACommonReaction,
	}

	updaters = map[Kind]updateFunc{
		ShowText:            updateShowText,
		ChangeVariables:     updateChangeVariables,
		EndGame:             updateEndGame,
		While:               updateWhile,
		WhileBreak:          updateWhileBreak,
		InputNumber:         updateInputNumber,
		If:                  updateIf,
		Else:                updateBranch,
		ModifyInventory:     updateModifyInventory,
		ModifyTeam:          updateModifyTeam,
		StartBattle:         updateStartBattle,
		IfWin:               updateBranch,
		IfLose:              updateBranch,
		TeleportObject:      updateTeleportObject,
		MoveObject:          updateMoveObject,
		Wait:                updateWait,
		PlayMusic:           updatePlayMusic,
		StopMusic:           updateStopMusic,
		PlaySound:           updatePlaySound,
		DisplayChoice:       updateDisplayChoice,
		Choice:              updateBranch,
		StopReaction:        updateStopReaction,
		CallACommonReaction: updateCallACommonReaction,
		JumpToLabel:         updateJumpToLabel,
		ChangeAStatistic:    updateChangeAStatistic,
		ChangeASkill:        updateChangeASkill,
		ChangeName:          updateChangeName,
		ChangeEquipment:     updateChangeEquipment,
		ModifyCurrency:      updateModifyCurrency,
		EndBattle:           updateEndBattle,
	}

	keyPressedHandlers = map[Kind]keyFunc{
		ShowText:            keyPressedShowText,
		InputNumber:         keyPressedInputNumber,
		DisplayChoice:       keyPressedDisplayChoice,
		CallACommonReaction: keyPressedCallACommonReaction,
	}

	keyReleasedHandlers = map[Kind]keyFunc{
		CallACommonReaction: keyReleasedCallACommonReaction,
	}

	keyPressedRepeatHandlers = map[Kind]repeatFunc{
		CallACommonReaction: keyPressedRepeatCallACommonReaction,
	}

	keyPressedAndRepeatHandlers = map[Kind]repeatFunc{
		InputNumber:         keyPressedAndRepeatInputNumber,
		DisplayChoice:       keyPressedAndRepeatDisplayChoice,
		CallACommonReaction: keyPressedAndRepeatCallACommonReaction,
	}

	hudDrawers = map[Kind]drawFunc{
		ShowText:            drawShowText,
		InputNumber:         drawInputNumber,
		DisplayChoice:       drawDisplayChoice,
		CallACommonReaction: drawCallACommonReaction,
	}
}
