package memory

import "pikapi/internal/modules/battle/engine"

const (
	typeNormal   engine.TypeID = 1
	typeFighting engine.TypeID = 2
	typeFlying   engine.TypeID = 3
	typePoison   engine.TypeID = 4
	typeGround   engine.TypeID = 5
	typeRock     engine.TypeID = 6
	typeBug      engine.TypeID = 7
	typeGhost    engine.TypeID = 8
	typeFire     engine.TypeID = 10
	typeWater    engine.TypeID = 11
	typeGrass    engine.TypeID = 12
	typeElectric engine.TypeID = 13
	typePsychic  engine.TypeID = 14
)

func physical(id int, name string, t engine.TypeID, power, accuracy int) engine.MoveDefinition {
	return engine.MoveDefinition{ID: id, Name: name, Type: t, Power: power, Accuracy: accuracy, Category: engine.CategoryPhysical}
}

func special(id int, name string, t engine.TypeID, power, accuracy int) engine.MoveDefinition {
	return engine.MoveDefinition{ID: id, Name: name, Type: t, Power: power, Accuracy: accuracy, Category: engine.CategorySpecial}
}

func stats(hp, atk, def, spAtk, spDef, speed int) engine.StatBlock {
	return engine.StatBlock{HP: hp, Attack: atk, Defense: def, SpAttack: spAtk, SpDefense: spDef, Speed: speed}
}

// NewSeededCatalog 开发模式使用的小型图鉴，覆盖低费用兜底池和默认招式
func NewSeededCatalog() *Catalog {
	c := NewCatalog()

	quick := physical(98, "quick-attack", typeNormal, 40, 100)
	quick.Priority = 1

	for _, m := range []engine.MoveDefinition{
		physical(10, "scratch", typeNormal, 40, 100),
		special(16, "gust", typeFlying, 40, 100),
		physical(22, "vine-whip", typeGrass, 45, 100),
		physical(28, "sand-attack", typeGround, 0, 100),
		physical(33, "tackle", typeNormal, 40, 100),
		physical(34, "body-slam", typeNormal, 85, 100),
		physical(39, "tail-whip", typeNormal, 0, 100),
		physical(40, "poison-sting", typePoison, 15, 100),
		physical(43, "leer", typeNormal, 0, 100),
		physical(45, "growl", typeNormal, 0, 100),
		special(52, "ember", typeFire, 40, 100),
		special(55, "water-gun", typeWater, 40, 100),
		physical(81, "string-shot", typeBug, 0, 95),
		special(84, "thunder-shock", typeElectric, 40, 100),
		physical(86, "thunder-wave", typeElectric, 0, 90),
		physical(88, "rock-throw", typeRock, 50, 90),
		special(93, "confusion", typePsychic, 50, 100),
		quick,
		physical(122, "lick", typeGhost, 30, 100),
		physical(141, "leech-life", typeBug, 80, 100),
		special(145, "bubble", typeWater, 40, 100),
		physical(150, "splash", typeNormal, 0, 0),
	} {
		c.AddMove(m)
	}

	creatures := []struct {
		info  engine.CreatureInfo
		moves []int
	}{
		{engine.CreatureInfo{ID: 1, Name: "bulbasaur", Cost: 3, Types: []engine.TypeID{typeGrass, typePoison}, Base: stats(45, 49, 49, 65, 65, 45)}, []int{33, 45, 22, 40}},
		{engine.CreatureInfo{ID: 4, Name: "charmander", Cost: 3, Types: []engine.TypeID{typeFire}, Base: stats(39, 52, 43, 60, 50, 65)}, []int{10, 45, 52, 43}},
		{engine.CreatureInfo{ID: 7, Name: "squirtle", Cost: 3, Types: []engine.TypeID{typeWater}, Base: stats(44, 48, 65, 50, 64, 43)}, []int{33, 39, 55, 145}},
		{engine.CreatureInfo{ID: 10, Name: "caterpie", Cost: 1, Types: []engine.TypeID{typeBug}, Base: stats(45, 30, 35, 20, 20, 45)}, []int{33, 81}},
		{engine.CreatureInfo{ID: 13, Name: "weedle", Cost: 1, Types: []engine.TypeID{typeBug, typePoison}, Base: stats(40, 35, 30, 20, 20, 50)}, []int{40, 81}},
		{engine.CreatureInfo{ID: 16, Name: "pidgey", Cost: 1, Types: []engine.TypeID{typeNormal, typeFlying}, Base: stats(40, 45, 40, 35, 35, 56)}, []int{33, 16, 98, 28}},
		{engine.CreatureInfo{ID: 19, Name: "rattata", Cost: 1, Types: []engine.TypeID{typeNormal}, Base: stats(30, 56, 35, 25, 35, 72)}, []int{33, 39, 98}},
		{engine.CreatureInfo{ID: 25, Name: "pikachu", Cost: 4, Types: []engine.TypeID{typeElectric}, Base: stats(35, 55, 40, 50, 50, 90)}, []int{84, 98, 45, 86}},
		{engine.CreatureInfo{ID: 41, Name: "zubat", Cost: 1, Types: []engine.TypeID{typePoison, typeFlying}, Base: stats(40, 45, 35, 30, 40, 55)}, []int{141, 16}},
		{engine.CreatureInfo{ID: 63, Name: "abra", Cost: 3, Types: []engine.TypeID{typePsychic}, Base: stats(25, 20, 15, 105, 55, 90)}, []int{93}},
		{engine.CreatureInfo{ID: 66, Name: "machop", Cost: 3, Types: []engine.TypeID{typeFighting}, Base: stats(70, 80, 50, 35, 35, 35)}, []int{43, 10}},
		{engine.CreatureInfo{ID: 74, Name: "geodude", Cost: 2, Types: []engine.TypeID{typeRock, typeGround}, Base: stats(40, 80, 100, 30, 30, 20)}, []int{33, 88}},
		{engine.CreatureInfo{ID: 92, Name: "gastly", Cost: 3, Types: []engine.TypeID{typeGhost, typePoison}, Base: stats(30, 35, 30, 100, 35, 80)}, []int{122}},
		{engine.CreatureInfo{ID: 129, Name: "magikarp", Cost: 1, Types: []engine.TypeID{typeWater}, Base: stats(20, 10, 55, 15, 20, 80)}, []int{150, 33}},
		{engine.CreatureInfo{ID: 133, Name: "eevee", Cost: 3, Types: []engine.TypeID{typeNormal}, Base: stats(55, 55, 50, 45, 65, 55)}, []int{33, 39, 98, 28}},
		{engine.CreatureInfo{ID: 143, Name: "snorlax", Cost: 8, Types: []engine.TypeID{typeNormal}, Base: stats(160, 110, 65, 65, 110, 30)}, []int{33, 34}},
	}
	for _, cr := range creatures {
		c.AddCreature(cr.info, cr.moves...)
	}

	for _, e := range []struct {
		att, def engine.TypeID
		mult     float64
	}{
		{typeNormal, typeRock, 0.5}, {typeNormal, typeGhost, 0},
		{typeFighting, typeNormal, 2}, {typeFighting, typeRock, 2}, {typeFighting, typeFlying, 0.5},
		{typeFighting, typePoison, 0.5}, {typeFighting, typeBug, 0.5}, {typeFighting, typePsychic, 0.5}, {typeFighting, typeGhost, 0},
		{typeFlying, typeGrass, 2}, {typeFlying, typeBug, 2}, {typeFlying, typeFighting, 2}, {typeFlying, typeRock, 0.5}, {typeFlying, typeElectric, 0.5},
		{typePoison, typeGrass, 2}, {typePoison, typePoison, 0.5}, {typePoison, typeGround, 0.5}, {typePoison, typeRock, 0.5}, {typePoison, typeGhost, 0.5},
		{typeGround, typeElectric, 2}, {typeGround, typeFire, 2}, {typeGround, typeRock, 2}, {typeGround, typePoison, 2},
		{typeGround, typeFlying, 0}, {typeGround, typeGrass, 0.5}, {typeGround, typeBug, 0.5},
		{typeRock, typeFire, 2}, {typeRock, typeFlying, 2}, {typeRock, typeBug, 2}, {typeRock, typeGround, 0.5}, {typeRock, typeFighting, 0.5},
		{typeBug, typeGrass, 2}, {typeBug, typePsychic, 2}, {typeBug, typeFire, 0.5}, {typeBug, typeFlying, 0.5},
		{typeBug, typePoison, 0.5}, {typeBug, typeFighting, 0.5}, {typeBug, typeGhost, 0.5},
		{typeGhost, typeGhost, 2}, {typeGhost, typePsychic, 2}, {typeGhost, typeNormal, 0},
		{typeFire, typeGrass, 2}, {typeFire, typeBug, 2}, {typeFire, typeFire, 0.5}, {typeFire, typeWater, 0.5}, {typeFire, typeRock, 0.5},
		{typeWater, typeFire, 2}, {typeWater, typeGround, 2}, {typeWater, typeRock, 2}, {typeWater, typeWater, 0.5}, {typeWater, typeGrass, 0.5},
		{typeGrass, typeWater, 2}, {typeGrass, typeGround, 2}, {typeGrass, typeRock, 2}, {typeGrass, typeFire, 0.5}, {typeGrass, typeGrass, 0.5},
		{typeGrass, typePoison, 0.5}, {typeGrass, typeFlying, 0.5}, {typeGrass, typeBug, 0.5},
		{typeElectric, typeWater, 2}, {typeElectric, typeFlying, 2}, {typeElectric, typeGround, 0}, {typeElectric, typeGrass, 0.5}, {typeElectric, typeElectric, 0.5},
		{typePsychic, typePoison, 2}, {typePsychic, typeFighting, 2}, {typePsychic, typePsychic, 0.5},
	} {
		c.SetEffectiveness(e.att, e.def, e.mult)
	}

	return c
}
