package rules

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/brensch/greedysnake/game"
)

// FoodSettings matches the Battlesnake server knobs:
//   - MinimumFood: ensure at least this many food items exist after each turn
//   - FoodSpawnChance: percentage chance (0-100) to spawn one extra food each turn
type FoodSettings struct {
	MinimumFood     int `yaml:"minimum_food"`
	FoodSpawnChance int `yaml:"spawn_chance"`
}

// DefaultFoodSettings are the standard engine defaults.
var DefaultFoodSettings = FoodSettings{MinimumFood: 1, FoodSpawnChance: 15}

// ApplyFoodSettings spawns food on an existing state, e.g. to seed the
// minimum at game start.
func ApplyFoodSettings(state *game.GameState, rng *rand.Rand, settings FoodSettings) {
	applyFoodRules(state, rng, settings, 0x464F4F445F494E49) // "FOOD_INI"
}

func applyFoodRules(state *game.GameState, rng *rand.Rand, settings FoodSettings, salt uint64) {
	if state == nil || state.Width <= 0 || state.Height <= 0 {
		return
	}
	settings.MinimumFood = max(settings.MinimumFood, 0)
	settings.FoodSpawnChance = min(max(settings.FoodSpawnChance, 0), 100)

	if rng == nil {
		seed := int64(stateHash(state, salt))
		if seed == 0 {
			seed = 1
		}
		rng = rand.New(rand.NewSource(seed))
	}

	toSpawn := max(settings.MinimumFood-len(state.Food), 0)
	if settings.FoodSpawnChance > 0 && rng.Intn(100) < settings.FoodSpawnChance {
		toSpawn++
	}
	if toSpawn == 0 {
		return
	}

	available := freeCells(state)
	for ; toSpawn > 0 && len(available) > 0; toSpawn-- {
		i := rng.Intn(len(available))
		state.Food = append(state.Food, available[i])
		available[i] = available[len(available)-1]
		available = available[:len(available)-1]
	}
}

// freeCells lists cells holding neither a living snake segment nor food, in
// row-major order.
func freeCells(state *game.GameState) []game.Point {
	occupied := make(map[game.Point]struct{}, len(state.Food)+len(state.Snakes)*4)
	for _, s := range state.Snakes {
		if !s.Alive() {
			continue
		}
		for _, p := range s.Body {
			occupied[p] = struct{}{}
		}
	}
	for _, f := range state.Food {
		occupied[f] = struct{}{}
	}

	out := make([]game.Point, 0, max(int(state.Width*state.Height)-len(occupied), 0))
	for y := int32(0); y < state.Height; y++ {
		for x := int32(0); x < state.Width; x++ {
			p := game.Point{X: x, Y: y}
			if _, ok := occupied[p]; !ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// stateHash mixes board size, turn, food count and snake heads so tests and
// replays that pass no rng still get reproducible food.
func stateHash(state *game.GameState, salt uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	put(uint64(uint32(state.Width)) | uint64(uint32(state.Height))<<32)
	put(uint64(uint32(state.Turn)))
	put(salt)
	put(uint64(len(state.Food)))
	for _, s := range state.Snakes {
		if !s.Alive() {
			continue
		}
		_, _ = h.Write([]byte(s.Id))
		head := s.Body[0]
		put(uint64(uint32(head.X))<<32 | uint64(uint32(head.Y)))
	}
	return h.Sum64()
}
