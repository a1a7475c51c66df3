package utils

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator produces unique readable names. randomdata keeps its
// source in a package variable, so every generator shares one lock.
type RandomNameGenerator struct {
	used map[string]struct{}
}

var randomNameLock sync.Mutex

// NewRandomNameGenerator seeds randomdata so names repeat between runs with equal seed.
func NewRandomNameGenerator(seed int64) *RandomNameGenerator {
	randomNameLock.Lock()
	defer randomNameLock.Unlock()
	randomdata.CustomRand(rand.New(rand.NewSource(seed)))
	return &RandomNameGenerator{used: make(map[string]struct{})}
}

func (rng *RandomNameGenerator) RandomName() string {
	randomNameLock.Lock()
	defer randomNameLock.Unlock()
	for {
		name := randomdata.SillyName()
		// avoid duplicate names
		if _, exists := rng.used[name]; !exists {
			rng.used[name] = struct{}{}
			return name
		}
	}
}

// Identifier returns prefix joined with a fresh lower case name, like "attach_fluffyfrog".
func (rng *RandomNameGenerator) Identifier(prefix string) string {
	return prefix + "_" + strings.ToLower(rng.RandomName())
}
