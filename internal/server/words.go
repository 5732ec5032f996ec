package server

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var adjectives = []string{
	"amber", "bright", "calm", "coastal", "crimson", "distant", "gentle", "golden",
	"hazy", "hidden", "lunar", "misty", "northern", "quiet", "rolling", "rustic",
	"silver", "sunny", "swift", "western", "windy", "winter",
}

var terrain = []string{
	"atlas", "bay", "bluff", "canyon", "cape", "cove", "delta", "dune",
	"fjord", "glacier", "harbor", "isle", "lagoon", "mesa", "meadow", "ridge",
	"reef", "river", "summit", "trail", "tundra", "valley",
}

var animals = []string{
	"albatross", "badger", "condor", "falcon", "gull", "heron", "ibex", "lynx",
	"marmot", "osprey", "otter", "pelican", "puffin", "raven", "seal", "swift",
	"tern", "wolf",
}

// suggestRoomKey creates a memorable three-word room key, e.g.
// "misty-lagoon-heron".
func suggestRoomKey() string {
	return fmt.Sprintf("%s-%s-%s",
		adjectives[randomIndex(len(adjectives))],
		terrain[randomIndex(len(terrain))],
		animals[randomIndex(len(animals))],
	)
}

// randomIndex returns a cryptographically secure random index for a slice of
// given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(fmt.Sprintf("failed to generate random index: %v", err))
	}
	return int(n.Int64())
}
