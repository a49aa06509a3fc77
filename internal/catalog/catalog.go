// Package catalog holds the fixed pools of legal map and agent names.
package catalog

import "slices"

var maps = []string{
	"abyss", "ascent", "bind", "breeze", "corrode", "fracture",
	"haven", "icebox", "lotus", "pearl", "split", "sunset",
}

var agents = []string{
	"astra", "breach", "brimstone", "chamber", "clove", "cypher",
	"deadlock", "fade", "gekko", "harbor", "iso", "jett", "kayo",
	"killjoy", "neon", "omen", "phoenix", "raze", "reyna", "sage",
	"skye", "sova", "tejo", "viper", "vyse", "waylay", "yoru",
}

// Maps returns the map pool in catalog order. The slice is a copy.
func Maps() []string { return slices.Clone(maps) }

// Agents returns the agent pool in catalog order. The slice is a copy.
func Agents() []string { return slices.Clone(agents) }

func IsMap(name string) bool   { return slices.Contains(maps, name) }
func IsAgent(name string) bool { return slices.Contains(agents, name) }
