package fuzzy

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var synonymsYAML []byte

type synonymFile struct {
	Groups [][]string `yaml:"groups"`
}

// synonymGroups maps a normalized identifier to the index of its group.
var synonymGroups = loadSynonymGroups()

func loadSynonymGroups() map[string]int {
	var file synonymFile
	if err := yaml.Unmarshal(synonymsYAML, &file); err != nil {
		// The dictionary is embedded at build time; a parse failure is a
		// programming error, not a runtime condition.
		panic("fuzzy: invalid embedded synonyms.yaml: " + err.Error())
	}

	groups := make(map[string]int)
	for i, group := range file.Groups {
		for _, word := range group {
			groups[normalize(word)] = i
		}
	}
	return groups
}

// synonymous reports whether two normalized identifiers belong to the same
// synonym group.
func synonymous(a, b string) bool {
	ga, ok := synonymGroups[a]
	if !ok {
		return false
	}
	gb, ok := synonymGroups[b]
	return ok && ga == gb
}
