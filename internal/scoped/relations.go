package scoped

import (
	"strings"

	dErrors "gather/pkg/domain-errors"
)

// JoinStep is one join emitted while expanding a relation path. Steps within
// a single path are ordered parent-first because each join alias depends on
// the previous one existing.
type JoinStep struct {
	ParentAlias string
	Attribute   string
	Alias       string
	Relation    Relation
}

// ResolveRelations expands dotted relation paths ("program.workflows") into
// the join steps needed to reach them from baseAlias. The cumulative alias of
// every step is recorded, so overlapping paths ("a.b" and "a.c") share one
// join for their common prefix and repeated paths are a no-op. Order across
// distinct top-level paths is not guaranteed; order within a path is.
func ResolveRelations(baseAlias string, schema *Schema, paths []string) ([]JoinStep, error) {
	var steps []JoinStep
	seen := make(map[string]bool)

	for _, path := range paths {
		if path == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "relation path is empty")
		}

		current := schema
		parentAlias := baseAlias

		for _, segment := range strings.Split(path, ".") {
			rel, ok := current.Relations[segment]
			if !ok {
				return nil, dErrors.Newf(dErrors.CodeInvalidInput,
					"unknown relation %q on %s", segment, current.Table)
			}

			alias := parentAlias + "_" + segment
			if !seen[alias] {
				seen[alias] = true
				steps = append(steps, JoinStep{
					ParentAlias: parentAlias,
					Attribute:   segment,
					Alias:       alias,
					Relation:    rel,
				})
			}

			parentAlias = alias
			current = rel.Target
		}
	}

	return steps, nil
}
