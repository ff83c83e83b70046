package scoped

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gather/pkg/domain-errors"
)

func relationFixtures() *Schema {
	program := &Schema{
		Table:      "programs",
		Alias:      "program",
		PrimaryKey: Column{Attribute: "id", Name: "id"},
	}
	workflow := &Schema{
		Table:      "workflows",
		Alias:      "workflow",
		PrimaryKey: Column{Attribute: "id", Name: "id"},
		Relations: map[string]Relation{
			"program": {Target: program, LocalColumn: "program_id"},
		},
	}
	program.Relations = map[string]Relation{
		"workflows": {Target: workflow, ForeignColumn: "program_id"},
	}
	return &Schema{
		Table:      "submissions",
		Alias:      "s",
		PrimaryKey: Column{Attribute: "id", Name: "id"},
		Relations: map[string]Relation{
			"workflow": {Target: workflow, LocalColumn: "workflow_id"},
		},
	}
}

func TestResolveRelations(t *testing.T) {
	schema := relationFixtures()

	t.Run("empty input yields no joins", func(t *testing.T) {
		steps, err := ResolveRelations("s", schema, nil)
		require.NoError(t, err)
		assert.Empty(t, steps)
	})

	t.Run("dotted path expands parent-first with cumulative aliases", func(t *testing.T) {
		steps, err := ResolveRelations("s", schema, []string{"workflow.program"})
		require.NoError(t, err)
		require.Len(t, steps, 2)

		assert.Equal(t, "s", steps[0].ParentAlias)
		assert.Equal(t, "s_workflow", steps[0].Alias)
		assert.Equal(t, "workflows", steps[0].Relation.Target.Table)

		assert.Equal(t, "s_workflow", steps[1].ParentAlias)
		assert.Equal(t, "s_workflow_program", steps[1].Alias)
		assert.Equal(t, "programs", steps[1].Relation.Target.Table)
	})

	t.Run("overlapping paths share the common prefix join", func(t *testing.T) {
		steps, err := ResolveRelations("s", schema, []string{"workflow", "workflow.program"})
		require.NoError(t, err)
		assert.Len(t, steps, 2)
	})

	t.Run("repeated paths are a no-op", func(t *testing.T) {
		steps, err := ResolveRelations("s", schema, []string{"workflow", "workflow"})
		require.NoError(t, err)
		assert.Len(t, steps, 1)
	})

	t.Run("empty path segment is rejected", func(t *testing.T) {
		_, err := ResolveRelations("s", schema, []string{""})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("unknown relation names the failing segment", func(t *testing.T) {
		_, err := ResolveRelations("s", schema, []string{"workflow.collector"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.ErrorContains(t, err, "collector")
	})
}
