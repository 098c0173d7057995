package catalog

import (
	"sort"

	"github.com/yudis/h2database/internal/index"
	"github.com/yudis/h2database/internal/record"
)

// TableMeta is the persistable description of a table. Constraint entries
// are canonical DDL text without the implied index DDL, so replaying a dump
// recreates indexes through the constraint path instead of duplicating them.
type TableMeta struct {
	Name        string          `json:"name"`
	Temporary   bool            `json:"temporary"`
	RowCount    int             `json:"row_count"`
	Columns     []record.Column `json:"columns"`
	Indexes     []index.Spec    `json:"indexes"`
	Constraints []string        `json:"constraints"`
}

// Meta snapshots one table.
func (t *Table) Meta() TableMeta {
	m := TableMeta{
		Name:      t.name,
		Temporary: t.temporary,
		RowCount:  t.store.Count(),
		Columns:   t.schema.Clone().Cols,
	}
	for _, ix := range t.indexes {
		m.Indexes = append(m.Indexes, ix.Spec())
	}
	for _, c := range t.constraints.All() {
		m.Constraints = append(m.Constraints, c.CreateSQLWithoutIndexes())
	}
	return m
}

// Meta snapshots the whole catalog, sorted by table name for stable dumps.
func (c *Catalog) Meta() []TableMeta {
	out := make([]TableMeta, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t.Meta())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
