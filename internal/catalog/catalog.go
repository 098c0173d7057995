// Package catalog owns schema metadata: tables by name and id, their
// indexes and constraint sets, and the schema-wide constraint name registry.
// Table lifetime is governed here; everything else holds table ids and
// resolves them through the catalog.
package catalog

import (
	"errors"
	"fmt"

	"github.com/yudis/h2database/internal/constraint"
	"github.com/yudis/h2database/internal/heap"
	"github.com/yudis/h2database/internal/record"
)

var (
	ErrTableNotFound  = errors.New("catalog: table not found")
	ErrTableExists    = errors.New("catalog: table already exists")
	ErrColumnNotFound = errors.New("catalog: column not found")
	ErrColumnExists   = errors.New("catalog: column already exists")
	ErrIndexNotFound  = errors.New("catalog: index not found")
)

type Catalog struct {
	tables map[string]*Table
	byID   map[int]*Table

	// constraint name -> owning table name, schema-wide
	constraintNames map[string]string

	nextID int
}

func New() *Catalog {
	return &Catalog{
		tables:          make(map[string]*Table),
		byID:            make(map[int]*Table),
		constraintNames: make(map[string]string),
	}
}

// NextID allocates a stable object id (tables and constraints share the
// sequence, like any other schema object).
func (c *Catalog) NextID() int {
	c.nextID++
	return c.nextID
}

func (c *Catalog) CreateTable(name string, schema record.Schema, temporary bool) (*Table, error) {
	if _, ok := c.tables[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	t := &Table{
		id:          c.NextID(),
		name:        name,
		temporary:   temporary,
		schema:      schema.Clone(),
		store:       heap.NewTable(name, schema),
		constraints: constraint.NewSet(),
	}
	c.tables[name] = t
	c.byID[t.id] = t
	return t, nil
}

// DropTable removes the table and releases its constraint names. The engine
// checks for referencing constraints from other tables before calling this.
func (c *Catalog) DropTable(name string) error {
	t, ok := c.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	for _, cons := range t.constraints.All() {
		delete(c.constraintNames, cons.Name())
	}
	for _, ix := range t.indexes {
		ix.Drop()
	}
	delete(c.tables, name)
	delete(c.byID, t.id)
	return nil
}

func (c *Catalog) Table(name string) (*Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// TableByID implements constraint.Resolver.
func (c *Catalog) TableByID(id int) (constraint.Table, bool) {
	t, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return t, true
}

// Tables returns all tables in no particular order.
func (c *Catalog) Tables() []*Table {
	out := make([]*Table, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t)
	}
	return out
}

func (c *Catalog) RenameTable(oldName, newName string) error {
	t, ok := c.tables[oldName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, oldName)
	}
	if _, ok := c.tables[newName]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, newName)
	}
	delete(c.tables, oldName)
	t.name = newName
	t.store.Name = newName
	c.tables[newName] = t
	return nil
}

func (c *Catalog) RenameColumn(table, oldName, newName string) error {
	t, ok := c.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return t.renameColumn(oldName, newName)
}

// ReserveConstraintName claims a schema-wide unique constraint name.
func (c *Catalog) ReserveConstraintName(name, table string) error {
	if _, ok := c.constraintNames[name]; ok {
		return fmt.Errorf("%w: %s", constraint.ErrDuplicateConstraintName, name)
	}
	c.constraintNames[name] = table
	return nil
}

func (c *Catalog) ReleaseConstraintName(name string) {
	delete(c.constraintNames, name)
}
