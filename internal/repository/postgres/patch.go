package postgres

import (
	"fmt"
	"strings"
)

// patchBuilder assembles the SET clause of a partial UPDATE. Placeholder $1
// is reserved for the row id.
type patchBuilder struct {
	sets []string
	args []any
}

func newPatchBuilder(id any) *patchBuilder {
	return &patchBuilder{args: []any{id}}
}

func (p *patchBuilder) set(column string, value any) {
	p.args = append(p.args, value)
	p.sets = append(p.sets, fmt.Sprintf("%s = $%d", column, len(p.args)))
}

func (p *patchBuilder) query(table string) string {
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", table, strings.Join(p.sets, ", "))
}
