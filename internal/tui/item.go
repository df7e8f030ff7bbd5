package tui

import (
	"fmt"

	"github.com/brizzai/auto-xhr/internal/catalog"
)

// operationItem wraps a catalog operation for display in the list.
// Implements list.Item
type operationItem struct {
	op             *catalog.Operation
	newDescription string
	removed        bool
}

func (i operationItem) Title() string {
	return fmt.Sprintf("%s %s", i.op.Method, i.op.Path)
}

func (i operationItem) Description() string {
	if i.removed {
		return removedStyle.Render("[Removed]")
	}
	if i.newDescription != "" {
		return i.newDescription
	}
	return i.op.Description
}

func (i operationItem) FilterValue() string {
	return i.op.ID + " " + i.op.Path + " " + i.op.Description
}

func (i operationItem) withDescription(desc string) operationItem {
	i.newDescription = desc
	return i
}

func (i operationItem) toggleRemoved() operationItem {
	i.removed = !i.removed
	return i
}
