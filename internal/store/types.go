// Package store defines the element model and the portfolio-backed element
// store the index reads from. The index core only ever reads elements; all
// create/edit/delete traffic belongs to the portfolio layer.
package store

import (
	"context"
	"fmt"
	"strings"
)

// ElementType is the closed enumeration of element kinds in a portfolio.
type ElementType string

const (
	TypePersona  ElementType = "persona"
	TypeSkill    ElementType = "skill"
	TypeTemplate ElementType = "template"
	TypeAgent    ElementType = "agent"
	TypeMemory   ElementType = "memory"
	TypeEnsemble ElementType = "ensemble"
)

// ElementTypes lists all element kinds in stable order.
var ElementTypes = []ElementType{
	TypePersona,
	TypeSkill,
	TypeTemplate,
	TypeAgent,
	TypeMemory,
	TypeEnsemble,
}

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	switch t {
	case TypePersona, TypeSkill, TypeTemplate, TypeAgent, TypeMemory, TypeEnsemble:
		return true
	}
	return false
}

// DirName returns the portfolio directory name for this type.
func (t ElementType) DirName() string {
	if t == TypeMemory {
		return "memories"
	}
	return string(t) + "s"
}

// MakeID builds the composite element id "type:name", unique within a portfolio.
func MakeID(typ ElementType, name string) string {
	return fmt.Sprintf("%s:%s", typ, name)
}

// ParseID splits a composite element id into its type and name.
func ParseID(id string) (ElementType, string, error) {
	typ, name, ok := strings.Cut(id, ":")
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid element id %q: want type:name", id)
	}
	et := ElementType(typ)
	if !et.Valid() {
		return "", "", fmt.Errorf("invalid element id %q: unknown type %q", id, typ)
	}
	return et, name, nil
}

// ElementRef identifies one element in the portfolio.
type ElementRef struct {
	// ID is the composite key "type:name".
	ID string

	// Type is the element kind.
	Type ElementType

	// Name is the element name within its type.
	Name string
}

// ElementStore is the external collaborator supplying elements to the index.
// Implementations must be safe for concurrent use.
type ElementStore interface {
	// ListElements enumerates every element currently in the portfolio.
	ListElements(ctx context.Context) ([]ElementRef, error)

	// ReadContent returns the raw textual content of one element.
	ReadContent(ctx context.Context, id string) (string, error)

	// ReadContents bulk-loads content for the given refs. Unreadable
	// elements are omitted from the result rather than failing the load;
	// the only error is context cancellation.
	ReadContents(ctx context.Context, refs []ElementRef) (map[string]string, error)

	// Subscribe registers a callback invoked whenever the element
	// population changes (create, edit, delete). The index manager uses
	// this to invalidate its snapshot.
	Subscribe(fn func())
}
