package gatehouse

import (
	"fmt"
	"slices"
)

// Action is a verb a principal may perform on a module.
type Action string

// Core actions apply to every module.
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Extra actions apply only to modules that declare them.
const (
	ActionApprove Action = "approve"
	ActionExport  Action = "export"
	ActionImport  Action = "import"
	ActionPrint   Action = "print"
	ActionTrack   Action = "track"
)

var (
	coreActions  = []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete}
	extraActions = []Action{ActionApprove, ActionExport, ActionImport, ActionPrint, ActionTrack}
)

// CoreActions returns the actions every module supports.
func CoreActions() []Action { return slices.Clone(coreActions) }

// ParseAction validates s against the action vocabulary.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Valid reports whether a belongs to the action vocabulary.
func (a Action) Valid() bool {
	return slices.Contains(coreActions, a) || slices.Contains(extraActions, a)
}

// Core reports whether a is supported by every module.
func (a Action) Core() bool { return slices.Contains(coreActions, a) }

// ActionSet is an immutable, sorted, duplicate-free set of actions.
// The zero value is the empty set.
type ActionSet struct {
	items []Action
}

// NewActionSet builds a set from actions, dropping duplicates.
func NewActionSet(actions ...Action) ActionSet {
	items := slices.Clone(actions)
	slices.Sort(items)
	return ActionSet{items: slices.Compact(items)}
}

// ParseActionSet validates every name and builds a set.
func ParseActionSet(names []string) (ActionSet, error) {
	actions := make([]Action, 0, len(names))
	for _, n := range names {
		a, err := ParseAction(n)
		if err != nil {
			return ActionSet{}, err
		}
		actions = append(actions, a)
	}
	return NewActionSet(actions...), nil
}

// lenientActionSet builds a set from stored names, skipping names outside
// the vocabulary so that legacy rows can never grant an unknown action.
func lenientActionSet(names []string) ActionSet {
	actions := make([]Action, 0, len(names))
	for _, n := range names {
		if a := Action(n); a.Valid() {
			actions = append(actions, a)
		}
	}
	return NewActionSet(actions...)
}

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool {
	_, ok := slices.BinarySearch(s.items, a)
	return ok
}

// Len returns the number of actions in the set.
func (s ActionSet) Len() int { return len(s.items) }

// Slice returns a copy of the sorted actions.
func (s ActionSet) Slice() []Action { return slices.Clone(s.items) }

// Strings returns the sorted action names.
func (s ActionSet) Strings() []string {
	out := make([]string, len(s.items))
	for i, a := range s.items {
		out[i] = string(a)
	}
	return out
}

// Union returns a set holding the actions of both s and other.
func (s ActionSet) Union(other ActionSet) ActionSet {
	return NewActionSet(append(slices.Clone(s.items), other.items...)...)
}

// ModuleActions returns the actions a module supports: the core actions
// plus the valid extras it declares.
func ModuleActions(extras []string) ActionSet {
	return NewActionSet(coreActions...).Union(lenientActionSet(extras))
}
