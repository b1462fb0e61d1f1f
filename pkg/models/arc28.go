package models

import "fmt"

// Arc28EventArg is a single argument definition of an ARC-28 event.
type Arc28EventArg struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Desc string `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// Arc28Event is the definition of a single ARC-28 event.
type Arc28Event struct {
	Name string          `json:"name" yaml:"name"`
	Desc string          `json:"desc,omitempty" yaml:"desc,omitempty"`
	Args []Arc28EventArg `json:"args" yaml:"args"`
}

// Signature returns the canonical event signature, e.g. "Swapped(uint64,uint64)".
func (e *Arc28Event) Signature() string {
	sig := e.Name + "("
	for i, arg := range e.Args {
		if i > 0 {
			sig += ","
		}
		sig += arg.Type
	}
	return sig + ")"
}

// Arc28EventGroup names a set of ARC-28 events to watch for, restricted to
// particular apps and/or transactions.
type Arc28EventGroup struct {
	GroupName string       `json:"group_name" yaml:"group_name"`
	Events    []Arc28Event `json:"events" yaml:"events"`

	// ProcessForAppIDs restricts processing to these app ids when non-empty.
	ProcessForAppIDs []uint64 `json:"process_for_app_ids,omitempty" yaml:"process_for_app_ids,omitempty"`

	// ProcessTransaction restricts processing to transactions this predicate
	// accepts. It is only invoked once per transaction, and only if the app id
	// restriction passed.
	ProcessTransaction func(t *SubscribedTransaction) bool `json:"-" yaml:"-"`

	// ContinueOnError keeps scanning remaining logs when one log fails to
	// decode against a matched event definition.
	ContinueOnError bool `json:"continue_on_error,omitempty" yaml:"continue_on_error,omitempty"`
}

// EmittedArc28Event is a decoded ARC-28 event found in a transaction log.
type EmittedArc28Event struct {
	GroupName       string                 `json:"group_name"`
	EventName       string                 `json:"event_name"`
	EventSignature  string                 `json:"event_signature"`
	EventPrefix     string                 `json:"event_prefix"` // First 4 bytes of SHA-512/256(signature), lowercase hex
	EventDefinition Arc28Event             `json:"event_definition"`
	Args            []interface{}          `json:"args"`         // Positional decoded values
	ArgsByName      map[string]interface{} `json:"args_by_name"` // Values keyed by named args only
}

// String implements fmt.Stringer for log lines.
func (e EmittedArc28Event) String() string {
	return fmt.Sprintf("%s/%s", e.GroupName, e.EventSignature)
}
