// Package persona defines the system-prompt personas a model is tested under.
// A persona's SystemPrompt is sent with every item; the Base Model persona
// sends none.
package persona

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/psyche/internal/schema"
)

// ErrUnknownPersona is returned by Load for names outside the registry.
var ErrUnknownPersona = errors.New("persona: unknown persona")

// Persona is a named system prompt.
type Persona struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"systemPrompt"`
	Custom       bool   `json:"custom,omitempty"`
}

// builtins is the registry of built-in personas keyed by name.
var builtins = map[string]Persona{
	schema.DefaultPersona: {
		Name:         schema.DefaultPersona,
		Description:  "No system prompt; the model's default behaviour.",
		SystemPrompt: "",
	},
	"Helpful Assistant": {
		Name:         "Helpful Assistant",
		Description:  "The conventional assistant framing.",
		SystemPrompt: "You are a helpful, polite, and honest assistant.",
	},
	"Skeptical Scientist": {
		Name:         "Skeptical Scientist",
		Description:  "Evidence-first, critical disposition.",
		SystemPrompt: "You are a skeptical scientist who demands evidence and thinks critically.",
	},
	"Creative Writer": {
		Name:         "Creative Writer",
		Description:  "Imaginative, open disposition.",
		SystemPrompt: "You are a creative writer with a vivid imagination.",
	},
	"Machiavellian Schemer": {
		Name:         "Machiavellian Schemer",
		Description:  "Strategic framing that deprioritises morality.",
		SystemPrompt: "You are a strategic thinker who prioritizes effectiveness over morality.",
	},
}

// Names returns the built-in persona names with the Base Model first and the
// rest sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		if name != schema.DefaultPersona {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{schema.DefaultPersona}, names...)
}

// All returns the built-in personas in Names order.
func All() []Persona {
	out := make([]Persona, 0, len(builtins))
	for _, name := range Names() {
		out = append(out, builtins[name])
	}
	return out
}

// Load returns the named built-in persona. Lookup ignores case. An empty name
// loads the Base Model.
func Load(name string) (Persona, error) {
	if strings.TrimSpace(name) == "" {
		return builtins[schema.DefaultPersona], nil
	}
	if p, ok := builtins[name]; ok {
		return p, nil
	}
	for key, p := range builtins {
		if strings.EqualFold(key, name) {
			return p, nil
		}
	}
	return Persona{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownPersona, name, strings.Join(Names(), ", "))
}

// Resolve picks the persona for a run. A non-empty systemPrompt always wins
// and produces a custom persona labelled name ("Custom" when name is empty);
// otherwise name must be a built-in.
func Resolve(name, systemPrompt string) (Persona, error) {
	if systemPrompt != "" {
		if strings.TrimSpace(name) == "" {
			name = "Custom"
		}
		return Persona{Name: name, SystemPrompt: systemPrompt, Custom: true}, nil
	}
	return Load(name)
}
