package sage

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed prompts/*.txt
var promptFS embed.FS

type PersonaKey string

const (
	Confucius PersonaKey = "confucius"
	Laozi     PersonaKey = "laozi"
	Buddha    PersonaKey = "buddha"
	Plato     PersonaKey = "plato"
)

// Persona is a fixed sage voice. Personas are built once and never mutated.
type Persona struct {
	Key          PersonaKey `json:"key"`
	DisplayName  string     `json:"sage"`
	Emoji        string     `json:"emoji"`
	Style        string     `json:"style"`
	SystemPrompt string     `json:"-"`
}

// Roster is the ordered, read-only set of personas.
type Roster struct {
	order  []PersonaKey
	byKey  map[PersonaKey]Persona
	prompt string // synthesiser system prompt used by the summary task
}

var personaMeta = []Persona{
	{Key: Confucius, DisplayName: "孔子", Emoji: "📜", Style: "仁爱与关怀"},
	{Key: Laozi, DisplayName: "老子", Emoji: "☯️", Style: "自然诗人"},
	{Key: Buddha, DisplayName: "释迦牟尼", Emoji: "🙏", Style: "慈悲智慧"},
	{Key: Plato, DisplayName: "柏拉图", Emoji: "🏛️", Style: "哲学思辨者"},
}

// LoadRoster reads the embedded persona prompts.
func LoadRoster() (*Roster, error) {
	r := &Roster{byKey: make(map[PersonaKey]Persona, len(personaMeta))}
	for _, meta := range personaMeta {
		text, err := readPrompt(string(meta.Key))
		if err != nil {
			return nil, err
		}
		meta.SystemPrompt = text
		r.order = append(r.order, meta.Key)
		r.byKey[meta.Key] = meta
	}
	synth, err := readPrompt("synthesizer")
	if err != nil {
		return nil, err
	}
	r.prompt = synth
	return r, nil
}

// MustLoadRoster panics if the embedded prompts are missing.
func MustLoadRoster() *Roster {
	r, err := LoadRoster()
	if err != nil {
		panic(err)
	}
	return r
}

func readPrompt(name string) (string, error) {
	data, err := promptFS.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", name, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("prompt %s is empty", name)
	}
	return text, nil
}

// Keys returns every persona key in display order.
func (r *Roster) Keys() []PersonaKey {
	out := make([]PersonaKey, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Roster) All() []Persona {
	out := make([]Persona, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

func (r *Roster) Get(key PersonaKey) (Persona, bool) {
	p, ok := r.byKey[key]
	return p, ok
}

// Resolve maps requested keys to personas, preserving request order.
// An empty request selects the full roster.
func (r *Roster) Resolve(keys []PersonaKey) ([]Persona, error) {
	if len(keys) == 0 {
		return r.All(), nil
	}
	out := make([]Persona, 0, len(keys))
	for _, k := range keys {
		p, ok := r.byKey[PersonaKey(strings.ToLower(strings.TrimSpace(string(k))))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, k)
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseKeys splits a comma separated persona list, ignoring blanks.
func ParseKeys(csv string) []PersonaKey {
	var out []PersonaKey
	for _, part := range strings.Split(csv, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, PersonaKey(part))
		}
	}
	return out
}
