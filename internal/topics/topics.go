// Package topics is the fixed registry of post topics.
package topics

// Topic is a post category with its display label and accent color.
type Topic struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Topic identifiers.
const (
	Technology   = "technology"
	Design       = "design"
	Lifestyle    = "lifestyle"
	Productivity = "productivity"
	Career       = "career"
	Thoughts     = "thoughts"
)

var registry = []Topic{
	{ID: Technology, Label: "Technology", Color: "#3b82f6"},
	{ID: Design, Label: "Design", Color: "#8b5cf6"},
	{ID: Lifestyle, Label: "Lifestyle", Color: "#10b981"},
	{ID: Productivity, Label: "Productivity", Color: "#f59e0b"},
	{ID: Career, Label: "Career", Color: "#ef4444"},
	{ID: Thoughts, Label: "Thoughts", Color: "#6366f1"},
}

var byID = func() map[string]Topic {
	m := make(map[string]Topic, len(registry))
	for _, t := range registry {
		m[t.ID] = t
	}
	return m
}()

// All returns the topics in display order. The slice is a copy.
func All() []Topic {
	out := make([]Topic, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the topic with the given id.
func Lookup(id string) (Topic, bool) {
	t, ok := byID[id]
	return t, ok
}

// Valid reports whether id names a known topic.
func Valid(id string) bool {
	_, ok := byID[id]
	return ok
}
