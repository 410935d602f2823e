package pipeline

// ChangeSet records the ids of changed records in the order they were seen.
// Adding an id twice keeps the first position.
type ChangeSet struct {
	ids  []string
	seen map[string]struct{}
}

// NewChangeSet returns an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{seen: make(map[string]struct{})}
}

// Add appends id unless it is already present.
func (c *ChangeSet) Add(id string) {
	if _, ok := c.seen[id]; ok {
		return
	}
	c.seen[id] = struct{}{}
	c.ids = append(c.ids, id)
}

// Len returns the number of recorded ids.
func (c *ChangeSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}

// IDs returns a copy of the recorded ids in insertion order.
func (c *ChangeSet) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

