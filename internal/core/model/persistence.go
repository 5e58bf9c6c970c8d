package model

// Persistence can be embedded in a record type to track whether it was
// saved to, or removed from, its store.
type Persistence struct {
	persisted bool
	removed   bool
}

// IsNewRecord implements Record.
func (p *Persistence) IsNewRecord() bool {
	return !p.persisted
}

// IsRemoved implements Record.
func (p *Persistence) IsRemoved() bool {
	return p.removed
}

// MarkPersisted implements Record.
func (p *Persistence) MarkPersisted() {
	p.persisted = true
	p.removed = false
}

// MarkRemoved implements Record.
func (p *Persistence) MarkRemoved() {
	p.removed = true
}
