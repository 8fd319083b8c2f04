package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

// Picker edits a multi-select field in a modal. Choices are kept as a draft
// and applied when the picker closes.
type Picker struct {
	s   *Session
	def model.Definition

	mu      sync.Mutex
	initial model.Value
	draft   model.Value
	closed  bool
}

// OpenPicker opens a picker seeded with the current value of a multi-select
// definition.
func (s *Session) OpenPicker(definitionID string) (*Picker, error) {
	d, ok := s.reg.Definition(definitionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownField, definitionID)
	}
	if d.Kind != model.KindMultiSelect {
		return nil, fmt.Errorf("%w: %s is not a multi-select", model.ErrInvalidValue, definitionID)
	}
	current := s.engine.Snapshot().Value(d.Field)
	return &Picker{s: s, def: d, initial: current, draft: current}, nil
}

// Definition returns the edited definition.
func (p *Picker) Definition() model.Definition { return p.def }

// Options returns the values offered by the picker: declared options, or
// recent tags followed by the current selection for free-form fields.
func (p *Picker) Options(ctx context.Context) ([]string, error) {
	if len(p.def.Options) > 0 {
		return slices.Clone(p.def.Options), nil
	}
	recent, err := p.s.RecentTags(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range p.Selected() {
		if !slices.Contains(recent, m) {
			recent = append(recent, m)
		}
	}
	return recent, nil
}

// Toggle adds or removes option from the draft.
func (p *Picker) Toggle(option string) error {
	if len(p.def.Options) > 0 && !p.def.HasOption(option) {
		return fmt.Errorf("%w: %q for %s", model.ErrInvalidValue, option, p.def.ID)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return model.ErrClosed
	}
	members := p.draft.Members()
	if i := slices.Index(members, option); i >= 0 {
		members = slices.Delete(members, i, i+1)
	} else {
		members = append(members, option)
	}
	p.draft = model.Set(members...)
	return nil
}

// Selected returns the draft selection.
func (p *Picker) Selected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft.Members()
}

// Close applies the draft. The edit is applied as a delta to the live field
// value at close time, so changes made elsewhere while the picker was open
// survive. Deselecting a member a quick filter contributes turns that quick
// filter off.
func (p *Picker) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	initial, draft := p.initial, p.draft
	p.mu.Unlock()

	var added, removed []string
	for _, m := range draft.Members() {
		if !initial.Has(m) {
			added = append(added, m)
		}
	}
	for _, m := range initial.Members() {
		if !draft.Has(m) {
			removed = append(removed, m)
		}
	}
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	err := p.s.immediate(ctx, "picker_close", func() error {
		return p.s.engine.EditSet(p.def.Field, added, removed)
	})
	if err != nil {
		return err
	}
	if len(p.def.Options) == 0 {
		p.s.recordTags(ctx, added...)
	}
	return nil
}

// Cancel discards the draft.
func (p *Picker) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
