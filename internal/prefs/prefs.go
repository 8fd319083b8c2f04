package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxRecentTags bounds the recent tag list.
const MaxRecentTags = 10

const (
	keyRecentTags = "recent_tags"
	keySection    = "section/"
)

// Prefs reads and writes typed preferences on top of a Store.
type Prefs struct {
	store Store
}

// New wraps store.
func New(store Store) *Prefs {
	return &Prefs{store: store}
}

// RecentTags returns recently used tags, most recent first.
func (p *Prefs) RecentTags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := p.getJSON(ctx, keyRecentTags, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// RecordTags moves tags to the front of the recent list, keeping at most
// MaxRecentTags entries.
func (p *Prefs) RecordTags(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	recent, err := p.RecentTags(ctx)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		recent = slices.DeleteFunc(recent, func(s string) bool { return s == tag })
		recent = slices.Insert(recent, 0, tag)
	}
	if len(recent) > MaxRecentTags {
		recent = recent[:MaxRecentTags]
	}
	return p.setJSON(ctx, keyRecentTags, recent)
}

// SectionExpanded reports whether a filter section is expanded. Unknown
// sections are collapsed.
func (p *Prefs) SectionExpanded(ctx context.Context, section string) (bool, error) {
	var expanded bool
	if err := p.getJSON(ctx, keySection+section, &expanded); err != nil {
		return false, err
	}
	return expanded, nil
}

// SetSectionExpanded stores the expansion state of a section.
func (p *Prefs) SetSectionExpanded(ctx context.Context, section string, expanded bool) error {
	return p.setJSON(ctx, keySection+section, expanded)
}

func (p *Prefs) getJSON(ctx context.Context, key string, out any) error {
	raw, err := p.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (p *Prefs) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return p.store.Set(ctx, key, raw)
}
