package models

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a positional operation targets an
// index outside the collection.
var ErrIndexOutOfRange = errors.New("episode index out of range")

// Collection is the ordered episode catalogue as fetched from the site.
// Order is fetch order and the position of an episode is its wire identity.
// It is not safe for concurrent use.
type Collection struct {
	items []*Episode
}

// NewCollection creates a collection holding items.
func NewCollection(items []*Episode) *Collection {
	c := &Collection{}
	c.Replace(items)
	return c
}

// Replace swaps the whole catalogue, assigning IDs to entries without one.
func (c *Collection) Replace(items []*Episode) {
	c.items = make([]*Episode, 0, len(items))
	for _, ep := range items {
		if ep == nil {
			continue
		}
		if ep.ID == "" {
			ep.ID = NewEpisodeID()
		}
		c.items = append(c.items, ep)
	}
}

func (c *Collection) Len() int {
	return len(c.items)
}

// At returns the episode at index or nil.
func (c *Collection) At(index int) *Episode {
	if index < 0 || index >= len(c.items) {
		return nil
	}
	return c.items[index]
}

// Items returns the episodes in order. The slice is a copy; the episodes
// are shared.
func (c *Collection) Items() []*Episode {
	out := make([]*Episode, len(c.items))
	copy(out, c.items)
	return out
}

// IndexOf returns the current position of the episode with id, or -1.
func (c *Collection) IndexOf(id string) int {
	for i, ep := range c.items {
		if ep.ID == id {
			return i
		}
	}
	return -1
}

// Merge applies fields to the episode at index.
func (c *Collection) Merge(index int, f EpisodeFields) error {
	ep := c.At(index)
	if ep == nil {
		return fmt.Errorf("merge %d: %w", index, ErrIndexOutOfRange)
	}
	ep.Apply(f)
	return nil
}

// RemoveAt deletes the episode at index. Later episodes shift down by one.
func (c *Collection) RemoveAt(index int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("remove %d: %w", index, ErrIndexOutOfRange)
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

// Snapshot returns value copies of every episode.
func (c *Collection) Snapshot() []Episode {
	out := make([]Episode, len(c.items))
	for i, ep := range c.items {
		out[i] = *ep
	}
	return out
}
