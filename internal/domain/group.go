package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Group-specific validation errors.
var (
	// ErrGroupIDEmpty is returned when a group ID is empty or nil.
	ErrGroupIDEmpty = errors.New("group ID cannot be empty")

	// ErrGroupNameEmpty is returned when a group's name is empty.
	ErrGroupNameEmpty = errors.New("group name cannot be empty")
)

// WordGroup is a named collection of words, optionally nested under a parent
// group. Top-level groups (ParentID nil) are always accessible; nested groups
// are gated behind premium status or a timed unit unlock.
type WordGroup struct {
	ID        uuid.UUID  `json:"id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewWordGroup creates a new WordGroup with the given name and optional parent.
// Returns an error if validation fails.
func NewWordGroup(name string, parentID *uuid.UUID) (*WordGroup, error) {
	now := time.Now().UTC()
	group := &WordGroup{
		ID:        uuid.New(),
		ParentID:  parentID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := group.Validate(); err != nil {
		return nil, err
	}

	return group, nil
}

// Validate checks if the WordGroup has valid data.
func (g *WordGroup) Validate() error {
	if g.ID == uuid.Nil {
		return ErrGroupIDEmpty
	}

	if strings.TrimSpace(g.Name) == "" {
		return ErrGroupNameEmpty
	}

	return nil
}

// IsTopLevel reports whether the group has no parent and is therefore
// exempt from unit unlock gating.
func (g *WordGroup) IsTopLevel() bool {
	return g.ParentID == nil
}
