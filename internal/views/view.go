// Package views persists saved views: named filter rule lists.
package views

import (
	"time"

	"github.com/rebeliceyang/docfilter/internal/models"
)

// SavedView is a named rule list
type SavedView struct {
	ID        string              `json:"id" yaml:"id"`
	Name      string              `json:"name" yaml:"name"`
	Rules     []models.FilterRule `json:"filter_rules" yaml:"filter_rules"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" yaml:"updated_at"`
}
