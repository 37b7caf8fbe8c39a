// Package category holds the display metadata (icon and colour) for expense
// categories. Lookups are total: unknown names get the fallback entry.
package category

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"gharkharcha/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIcon  = "wallet"
	DefaultColor = "#9CA3AF"
)

// Meta is the presentation metadata of one category.
type Meta struct {
	Category models.Category `json:"category" yaml:"-"`
	Icon     string          `json:"icon" yaml:"icon"`
	Color    string          `json:"color" yaml:"color"`
}

var builtin = map[models.Category]Meta{
	models.CategoryFood:           {Icon: "utensils", Color: "#F97316"},
	models.CategoryGroceries:      {Icon: "shopping-cart", Color: "#63B995"},
	models.CategoryHousing:        {Icon: "home", Color: "#4F86C6"},
	models.CategoryTransportation: {Icon: "car", Color: "#8B5CF6"},
	models.CategoryUtilities:      {Icon: "lightbulb", Color: "#14B8A6"},
	models.CategoryEntertainment:  {Icon: "notebook", Color: "#EC4899"},
	models.CategoryHealthcare:     {Icon: "heart", Color: "#EF4444"},
	models.CategoryEducation:      {Icon: "graduation-cap", Color: "#F59E0B"},
	models.CategoryShopping:       {Icon: "shopping-bag", Color: "#6366F1"},
	models.CategoryPersonal:       {Icon: "wallet", Color: "#10B981"},
	models.CategoryDebt:           {Icon: "briefcase", Color: "#6B7280"},
	models.CategorySavings:        {Icon: "piggy-bank", Color: "#0EA5E9"},
	models.CategoryGifts:          {Icon: "gift", Color: "#D946EF"},
	models.CategoryOther:          {Icon: "wallet", Color: "#9CA3AF"},
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsHexColor reports whether s is a #rgb or #rrggbb colour.
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// Table is a category metadata table. The zero value is not usable; use
// NewTable. A Table is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries map[models.Category]Meta
}

// NewTable returns a table holding the built-in metadata.
func NewTable() *Table {
	entries := make(map[models.Category]Meta, len(builtin))
	for c, m := range builtin {
		m.Category = c
		entries[c] = m
	}
	return &Table{entries: entries}
}

// Lookup returns the metadata for c, or the fallback entry.
func (t *Table) Lookup(c models.Category) Meta {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, ok := t.entries[c]; ok {
		return m
	}
	return Meta{Category: c, Icon: DefaultIcon, Color: DefaultColor}
}

func (t *Table) IconFor(c models.Category) string  { return t.Lookup(c).Icon }
func (t *Table) ColorFor(c models.Category) string { return t.Lookup(c).Color }

// Entries lists the metadata of every known category in display order.
func (t *Table) Entries() []Meta {
	out := make([]Meta, 0, len(models.AllCategories()))
	for _, c := range models.AllCategories() {
		out = append(out, t.Lookup(c))
	}
	return out
}

// LoadOverrides reads a YAML file mapping category names to icon and colour
// overrides:
//
//	groceries:
//	  icon: basket
//	  color: "#22C55E"
//
// Names outside the enum are accepted so legacy records still render. Empty
// fields keep the current value.
func (t *Table) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading category overrides: %w", err)
	}
	var raw map[string]Meta
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing category overrides: %w", err)
	}
	for name, m := range raw {
		if m.Color != "" && !IsHexColor(m.Color) {
			return fmt.Errorf("category %q: invalid colour %q", name, m.Color)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for name, m := range raw {
		c := models.Category(name)
		cur, ok := t.entries[c]
		if !ok {
			cur = Meta{Icon: DefaultIcon, Color: DefaultColor}
		}
		cur.Category = c
		if m.Icon != "" {
			cur.Icon = m.Icon
		}
		if m.Color != "" {
			cur.Color = m.Color
		}
		t.entries[c] = cur
	}
	return nil
}

var defaultTable = NewTable()

// Default returns the process-wide table used by IconFor and ColorFor.
func Default() *Table { return defaultTable }

// IconFor returns the icon name for c from the default table.
func IconFor(c models.Category) string { return defaultTable.IconFor(c) }

// ColorFor returns the hex colour for c from the default table.
func ColorFor(c models.Category) string { return defaultTable.ColorFor(c) }
