// Package editor implements the filter editor: it owns one selection model
// per filterable dimension plus the custom-field query model, and turns
// every change into a fresh rule list for its listeners.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rebeliceyang/docfilter/internal/config"
	"github.com/rebeliceyang/docfilter/internal/debounce"
	"github.com/rebeliceyang/docfilter/internal/filter"
	"github.com/rebeliceyang/docfilter/internal/models"
	"github.com/rebeliceyang/docfilter/internal/query"
	"github.com/rebeliceyang/docfilter/internal/selection"
)

// ErrInvalidDate is returned for date bounds that are not YYYY-MM-DD
var ErrInvalidDate = errors.New("invalid date")

// Listener receives every rule list the controller emits
type Listener func([]models.FilterRule)

// Options configures a Controller
type Options struct {
	// TextDebounce delays text filter emission; 0 emits synchronously
	TextDebounce time.Duration
	// ValueDebounce delays emission after atom value edits; 0 emits synchronously
	ValueDebounce time.Duration

	DocumentCountSorting bool
	CurrentUser          int

	// CanView reports whether the user may see a dimension. Nil allows everything.
	CanView func(models.Dimension) bool
	Logger  *slog.Logger
}

// DefaultOptions returns the interactive defaults
func DefaultOptions() Options {
	return Options{
		TextDebounce:         debounce.TextInput,
		ValueDebounce:        debounce.ValueInput,
		DocumentCountSorting: true,
	}
}

// OptionsFromConfig returns the defaults overridden by the editor section
// of the configuration. Negative durations keep the defaults.
func OptionsFromConfig(cfg config.EditorConfig, logger *slog.Logger) Options {
	opts := DefaultOptions()
	if d := cfg.TextDebounce(); d >= 0 {
		opts.TextDebounce = d
	}
	if d := cfg.ValueDebounce(); d >= 0 {
		opts.ValueDebounce = d
	}
	opts.DocumentCountSorting = cfg.DocumentCountSorting
	opts.CurrentUser = cfg.CurrentUser
	opts.Logger = logger
	return opts
}

type listenerEntry struct {
	id int
	fn Listener
}

// Controller is the filter editor. Model mutations must go through Update
// (or the controller's own setters) once debouncing is enabled, since
// debounced emissions read the models from a timer goroutine.
type Controller struct {
	mu     sync.Mutex
	opts   Options
	logger *slog.Logger

	tags           *selection.Model
	correspondents *selection.Model
	documentTypes  *selection.Model
	storagePaths   *selection.Model
	query          *query.Model
	codec          *filter.Codec

	state       filter.State
	pendingText string
	unmodified  []models.FilterRule

	text  *debounce.Debouncer
	value *debounce.Debouncer

	// batch is non-zero while Update runs fn; model events are then collected
	batch          atomic.Int32
	batchStructure bool
	batchValue     bool

	unsubs    []func()
	listeners []listenerEntry
	nextID    int
	closed    bool
}

// New creates a controller with empty models
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "filter-editor")

	sorting := selection.WithDocumentCountSorting(opts.DocumentCountSorting)
	c := &Controller{
		opts:           opts,
		logger:         logger,
		tags:           selection.New(true, sorting),
		correspondents: selection.New(false, sorting),
		documentTypes:  selection.New(false, sorting),
		storagePaths:   selection.New(false, sorting),
		query:          query.NewModel(),
		state:          filter.NewState(),
		text:           debounce.New(opts.TextDebounce),
		value:          debounce.New(opts.ValueDebounce),
	}
	c.codec = filter.NewCodec(filter.Models{
		Tags:           c.tags,
		Correspondents: c.correspondents,
		DocumentTypes:  c.documentTypes,
		StoragePaths:   c.storagePaths,
		Query:          c.query,
	}, filter.WithLogger(logger), filter.WithCurrentUser(opts.CurrentUser))

	for _, m := range c.selections() {
		c.unsubs = append(c.unsubs, m.Subscribe(c.onSelectionChange))
	}
	c.unsubs = append(c.unsubs, c.query.Subscribe(c.onQueryChange))
	return c
}

func (c *Controller) selections() []*selection.Model {
	return []*selection.Model{c.tags, c.correspondents, c.documentTypes, c.storagePaths}
}

// CanView reports whether a dimension is available to the user
func (c *Controller) CanView(d models.Dimension) bool {
	return c.opts.CanView == nil || c.opts.CanView(d)
}

// Selection returns the selection model of a dimension. It reports false
// for dimensions without a selection model and for those the user cannot view.
func (c *Controller) Selection(d models.Dimension) (*selection.Model, bool) {
	if !c.CanView(d) {
		return nil, false
	}
	m := c.selectionFor(d)
	return m, m != nil
}

func (c *Controller) selectionFor(d models.Dimension) *selection.Model {
	switch d {
	case models.DimensionTags:
		return c.tags
	case models.DimensionCorrespondents:
		return c.correspondents
	case models.DimensionDocumentTypes:
		return c.documentTypes
	case models.DimensionStoragePaths:
		return c.storagePaths
	}
	return nil
}

// Query returns the custom-field query model, or false when the user cannot view custom fields
func (c *Controller) Query() (*query.Model, bool) {
	if !c.CanView(models.DimensionCustomFields) {
		return nil, false
	}
	return c.query, true
}

// Update runs fn with exclusive access to the models and emits at most one
// rule list afterwards. fn must not call back into the controller.
func (c *Controller) Update(fn func(filter.Models)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.batchStructure, c.batchValue = false, false
	c.batch.Add(1)
	fn(c.codec.Models())
	c.batch.Add(-1)

	var rules []models.FilterRule
	emit, valueOnly := false, false
	switch {
	case c.batchStructure:
		c.value.Cancel()
		rules, emit = c.codec.Encode(c.state), true
	case c.batchValue:
		valueOnly = true
	}
	listeners := c.listenersLocked()
	c.mu.Unlock()

	if emit {
		notify(listeners, rules)
	}
	// a zero value debounce runs emit synchronously, which takes the lock
	if valueOnly {
		c.value.Trigger(c.emit)
	}
}

func (c *Controller) onSelectionChange(selection.ChangeEvent) {
	c.changed(query.ChangeStructure)
}

func (c *Controller) onQueryChange(kind query.ChangeKind) {
	c.changed(kind)
}

// changed handles a model event. Inside Update the caller already holds
// the lock, so the event is only recorded.
func (c *Controller) changed(kind query.ChangeKind) {
	if c.batch.Load() > 0 {
		if kind == query.ChangeValue {
			c.batchValue = true
		} else {
			c.batchStructure = true
		}
		return
	}

	if kind == query.ChangeValue {
		c.value.Trigger(c.emit)
		return
	}
	c.value.Cancel()
	c.emit()
}

// emit encodes the current state and hands it to every listener
func (c *Controller) emit() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	rules := c.codec.Encode(c.state)
	listeners := c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, rules)
}

func notify(listeners []listenerEntry, rules []models.FilterRule) {
	for _, l := range listeners {
		l.fn(rules)
	}
}

func (c *Controller) listenersLocked() []listenerEntry {
	return append([]listenerEntry(nil), c.listeners...)
}

// setState applies fn to the scalar state and emits
func (c *Controller) setState(fn func(*filter.State)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn(&c.state)
	c.mu.Unlock()
	c.emit()
}

// Rules encodes the current state without emitting
func (c *Controller) Rules() []models.FilterRule {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codec.Encode(c.state)
}

// State returns a copy of the scalar filter state
func (c *Controller) State() filter.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SetFilterRules re-hydrates every model from rules. Pending debounced
// input is dropped and nothing is emitted.
func (c *Controller) SetFilterRules(rules []models.FilterRule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.text.Cancel()
	c.value.Cancel()
	c.state = c.codec.Decode(rules)
	c.pendingText = c.state.TextFilter
	c.logger.Debug("filter rules loaded", "rules", len(rules))
}

// SetUnmodifiedRules records the rule list of the loaded saved view
func (c *Controller) SetUnmodifiedRules(rules []models.FilterRule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unmodified = append([]models.FilterRule(nil), rules...)
}

// RulesModified reports whether the current rules differ, as a set, from
// the unmodified rules
func (c *Controller) RulesModified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !filter.RulesEqual(c.unmodified, c.codec.Encode(c.state))
}

// ClearAll resets every model and the scalar state and emits once
func (c *Controller) ClearAll() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.text.Cancel()
	c.value.Cancel()
	c.state = c.codec.Decode(nil)
	c.pendingText = ""
	c.mu.Unlock()
	c.emit()
}

// SetTextFilter records typed text. The state changes and a rule list is
// emitted once input has been quiet for the text debounce.
func (c *Controller) SetTextFilter(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pendingText = text
	c.mu.Unlock()

	c.text.Trigger(func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.state.TextFilter = c.pendingText
		c.mu.Unlock()
		c.emit()
	})
}

// SetTextTarget chooses which rule type the text filter becomes
func (c *Controller) SetTextTarget(target filter.TextFilterTarget) {
	c.setState(func(s *filter.State) {
		s.TextTarget = target
		if target != filter.TargetASN {
			s.TextModifier = filter.ModifierEquals
		}
	})
}

// SetTextModifier refines an ASN text filter
func (c *Controller) SetTextModifier(modifier filter.TextFilterModifier) {
	c.setState(func(s *filter.State) {
		s.TextModifier = modifier
	})
}

// SetMoreLike filters for documents similar to id; 0 clears it
func (c *Controller) SetMoreLike(id int) {
	c.setState(func(s *filter.State) {
		s.MoreLikeID = id
		if id > 0 {
			s.TextTarget = filter.TargetFulltextMoreLike
			s.TextFilter = ""
		} else if s.TextTarget == filter.TargetFulltextMoreLike {
			s.TextTarget = filter.TargetTitleContent
		}
	})
}

// DateField names one of the date dimensions
type DateField string

const (
	DateCreated  DateField = "created"
	DateAdded    DateField = "added"
	DateModified DateField = "modified"
)

// SetDateRange sets the before/after bounds of a date field
func (c *Controller) SetDateRange(field DateField, r filter.DateRange) error {
	if field != DateCreated && field != DateAdded && field != DateModified {
		return fmt.Errorf("unknown date field: %s", field)
	}
	for _, v := range []string{r.Before, r.After} {
		if v != "" && !filter.ValidDate(v) {
			return fmt.Errorf("%w: %q", ErrInvalidDate, v)
		}
	}

	c.setState(func(s *filter.State) {
		switch field {
		case DateCreated:
			s.Created = r
		case DateAdded:
			s.Added = r
		default:
			s.Modified = r
		}
	})
	return nil
}

// SetRelativeDate sets a "within the last ..." range on created or added
func (c *Controller) SetRelativeDate(field DateField, rd filter.RelativeDate) error {
	if field != DateCreated && field != DateAdded {
		return fmt.Errorf("relative dates are not supported for %s", field)
	}
	c.setState(func(s *filter.State) {
		if field == DateCreated {
			s.CreatedRelative = rd
		} else {
			s.AddedRelative = rd
		}
	})
	return nil
}

// SetOwnerFilter replaces the ownership filter
func (c *Controller) SetOwnerFilter(o filter.OwnerFilter) {
	c.setState(func(s *filter.State) {
		s.Owner = o
	})
}

// Flush runs pending debounced emissions now
func (c *Controller) Flush() {
	c.text.Flush()
	c.value.Flush()
}

// Subscribe registers a listener and returns a function removing it
func (c *Controller) Subscribe(fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close cancels pending debounced input, detaches and closes every model.
// Nothing is emitted after Close returns.
func (c *Controller) Close() {
	c.text.Stop()
	c.value.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
	for _, m := range c.selections() {
		m.Close()
	}
	c.query.Close()
	c.listeners = nil
}
