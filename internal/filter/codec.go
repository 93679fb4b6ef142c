// Package filter translates between the editor's models and the flat rule
// list understood by the document search backend.
package filter

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/rebeliceyang/docfilter/internal/models"
	"github.com/rebeliceyang/docfilter/internal/query"
	"github.com/rebeliceyang/docfilter/internal/selection"
)

// Models are the stateful parts of the filter the codec reads and writes
type Models struct {
	Tags           *selection.Model
	Correspondents *selection.Model
	DocumentTypes  *selection.Model
	StoragePaths   *selection.Model
	Query          *query.Model
}

// dimensionRules are the rule types of a single-valued dimension
type dimensionRules struct {
	isNull models.RuleType // null value means "has none"; a number is the legacy equals form
	anyOf  models.RuleType
	noneOf models.RuleType
}

var (
	correspondentRules = dimensionRules{models.FilterCorrespondent, models.FilterHasCorrespondentAny, models.FilterDoesNotHaveCorrespondent}
	documentTypeRules  = dimensionRules{models.FilterDocumentType, models.FilterHasDocumentTypeAny, models.FilterDoesNotHaveDocumentType}
	storagePathRules   = dimensionRules{models.FilterStoragePath, models.FilterHasStoragePathAny, models.FilterDoesNotHaveStoragePath}
)

// Codec encodes the editor state into rules and decodes rules back into it
type Codec struct {
	models      Models
	logger      *slog.Logger
	currentUser int
}

// Option configures a Codec
type Option func(*Codec)

// WithLogger sets the logger used to report ignored rules
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCurrentUser sets the acting user, used to tell "not mine" from "not theirs"
func WithCurrentUser(id int) Option {
	return func(c *Codec) {
		c.currentUser = id
	}
}

// NewCodec creates a codec over m. Nil models are replaced with fresh ones.
func NewCodec(m Models, opts ...Option) *Codec {
	if m.Tags == nil {
		m.Tags = selection.New(true)
	}
	if m.Correspondents == nil {
		m.Correspondents = selection.New(false)
	}
	if m.DocumentTypes == nil {
		m.DocumentTypes = selection.New(false)
	}
	if m.StoragePaths == nil {
		m.StoragePaths = selection.New(false)
	}
	if m.Query == nil {
		m.Query = query.NewModel()
	}

	c := &Codec{models: m, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Models returns the models the codec works on
func (c *Codec) Models() Models {
	return c.models
}

// Encode builds the rule list from state and the current model contents.
// It only reads, so repeated calls without mutation return equal lists.
func (c *Codec) Encode(state State) []models.FilterRule {
	var rules []models.FilterRule

	rules = append(rules, encodeText(state)...)
	rules = append(rules, encodeTags(c.models.Tags)...)
	rules = append(rules, encodeDimension(c.models.Correspondents, correspondentRules)...)
	rules = append(rules, encodeDimension(c.models.DocumentTypes, documentTypeRules)...)
	rules = append(rules, encodeDimension(c.models.StoragePaths, storagePathRules)...)

	if !c.models.Query.IsEmpty() && c.models.Query.IsValid() {
		value, err := query.Marshal(c.models.Query.Serialize())
		if err != nil {
			c.logger.Warn("failed to encode custom field query", "error", err)
		} else {
			rules = append(rules, models.NewRule(models.FilterCustomFieldsQuery, value))
		}
	}

	rules = append(rules, encodeDates(state)...)
	rules = append(rules, encodeOwner(state.Owner)...)
	rules = append(rules, state.Extra...)
	return rules
}

func encodeText(state State) []models.FilterRule {
	var rules []models.FilterRule
	text := state.TextFilter

	switch state.TextTarget {
	case TargetTitle:
		if text != "" {
			rules = append(rules, models.NewRule(models.FilterTitle, text))
		}
	case TargetTitleContent:
		if text != "" {
			rules = append(rules, models.NewRule(models.FilterTitleContent, text))
		}
	case TargetCustomFields:
		if text != "" {
			rules = append(rules, models.NewRule(models.FilterCustomFieldsText, text))
		}
	case TargetASN:
		switch state.TextModifier {
		case ModifierIsNull:
			rules = append(rules, models.NewRule(models.FilterASNIsNull, "true"))
		case ModifierNotNull:
			rules = append(rules, models.NewRule(models.FilterASNIsNull, "false"))
		case ModifierGreater:
			if text != "" {
				rules = append(rules, models.NewRule(models.FilterASNGreaterThan, text))
			}
		case ModifierLess:
			if text != "" {
				rules = append(rules, models.NewRule(models.FilterASNLessThan, text))
			}
		default:
			if text != "" {
				rules = append(rules, models.NewRule(models.FilterASN, text))
			}
		}
	case TargetFulltextMoreLike:
		if state.MoreLikeID > 0 {
			rules = append(rules, models.NewRule(models.FilterFulltextMoreLike, strconv.Itoa(state.MoreLikeID)))
		}
	}

	var fulltext string
	if state.TextTarget == TargetFulltextQuery {
		fulltext = text
	}
	if q := joinFulltextQuery(fulltext, state.CreatedRelative, state.AddedRelative); q != "" {
		rules = append(rules, models.NewRule(models.FilterFulltextQuery, q))
	}
	return rules
}

func encodeTags(m *selection.Model) []models.FilterRule {
	if m.IsNoneSelected() {
		return []models.FilterRule{models.NewRule(models.FilterHasAnyTag, "false")}
	}

	ruleType := models.FilterHasTagsAll
	if m.LogicalOperator() == models.LogicalOr {
		ruleType = models.FilterHasTagsAny
	}

	var rules []models.FilterRule
	for _, id := range m.SelectedIDs() {
		if !id.IsSentinel() {
			rules = append(rules, models.NewRule(ruleType, formatID(id)))
		}
	}

	hasAny := false
	for _, id := range m.ExcludedIDs() {
		if id.IsSentinel() {
			hasAny = true
			continue
		}
		rules = append(rules, models.NewRule(models.FilterDoesNotHaveTag, formatID(id)))
	}
	if hasAny {
		rules = append(rules, models.NewRule(models.FilterHasAnyTag, "true"))
	}
	return rules
}

func encodeDimension(m *selection.Model, r dimensionRules) []models.FilterRule {
	if m.IsNoneSelected() {
		return []models.FilterRule{models.NewNullRule(r.isNull)}
	}

	var rules []models.FilterRule
	for _, id := range m.SelectedIDs() {
		switch id {
		case models.NullID:
			rules = append(rules, models.NewNullRule(r.anyOf))
		case models.NegativeNullID:
		default:
			rules = append(rules, models.NewRule(r.anyOf, formatID(id)))
		}
	}

	assigned := false
	for _, id := range m.ExcludedIDs() {
		if id.IsSentinel() {
			assigned = true
			continue
		}
		rules = append(rules, models.NewRule(r.noneOf, formatID(id)))
	}
	if assigned {
		rules = append(rules, models.NewNullRule(r.noneOf))
	}
	return rules
}

func encodeDates(state State) []models.FilterRule {
	var rules []models.FilterRule
	add := func(ruleType models.RuleType, value string) {
		if value != "" {
			rules = append(rules, models.NewRule(ruleType, value))
		}
	}
	add(models.FilterCreatedBefore, state.Created.Before)
	add(models.FilterCreatedAfter, state.Created.After)
	add(models.FilterAddedBefore, state.Added.Before)
	add(models.FilterAddedAfter, state.Added.After)
	add(models.FilterModifiedBefore, state.Modified.Before)
	add(models.FilterModifiedAfter, state.Modified.After)
	return rules
}

func encodeOwner(o OwnerFilter) []models.FilterRule {
	var rules []models.FilterRule
	user := strconv.Itoa(o.UserID)

	switch o.Type {
	case OwnerSelf:
		if o.UserID > 0 {
			rules = append(rules, models.NewRule(models.FilterOwner, user))
		}
	case OwnerNotSelf:
		if o.UserID > 0 {
			rules = append(rules, models.NewRule(models.FilterOwnerDoesNotInclude, user))
		}
	case OwnerOthers:
		for _, id := range o.IncludeUsers {
			rules = append(rules, models.NewRule(models.FilterOwnerAny, strconv.Itoa(id)))
		}
		for _, id := range o.ExcludeUsers {
			rules = append(rules, models.NewRule(models.FilterOwnerDoesNotInclude, strconv.Itoa(id)))
		}
	case OwnerSharedByMe:
		if o.UserID > 0 {
			rules = append(rules, models.NewRule(models.FilterSharedByUser, user))
		}
	case OwnerUnowned:
		rules = append(rules, models.NewRule(models.FilterOwnerIsNull, "true"))
	}

	if o.HideUnowned && o.Type != OwnerUnowned {
		rules = append(rules, models.NewRule(models.FilterOwnerIsNull, "false"))
	}
	return rules
}

// Decode resets every model and repopulates it from rules, returning the
// scalar state. Models do not emit while loading. Unknown rule types and
// unusable values are skipped.
func (c *Codec) Decode(rules []models.FilterRule) State {
	selections := []*selection.Model{
		c.models.Tags,
		c.models.Correspondents,
		c.models.DocumentTypes,
		c.models.StoragePaths,
	}
	restores := make([]func(), 0, len(selections)+1)
	for _, m := range selections {
		restores = append(restores, m.Mute())
		m.Clear()
	}
	restores = append(restores, c.models.Query.Mute())
	c.models.Query.Clear()
	defer func() {
		for _, restore := range restores {
			restore()
		}
	}()

	d := &decoder{codec: c, state: NewState()}
	for _, rule := range rules {
		d.rule(rule)
	}
	d.flushLegacyFields()

	for _, m := range selections {
		m.Apply()
	}
	return d.state
}

type decoder struct {
	codec  *Codec
	state  State
	legacy map[models.QueryLogicalOperator][]int
}

func (d *decoder) ignore(rule models.FilterRule, reason string) {
	d.codec.logger.Debug("ignoring filter rule",
		"rule_type", rule.RuleType,
		"value", rule.Value,
		"reason", reason,
	)
}

func (d *decoder) rule(rule models.FilterRule) {
	m := d.codec.models

	switch rule.RuleType {
	case models.FilterTitle:
		d.text(rule, TargetTitle, ModifierEquals)
	case models.FilterTitleContent:
		d.text(rule, TargetTitleContent, ModifierEquals)
	case models.FilterCustomFieldsText:
		d.text(rule, TargetCustomFields, ModifierEquals)
	case models.FilterASN:
		d.text(rule, TargetASN, ModifierEquals)
	case models.FilterASNGreaterThan:
		d.text(rule, TargetASN, ModifierGreater)
	case models.FilterASNLessThan:
		d.text(rule, TargetASN, ModifierLess)
	case models.FilterASNIsNull:
		b, ok := parseBool(rule.Value)
		if !ok {
			d.ignore(rule, "not a boolean")
			return
		}
		d.state.TextTarget = TargetASN
		d.state.TextFilter = ""
		d.state.TextModifier = ModifierNotNull
		if b {
			d.state.TextModifier = ModifierIsNull
		}
	case models.FilterFulltextQuery:
		if rule.Value == nil {
			d.ignore(rule, "null value")
			return
		}
		text, created, added := splitFulltextQuery(*rule.Value)
		if created != RelativeNone {
			d.state.CreatedRelative = created
		}
		if added != RelativeNone {
			d.state.AddedRelative = added
		}
		if text != "" {
			d.state.TextFilter = text
			d.state.TextTarget = TargetFulltextQuery
		}
	case models.FilterFulltextMoreLike:
		id, ok := parsePositive(rule.Value)
		if !ok {
			d.ignore(rule, "not a document id")
			return
		}
		d.state.MoreLikeID = id
		d.state.TextTarget = TargetFulltextMoreLike
		d.state.TextFilter = ""

	case models.FilterHasTagsAll, models.FilterHasTagsAny:
		id, ok := parseItemID(rule.Value)
		if !ok {
			d.ignore(rule, "not an item id")
			return
		}
		op := models.LogicalAnd
		if rule.RuleType == models.FilterHasTagsAny {
			op = models.LogicalOr
		}
		m.Tags.SetLogicalOperator(op)
		m.Tags.Set(id, models.Selected)
	case models.FilterHasAnyTag:
		b, ok := parseBool(rule.Value)
		if !ok {
			d.ignore(rule, "not a boolean")
			return
		}
		if b {
			m.Tags.SetIntersection(models.IntersectionExclude)
			m.Tags.Set(models.NegativeNullID, models.Excluded)
		} else {
			m.Tags.Set(models.NullID, models.Selected)
		}
	case models.FilterDoesNotHaveTag:
		id, ok := parseItemID(rule.Value)
		if !ok {
			d.ignore(rule, "not an item id")
			return
		}
		m.Tags.SetIntersection(models.IntersectionExclude)
		m.Tags.Set(id, models.Excluded)

	case models.FilterCorrespondent, models.FilterHasCorrespondentAny, models.FilterDoesNotHaveCorrespondent:
		d.dimension(rule, m.Correspondents, correspondentRules)
	case models.FilterDocumentType, models.FilterHasDocumentTypeAny, models.FilterDoesNotHaveDocumentType:
		d.dimension(rule, m.DocumentTypes, documentTypeRules)
	case models.FilterStoragePath, models.FilterHasStoragePathAny, models.FilterDoesNotHaveStoragePath:
		d.dimension(rule, m.StoragePaths, storagePathRules)

	case models.FilterCreatedBefore:
		d.date(rule, &d.state.Created.Before)
	case models.FilterCreatedAfter:
		d.date(rule, &d.state.Created.After)
	case models.FilterAddedBefore:
		d.date(rule, &d.state.Added.Before)
	case models.FilterAddedAfter:
		d.date(rule, &d.state.Added.After)
	case models.FilterModifiedBefore:
		d.date(rule, &d.state.Modified.Before)
	case models.FilterModifiedAfter:
		d.date(rule, &d.state.Modified.After)

	case models.FilterOwner, models.FilterOwnerAny, models.FilterOwnerDoesNotInclude,
		models.FilterOwnerIsNull, models.FilterSharedByUser:
		d.owner(rule)

	case models.FilterHasCustomFieldsAll, models.FilterHasCustomFieldsAny:
		id, ok := parsePositive(rule.Value)
		if !ok {
			d.ignore(rule, "not a custom field id")
			return
		}
		op := models.QueryAnd
		if rule.RuleType == models.FilterHasCustomFieldsAny {
			op = models.QueryOr
		}
		if d.legacy == nil {
			d.legacy = make(map[models.QueryLogicalOperator][]int)
		}
		d.legacy[op] = append(d.legacy[op], id)
	case models.FilterCustomFieldsQuery:
		if rule.Value == nil {
			d.ignore(rule, "null value")
			return
		}
		expression, dropped, err := query.ParseWithDropped(*rule.Value)
		if err != nil {
			d.ignore(rule, err.Error())
			return
		}
		if dropped > 0 {
			d.codec.logger.Debug("custom field query truncated at ceiling", "dropped", dropped)
		}
		d.addQuery(rule, expression)

	case models.FilterContent, models.FilterIsInInbox:
		d.state.Extra = append(d.state.Extra, rule)

	default:
		d.ignore(rule, "unknown rule type")
	}
}

func (d *decoder) text(rule models.FilterRule, target TextFilterTarget, modifier TextFilterModifier) {
	if rule.Value == nil {
		d.ignore(rule, "null value")
		return
	}
	d.state.TextFilter = *rule.Value
	d.state.TextTarget = target
	d.state.TextModifier = modifier
}

func (d *decoder) date(rule models.FilterRule, dst *string) {
	if rule.Value == nil || !ValidDate(*rule.Value) {
		d.ignore(rule, "not a date")
		return
	}
	*dst = *rule.Value
}

func (d *decoder) dimension(rule models.FilterRule, m *selection.Model, r dimensionRules) {
	switch rule.RuleType {
	case r.isNull:
		if rule.Value == nil {
			m.Set(models.NullID, models.Selected)
			return
		}
		id, ok := parseItemID(rule.Value)
		if !ok {
			d.ignore(rule, "not an item id")
			return
		}
		m.Set(id, models.Selected)
	case r.anyOf:
		id := models.NullID
		if rule.Value != nil {
			var ok bool
			if id, ok = parseItemID(rule.Value); !ok {
				d.ignore(rule, "not an item id")
				return
			}
		}
		m.SetLogicalOperator(models.LogicalOr)
		m.Set(id, models.Selected)
	case r.noneOf:
		id := models.NegativeNullID
		if rule.Value != nil {
			var ok bool
			if id, ok = parseItemID(rule.Value); !ok {
				d.ignore(rule, "not an item id")
				return
			}
		}
		m.SetIntersection(models.IntersectionExclude)
		m.Set(id, models.Excluded)
	}
}

func (d *decoder) owner(rule models.FilterRule) {
	o := &d.state.Owner

	if rule.RuleType == models.FilterOwnerIsNull {
		b, ok := parseBool(rule.Value)
		if !ok {
			d.ignore(rule, "not a boolean")
			return
		}
		if b {
			o.Type = OwnerUnowned
		} else {
			o.HideUnowned = true
		}
		return
	}

	user, ok := parsePositive(rule.Value)
	if !ok {
		d.ignore(rule, "not a user id")
		return
	}

	switch rule.RuleType {
	case models.FilterOwner:
		o.Type = OwnerSelf
		o.UserID = user
	case models.FilterSharedByUser:
		o.Type = OwnerSharedByMe
		o.UserID = user
	case models.FilterOwnerAny:
		d.becomeOthers()
		o.IncludeUsers = append(o.IncludeUsers, user)
	case models.FilterOwnerDoesNotInclude:
		switch {
		case o.Type == OwnerOthers:
			o.ExcludeUsers = append(o.ExcludeUsers, user)
		case o.Type == OwnerNone && (d.codec.currentUser == 0 || d.codec.currentUser == user):
			o.Type = OwnerNotSelf
			o.UserID = user
		default:
			d.becomeOthers()
			o.ExcludeUsers = append(o.ExcludeUsers, user)
		}
	}
}

// becomeOthers switches the owner filter to Others, keeping a previously
// decoded "not owned by" user as an excluded user
func (d *decoder) becomeOthers() {
	o := &d.state.Owner
	if o.Type == OwnerOthers {
		return
	}
	if o.Type == OwnerNotSelf && o.UserID > 0 {
		o.ExcludeUsers = append(o.ExcludeUsers, o.UserID)
	}
	o.Type = OwnerOthers
	o.UserID = d.codec.currentUser
}

func (d *decoder) addQuery(rule models.FilterRule, expression *query.Expression) {
	q := d.codec.models.Query
	if q.Root() == nil {
		q.Load(expression)
		return
	}
	if !q.AddExpression(expression) {
		d.ignore(rule, "query exceeds depth or atom ceiling")
	}
}

// flushLegacyFields turns has-custom-fields rules into exists atoms
func (d *decoder) flushLegacyFields() {
	for _, op := range []models.QueryLogicalOperator{models.QueryAnd, models.QueryOr} {
		ids := d.legacy[op]
		if len(ids) == 0 {
			continue
		}
		expression := query.NewExpression(op)
		for _, id := range ids {
			expression.AddAtom(query.NewAtom(id, models.QueryOpExists, "true"))
		}
		ruleType := models.FilterHasCustomFieldsAll
		if op == models.QueryOr {
			ruleType = models.FilterHasCustomFieldsAny
		}
		d.addQuery(models.NewRule(ruleType, joinIDs(ids)), expression)
	}
}

func joinIDs(ids []int) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.Itoa(id)
	}
	return strings.Join(s, ",")
}

func formatID(id models.ItemID) string {
	return strconv.FormatInt(int64(id), 10)
}

func parseItemID(value *string) (models.ItemID, bool) {
	n, ok := parsePositive(value)
	return models.ItemID(n), ok
}

func parsePositive(value *string) (int, bool) {
	if value == nil {
		return 0, false
	}
	n, err := strconv.Atoi(*value)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseBool(value *string) (bool, bool) {
	if value == nil {
		return false, false
	}
	switch *value {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}
