// Package codec converts filter state to and from its persisted URL-query form.
package codec

import (
	"log/slog"
	"math"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/state"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"github.com/gorilla/schema"
)

// Fixed persisted keys.
const (
	KeyType    = "type"
	KeySort    = "sort"
	KeyOrder   = "order"
	KeySearch  = "search"
	KeyPreset  = "preset"
	KeyFilters = "filters"
)

// scalarParams are the keys every state carries, regardless of registry.
type scalarParams struct {
	Type    string `schema:"type,omitempty"`
	Sort    string `schema:"sort,omitempty"`
	Order   string `schema:"order,omitempty"`
	Search  string `schema:"search,omitempty"`
	Preset  string `schema:"preset,omitempty"`
	Filters string `schema:"filters,omitempty"`
}

// Codec encodes and decodes filter state against a registry.
type Codec struct {
	reg     *registry.Registry
	decoder *schema.Decoder
	encoder *schema.Encoder
	logger  *slog.Logger
}

// New creates a codec. A nil logger falls back to slog.Default.
func New(reg *registry.Registry, logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Codec{
		reg:     reg,
		decoder: decoder,
		encoder: schema.NewEncoder(),
		logger:  logger.With("component", "codec"),
	}
}

// Encode renders the snapshot with default-valued keys omitted. Keys are
// sorted so equal states always encode to the same text.
func (c *Codec) Encode(sn state.Snapshot) string {
	return c.Values(sn).Encode()
}

// Values renders the snapshot as url.Values.
func (c *Codec) Values(sn state.Snapshot) url.Values {
	def := c.reg.Defaults()
	params := scalarParams{Search: sn.Search(), Preset: sn.Preset()}
	if sn.Type() != def.Type {
		params.Type = sn.Type()
	}
	if sn.Sort() != def.Sort {
		params.Sort = sn.Sort()
	}
	if sn.Order() != def.Order {
		params.Order = string(sn.Order())
	}
	quick := sn.QuickFilters()
	sort.SliceStable(quick, func(i, j int) bool {
		return c.reg.QuickFilterIndex(quick[i]) < c.reg.QuickFilterIndex(quick[j])
	})
	params.Filters = strings.Join(quick, ",")

	out := url.Values{}
	if err := c.encoder.Encode(params, out); err != nil {
		c.logger.Error("Failed to encode scalar keys", "error", err)
	}

	for _, field := range c.reg.Fields() {
		v := sn.Value(field)
		if !v.IsSet() {
			continue
		}
		if c.reg.Role(field) == registry.RoleMode {
			if s, _ := v.Text(); s != string(model.ModeAny) {
				continue
			}
		}
		out.Set(field, v.Format())
	}
	return out
}

// Keys returns every key the codec may write.
func (c *Codec) Keys() []string {
	keys := []string{KeyType, KeySort, KeyOrder, KeySearch, KeyPreset, KeyFilters}
	return append(keys, c.reg.Fields()...)
}

// Normalize returns the patch turning the owned keys of current into next.
// Keys the codec does not own are left alone.
func (c *Codec) Normalize(current, next url.Values) Patch {
	out := Patch{}
	for _, k := range c.Keys() {
		if current.Get(k) != next.Get(k) || len(current[k]) > 1 {
			out[k] = next.Get(k)
		}
	}
	return out
}

// Decode parses persisted text into a state. It never fails: malformed,
// unknown or out-of-domain values fall back to their defaults.
func (c *Codec) Decode(text string) state.State {
	vals, err := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(text), "?"))
	if err != nil {
		c.logger.Debug("Ignoring malformed query segments", "error", err)
	}
	return c.DecodeValues(vals)
}

// DecodeValues is Decode over already split values.
func (c *Codec) DecodeValues(vals url.Values) state.State {
	st := state.Default(c.reg)

	var params scalarParams
	if err := c.decoder.Decode(&params, vals); err != nil {
		c.logger.Debug("Ignoring malformed scalar keys", "error", err)
		params = scalarParams{}
	}
	if slices.Contains(c.reg.ResultTypes(), params.Type) {
		st.Type = params.Type
	}
	if slices.Contains(c.reg.SortFields(), params.Sort) {
		st.Sort = params.Sort
	}
	if o := model.SortOrder(params.Order); o.IsValid() {
		st.Order = o
	}
	if _, ok := c.reg.Preset(params.Preset); ok {
		st.Preset = params.Preset
	}
	st.Search = params.Search
	st.QuickFilters = c.decodeQuickFilters(params.Filters)

	for _, field := range c.reg.Fields() {
		raw := strings.TrimSpace(vals.Get(field))
		if raw == "" {
			continue
		}
		if v, ok := c.decodeField(field, raw); ok {
			st.Set(field, v)
		}
	}
	c.dropInvertedRanges(&st)
	return st
}

func (c *Codec) decodeQuickFilters(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if _, ok := c.reg.QuickFilter(id); ok && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return c.reg.QuickFilterIndex(ids[i]) < c.reg.QuickFilterIndex(ids[j])
	})
	return ids
}

func (c *Codec) decodeField(field, raw string) (model.Value, bool) {
	d, role, ok := c.reg.FieldOwner(field)
	if !ok {
		return model.Value{}, false
	}
	switch role {
	case registry.RoleMin, registry.RoleMax:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || !d.InDomain(n) {
			return model.Value{}, false
		}
		return model.Number(n), true
	case registry.RoleBool:
		switch raw {
		case "true":
			return model.Bool(true), true
		case "false":
			return model.Bool(false), true
		}
	case registry.RoleString:
		if d.Kind == model.KindSingleSelect && !d.HasOption(raw) {
			return model.Value{}, false
		}
		return model.String(raw), true
	case registry.RoleSet:
		var members []string
		for _, m := range strings.Split(raw, ",") {
			m = strings.TrimSpace(m)
			if len(d.Options) > 0 && !d.HasOption(m) {
				continue
			}
			members = append(members, m)
		}
		v := model.Set(members...)
		return v, v.IsSet()
	case registry.RoleMode:
		if raw == string(model.ModeAny) {
			return model.String(raw), true
		}
	}
	return model.Value{}, false
}

// dropInvertedRanges unsets both bounds of a range whose min exceeds its max.
func (c *Codec) dropInvertedRanges(st *state.State) {
	for _, d := range c.reg.Definitions() {
		if d.Kind != model.KindRange || d.MinField == "" || d.MaxField == "" {
			continue
		}
		lo, okLo := st.Get(d.MinField).Num()
		hi, okHi := st.Get(d.MaxField).Num()
		if okLo && okHi && lo > hi {
			st.Set(d.MinField, model.Value{})
			st.Set(d.MaxField, model.Value{})
		}
	}
}
