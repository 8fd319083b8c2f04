// Package parser turns one line of filter shorthand into a structured filter.
package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/suggest"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

const (
	ident  = `([a-z][a-z0-9_]*)`
	number = `(-?\d+(?:\.\d+)?[kmb]?)`
)

// Rules in the order they are attempted.
var (
	reBounds   = regexp.MustCompile(`^` + ident + `\s+` + number + `\s*-\s*` + number + `$`)
	reOperator = regexp.MustCompile(`^` + ident + `\s*(>=|<=|>|<|=)\s*(\S+)$`)
	reBoolean  = regexp.MustCompile(`^` + ident + `\s*:\s*(yes|no|true|false)$`)
	reNegated  = regexp.MustCompile(`^no\s*:\s*` + ident + `$`)
	reContent  = regexp.MustCompile(`^` + ident + `\s*:\s*(.+)$`)
	reBare     = regexp.MustCompile(`^` + ident + `$`)

	reLeading = regexp.MustCompile(`^` + ident)
	reNumber  = regexp.MustCompile(`^` + number + `$`)
)

// Parser parses filter expressions against a registry.
type Parser struct {
	reg        *registry.Registry
	opts       suggest.Options
	candidates []suggest.Candidate
}

// Option configures a Parser.
type Option func(*Parser)

// WithSuggestOptions overrides the suggestion limits.
func WithSuggestOptions(opts suggest.Options) Option {
	return func(p *Parser) { p.opts = opts }
}

// New creates a parser over reg.
func New(reg *registry.Registry, options ...Option) *Parser {
	p := &Parser{reg: reg, opts: suggest.DefaultOptions()}
	for _, o := range options {
		o(p)
	}
	for _, d := range reg.Definitions() {
		p.candidates = append(p.candidates, suggest.Candidate{
			Shortcut: d.Shortcut,
			Label:    d.Label,
			Aliases:  d.Aliases,
		})
	}
	return p
}

// Parse converts text into a ParsedFilter. Failures are *ParseError.
func (p *Parser) Parse(text string) (model.ParsedFilter, error) {
	in := strings.ToLower(strings.TrimSpace(text))
	if in == "" {
		return model.ParsedFilter{}, &ParseError{Code: CodeEmpty, Message: "enter a filter expression"}
	}

	if m := reBounds.FindStringSubmatch(in); m != nil {
		return p.parseBounds(in, m[1], m[2], m[3])
	}
	if m := reOperator.FindStringSubmatch(in); m != nil {
		return p.parseOperator(in, m[1], model.FilterOp(m[2]), m[3])
	}
	if m := reBoolean.FindStringSubmatch(in); m != nil {
		v := m[2] == "yes" || m[2] == "true"
		return p.parseBoolean(in, m[1], v)
	}
	if m := reNegated.FindStringSubmatch(in); m != nil {
		return p.parseBoolean(in, m[1], false)
	}
	if m := reContent.FindStringSubmatch(in); m != nil {
		return p.parseContent(in, m[1], strings.TrimSpace(m[2]))
	}
	if m := reBare.FindStringSubmatch(in); m != nil {
		return p.parseBare(in, m[1])
	}
	return model.ParsedFilter{}, p.noMatch(in)
}

func (p *Parser) parseBounds(in, name, lo, hi string) (model.ParsedFilter, error) {
	d, err := p.resolve(in, name, false)
	if err != nil {
		return model.ParsedFilter{}, err
	}
	if d.Kind != model.KindRange {
		return model.ParsedFilter{}, p.mismatch(in, d, fmt.Sprintf("%s does not take a numeric range", d.Shortcut))
	}
	if !d.AllowsOp(model.OpBetween) {
		return model.ParsedFilter{}, &ParseError{
			Code:        CodeUnsupportedOperator,
			Message:     fmt.Sprintf("%s does not support ranges", d.Shortcut),
			Input:       in,
			Token:       name,
			Suggestions: rangeHints(d, lo),
		}
	}
	a, errA := parseNumber(lo)
	b, errB := parseNumber(hi)
	if errA != nil || errB != nil {
		return model.ParsedFilter{}, invalidRange(in, name, "range bounds must be numbers")
	}
	if a > b {
		return model.ParsedFilter{}, invalidRange(in, name,
			fmt.Sprintf("lower bound %s exceeds upper bound %s", Compact(a), Compact(b)))
	}
	if !d.InDomain(a) || !d.InDomain(b) {
		return model.ParsedFilter{}, invalidRange(in, name, fmt.Sprintf("%s is out of range", d.Label))
	}
	return model.ParsedFilter{
		Variant:    model.VariantRange,
		Definition: d,
		Op:         model.OpBetween,
		Value:      a,
		Upper:      b,
		Display:    displayRange(d, model.OpBetween, a, b),
	}, nil
}

func (p *Parser) parseOperator(in, name string, op model.FilterOp, raw string) (model.ParsedFilter, error) {
	d, err := p.resolve(in, name, false)
	if err != nil {
		return model.ParsedFilter{}, err
	}
	if d.Kind != model.KindRange {
		return model.ParsedFilter{}, p.mismatch(in, d, fmt.Sprintf("%s does not take a comparison", d.Shortcut))
	}
	if !d.AllowsOp(op) {
		return model.ParsedFilter{}, &ParseError{
			Code:        CodeUnsupportedOperator,
			Message:     fmt.Sprintf("%s does not support %s", d.Shortcut, op),
			Input:       in,
			Token:       string(op),
			Suggestions: rangeHints(d, raw),
		}
	}
	v, err := parseNumber(raw)
	if err != nil {
		return model.ParsedFilter{}, invalidRange(in, raw, fmt.Sprintf("%q is not a number", raw))
	}
	if !d.InDomain(v) {
		return model.ParsedFilter{}, invalidRange(in, raw, fmt.Sprintf("%s is out of range for %s", Compact(v), d.Label))
	}
	return model.ParsedFilter{
		Variant:    model.VariantRange,
		Definition: d,
		Op:         op,
		Value:      v,
		Display:    displayRange(d, op, v, 0),
	}, nil
}

func (p *Parser) parseBoolean(in, name string, v bool) (model.ParsedFilter, error) {
	d, err := p.resolve(in, name, false)
	if err != nil {
		return model.ParsedFilter{}, err
	}
	if d.Kind != model.KindBoolean {
		return model.ParsedFilter{}, p.mismatch(in, d, fmt.Sprintf("%s is not a yes/no filter", d.Shortcut))
	}
	return model.ParsedFilter{
		Variant:    model.VariantBoolean,
		Definition: d,
		Bool:       v,
		Display:    displayBool(d, v),
	}, nil
}

func (p *Parser) parseContent(in, name, value string) (model.ParsedFilter, error) {
	d, err := p.resolve(in, name, false)
	if err != nil {
		return model.ParsedFilter{}, err
	}
	switch d.Kind {
	case model.KindSearch:
		return model.ParsedFilter{
			Variant:    model.VariantSearch,
			Definition: d,
			Text:       value,
			Display:    displayText(d, value),
		}, nil
	case model.KindSingleSelect:
		if !d.HasOption(value) {
			return model.ParsedFilter{}, invalidOption(in, d, value)
		}
		return model.ParsedFilter{
			Variant:    model.VariantContent,
			Definition: d,
			Text:       value,
			Display:    displayText(d, value),
		}, nil
	case model.KindMultiSelect:
		// Several members may be given at once: "genre:rpg,action".
		members := model.ParsedFilter{Text: value}.Members()
		if len(members) == 0 {
			return model.ParsedFilter{}, invalidOption(in, d, value)
		}
		for _, m := range members {
			if len(d.Options) > 0 && !d.HasOption(m) {
				return model.ParsedFilter{}, invalidOption(in, d, m)
			}
		}
		value = strings.Join(members, ",")
		return model.ParsedFilter{
			Variant:    model.VariantContent,
			Definition: d,
			Text:       value,
			Display:    displayText(d, strings.Join(members, ", ")),
		}, nil
	default:
		return model.ParsedFilter{}, p.mismatchValue(in, d, value)
	}
}

func invalidOption(in string, d model.Definition, value string) *ParseError {
	return &ParseError{
		Code:        CodeInvalidSelectValue,
		Message:     fmt.Sprintf("%q is not a valid %s", value, d.Label),
		Input:       in,
		Token:       value,
		Suggestions: optionHints(d),
	}
}

func (p *Parser) parseBare(in, name string) (model.ParsedFilter, error) {
	d, err := p.resolve(in, name, true)
	if err != nil {
		return model.ParsedFilter{}, err
	}
	if d.Kind != model.KindBoolean {
		return model.ParsedFilter{}, p.mismatch(in, d, fmt.Sprintf("%s needs a value", d.Shortcut))
	}
	return model.ParsedFilter{
		Variant:    model.VariantBoolean,
		Definition: d,
		Bool:       true,
		Display:    displayBool(d, true),
	}, nil
}

func (p *Parser) noMatch(in string) error {
	m := reLeading.FindStringSubmatch(in)
	if m == nil {
		return &ParseError{Code: CodeNoMatch, Message: fmt.Sprintf("cannot understand %q", in), Input: in}
	}
	bare := !strings.ContainsAny(in, ":<>=")
	d, err := p.resolve(in, m[1], bare)
	if err != nil {
		return err
	}
	return &ParseError{
		Code:        CodeNoMatch,
		Message:     fmt.Sprintf("cannot understand %q", in),
		Input:       in,
		Token:       m[1],
		Suggestions: usageHints(d),
	}
}

func (p *Parser) resolve(in, name string, bare bool) (model.Definition, error) {
	if d, ok := p.reg.Lookup(name); ok {
		return d, nil
	}
	opts := p.opts
	opts.Prefix = bare
	return model.Definition{}, &ParseError{
		Code:        CodeUnknownShortcut,
		Message:     fmt.Sprintf("unknown filter %q", name),
		Input:       in,
		Token:       name,
		Suggestions: suggest.Suggest(name, p.candidates, opts),
	}
}

func (p *Parser) mismatch(in string, d model.Definition, msg string) error {
	return &ParseError{
		Code:        CodeKindMismatch,
		Message:     msg,
		Input:       in,
		Token:       d.Shortcut,
		Suggestions: usageHints(d),
	}
}

func (p *Parser) mismatchValue(in string, d model.Definition, value string) error {
	err := &ParseError{
		Code:    CodeKindMismatch,
		Input:   in,
		Token:   value,
		Message: fmt.Sprintf("%s does not take %q", d.Shortcut, value),
	}
	switch d.Kind {
	case model.KindBoolean:
		err.Suggestions = []string{d.Shortcut + ":yes", d.Shortcut + ":no"}
	case model.KindRange:
		err.Suggestions = rangeHints(d, value)
	}
	return err
}

func invalidRange(in, token, msg string) error {
	return &ParseError{Code: CodeInvalidRange, Message: msg, Input: in, Token: token}
}

// rangeHints proposes valid comparison forms reusing raw when it is numeric.
func rangeHints(d model.Definition, raw string) []string {
	if _, err := parseNumber(raw); err != nil {
		raw = "1000"
	}
	var out []string
	for _, op := range d.Operators {
		if op == model.OpBetween {
			continue
		}
		out = append(out, fmt.Sprintf("%s %s %s", d.Shortcut, op, raw))
		if len(out) == 2 {
			break
		}
	}
	return out
}

func optionHints(d model.Definition) []string {
	out := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		out = append(out, d.Shortcut+":"+o)
	}
	return out
}

func usageHints(d model.Definition) []string {
	switch d.Kind {
	case model.KindRange:
		return rangeHints(d, "")
	case model.KindBoolean:
		return []string{d.Shortcut + ":yes", "no:" + d.Shortcut}
	case model.KindSingleSelect, model.KindMultiSelect:
		if len(d.Options) > 0 {
			return optionHints(d)
		}
	}
	return []string{d.Shortcut + ":<value>"}
}

func parseNumber(s string) (float64, error) {
	if !reNumber.MatchString(s) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	scale := 1.0
	switch s[len(s)-1] {
	case 'k':
		scale = 1e3
	case 'm':
		scale = 1e6
	case 'b':
		scale = 1e9
	}
	if scale != 1 {
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	v *= scale
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}
