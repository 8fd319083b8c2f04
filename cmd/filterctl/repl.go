package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/draknorr/publisheriq-sub000/internal/parser"
	"github.com/draknorr/publisheriq-sub000/internal/query/cel"
	"github.com/draknorr/publisheriq-sub000/internal/query/mongo"
	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/session"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

const help = `Enter a filter expression (e.g. "ccu > 50000", "free:yes", "tag:rpg") or a command:
  :preset <id>          toggle a preset
  :quick <id>           toggle a quick filter
  :search <text>        set the free-text search
  :set <field> <value>  set one canonical field (empty value clears it)
  :mode <field> any|all set the match mode of a multi-select field
  :sort <field> [asc|desc]
  :type <type>
  :clear [definition]   clear one definition, or everything
  :query                show the resolved query
  :tags                 show recently used tags
  :flush                write pending changes now
  :help
  :quit`

type repl struct {
	s   *session.Session
	out io.Writer
}

func newREPL(s *session.Session, out io.Writer) *repl {
	return &repl{s: s, out: out}
}

// Run reads one command per line until EOF, :quit or ctx is done.
func (r *repl) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	r.printf("%s\n", help)
	r.prompt()
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == ":quit" || line == ":q" {
			return nil
		}
		if line != "" {
			if err := r.exec(ctx, line); err != nil {
				r.printError(err)
			}
		}
		r.prompt()
	}
	return sc.Err()
}

func (r *repl) exec(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, ":") {
		pf, err := r.s.ApplyExpression(ctx, line)
		if err != nil {
			return err
		}
		r.printf("applied: %s\n", pf.Display)
		return nil
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "help", "h":
		r.printf("%s\n", help)
	case "preset":
		return r.s.TogglePreset(ctx, arg)
	case "quick":
		return r.s.ToggleQuickFilter(ctx, arg)
	case "search":
		applied, err := r.s.SetSearch(ctx, arg)
		if err == nil && !applied {
			r.printf("search needs at least a few characters\n")
		}
		return err
	case "set":
		field, raw, _ := strings.Cut(arg, " ")
		set := registry.Default().Role(field) == registry.RoleSet
		return r.s.SetAdvanced(ctx, field, parseValue(strings.TrimSpace(raw), set))
	case "mode":
		field, mode, _ := strings.Cut(arg, " ")
		return r.s.SetMode(ctx, field, model.SetMode(strings.TrimSpace(mode)))
	case "sort":
		field, order, _ := strings.Cut(arg, " ")
		if order == "" {
			order = string(model.OrderDesc)
		}
		return r.s.SetSort(ctx, field, model.SortOrder(strings.TrimSpace(order)))
	case "type":
		return r.s.SetType(ctx, arg)
	case "clear":
		if arg == "" {
			return r.s.ClearAll(ctx)
		}
		return r.s.ClearField(ctx, arg)
	case "query":
		return r.printQuery()
	case "tags":
		tags, err := r.s.RecentTags(ctx)
		if err != nil {
			return err
		}
		r.printf("recent tags: %s\n", strings.Join(tags, ", "))
	case "flush":
		return r.s.Flush(ctx)
	default:
		return fmt.Errorf("unknown command %q, try :help", cmd)
	}
	return nil
}

func (r *repl) printQuery() error {
	q := r.s.Query()
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return err
	}
	r.printf("%s\n", data)

	expr, err := cel.Expression(q)
	if err != nil {
		return err
	}
	r.printf("cel: %s\n", expr)

	filter, err := mongo.BuildFilter(q)
	if err != nil {
		return err
	}
	r.printf("mongo: %v\n", filter)
	return nil
}

func (r *repl) printError(err error) {
	var pe *parser.ParseError
	if errors.As(err, &pe) && len(pe.Suggestions) > 0 {
		r.printf("error: %s\n  did you mean: %s\n", pe.Message, strings.Join(pe.Suggestions, " | "))
		return
	}
	r.printf("error: %v\n", err)
}

func (r *repl) prompt() {
	r.printf("[%d active] ?%s\n> ", r.s.ActiveFilterCount(), r.s.Encoded())
}

func (r *repl) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// parseValue reads a comma separated set when set is true, otherwise a
// number, a boolean or a string.
func parseValue(raw string, set bool) model.Value {
	if raw == "" {
		return model.Value{}
	}
	if set {
		members := strings.Split(raw, ",")
		for i := range members {
			members[i] = strings.TrimSpace(members[i])
		}
		return model.Set(members...)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return model.Number(n)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return model.Bool(b)
	}
	return model.String(raw)
}
