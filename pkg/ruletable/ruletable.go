// Package ruletable renders proxy rules as a terminal table.
package ruletable

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/papercomputeco/devproxy/pkg/proxyrule"
)

// NewRenderer returns a renderer for w. Colors are only used when w is a
// terminal; pipes and buffers get plain ASCII.
func NewRenderer(w io.Writer) *lipgloss.Renderer {
	profile := termenv.Ascii
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		profile = termenv.NewOutput(f).EnvColorProfile()
	}
	return lipgloss.NewRenderer(w, termenv.WithProfile(profile))
}

// Render draws rules in evaluation order.
func Render(r *lipgloss.Renderer, rules []*proxyrule.Rule) string {
	headerStyle := r.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("12"))
	cellStyle := r.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("#", "PREFIX", "TARGET", "CHANGE ORIGIN", "PATH REWRITE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for i, rule := range rules {
		t.Row(
			strconv.Itoa(i+1),
			rule.MatchPrefix,
			rule.Target.String(),
			strconv.FormatBool(rule.ChangeOrigin),
			Rewrites(rule),
		)
	}

	return t.String()
}

// Rewrites formats a rule's path rewrites as `"pattern" -> "replacement"`
// pairs, or "-" when there are none.
func Rewrites(rule *proxyrule.Rule) string {
	if len(rule.PathRewrite) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(rule.PathRewrite))
	for _, rw := range rule.PathRewrite {
		parts = append(parts, fmt.Sprintf("%q -> %q", rw.Pattern.String(), rw.Replacement))
	}
	return strings.Join(parts, ", ")
}
