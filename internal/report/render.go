package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/cleared-dev/microerp/internal/structure"
)

const wordWrap = 100

// Render writes md to w. Styled output goes through glamour for terminals;
// otherwise the markdown is written as is.
func Render(w io.Writer, md string, styled bool) error {
	if !styled {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// CenterTree renders the company structure as a nested markdown list.
func CenterTree(title string, roots []*structure.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(roots) == 0 {
		b.WriteString("_No centers._\n")
		return b.String()
	}
	structure.Walk(roots, func(n *structure.Node, depth int) {
		fmt.Fprintf(&b, "%s- **%s** (%s, #%d)\n",
			strings.Repeat("  ", depth), n.Center.Name, n.Center.Type, n.Center.ID)
	})
	return b.String()
}
