package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/protocol"
	"sqlexplorer/cli/internal/sqlexec"
	"sqlexplorer/cli/internal/terminal"
)

// awaitWithSpinner polls r to completion, showing elapsed time on a spinner
// when attached to a terminal.
func awaitWithSpinner(ctx context.Context, c protocol.Client, r protocol.Response, quiet bool) protocol.Response {
	if quiet || !terminal.IsInteractive() || r.Terminal() {
		return protocol.Await(ctx, c, r, nil)
	}

	cursor.Hide()
	defer cursor.Show()
	spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("running query")
	if err != nil {
		return protocol.Await(ctx, c, r, nil)
	}
	start := time.Now()
	done := protocol.Await(ctx, c, r, func(protocol.Response) {
		spinner.UpdateText(fmt.Sprintf("running query (%s)", time.Since(start).Round(time.Second)))
	})
	_ = spinner.Stop()
	return done
}

// renderResult prints a result as a table, or as JSON when asJSON is set.
func renderResult(r *sqlexec.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	if r == nil || r.Empty() {
		pterm.Success.Println("Statement executed")
		return nil
	}

	data := make(pterm.TableData, 0, len(r.Rows)+1)
	data = append(data, r.Columns)
	for _, row := range r.Rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = cell(v)
		}
		data = append(data, line)
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Println(pterm.NewStyle(pterm.FgGray).Sprintf("%d row(s)", len(r.Rows)))
	return nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// renderNodes prints catalog nodes under root as a tree.
func renderNodes(root string, nodes []dialect.Node) error {
	children := make([]pterm.TreeNode, 0, len(nodes))
	for _, n := range nodes {
		text := n.Name
		if n.Desc != "" {
			text += pterm.NewStyle(pterm.FgGray).Sprint("  " + n.Desc)
		}
		children = append(children, pterm.TreeNode{Text: text})
	}
	return pterm.DefaultTree.WithRoot(pterm.TreeNode{
		Text:     pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(root),
		Children: children,
	}).Render()
}
