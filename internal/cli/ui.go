package cli

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const createdLayout = "2006-01-02 15:04:05"

// column widths of the task table, in cells
var columnWidths = []int{5, 8, 30, 35, 21}

func (a *App) success(msg string) {
	fmt.Fprintln(a.out, a.styles.success.Render("✓ "+msg))
}

func (a *App) errorMsg(msg string) {
	fmt.Fprintln(a.out, a.styles.failure.Render("✗ Error: "+msg))
}

func (a *App) info(msg string) {
	fmt.Fprintln(a.out, a.styles.warning.Render("ℹ "+msg))
}

func (a *App) fail(err error) {
	a.errorMsg(capitalize(err.Error()))
}

func (a *App) showMenu() {
	items := []string{"Add Task", "List Tasks", "Update Task", "Delete Task", "Mark Complete", "Exit"}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = a.styles.bold.Render(strconv.Itoa(i+1)+".") + " " + item
	}
	body := a.styles.title.Render("Todo Manager") + "\n\n" + strings.Join(lines, "\n")
	fmt.Fprintln(a.out, a.styles.menu.Render(body))
}

func (a *App) showTasks(tasks []Task) {
	if len(tasks) == 0 {
		a.info("No tasks found. Add your first task!")
		return
	}

	st := a.styles
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.renderer.NewStyle().Foreground(st.theme.Border)).
		Headers("ID", "Status", "Title", "Description", "Created").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := st.cell
			if row == table.HeaderRow {
				style = st.header
			}
			if col < len(columnWidths) {
				style = style.Width(columnWidths[col])
			}
			return style
		})

	var pending, completed int
	for _, task := range tasks {
		status := st.warning.Render("○")
		if task.Completed {
			status = st.success.Render("✓")
			completed++
		} else {
			pending++
		}
		desc := task.Description
		if desc == "" {
			desc = "-"
		}
		t.Row(
			st.dim.Render(strconv.Itoa(task.ID)),
			status,
			task.Title,
			desc,
			task.CreatedAt.Format(createdLayout),
		)
	}

	fmt.Fprintln(a.out, t.Render())
	fmt.Fprintf(a.out, "\nTotal: %d task(s) (%d pending, %d completed)\n", len(tasks), pending, completed)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
