package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// App runs the interactive menu loop over a Storage.
type App struct {
	storage *Storage
	in      *bufio.Scanner
	out     io.Writer
	styles  styles
}

func New(storage *Storage, in io.Reader, out io.Writer) *App {
	return &App{
		storage: storage,
		in:      bufio.NewScanner(in),
		out:     out,
		styles:  newStyles(out, TokyoNight),
	}
}

// errEOF ends the loop when input is exhausted.
var errEOF = errors.New("end of input")

// Run shows the menu until the user exits or input ends.
func (a *App) Run() error {
	fmt.Fprintln(a.out, "\n"+a.styles.title.Render("Welcome to Todo Manager!")+"\n")

	for {
		a.showMenu()
		choice, err := a.prompt("\nEnter your choice (1-6): ")
		if err != nil {
			return a.finish(err)
		}

		switch choice {
		case "1":
			err = a.addTask()
		case "2":
			a.showTasks(a.storage.All())
		case "3":
			err = a.updateTask()
		case "4":
			err = a.deleteTask()
		case "5":
			err = a.completeTask()
		case "6":
			a.goodbye()
			return nil
		default:
			a.errorMsg("Invalid option. Please choose 1-6.")
		}
		if err != nil {
			return a.finish(err)
		}
		fmt.Fprintln(a.out)
	}
}

func (a *App) finish(err error) error {
	if errors.Is(err, errEOF) {
		fmt.Fprintln(a.out)
		a.goodbye()
		return nil
	}
	return err
}

func (a *App) goodbye() {
	fmt.Fprintln(a.out, "\n"+a.styles.title.Render("Goodbye! Your tasks were not saved (in-memory storage).")+"\n")
}

// prompt prints label and returns the next trimmed input line.
func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.out, a.styles.bold.Render(label))
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", errEOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}

// promptID reads a task id and looks it up. ok is false when an error
// message has already been shown.
func (a *App) promptID(label string) (task Task, ok bool, err error) {
	raw, err := a.prompt(label)
	if err != nil {
		return Task{}, false, err
	}
	id, convErr := strconv.Atoi(raw)
	if convErr != nil || id <= 0 {
		a.errorMsg("Invalid task ID. Please enter a number.")
		return Task{}, false, nil
	}
	task, found := a.storage.Get(id)
	if !found {
		a.errorMsg(fmt.Sprintf("Task not found with ID: %d", id))
		return Task{}, false, nil
	}
	return task, true, nil
}

func (a *App) addTask() error {
	title, err := a.prompt("Enter task title: ")
	if err != nil {
		return err
	}
	if err := validateTitle(title); err != nil {
		a.fail(err)
		return nil
	}
	desc, err := a.prompt("Enter description (optional, press Enter to skip): ")
	if err != nil {
		return err
	}

	task, err := a.storage.Add(title, desc)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.success(fmt.Sprintf("Task added successfully: \"%s\" (ID: %d)", task.Title, task.ID))
	return nil
}

func (a *App) updateTask() error {
	task, ok, err := a.promptID("Enter task ID to update: ")
	if err != nil || !ok {
		return err
	}

	fmt.Fprintln(a.out, a.styles.dim.Render(fmt.Sprintf("Current title: \"%s\"", task.Title)))
	title, err := a.prompt("Enter new title (press Enter to keep current): ")
	if err != nil {
		return err
	}
	if err := validateTitle(title); title != "" && err != nil {
		a.fail(err)
		return nil
	}

	current := task.Description
	if current == "" {
		current = "(none)"
	}
	fmt.Fprintln(a.out, a.styles.dim.Render(fmt.Sprintf("Current description: \"%s\"", current)))
	desc, err := a.prompt("Enter new description (press Enter to keep current): ")
	if err != nil {
		return err
	}

	if title == "" && desc == "" {
		a.info("No changes made")
		return nil
	}
	var newTitle, newDesc *string
	if title != "" {
		newTitle = &title
	}
	if desc != "" {
		newDesc = &desc
	}
	updated, err := a.storage.Update(task.ID, newTitle, newDesc)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.success(fmt.Sprintf("Task updated successfully: \"%s\" (ID: %d)", updated.Title, updated.ID))
	return nil
}

func (a *App) deleteTask() error {
	task, ok, err := a.promptID("Enter task ID to delete: ")
	if err != nil || !ok {
		return err
	}
	if _, err := a.storage.Delete(task.ID); err != nil {
		a.fail(err)
		return nil
	}
	a.success(fmt.Sprintf("Task deleted: \"%s\" (ID: %d)", task.Title, task.ID))
	return nil
}

func (a *App) completeTask() error {
	task, ok, err := a.promptID("Enter task ID to mark complete: ")
	if err != nil || !ok {
		return err
	}
	if task.Completed {
		a.info(fmt.Sprintf("Task is already completed: \"%s\" (ID: %d)", task.Title, task.ID))
		return nil
	}
	completed, err := a.storage.MarkComplete(task.ID)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.success(fmt.Sprintf("Task marked as complete: \"%s\" (ID: %d)", completed.Title, completed.ID))
	return nil
}
