// Package picker runs interactive selection prompts over recent entries.
package picker

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/hay-kot/casa/internal/styles"
)

// ErrNothingToPick is returned when the entry list is empty.
var ErrNothingToPick = errors.New("nothing to pick from")

// Pick shows entries in order and returns the one the user selects.
// huh.ErrUserAborted is returned if the prompt is cancelled.
func Pick(title string, entries []string) (string, error) {
	if len(entries) == 0 {
		return "", ErrNothingToPick
	}

	var choice string
	sel := huh.NewSelect[string]().
		Title(title).
		Options(Options(entries)...).
		Value(&choice)

	form := huh.NewForm(huh.NewGroup(sel)).WithTheme(styles.FormTheme())
	if err := form.Run(); err != nil {
		return "", err
	}

	return choice, nil
}

// Options builds select options labelled with their 1-based position.
func Options(entries []string) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(entries))
	for i, e := range entries {
		label := styles.IndexStyle.Render(fmt.Sprintf("%2d.", i+1)) + " " + e
		opts = append(opts, huh.NewOption(label, e))
	}
	return opts
}
