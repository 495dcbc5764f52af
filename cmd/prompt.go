package cmd

import (
	"os"

	"github.com/charmbracelet/huh"
)

// SelectOption is one choice in a select prompt.
type SelectOption[T any] struct {
	Label string
	Value T
}

// Lists longer than this get type-to-filter.
const filterThreshold = 5

// runField shows a single field. FAQCLAW_ACCESSIBLE=1 switches huh to plain
// line prompts for screen readers and dumb terminals.
func runField(field huh.Field) error {
	return huh.NewForm(huh.NewGroup(field)).
		WithShowHelp(true).
		WithAccessible(os.Getenv("FAQCLAW_ACCESSIBLE") != "").
		Run()
}

// promptString asks for text. defaultVal is shown as the placeholder and
// returned when the input is left empty.
func promptString(title, description, defaultVal string) (string, error) {
	var value string
	inp := huh.NewInput().Title(title).Description(description).Placeholder(defaultVal).Value(&value)
	if err := runField(inp); err != nil {
		return "", err
	}
	if value == "" {
		return defaultVal, nil
	}
	return value, nil
}

func promptPassword(title, description string) (string, error) {
	var value string
	inp := huh.NewInput().Title(title).Description(description).EchoMode(huh.EchoModePassword).Value(&value)
	if err := runField(inp); err != nil {
		return "", err
	}
	return value, nil
}

func huhOptions[T comparable](options []SelectOption[T], selected func(i int, v T) bool) []huh.Option[T] {
	out := make([]huh.Option[T], len(options))
	for i, opt := range options {
		out[i] = huh.NewOption(opt.Label, opt.Value).Selected(selected(i, opt.Value))
	}
	return out
}

// promptSelect returns the chosen value; defaultIdx is preselected.
func promptSelect[T comparable](title string, options []SelectOption[T], defaultIdx int) (T, error) {
	var value T
	sel := huh.NewSelect[T]().
		Title(title).
		Options(huhOptions(options, func(i int, _ T) bool { return i == defaultIdx })...).
		Filtering(len(options) > filterThreshold).
		Value(&value)
	if err := runField(sel); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

func promptMultiSelect[T comparable](title, description string, options []SelectOption[T], preselected []T) ([]T, error) {
	pre := make(map[T]bool, len(preselected))
	for _, v := range preselected {
		pre[v] = true
	}
	var values []T
	ms := huh.NewMultiSelect[T]().
		Title(title).
		Description(description).
		Options(huhOptions(options, func(_ int, v T) bool { return pre[v] })...).
		Filtering(len(options) > filterThreshold).
		Value(&values)
	if err := runField(ms); err != nil {
		return nil, err
	}
	return values, nil
}

func promptConfirm(title string, defaultYes bool) (bool, error) {
	value := defaultYes
	c := huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&value)
	if err := runField(c); err != nil {
		return false, err
	}
	return value, nil
}
