// Package prompt wraps promptui for the interactive parts of admin commands.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// ErrPasswordMismatch indicates the confirmation did not match.
var ErrPasswordMismatch = errors.New("passwords do not match")

// IsAborted returns true if the error indicates the user aborted.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err != nil && IsAborted(err) {
		return ErrAborted
	}
	return err
}

// InputRequired prompts until a non-blank value is entered.
func InputRequired(label string) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Validate: NotBlank,
	}
	result, err := p.Run()
	return strings.TrimSpace(result), wrapError(err)
}

// NotBlank rejects empty or whitespace-only input.
func NotBlank(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("a value is required")
	}
	return nil
}

// NewPassword prompts for a masked password and its confirmation.
func NewPassword(label string) (string, error) {
	first := promptui.Prompt{Label: label, Mask: '*', Validate: NotBlank}
	password, err := first.Run()
	if err != nil {
		return "", wrapError(err)
	}

	second := promptui.Prompt{Label: "Confirm " + strings.ToLower(label), Mask: '*'}
	confirm, err := second.Run()
	if err != nil {
		return "", wrapError(err)
	}

	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

// Confirm asks a yes/no question. Answering "n" or pressing enter is a no.
func Confirm(label string) (bool, error) {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := p.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	default:
		return false, wrapError(err)
	}
}

// ConfirmWithForce returns true immediately if force is true,
// otherwise prompts for confirmation.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label)
}

// Option is an item in a Select list.
type Option struct {
	Label       string
	Value       string
	Description string
}

// Select prompts the user to pick one option and returns its value.
func Select(label string, options []Option) (string, error) {
	p := promptui.Select{
		Label: label,
		Items: options,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ .Label | cyan }}",
			Inactive: "  {{ .Label }}",
			Selected: "* {{ .Label | green }}",
			Details:  `{{ .Description | faint }}`,
		},
	}

	i, _, err := p.Run()
	if err != nil {
		return "", wrapError(err)
	}
	if i < 0 || i >= len(options) {
		return "", fmt.Errorf("invalid selection %d", i)
	}
	return options[i].Value, nil
}
