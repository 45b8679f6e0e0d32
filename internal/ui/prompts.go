package ui

import (
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// defaultStdio returns the default terminal stdio (os.Stdin, os.Stdout, os.Stderr)
func defaultStdio() terminal.Stdio {
	return terminal.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// PromptDefault prompts with a default value
func PromptDefault(label, defaultValue string) (string, error) {
	return PromptDefaultWithStdio(label, defaultValue, defaultStdio())
}

// PromptInt prompts for a positive integer with a default
func PromptInt(label string, defaultValue int) (int, error) {
	return PromptIntWithStdio(label, defaultValue, defaultStdio())
}

// PromptConfirm prompts for yes/no confirmation
func PromptConfirm(label string, defaultYes bool) (bool, error) {
	return PromptConfirmWithStdio(label, defaultYes, defaultStdio())
}

// PromptSelect prompts for selection from a list
func PromptSelect(label string, options []string) (string, error) {
	return PromptSelectWithStdio(label, options, defaultStdio())
}

// =============================================================================
// WithStdio variants for testing with virtual terminals
// =============================================================================

// PromptDefaultWithStdio is like PromptDefault but with custom stdio for testing
func PromptDefaultWithStdio(label, defaultValue string, stdio terminal.Stdio) (string, error) {
	var value string
	prompt := &survey.Input{
		Message: label,
		Default: defaultValue,
	}

	err := survey.AskOne(prompt, &value, survey.WithStdio(stdio.In, stdio.Out, stdio.Err))
	if err != nil {
		return defaultValue, err
	}

	if value == "" {
		return defaultValue, nil
	}

	return value, nil
}

// PromptIntWithStdio is like PromptInt but with custom stdio for testing
func PromptIntWithStdio(label string, defaultValue int, stdio terminal.Stdio) (int, error) {
	var value string
	prompt := &survey.Input{
		Message: label,
		Default: strconv.Itoa(defaultValue),
	}

	err := survey.AskOne(prompt, &value,
		survey.WithValidator(func(ans interface{}) error {
			str, ok := ans.(string)
			if !ok || str == "" {
				return nil
			}
			n, err := strconv.Atoi(str)
			if err != nil {
				return fmt.Errorf("must be a number")
			}
			if n <= 0 {
				return fmt.Errorf("must be positive")
			}
			return nil
		}),
		survey.WithStdio(stdio.In, stdio.Out, stdio.Err),
	)
	if err != nil {
		return defaultValue, err
	}

	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

// PromptConfirmWithStdio is like PromptConfirm but with custom stdio for testing
func PromptConfirmWithStdio(label string, defaultYes bool, stdio terminal.Stdio) (bool, error) {
	var value bool
	prompt := &survey.Confirm{
		Message: label,
		Default: defaultYes,
	}

	err := survey.AskOne(prompt, &value, survey.WithStdio(stdio.In, stdio.Out, stdio.Err))
	return value, err
}

// PromptSelectWithStdio is like PromptSelect but with custom stdio for testing
func PromptSelectWithStdio(label string, options []string, stdio terminal.Stdio) (string, error) {
	var value string
	prompt := &survey.Select{
		Message: label,
		Options: options,
	}

	err := survey.AskOne(prompt, &value, survey.WithStdio(stdio.In, stdio.Out, stdio.Err))
	return value, err
}
