// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"

	"sqlexplorer/cli/internal/errors"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Mask(err.Error())
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// Hint suggests the next step for errors of a known kind, or "" when there is none.
func Hint(err error) string {
	return HintFor(errors.KindOf(err))
}

// HintFor is Hint for an error kind received over the wire.
func HintFor(kind errors.Kind) string {
	switch kind {
	case errors.NeedCredentials:
		return "Run 'sqlexplorer pass set <dbid>' to provide a password."
	case errors.NoConnection:
		return "Check 'sqlexplorer conn list' for the available connections."
	case errors.MultiStatement:
		return "Submit one statement at a time."
	case errors.MalformedLimit:
		return "LIMIT must be followed by an integer row count."
	case errors.TaskNotFound:
		return "The result was already delivered, cancelled or expired."
	case errors.InvalidConfig:
		return "Fix the configuration file or pass --config."
	}
	return ""
}
