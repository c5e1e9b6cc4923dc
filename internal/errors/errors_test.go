// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	cause := stderrors.New("Error 1064: syntax")
	tests := []struct {
		name string
		err  *E
		want string
	}{
		{"dialect and cause", ExecutionError("mysql", cause), "[mysql] Error 1064: syntax"},
		{"dialect, message and cause", &E{Kind: Execution, Dialect: "oracle", Message: "query", Err: cause}, "[oracle] query: Error 1064: syntax"},
		{"message and cause", Wrap(NoConnection, "read connection x", cause), "read connection x: Error 1064: syntax"},
		{"message only", New(MultiStatement, "one statement"), "one statement"},
		{"kind only", &E{Kind: Cancelled}, "cancelled"},
		{"dialect and kind", &E{Kind: Execution, Dialect: "sqlite"}, "[sqlite] execution"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("submit: %w", New(TaskNotFound, "task not exists"))
	if KindOf(err) != TaskNotFound {
		t.Errorf("KindOf = %q, want %q", KindOf(err), TaskNotFound)
	}
	if !Is(err, TaskNotFound) || Is(err, Execution) {
		t.Error("Is did not match the wrapped kind")
	}
	if KindOf(stderrors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}
