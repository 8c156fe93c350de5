package runnerdash

import "strings"

// pathDenyList contains the shell metacharacters that must never appear in
// a filesystem path interpolated into a pkill/pgrep-style matching pattern.
const pathDenyList = ";&|`$\n\r'\"(){}<>*?[]!#\\"

// ValidateAction checks that a is exactly one of the three allowed control
// verbs. The comparison is case-sensitive and admits no aliases.
func ValidateAction(a Action) error {
	switch a {
	case ActionStart, ActionStop, ActionRestart:
		return nil
	}
	return &ValidationError{Field: "action", Value: string(a), Err: ErrInvalidAction}
}

// ValidateServiceName checks that name consists only of alphanumerics,
// '.', '-' and '_', and carries the actions.runner. namespace prefix.
// This runs before the name is handed to any subprocess, so a forged or
// corrupted name can never smuggle shell metacharacters into an argument.
func ValidateServiceName(name string) error {
	if !strings.HasPrefix(name, ServicePrefix) {
		return &ValidationError{Field: "service", Value: name, Err: ErrServiceName}
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '-' || c == '_':
		default:
			return &ValidationError{Field: "service", Value: name, Err: ErrServiceName}
		}
	}
	return nil
}

// ValidatePathPattern checks a filesystem path against the metacharacter
// deny-list before it is used as a process-matching pattern. A failing path
// aborts the action; no subprocess is issued.
func ValidatePathPattern(path string) error {
	if path == "" || strings.ContainsAny(path, pathDenyList) {
		return &ValidationError{Field: "path", Value: path, Err: ErrUnsafePath}
	}
	return nil
}
