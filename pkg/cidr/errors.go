// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package cidr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind tags every planning error with its failure class. There is no error
// hierarchy; callers branch on the kind and read the context map.
type Kind string

const (
	KindInvalidCidrFormat Kind = "invalid_cidr_format"
	KindInvalidIP         Kind = "invalid_ip"
	KindInvalidPrefix     Kind = "invalid_prefix"
	KindValidationFailed  Kind = "config_validation_failed"
	KindCidrOverlap       Kind = "cidr_overlap"
	KindInsufficientSpace Kind = "insufficient_address_space"
	KindInvalidOperation  Kind = "invalid_operation"
)

// Error is the structured error carried out of the planning core. Context
// holds key-value pairs naming the account, provider, region, AZ, role,
// CIDR or prefix involved, so the CLI boundary can render a precise message.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]string
}

// NewError creates an Error with the given kind and message.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Context: make(map[string]string),
	}
}

// With adds a context key-value pair and returns the same error.
func (e *Error) With(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	// Sorted keys keep the rendering deterministic.
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, e.Context[k]))
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(pairs, " "))
}

// IsKind reports whether err (or anything it wraps) is an Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// AsError unwraps err into an *Error, or returns nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
