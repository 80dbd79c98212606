// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration marks every error raised while a problem is being set up,
// before any numerical work begins.
var ErrConfiguration = errors.New("configuration error")

// configError wraps a message with ErrConfiguration.
func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Key is a set of parameter names sharing one decision value.
type Key []string

// Name returns a key for a single parameter.
func Name(name string) Key { return Key{name} }

// Shared returns a key whose names all map to the same decision value.
func Shared(names ...string) Key { return Key(names) }

// KeyOf converts a loosely typed key (as decoded from YAML) into a Key.
// Accepted forms are a string, a Key, a []string or a []any of strings.
func KeyOf(v any) (Key, error) {
	switch k := v.(type) {
	case string:
		return Key{k}, nil
	case Key:
		return k, nil
	case []string:
		return Key(k), nil
	case []any:
		key := make(Key, 0, len(k))
		for _, e := range k {
			s, ok := e.(string)
			if !ok {
				return nil, configError("parameter key must be a string or a list of strings, got %T in list", e)
			}
			key = append(key, s)
		}
		return key, nil
	}
	return nil, configError("parameter key must be a string or a list of strings, got %T", v)
}

// String joins shared names with a comma.
func (k Key) String() string {
	if len(k) == 1 {
		return k[0]
	}
	return "(" + strings.Join(k, ", ") + ")"
}
