package ast

import "errors"

// ErrUnsupportedLanguage is returned when Pool.Parse is asked for a
// language with no registered Parser.
var ErrUnsupportedLanguage = errors.New("ast: unsupported language")
