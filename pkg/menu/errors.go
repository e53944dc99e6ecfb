package menu

import "errors"

// ErrUnknownHelper is returned by Call when no helper has the given name.
var ErrUnknownHelper = errors.New("unknown helper")
