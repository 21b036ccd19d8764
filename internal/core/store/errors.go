package store

import "errors"

var ErrNothingSelected = errors.New("no entity selected")
