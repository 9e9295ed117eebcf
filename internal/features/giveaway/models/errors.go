package models

import "errors"

var ErrEmptyTitle = errors.New("title must not be empty or whitespace-only")
