package source

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrManifestParse = errors.New("manifest parse error")
)
