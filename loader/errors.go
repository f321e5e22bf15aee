package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrMergeConflict indicates an object/leaf shape clash while merging
	// a source into the working instance.
	ErrMergeConflict = errors.New("loader: merge conflict")
	// ErrUnsupportedFormat indicates a file whose extension maps to no
	// known parser.
	ErrUnsupportedFormat = errors.New("loader: unsupported file format")
)

// MergeConflictError is raised during the offending Load call; merges
// applied by earlier calls remain in place.
type MergeConflictError struct {
	Path string
	Msg  string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("at %s: %s", e.Path, e.Msg)
}

func (e *MergeConflictError) Is(target error) bool {
	return target == ErrMergeConflict
}

const (
	msgLeafIntoObject = "cannot merge a non-object attribute into an object attribute"
	msgObjectIntoLeaf = "cannot merge an object attribute into a non-object attribute"
)

// UnsupportedFormatError reports a config file with an unrecognized
// extension. Supported extensions are .json, .yml, and .yaml.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported config file extension %q: %s", e.Ext, e.Path)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}
