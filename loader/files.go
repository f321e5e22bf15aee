package loader

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileType identifies a supported config file format.
type FileType string

const (
	FileTypeJSON FileType = "json"
	FileTypeYAML FileType = "yaml"
)

// Parser returns the koanf parser for the file type.
func (t FileType) Parser() koanf.Parser {
	switch t {
	case FileTypeJSON:
		return kjson.Parser()
	default:
		return kyaml.Parser()
	}
}

// inferFileType maps a path's extension to a parser. The extension match
// is case-insensitive; unknown extensions are rejected.
func inferFileType(path string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return FileTypeJSON, nil
	case ".yml", ".yaml":
		return FileTypeYAML, nil
	default:
		return "", &UnsupportedFormatError{Path: path, Ext: ext}
	}
}

// LoadFile merges a config file selected by extension: .json decodes as
// JSON, .yml/.yaml as YAML. Any other extension fails with an
// UnsupportedFormatError.
func (l *Loader) LoadFile(path string) error {
	fileType, err := inferFileType(path)
	if err != nil {
		return err
	}
	return l.loadParsedFile(path, fileType)
}

// LoadJSON merges a JSON file regardless of its extension.
func (l *Loader) LoadJSON(path string) error {
	return l.loadParsedFile(path, FileTypeJSON)
}

// LoadYAML merges a YAML file regardless of its extension. A null
// document is treated as an empty update.
func (l *Loader) LoadYAML(path string) error {
	return l.loadParsedFile(path, FileTypeYAML)
}

func (l *Loader) loadParsedFile(path string, fileType FileType) error {
	l.log.Debug("file source", "filepath", path, "file_type", string(fileType))

	k := koanf.New(DefaultDelimiter)
	if err := k.Load(file.Provider(path), fileType.Parser()); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from file").
			WithTextCode("FILE_LOAD_FAILED").
			WithMetadata(map[string]any{
				"filepath":  path,
				"file_type": string(fileType),
			})
	}
	raw := k.Raw()
	if len(raw) == 0 {
		return nil
	}
	return l.Load(raw)
}
