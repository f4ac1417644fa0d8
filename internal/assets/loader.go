package assets

import (
	"errors"
	"fmt"
	"strings"
)

// Built-in asset names.
const (
	PageTemplateName = "page"
	DarkStyleName    = "dark"
	LightStyleName   = "light"
)

// MaxAssetNameLength bounds asset names.
const MaxAssetNameLength = 64

// Sentinel errors for asset operations.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidBasePath  = errors.New("invalid base path")
	ErrAssetRead        = errors.New("failed to read asset")
	ErrPathTraversal    = errors.New("path traversal detected")
)

// AssetLoader loads CSS styles and HTML templates by bare name.
type AssetLoader interface {
	// LoadStyle loads styles/{name}.css.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads templates/{name}.html.
	LoadTemplate(name string) (string, error)
}

// ValidateAssetName rejects empty or overlong names and any name holding a
// path separator or dot.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > MaxAssetNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidAssetName, MaxAssetNameLength)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// kind describes where one class of asset lives and how its absence reads.
type kind struct {
	dir, ext string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

// rel is the slash-separated path of name below the asset root.
func (k kind) rel(name string) string {
	return k.dir + "/" + name + k.ext
}

func (k kind) missing(name string) error {
	return fmt.Errorf("%w: %q", k.notFound, name)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrStyleNotFound) || errors.Is(err, ErrTemplateNotFound)
}
