package manifest

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vango-dev/dispatch/internal/errors"
	"github.com/vango-dev/dispatch/pkg/router"
)

// Entry is one route in the manifest.
type Entry struct {
	ID      string      `json:"id"`
	Pattern string      `json:"pattern"`
	Kind    router.Kind `json:"kind,omitempty"`
	Methods []string    `json:"methods,omitempty"`

	// Handler names a registered module.
	Handler string `json:"handler,omitempty"`
}

// File is a decoded manifest.
type File struct {
	Routes []Entry `json:"routes"`

	path string
}

// Path returns the file the manifest was read from.
func (f *File) Path() string { return f.path }

// Read loads and decodes the manifest at path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("M001").WithFile(path).Wrap(err)
		}
		return nil, errors.New("M002").WithFile(path).Wrap(err)
	}
	f, err := Parse(data)
	if err != nil {
		var d *errors.Diagnostic
		if stderrors.As(err, &d) {
			d.WithFile(path)
		}
		return nil, err
	}
	f.path = path
	return f, nil
}

// Parse decodes a manifest and checks that every entry has an ID and a
// pattern. Pattern syntax is left to the router.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.New("M002").
			WithDetail("Failed to parse manifest: " + err.Error()).
			Wrap(err)
	}
	for i, e := range f.Routes {
		if strings.TrimSpace(e.ID) == "" {
			return nil, errors.New("M002").
				WithDetail(fmt.Sprintf("Route %d has no id", i))
		}
		if e.Pattern == "" {
			return nil, errors.New("M002").
				WithRoute(e.ID).
				WithDetail(fmt.Sprintf("Route %q has no pattern", e.ID))
		}
	}
	return &f, nil
}
