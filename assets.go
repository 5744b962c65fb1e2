package dispatch

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/vango-dev/dispatch/pkg/pipeline"
	"github.com/vango-dev/dispatch/pkg/routepath"
)

// =============================================================================
// Asset Serving
// =============================================================================

// CacheControl selects the Cache-Control policy for assets.
type CacheControl int

const (
	// CacheControlDefault sets no Cache-Control header.
	CacheControlDefault CacheControl = iota

	// CacheControlNone disables caching.
	CacheControlNone

	// CacheControlProduction caches fingerprinted files for a year and
	// everything else for an hour.
	CacheControlProduction
)

// AssetOptions configures an asset module.
type AssetOptions struct {
	CacheControl CacheControl

	// Headers are added to every asset response.
	Headers map[string]string
}

// Assets returns a module serving files from fsys. Mount it on a wildcard
// route; the wildcard remainder is the file path.
//
//	{ID: "static", Pattern: "/static/*", Kind: router.KindAsset,
//	    Module: dispatch.Assets(os.DirFS("public"), dispatch.AssetOptions{})}
func Assets(fsys fs.FS, opts AssetOptions) *Module {
	h := func(c *pipeline.Ctx) (*pipeline.Response, error) {
		rel, ok := assetPath(c.Params().Wildcard())
		if !ok {
			return pipeline.NotFound(c)
		}

		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || isDirErr(fsys, rel) {
				return pipeline.NotFound(c)
			}
			return nil, err
		}

		res := pipeline.NewResponse(http.StatusOK)
		res.Body = data
		res.SetHeader("Content-Type", contentType(rel, data))
		applyCacheHeaders(res, rel, opts.CacheControl)
		for k, v := range opts.Headers {
			res.SetHeader(k, v)
		}
		return res, nil
	}

	return &Module{Handlers: map[string]pipeline.Handler{http.MethodGet: h}}
}

// assetPath returns a sanitized, decoded relative path for a raw wildcard
// remainder. It rejects traversal and absolute-path tricks so serving
// cannot escape the filesystem root.
func assetPath(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	segs := strings.Split(raw, "/")
	for i, seg := range segs {
		decoded, ok := routepath.DecodeParam(seg)
		if !ok {
			return "", false
		}
		// Reject dot-segments before cleaning so traversal is never
		// cleaned into a different valid path.
		if decoded == "" || decoded == "." || decoded == ".." {
			return "", false
		}
		if strings.IndexByte(decoded, 0) != -1 || strings.Contains(decoded, "\\") {
			return "", false
		}
		segs[i] = decoded
	}

	clean := path.Join(segs...)
	if !fs.ValidPath(clean) {
		return "", false
	}
	return clean, true
}

func isDirErr(fsys fs.FS, rel string) bool {
	info, err := fs.Stat(fsys, rel)
	return err == nil && info.IsDir()
}

func contentType(rel string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func applyCacheHeaders(res *pipeline.Response, rel string, policy CacheControl) {
	switch policy {
	case CacheControlNone:
		res.SetHeader("Cache-Control", "no-store, no-cache, must-revalidate")
	case CacheControlProduction:
		if isFingerprinted(rel) {
			res.SetHeader("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			res.SetHeader("Cache-Control", "public, max-age=3600, must-revalidate")
		}
	}
}

// isFingerprinted reports whether a file name carries a hash, e.g.
// "app.a1b2c3d4.css".
func isFingerprinted(filePath string) bool {
	parts := strings.Split(path.Base(filePath), ".")
	if len(parts) < 3 {
		return false
	}

	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
