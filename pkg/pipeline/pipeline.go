// Package pipeline provides the parse → layout → render pipeline shared
// by the CLI and the preview server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Turn diagram source text into an AST
//  2. Layout: Compute positions for every node, lane, and edge
//  3. Render: Generate output in the requested formats (SVG, PNG, PDF, JSON, DOT)
//
// Layout runs inside render for image formats (the renderer owns its
// engine), and standalone for the JSON dump. Each stage can also be run
// independently.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "flowchart TB\nA --> B",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/cache"
)

// Defaults shared by the CLI and the server.
const (
	// DefaultTheme is the theme used when none is requested.
	DefaultTheme = "github-light"

	// DefaultScale is the raster scale factor for PNG output.
	DefaultScale = 2.0

	// DefaultBackend is the default rendering backend.
	DefaultBackend = BackendBuiltin
)

// Rendering backends.
const (
	// BackendBuiltin is the native SVG renderer.
	BackendBuiltin = "builtin"

	// BackendGraphviz renders through DOT and Graphviz instead. Only
	// graph-shaped diagrams support it.
	BackendGraphviz = "graphviz"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// ValidBackends is the set of supported rendering backends.
var ValidBackends = map[string]bool{
	BackendBuiltin:  true,
	BackendGraphviz: true,
}

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	Source  string `json:"source"`
	Refresh bool   `json:"refresh,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Theme     string   `json:"theme,omitempty"`
	ThemeFile string   `json:"theme_file,omitempty"` // Path to a TOML theme, overrides Theme
	Scale     float64  `json:"scale,omitempty"`      // PNG scale factor
	Backend   string   `json:"backend,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"` // Member rows in DOT class/entity nodes

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Diagram is the parsed AST.
	Diagram *ast.Diagram

	// DiagramHash is the content hash of the source text.
	DiagramHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Kind       ast.Kind
	Elements   int
	ParseTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool // Whether the parsed AST came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBackend checks that a rendering backend is valid.
func ValidateBackend(backend string) error {
	if !ValidBackends[backend] {
		return fmt.Errorf("invalid backend: %q (must be one of: builtin, graphviz)", backend)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for parsing.
func (o *Options) ValidateForParse() error {
	if o.Source == "" {
		return fmt.Errorf("source is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Backend == "" {
		o.Backend = DefaultBackend
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateBackend(o.Backend)
}

// IsGraphviz returns true if rendering goes through the DOT backend.
func (o *Options) IsGraphviz() bool {
	return o.Backend == BackendGraphviz
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	theme := o.Theme
	if o.ThemeFile != "" {
		theme = "file:" + o.ThemeFile
	}
	return cache.ArtifactKeyOpts{
		Format:   format,
		Theme:    theme,
		Scale:    o.Scale,
		Backend:  o.Backend,
		Detailed: o.Detailed,
	}
}
