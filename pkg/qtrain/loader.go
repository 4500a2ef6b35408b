package qtrain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/quatton/qwex-trainer/pkg/qerr"
	"github.com/spf13/viper"
)

// DefaultConfigRef is used when a configure request carries no reference.
const DefaultConfigRef = "chemprop_run/config/config.yaml"

// ConfigLoader produces the default arguments named by a config reference.
type ConfigLoader interface {
	Load(ctx context.Context, ref string) (ArgumentSet, error)
}

// ValidateRef checks that ref is a syntactically usable reference.
func ValidateRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return qerr.Newf(qerr.CodeInvalidArgument, "config reference must not be empty")
	}
	for _, r := range ref {
		if unicode.IsControl(r) {
			return qerr.Newf(qerr.CodeInvalidArgument, "config reference %q contains control characters", ref)
		}
	}
	return nil
}

// StaticLoader returns the same defaults for every valid reference without
// looking at the referenced source.
type StaticLoader struct {
	Defaults ArgumentSet
}

// NewStaticLoader returns a StaticLoader seeded with DefaultArguments.
func NewStaticLoader() *StaticLoader {
	return &StaticLoader{Defaults: DefaultArguments()}
}

func (l *StaticLoader) Load(_ context.Context, ref string) (ArgumentSet, error) {
	if err := ValidateRef(ref); err != nil {
		return ArgumentSet{}, err
	}
	return l.Defaults, nil
}

// SourceLoader reads the referenced document through a scheme-routed Source
// and overlays its keys on the built-in defaults. Keys absent from the
// document keep their default, so the result is always complete.
type SourceLoader struct {
	sources  map[string]Source
	defaults ArgumentSet
}

// SourceLoaderOption configures a SourceLoader
type SourceLoaderOption func(*SourceLoader)

// WithSource registers src for references using scheme.
func WithSource(scheme string, src Source) SourceLoaderOption {
	return func(l *SourceLoader) {
		l.sources[strings.ToLower(scheme)] = src
	}
}

// WithDefaults replaces the built-in defaults used for missing keys.
func WithDefaults(defaults ArgumentSet) SourceLoaderOption {
	return func(l *SourceLoader) {
		l.defaults = defaults
	}
}

// NewSourceLoader returns a loader that resolves bare paths and file:// refs
// from the local filesystem. Other schemes need WithSource.
func NewSourceLoader(opts ...SourceLoaderOption) *SourceLoader {
	l := &SourceLoader{
		sources:  map[string]Source{SchemeFile: FileSource{}},
		defaults: DefaultArguments(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schemes lists the schemes this loader can resolve.
func (l *SourceLoader) Schemes() []string {
	out := make([]string, 0, len(l.sources))
	for _, s := range []string{SchemeFile, SchemeS3, SchemeKV} {
		if _, ok := l.sources[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (l *SourceLoader) Load(ctx context.Context, ref string) (ArgumentSet, error) {
	if err := ValidateRef(ref); err != nil {
		return ArgumentSet{}, err
	}

	parsed, err := ParseRef(ref)
	if err != nil {
		return ArgumentSet{}, err
	}

	src, ok := l.sources[parsed.Scheme]
	if !ok {
		return ArgumentSet{}, qerr.Newf(qerr.CodeInvalidArgument, "unsupported config scheme %q", parsed.Scheme)
	}

	data, err := src.Read(ctx, parsed)
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			return ArgumentSet{}, qerr.New(qerr.CodeNotFound, fmt.Errorf("config %s: %w", ref, err))
		}
		return ArgumentSet{}, fmt.Errorf("reading config %s: %w", ref, err)
	}

	args, err := decodeDocument(data, documentFormat(parsed.Location), l.defaults)
	if err != nil {
		return ArgumentSet{}, qerr.New(qerr.CodeInvalidConfig, fmt.Errorf("config %s: %w", ref, err))
	}
	return args, nil
}

// ValidateDocument decodes data the way a SourceLoader reads a document
// stored at location, overlaying it on DefaultArguments.
func ValidateDocument(data []byte, location string) (ArgumentSet, error) {
	args, err := decodeDocument(data, documentFormat(location), DefaultArguments())
	if err != nil {
		return ArgumentSet{}, qerr.New(qerr.CodeInvalidConfig, fmt.Errorf("config %s: %w", location, err))
	}
	return args, nil
}

// document mirrors ArgumentSet with optional fields so absent keys can be told
// apart from zero values.
type document struct {
	TotalRound *int    `mapstructure:"total_round"`
	StartRound *int    `mapstructure:"start_round"`
	DataSize   *int    `mapstructure:"data_size"`
	Mode       *string `mapstructure:"mode"`
}

func decodeDocument(data []byte, format string, defaults ArgumentSet) (ArgumentSet, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return ArgumentSet{}, fmt.Errorf("parsing %s: %w", format, err)
	}

	var doc document
	if err := v.Unmarshal(&doc, viper.DecodeHook(strictCount), exactTypes); err != nil {
		return ArgumentSet{}, fmt.Errorf("decoding arguments: %w", err)
	}

	args := defaults
	if doc.TotalRound != nil {
		args.TotalRound = *doc.TotalRound
	}
	if doc.StartRound != nil {
		args.StartRound = *doc.StartRound
	}
	if doc.DataSize != nil {
		args.DataSize = *doc.DataSize
	}
	if doc.Mode != nil {
		args.Mode = strings.TrimSpace(*doc.Mode)
	}

	if err := args.Validate(); err != nil {
		return ArgumentSet{}, err
	}
	return args, nil
}

// exactTypes turns off mapstructure's weak conversions (bool to int, int to
// string, base-prefixed strings).
func exactTypes(c *mapstructure.DecoderConfig) {
	c.WeaklyTypedInput = false
}

// strictCount accepts integral numbers and quoted decimal integers for int
// fields. JSON numbers arrive as float64, so a fractional part is rejected
// here rather than truncated.
func strictCount(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%q is not a decimal integer", v)
		}
		return n, nil
	}
	return data, nil
}

func documentFormat(location string) string {
	switch strings.ToLower(path.Ext(location)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	}
	return "yaml"
}
