package qtrain

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

// Field names one of the recognized run arguments.
type Field string

const (
	FieldTotalRound Field = "total_round"
	FieldStartRound Field = "start_round"
	FieldDataSize   Field = "data_size"
	FieldMode       Field = "mode"
)

// Fields returns the recognized fields in canonical order.
func Fields() []Field {
	return []Field{FieldTotalRound, FieldStartRound, FieldDataSize, FieldMode}
}

func (f Field) String() string { return string(f) }

// ArgumentSet is the fully resolved set of run arguments.
type ArgumentSet struct {
	TotalRound int    `json:"total_round"`
	StartRound int    `json:"start_round"`
	DataSize   int    `json:"data_size"`
	Mode       string `json:"mode"`
}

// DefaultArguments are returned by the static loader for every reference.
func DefaultArguments() ArgumentSet {
	return ArgumentSet{
		TotalRound: 10,
		StartRound: 0,
		DataSize:   100,
		Mode:       "default",
	}
}

// Validate reports the first field that violates its semantic type.
func (a ArgumentSet) Validate() error {
	switch {
	case a.TotalRound < 0:
		return fmt.Errorf("%s must be >= 0, got %d", FieldTotalRound, a.TotalRound)
	case a.StartRound < 0:
		return fmt.Errorf("%s must be >= 0, got %d", FieldStartRound, a.StartRound)
	case a.DataSize < 0:
		return fmt.Errorf("%s must be >= 0, got %d", FieldDataSize, a.DataSize)
	case a.Mode == "":
		return fmt.Errorf("%s must not be empty", FieldMode)
	}
	return nil
}

// LogValue renders the set as a group so loggers print every field.
func (a ArgumentSet) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int(string(FieldTotalRound), a.TotalRound),
		slog.Int(string(FieldStartRound), a.StartRound),
		slog.Int(string(FieldDataSize), a.DataSize),
		slog.String(string(FieldMode), a.Mode),
	)
}

// Overrides holds raw caller-supplied values keyed by field name.
// An absent key and an empty string both mean "use the default".
type Overrides map[string]string

// OverridesFromValues picks the recognized fields out of a form payload.
// Unrecognized keys are ignored.
func OverridesFromValues(values url.Values) Overrides {
	o := make(Overrides, len(Fields()))
	for _, f := range Fields() {
		if _, ok := values[string(f)]; ok {
			o[string(f)] = values.Get(string(f))
		}
	}
	return o
}

// lookup returns the trimmed override for f, and false when none was supplied.
func (o Overrides) lookup(f Field) (string, bool) {
	raw, ok := o[string(f)]
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// OverrideError describes an override that could not be applied.
type OverrideError struct {
	Field Field
	Value string
	Err   error
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("%s: invalid value %q: %v", e.Field, e.Value, e.Err)
}

func (e *OverrideError) Unwrap() error { return e.Err }

// mergeArguments applies overrides on top of defaults. Fields whose override
// cannot be parsed keep their default and are reported in rejected.
func mergeArguments(defaults ArgumentSet, overrides Overrides) (ArgumentSet, []*OverrideError) {
	resolved := defaults
	var rejected []*OverrideError

	for _, f := range Fields() {
		raw, ok := overrides.lookup(f)
		if !ok {
			continue
		}

		if f == FieldMode {
			resolved.Mode = raw
			continue
		}

		n, err := parseCount(raw)
		if err != nil {
			rejected = append(rejected, &OverrideError{Field: f, Value: raw, Err: err})
			continue
		}

		switch f {
		case FieldTotalRound:
			resolved.TotalRound = n
		case FieldStartRound:
			resolved.StartRound = n
		case FieldDataSize:
			resolved.DataSize = n
		}
	}

	return resolved, rejected
}

func parseCount(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if n < 0 {
		return 0, fmt.Errorf("must be non-negative")
	}
	return n, nil
}
