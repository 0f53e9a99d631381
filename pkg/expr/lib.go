package expr

import (
	"errors"
	"math"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"

	"github.com/macropower/rulecat/pkg/rule"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),
		ext.Sets(),

		// `slugify` returns the section slug for a tag.
		// Example: rule.tags.exists(t, slugify(t) == "next.js").
		cel.Function("slugify",
			cel.Overload("slugify_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(s ref.Val) ref.Val {
					str, ok := s.(types.String)
					if !ok {
						return types.NewErr("slugify: invalid string value")
					}

					return types.String(rule.Slugify(string(str)))
				}),
			),
		),

		// `normalize` removes diacritics.
		// Example: normalize(rule.author.name).contains("Muller").
		cel.Function("normalize",
			cel.Overload("normalize_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(s ref.Val) ref.Val {
					str, ok := s.(types.String)
					if !ok {
						return types.NewErr("normalize: invalid string value")
					}

					return types.String(rule.Normalize(string(str)))
				}),
			),
		),

		// `hasAny` reports whether two string lists share an element,
		// ignoring case.
		// Example: hasAny(rule.tags, ["react", "vue"]).
		cel.Function("hasAny",
			cel.Overload("has_any_list_list",
				[]*cel.Type{cel.ListType(cel.StringType), cel.ListType(cel.StringType)}, cel.BoolType,
				cel.BinaryBinding(func(a, b ref.Val) ref.Val {
					left, err := stringSet(a)
					if err != nil {
						return types.NewErr("hasAny: %v", err)
					}

					right, ok := b.(traits.Lister)
					if !ok {
						return types.NewErr("hasAny: invalid list")
					}

					it := right.Iterator()
					for it.HasNext() == types.True {
						s, ok := it.Next().(types.String)
						if !ok {
							return types.NewErr("hasAny: invalid list element")
						}
						if left[strings.ToLower(string(s))] {
							return types.True
						}
					}

					return types.False
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

var (
	errInvalidList    = errors.New("invalid list")
	errInvalidElement = errors.New("invalid list element")
)

func stringSet(v ref.Val) (map[string]bool, error) {
	l, ok := v.(traits.Lister)
	if !ok {
		return nil, errInvalidList
	}

	set := map[string]bool{}

	it := l.Iterator()
	for it.HasNext() == types.True {
		s, ok := it.Next().(types.String)
		if !ok {
			return nil, errInvalidElement
		}

		set[strings.ToLower(string(s))] = true
	}

	return set, nil
}

// ConvertToCELValue converts a Go value to a CEL value.
// Unsupported types become null.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue

	case bool:
		return types.Bool(v)

	case int:
		return types.Int(v)

	case int64:
		return types.Int(v)

	case uint64:
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case float64:
		return types.Double(v)

	case string:
		return types.String(v)

	case *string:
		if v == nil {
			return types.NullValue
		}

		return types.String(*v)

	case []string:
		return types.NewStringList(types.DefaultTypeAdapter, v)

	case []any:
		celValues := make([]ref.Val, len(v))
		for i, item := range v {
			celValues[i] = ConvertToCELValue(item)
		}

		return types.NewDynamicList(types.DefaultTypeAdapter, celValues)

	case map[string]any:
		celMap := make(map[ref.Val]ref.Val, len(v))
		for key, val := range v {
			celMap[types.String(key)] = ConvertToCELValue(val)
		}

		return types.NewDynamicMap(types.DefaultTypeAdapter, celMap)

	default:
		return types.NullValue
	}
}
