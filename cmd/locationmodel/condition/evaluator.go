package condition

import (
	"fmt"
	"strings"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/google/cel-go/cel"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DetailsVariable is the name a filter expression uses for the location's columns
const DetailsVariable = "details"

// DefaultCacheSize bounds the compiled programs kept by NewEvaluator.
// Filters arrive from request parameters, so the cache must not grow with them.
const DefaultCacheSize = 256

// Evaluator compiles location filter expressions written in CEL
// (Common Expression Language), e.g. `details.locationType == "Line"`.
// Compiled programs are kept in a least-recently-used cache.
type Evaluator struct {
	cache *lru.Cache[string, cel.Program]
	log   *logger.Logger
}

// NewEvaluator creates a new condition evaluator caching DefaultCacheSize programs
func NewEvaluator(log *logger.Logger) *Evaluator {
	return NewEvaluatorWithCacheSize(DefaultCacheSize, log)
}

// NewEvaluatorWithCacheSize creates an evaluator caching at most size programs.
// A size below 1 is treated as 1.
func NewEvaluatorWithCacheSize(size int, log *logger.Logger) *Evaluator {
	if size < 1 {
		size = 1
	}
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, cel.Program](size)
	return &Evaluator{
		cache: cache,
		log:   log,
	}
}

// Compile turns expr into a predicate over a location's column map.
// An expression that fails or yields a non-boolean at evaluation time
// does not match.
func (e *Evaluator) Compile(expr string) (func(details map[string]any) bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return nil, err
	}

	return func(details map[string]any) bool {
		ok, err := eval(prg, details)
		if err != nil {
			e.log.Debug("filter evaluation failed", "expression", expr, "error", err)
			return false
		}
		return ok
	}, nil
}

// Evaluate runs expr once against details
func (e *Evaluator) Evaluate(expr string, details map[string]any) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}
	return eval(prg, details)
}

// CacheSize returns the number of cached expressions
func (e *Evaluator) CacheSize() int {
	return e.cache.Len()
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	normalized := expandShorthand(strings.TrimSpace(expr))
	if normalized == "" {
		return nil, fmt.Errorf("empty filter expression")
	}

	if prg, ok := e.cache.Get(normalized); ok {
		return prg, nil
	}

	prg, err := compileCEL(normalized)
	if err != nil {
		return nil, err
	}
	e.cache.Add(normalized, prg)

	return prg, nil
}

// expandShorthand rewrites $.field to details.field. Only a "$." that
// starts an operand is rewritten; text inside string literals is copied
// unchanged.
func expandShorthand(expr string) string {
	var b strings.Builder
	b.Grow(len(expr))

	quote := "" // closing delimiter of the literal being copied
	raw := false

	for i := 0; i < len(expr); {
		c := expr[i]

		if quote != "" {
			switch {
			case !raw && c == '\\' && i+1 < len(expr):
				b.WriteString(expr[i : i+2])
				i += 2
			case strings.HasPrefix(expr[i:], quote):
				b.WriteString(quote)
				i += len(quote)
				quote, raw = "", false
			default:
				b.WriteByte(c)
				i++
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			quote = string(c)
			if triple := strings.Repeat(quote, 3); strings.HasPrefix(expr[i:], triple) {
				quote = triple
			}
			raw = i > 0 && (expr[i-1] == 'r' || expr[i-1] == 'R') && (i < 2 || !isIdentByte(expr[i-2]))
			b.WriteString(quote)
			i += len(quote)
		case c == '$' && strings.HasPrefix(expr[i:], "$.") && (i == 0 || !isIdentByte(expr[i-1])):
			b.WriteString(DetailsVariable + ".")
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func eval(prg cel.Program, details map[string]any) (bool, error) {
	out, _, err := prg.Eval(map[string]any{
		DetailsVariable: details,
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return boolean, got %T", out.Value())
	}
	return result, nil
}

func compileCEL(expr string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable(DetailsVariable, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return prg, nil
}
