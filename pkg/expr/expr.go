package expr

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// RuleVar is the variable a rule is bound to in [NewRuleEnvironment].
const RuleVar = "rule"

// ErrNotPredicate indicates an expression whose type is known not to be bool.
var ErrNotPredicate = errors.New("expression must evaluate to a bool")

// Environment compiles expressions against a [*cel.Env] carrying the rulecat
// function library. It is safe for concurrent use.
type Environment struct {
	env *cel.Env
}

// NewEnvironment creates an [Environment] with opts and the rulecat
// function library.
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	env, err := cel.NewEnv(append(opts, cel.Lib(lib{}))...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment is like [NewEnvironment] but panics on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// NewRuleEnvironment creates an [Environment] declaring [RuleVar] as a map
// of rule fields.
func NewRuleEnvironment() (*Environment, error) {
	return NewEnvironment(cel.Variable(RuleVar, cel.MapType(cel.StringType, cel.DynType)))
}

// Compile compiles a CEL expression and returns a program.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	ast, err := e.check(expression)
	if err != nil {
		return nil, err
	}

	return e.program(ast)
}

// CompilePredicate is like [Environment.Compile], but rejects expressions
// whose type is known at compile time and is not bool. Expressions of
// dynamic type are accepted.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) CompilePredicate(expression string) (cel.Program, error) {
	ast, err := e.check(expression)
	if err != nil {
		return nil, err
	}

	switch out := ast.OutputType(); out.Kind() {
	case types.BoolKind, types.DynKind:
	default:
		return nil, fmt.Errorf("%w, got %s", ErrNotPredicate, out)
	}

	return e.program(ast)
}

func (e *Environment) check(expression string) (*cel.Ast, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	return ast, nil
}

//nolint:ireturn // Following CEL's function signature.
func (e *Environment) program(ast *cel.Ast) (cel.Program, error) {
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}
