package dyn

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("dyn: evaluator not configured")

// Env evaluates rule expressions against the dynamic environment of a
// variable registry: each registered variable shows up in the expression
// scope under its name, resolved in the calling goroutine at evaluation time.
type Env struct {
	registry *Registry
	cfg      envConfig
}

// EnvOption configures an Env.
type EnvOption func(*envConfig)

type envConfig struct {
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       EvaluatorLogger
}

// WithEvaluator configures an evaluator engine on the Env.
func WithEvaluator(e Evaluator) EnvOption {
	return func(cfg *envConfig) {
		cfg.evaluator = e
	}
}

// NewEnv constructs an evaluation environment over registry. A nil registry
// falls back to the process-wide Default registry.
func NewEnv(registry *Registry, opts ...EnvOption) *Env {
	if registry == nil {
		registry = Default()
	}
	cfg := envConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Env{
		registry: registry,
		cfg:      cfg,
	}
}

// Registry returns the registry backing this Env.
func (e *Env) Registry() *Registry {
	if e == nil {
		return nil
	}
	return e.registry
}

// Evaluate executes expr against the current dynamic environment and wraps
// the result.
func (e *Env) Evaluate(expr string) (Response[any], error) {
	return e.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith executes expr using ctx, snapshotting the registry when
// ctx.Bindings is nil.
func (e *Env) EvaluateWith(ctx RuleContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, fmt.Errorf("expression must not be empty")
	}
	evaluator, err := e.resolveEvaluator()
	if err != nil {
		return Response[any]{}, err
	}
	if ctx.Bindings == nil {
		ctx.Bindings = e.registry.Environment()
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError("", expr, ctx.varLabel(), evalErr)
	e.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Var:      ctx.varLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return Response[any]{}, evalErr
	}
	return Response[any]{Value: value}, nil
}

// Compile prepares expr for repeated evaluation with the configured engine.
func (e *Env) Compile(expr string, opts ...CompileOption) (CompiledRule, error) {
	evaluator, err := e.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	return evaluator.Compile(expr, opts...)
}

func (e *Env) resolveEvaluator() (Evaluator, error) {
	if e.cfg.evaluator != nil {
		return e.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := e.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := e.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	e.cfg.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func (e *Env) evaluatorLogger() EvaluatorLogger {
	if e.cfg.logger != nil {
		return e.cfg.logger
	}
	return noopEvaluatorLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*dyn.exprEvaluator":
		return "expr"
	case "*dyn.celEvaluator":
		return "cel"
	case "*dyn.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
