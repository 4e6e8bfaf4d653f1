package eval

import (
	"context"
	"strconv"
	"strings"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/ast"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/model"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/registry"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/ucum"
)

// FuncImpl is the signature for function implementations.
type FuncImpl func(ctx *Context, input types.Collection, args []interface{}) (types.Collection, error)

// FuncDef defines a FHIRPath function.
type FuncDef struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      FuncImpl
}

// FuncRegistry is an interface for function lookup.
type FuncRegistry interface {
	Get(name string) (FuncDef, bool)
}

// Resolver handles FHIR reference resolution.
type Resolver interface {
	Resolve(ctx context.Context, reference string) ([]byte, error)
}

// Evaluator walks an ast.Node tree and produces a types.Collection. It
// replaces the teacher's ANTLR-visitor dispatch with a type switch over
// ast.Node, keeping the same per-function special-casing shape for
// lambda-taking functions (spec.md section 4.5).
type Evaluator struct {
	ctx   *Context
	funcs FuncRegistry
}

// Context holds the evaluation state.
type Context struct {
	root      types.Collection
	this      types.Collection
	index     int
	total     types.Value
	variables map[string]types.Collection
	limits    map[string]int
	goCtx     context.Context
	resolver  Resolver
	provider  model.Provider
	tracer    TraceSink
}

// TraceSink receives trace() output: a name and the collection being
// traced, for the host application to log however it sees fit. The core
// engine never calls log or slog itself (spec.md section 3, "Logging").
type TraceSink func(name string, value types.Collection)

// NewContext creates a new evaluation context.
// Automatically sets %resource and %context to the root resource for FHIR constraint evaluation.
// Per FHIRPath spec:
//   - %resource: the root resource being evaluated
//   - %context: the original node passed to the evaluation engine (same as %resource for top-level evaluation)
func NewContext(resource []byte) *Context {
	//nolint:errcheck // Empty collection is acceptable for invalid JSON in context creation
	root, _ := types.JSONToCollection(resource)

	// Initialize variables map with %resource and %context pointing to root
	// %resource is required by FHIR constraints like bdl-3, bdl-4
	// %context represents the evaluation context (same as root for top-level evaluation)
	variables := make(map[string]types.Collection)
	variables["resource"] = root
	variables["context"] = root

	return &Context{
		root:      root,
		this:      root,
		variables: variables,
		limits:    make(map[string]int),
		goCtx:     context.Background(),
		provider:  model.NewHeuristicFHIRProvider(model.R4),
	}
}

// SetLimit sets a limit value (e.g., maxDepth, maxCollectionSize).
func (c *Context) SetLimit(name string, value int) {
	if c.limits == nil {
		c.limits = make(map[string]int)
	}
	c.limits[name] = value
}

// GetLimit gets a limit value.
func (c *Context) GetLimit(name string) int {
	if c.limits == nil {
		return 0
	}
	return c.limits[name]
}

// SetContext sets the Go context for cancellation.
func (c *Context) SetContext(ctx context.Context) {
	c.goCtx = ctx
}

// Context returns the Go context.
func (c *Context) Context() context.Context {
	if c.goCtx == nil {
		return context.Background()
	}
	return c.goCtx
}

// SetResolver sets the reference resolver.
func (c *Context) SetResolver(r Resolver) {
	c.resolver = r
}

// GetResolver returns the reference resolver.
func (c *Context) GetResolver() Resolver {
	return c.resolver
}

// SetProvider sets the ModelProvider consulted for type/navigation
// questions (polymorphic value[x] resolution, is/as/ofType subtyping).
func (c *Context) SetProvider(p model.Provider) {
	c.provider = p
}

// GetProvider returns the ModelProvider, defaulting to a heuristic R4
// provider if none was explicitly set.
func (c *Context) GetProvider() model.Provider {
	if c.provider == nil {
		c.provider = model.NewHeuristicFHIRProvider(model.R4)
	}
	return c.provider
}

// SetTracer installs a TraceSink consulted by trace(). Nil (the default)
// makes trace() a no-op pass-through.
func (c *Context) SetTracer(t TraceSink) {
	c.tracer = t
}

// GetTracer returns the installed TraceSink, or nil.
func (c *Context) GetTracer() TraceSink {
	return c.tracer
}

// CheckCancellation checks if the context has been canceled.
func (c *Context) CheckCancellation() error {
	if c.goCtx == nil {
		return nil
	}
	select {
	case <-c.goCtx.Done():
		return c.goCtx.Err()
	default:
		return nil
	}
}

// CheckCollectionSize validates that a collection doesn't exceed the maximum size.
// Returns an error if the collection is too large.
func (c *Context) CheckCollectionSize(col types.Collection) error {
	maxSize := c.GetLimit("maxCollectionSize")
	if maxSize > 0 && len(col) > maxSize {
		return NewEvalError(ErrInvalidExpression,
			"collection size %d exceeds maximum allowed %d", len(col), maxSize)
	}
	return nil
}

// EnforceCollectionLimit truncates a collection if it exceeds the maximum size.
// Returns the (possibly truncated) collection and whether truncation occurred.
func (c *Context) EnforceCollectionLimit(col types.Collection) (types.Collection, bool) {
	maxSize := c.GetLimit("maxCollectionSize")
	if maxSize > 0 && len(col) > maxSize {
		return col[:maxSize], true
	}
	return col, false
}

// Root returns the root collection.
func (c *Context) Root() types.Collection {
	return c.root
}

// This returns the current $this value.
func (c *Context) This() types.Collection {
	return c.this
}

// WithThis returns a new context with the given $this value.
func (c *Context) WithThis(this types.Collection) *Context {
	newCtx := *c
	newCtx.this = this
	return &newCtx
}

// WithIndex returns a new context with the given $index value.
func (c *Context) WithIndex(index int) *Context {
	newCtx := *c
	newCtx.index = index
	return &newCtx
}

// WithTotal returns a new context with the given $total accumulator,
// threaded through aggregate() so %total/$total reads the live value
// (spec.md section 4.5.12).
func (c *Context) WithTotal(total types.Value) *Context {
	newCtx := *c
	newCtx.total = total
	return &newCtx
}

// WithVariable returns a new context with name bound to value, shadowing
// any outer binding of the same name for the remainder of the expression
// it scopes; the receiver's own bindings are left unchanged.
func (c *Context) WithVariable(name string, value types.Collection) *Context {
	newCtx := *c
	newCtx.variables = make(map[string]types.Collection, len(c.variables)+1)
	for k, v := range c.variables {
		newCtx.variables[k] = v
	}
	newCtx.variables[name] = value
	return &newCtx
}

// SetVariable sets an external variable.
func (c *Context) SetVariable(name string, value types.Collection) {
	c.variables[name] = value
}

// GetVariable gets an external variable.
func (c *Context) GetVariable(name string) (types.Collection, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// NewEvaluator creates a new evaluator with the given context and function registry.
func NewEvaluator(ctx *Context, funcs FuncRegistry) *Evaluator {
	return &Evaluator{ctx: ctx, funcs: funcs}
}

// Evaluate evaluates an AST and returns the resulting collection.
func (e *Evaluator) Evaluate(tree ast.Node) (types.Collection, error) {
	return e.eval(tree)
}

// eval dispatches on the concrete ast.Node type.
func (e *Evaluator) eval(node ast.Node) (types.Collection, error) {
	if node == nil {
		return types.Collection{}, nil
	}
	switch n := node.(type) {
	case *ast.Literal:
		return e.evalLiteral(n)
	case *ast.Identifier:
		return e.evalIdentifier(n)
	case *ast.Path:
		return e.evalPath(n)
	case *ast.Index:
		return e.evalIndex(n)
	case *ast.Invocation:
		return e.evalInvocation(n)
	case *ast.Binary:
		return e.evalBinary(n)
	case *ast.Unary:
		return e.evalUnary(n)
	case *ast.TypeOp:
		return e.evalTypeOp(n)
	case *ast.Variable:
		return e.evalVariable(n)
	case *ast.Error:
		return types.Collection{}, nil
	default:
		return nil, NewEvalError(ErrInvalidExpression, "unhandled AST node %T", node)
	}
}

func (e *Evaluator) evalLiteral(n *ast.Literal) (types.Collection, error) {
	switch n.Kind {
	case ast.LiteralEmpty:
		return types.Collection{}, nil
	case ast.LiteralBoolean:
		return types.Collection{types.NewBoolean(n.Text == "true")}, nil
	case ast.LiteralString:
		return types.Collection{types.NewString(n.Text)}, nil
	case ast.LiteralInteger:
		i, err := strconv.ParseInt(n.Text, 10, 64)
		if err != nil {
			d, derr := types.NewDecimal(n.Text)
			if derr != nil {
				return nil, ParseError("invalid integer: " + n.Text)
			}
			return types.Collection{d}, nil
		}
		return types.Collection{types.NewInteger(i)}, nil
	case ast.LiteralDecimal:
		d, err := types.NewDecimal(n.Text)
		if err != nil {
			return nil, ParseError("invalid decimal: " + n.Text)
		}
		return types.Collection{d}, nil
	case ast.LiteralDate:
		d, err := types.NewDate(n.Text)
		if err != nil {
			return nil, ParseError("invalid date: " + n.Text)
		}
		return types.Collection{d}, nil
	case ast.LiteralDateTime:
		dt, err := types.NewDateTime(n.Text)
		if err != nil {
			return nil, ParseError("invalid datetime: " + n.Text)
		}
		return types.Collection{dt}, nil
	case ast.LiteralTime:
		t, err := types.NewTime(n.Text)
		if err != nil {
			return nil, ParseError("invalid time: " + n.Text)
		}
		return types.Collection{t}, nil
	case ast.LiteralQuantity:
		d, err := types.NewDecimal(n.Text)
		if err != nil {
			return nil, ParseError("invalid quantity value: " + n.Text)
		}
		unit := ucum.ResolveCalendarUnit(n.Unit)
		q := types.NewQuantityFromDecimal(d.Value(), unit)
		return types.Collection{q}, nil
	default:
		return nil, NewEvalError(ErrInvalidExpression, "unknown literal kind")
	}
}

func (e *Evaluator) evalIdentifier(n *ast.Identifier) (types.Collection, error) {
	return e.navigateMember(e.ctx.This(), n.Name), nil
}

func (e *Evaluator) evalPath(n *ast.Path) (types.Collection, error) {
	base, err := e.eval(n.Base)
	if err != nil {
		return nil, err
	}
	return e.navigateMember(base, n.Member), nil
}

func (e *Evaluator) evalIndex(n *ast.Index) (types.Collection, error) {
	base, err := e.eval(n.Base)
	if err != nil {
		return nil, err
	}
	idxCol, err := e.eval(n.Index)
	if err != nil {
		return nil, err
	}
	if idxCol.Empty() {
		return types.Collection{}, nil
	}
	idx, ok := idxCol[0].(types.Integer)
	if !ok {
		return nil, TypeError("Integer", idxCol[0].Type(), "indexer")
	}
	i := int(idx.Value())
	if i < 0 || i >= len(base) {
		return types.Collection{}, nil
	}
	return types.Collection{base[i]}, nil
}

func (e *Evaluator) evalVariable(n *ast.Variable) (types.Collection, error) {
	switch n.Kind {
	case ast.VarThis:
		return e.ctx.This(), nil
	case ast.VarIndex:
		return types.Collection{types.NewInteger(int64(e.ctx.index))}, nil
	case ast.VarTotal:
		if e.ctx.total != nil {
			return types.Collection{e.ctx.total}, nil
		}
		return types.Collection{}, nil
	case ast.VarEnvironment:
		if value, ok := e.ctx.GetVariable(n.Name); ok {
			return value, nil
		}
		return nil, NewEvalError(ErrInvalidPath, "undefined variable: %"+n.Name)
	default:
		return types.Collection{}, nil
	}
}

func (e *Evaluator) evalUnary(n *ast.Unary) (types.Collection, error) {
	operand, err := e.eval(n.Operand)
	if err != nil {
		return nil, err
	}
	if operand.Empty() {
		return operand, nil
	}
	if len(operand) != 1 {
		return nil, SingletonError(len(operand))
	}
	if n.Op == ast.OpNegate {
		negated, err := Negate(operand[0])
		if err != nil {
			return nil, err
		}
		return types.Collection{negated}, nil
	}
	return operand, nil
}

func (e *Evaluator) evalBinary(n *ast.Binary) (types.Collection, error) {
	// Boolean connectives use three-valued logic, so both sides must be
	// evaluated even when one side is Empty; dispatch them before the
	// shared empty/singleton guards below.
	switch n.Op {
	case ast.OpAnd:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return And(left, right), nil
	case ast.OpOr:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return Or(left, right), nil
	case ast.OpXor:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return Xor(left, right), nil
	case ast.OpImplies:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return Implies(left, right), nil
	case ast.OpUnion:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return Union(left, right), nil
	case ast.OpEq, ast.OpNeq, ast.OpEquiv, ast.OpNequiv:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case ast.OpEq:
			return Equal(left, right), nil
		case ast.OpNeq:
			return NotEqual(left, right), nil
		case ast.OpEquiv:
			return Equivalent(left, right), nil
		default:
			return NotEquivalent(left, right), nil
		}
	case ast.OpIn, ast.OpContains:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		if n.Op == ast.OpIn {
			return In(left, right), nil
		}
		return Contains(left, right), nil
	case ast.OpConcat:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return Concatenate(left, right), nil
	}

	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}

	if n.Op == ast.OpLt || n.Op == ast.OpLe || n.Op == ast.OpGt || n.Op == ast.OpGe {
		if left.Empty() || right.Empty() {
			return types.Collection{}, nil
		}
		if len(left) != 1 || len(right) != 1 {
			return nil, SingletonError(len(left) + len(right))
		}
		switch n.Op {
		case ast.OpLt:
			return LessThan(left[0], right[0])
		case ast.OpLe:
			return LessOrEqual(left[0], right[0])
		case ast.OpGt:
			return GreaterThan(left[0], right[0])
		default:
			return GreaterOrEqual(left[0], right[0])
		}
	}

	// Arithmetic: +, -, *, /, div, mod
	if left.Empty() || right.Empty() {
		return types.Collection{}, nil
	}
	if len(left) != 1 || len(right) != 1 {
		return nil, SingletonError(len(left) + len(right))
	}

	var result types.Value
	switch n.Op {
	case ast.OpAdd:
		result, err = Add(left[0], right[0])
	case ast.OpSub:
		result, err = Subtract(left[0], right[0])
	case ast.OpMul:
		result, err = Multiply(left[0], right[0])
	case ast.OpDiv:
		result, err = Divide(left[0], right[0])
	case ast.OpIntDiv:
		result, err = IntegerDivide(left[0], right[0])
	case ast.OpMod:
		result, err = Modulo(left[0], right[0])
	default:
		return nil, NewEvalError(ErrInvalidOperation, "unhandled binary operator")
	}
	if err != nil {
		return nil, err
	}
	return types.Collection{result}, nil
}

func (e *Evaluator) evalTypeOp(n *ast.TypeOp) (types.Collection, error) {
	operand, err := e.eval(n.Operand)
	if err != nil {
		return nil, err
	}
	if operand.Empty() {
		return types.Collection{}, nil
	}
	if len(operand) != 1 {
		return nil, SingletonError(len(operand))
	}
	actualType := operand[0].Type()

	switch n.Kind {
	case ast.TypeOpIs:
		return types.Collection{types.NewBoolean(TypeMatches(actualType, n.TypeSpecifier))}, nil
	case ast.TypeOpAs:
		if TypeMatches(actualType, n.TypeSpecifier) {
			return operand, nil
		}
		return types.Collection{}, nil
	default:
		return types.Collection{}, nil
	}
}

// evalInvocation evaluates Base.Name(Args...), or a bare Name(Args...)
// when Base is nil.
func (e *Evaluator) evalInvocation(n *ast.Invocation) (types.Collection, error) {
	input := e.ctx.This()
	if n.Base != nil {
		base, err := e.eval(n.Base)
		if err != nil {
			return nil, err
		}
		input = base
	}

	// Lambda-taking and type-extracting functions need access to the raw
	// argument AST (unevaluated expressions, or type-name text), not
	// pre-evaluated values; registry.LookupFunction marks which functions
	// these are so the evaluator never guesses from arity alone.
	if spec, ok := registry.LookupFunction(n.Name); ok && hasExpressionParam(spec) {
		return e.callSpecialForm(n.Name, input, n.Args)
	}

	fn, ok := e.funcs.Get(n.Name)
	if !ok {
		return nil, FunctionNotFoundError(n.Name)
	}

	argCount := len(n.Args)
	if argCount < fn.MinArgs {
		return nil, InvalidArgumentsError(n.Name, fn.MinArgs, argCount)
	}
	if fn.MaxArgs >= 0 && argCount > fn.MaxArgs {
		return nil, InvalidArgumentsError(n.Name, fn.MaxArgs, argCount)
	}

	oldThis := e.ctx.this
	e.ctx.this = input
	args := make([]interface{}, argCount)
	for i, argNode := range n.Args {
		result, err := e.eval(argNode)
		if err != nil {
			e.ctx.this = oldThis
			return nil, err
		}
		args[i] = result
	}
	result, err := fn.Fn(e.ctx, input, args)
	e.ctx.this = oldThis
	if err != nil {
		return nil, err
	}
	return result, nil
}

func hasExpressionParam(spec registry.FunctionSpec) bool {
	for _, k := range spec.ParamKinds {
		if k == registry.ParamExpression {
			return true
		}
	}
	return false
}

// callSpecialForm dispatches the handful of functions whose arguments are
// unevaluated expressions (lambdas) or type-specifier text rather than
// plain values. The per-element iteration logic here mirrors the
// teacher's original evaluator, only reframed over ast.Node.
func (e *Evaluator) callSpecialForm(name string, input types.Collection, args []ast.Node) (types.Collection, error) {
	switch name {
	case "where":
		if len(args) < 1 {
			return nil, InvalidArgumentsError(name, 1, len(args))
		}
		return e.evaluateWhere(input, args[0])
	case "exists":
		if len(args) == 0 {
			return e.existsNoCriteria(input)
		}
		return e.evaluateExists(input, args[0])
	case "all":
		if len(args) < 1 {
			return nil, InvalidArgumentsError(name, 1, len(args))
		}
		return e.evaluateAll(input, args[0])
	case "select":
		if len(args) < 1 {
			return nil, InvalidArgumentsError(name, 1, len(args))
		}
		return e.evaluateSelect(input, args[0])
	case "repeat":
		if len(args) < 1 {
			return nil, InvalidArgumentsError(name, 1, len(args))
		}
		return e.evaluateRepeat(input, args[0])
	case "is":
		if len(args) < 1 {
			return nil, InvalidArgumentsError(name, 1, len(args))
		}
		return e.evaluateIsFunction(input, args[0])
	case "as":
		if len(args) < 1 {
			return nil, InvalidArgumentsError(name, 1, len(args))
		}
		return e.evaluateAsFunction(input, args[0])
	case "ofType":
		if len(args) < 1 {
			return nil, InvalidArgumentsError(name, 1, len(args))
		}
		return e.evaluateOfType(input, args[0])
	case "iif":
		if len(args) < 2 {
			return nil, InvalidArgumentsError(name, 2, len(args))
		}
		return e.evaluateIif(args)
	case "aggregate":
		if len(args) < 1 {
			return nil, InvalidArgumentsError(name, 1, len(args))
		}
		var init types.Value
		if len(args) > 1 {
			initCol, err := e.eval(args[1])
			if err != nil {
				return nil, err
			}
			if !initCol.Empty() {
				init = initCol[0]
			}
		}
		return e.evaluateAggregate(input, args[0], init)
	case "trace":
		return e.evaluateTrace(input, args)
	case "defineVariable":
		return e.evaluateDefineVariable(input, args)
	default:
		return nil, FunctionNotFoundError(name)
	}
}

// withIterationContext runs fn with $this/$index bound to item/i, restoring
// the prior context afterward.
func (e *Evaluator) withIterationContext(item types.Value, i int, fn func() (types.Collection, error)) (types.Collection, error) {
	oldThis, oldIndex := e.ctx.this, e.ctx.index
	e.ctx.this = types.Collection{item}
	e.ctx.index = i
	result, err := fn()
	e.ctx.this, e.ctx.index = oldThis, oldIndex
	return result, err
}

func (e *Evaluator) evaluateWhere(input types.Collection, criteria ast.Node) (types.Collection, error) {
	if err := e.ctx.CheckCollectionSize(input); err != nil {
		return nil, err
	}
	result := types.Collection{}
	for i, item := range input {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return nil, err
			}
		}
		col, err := e.withIterationContext(item, i, func() (types.Collection, error) { return e.eval(criteria) })
		if err != nil {
			return nil, err
		}
		if !col.Empty() {
			if b, ok := col[0].(types.Boolean); ok && b.Bool() {
				result = append(result, item)
			}
		}
	}
	return result, nil
}

func (e *Evaluator) existsNoCriteria(input types.Collection) (types.Collection, error) {
	return types.Collection{types.NewBoolean(!input.Empty())}, nil
}

func (e *Evaluator) evaluateExists(input types.Collection, criteria ast.Node) (types.Collection, error) {
	for i, item := range input {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return nil, err
			}
		}
		col, err := e.withIterationContext(item, i, func() (types.Collection, error) { return e.eval(criteria) })
		if err != nil {
			return nil, err
		}
		if !col.Empty() {
			if b, ok := col[0].(types.Boolean); ok && b.Bool() {
				return types.Collection{types.NewBoolean(true)}, nil
			}
		}
	}
	return types.Collection{types.NewBoolean(false)}, nil
}

func (e *Evaluator) evaluateAll(input types.Collection, criteria ast.Node) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(true)}, nil
	}
	for i, item := range input {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return nil, err
			}
		}
		col, err := e.withIterationContext(item, i, func() (types.Collection, error) { return e.eval(criteria) })
		if err != nil {
			return nil, err
		}
		if col.Empty() {
			return types.Collection{types.NewBoolean(false)}, nil
		}
		if b, ok := col[0].(types.Boolean); ok && !b.Bool() {
			return types.Collection{types.NewBoolean(false)}, nil
		}
	}
	return types.Collection{types.NewBoolean(true)}, nil
}

func (e *Evaluator) evaluateSelect(input types.Collection, projection ast.Node) (types.Collection, error) {
	if err := e.ctx.CheckCollectionSize(input); err != nil {
		return nil, err
	}
	result := types.Collection{}
	for i, item := range input {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return nil, err
			}
		}
		col, err := e.withIterationContext(item, i, func() (types.Collection, error) { return e.eval(projection) })
		if err != nil {
			return nil, err
		}
		result = append(result, col...)
		if err := e.ctx.CheckCollectionSize(result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// evaluateRepeat repeatedly applies projection to the working set until no
// new items appear, accumulating every generation (spec.md section 4.5.10).
func (e *Evaluator) evaluateRepeat(input types.Collection, projection ast.Node) (types.Collection, error) {
	result := types.Collection{}
	frontier := input
	seen := make(map[types.Value]bool)

	for len(frontier) > 0 {
		if err := e.ctx.CheckCollectionSize(result); err != nil {
			return nil, err
		}
		next := types.Collection{}
		for i, item := range frontier {
			if i%100 == 0 {
				if err := e.ctx.CheckCancellation(); err != nil {
					return nil, err
				}
			}
			col, err := e.withIterationContext(item, i, func() (types.Collection, error) { return e.eval(projection) })
			if err != nil {
				return nil, err
			}
			for _, v := range col {
				if seen[v] {
					continue
				}
				seen[v] = true
				result = append(result, v)
				next = append(next, v)
			}
		}
		frontier = next
	}
	return result, nil
}

func (e *Evaluator) evaluateIsFunction(input types.Collection, typeExpr ast.Node) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if len(input) != 1 {
		return nil, SingletonError(len(input))
	}
	typeName := typeSpecifierFromNode(typeExpr)
	if typeName == "" {
		return nil, InvalidArgumentsError("is", 1, 0)
	}
	return types.Collection{types.NewBoolean(TypeMatches(input[0].Type(), typeName))}, nil
}

func (e *Evaluator) evaluateAsFunction(input types.Collection, typeExpr ast.Node) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if len(input) != 1 {
		return nil, SingletonError(len(input))
	}
	typeName := typeSpecifierFromNode(typeExpr)
	if typeName == "" {
		return nil, InvalidArgumentsError("as", 1, 0)
	}
	if TypeMatches(input[0].Type(), typeName) {
		return input, nil
	}
	return types.Collection{}, nil
}

func (e *Evaluator) evaluateOfType(input types.Collection, typeExpr ast.Node) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	typeName := typeSpecifierFromNode(typeExpr)
	if typeName == "" {
		return nil, InvalidArgumentsError("ofType", 1, 0)
	}
	result := types.Collection{}
	for _, item := range input {
		if TypeMatches(item.Type(), typeName) {
			result = append(result, item)
		}
	}
	return result, nil
}

// evaluateIif lazily evaluates only the branch that matches the criterion,
// so the untaken branch never raises an error (spec.md section 4.5.13).
func (e *Evaluator) evaluateIif(args []ast.Node) (types.Collection, error) {
	criterionCol, err := e.eval(args[0])
	if err != nil {
		return nil, err
	}
	criterion := false
	if !criterionCol.Empty() {
		if b, ok := criterionCol[0].(types.Boolean); ok {
			criterion = b.Bool()
		}
	}
	if criterion {
		return e.eval(args[1])
	}
	if len(args) > 2 {
		return e.eval(args[2])
	}
	return types.Collection{}, nil
}

// evaluateAggregate threads the running accumulator through $total/%total
// for each element of input, evaluating aggregator once per element with
// $this bound to the element and $total bound to the accumulator so far.
func (e *Evaluator) evaluateAggregate(input types.Collection, aggregator ast.Node, init types.Value) (types.Collection, error) {
	total := init
	for i, item := range input {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return nil, err
			}
		}
		oldThis, oldIndex, oldTotal := e.ctx.this, e.ctx.index, e.ctx.total
		e.ctx.this = types.Collection{item}
		e.ctx.index = i
		e.ctx.total = total
		result, err := e.eval(aggregator)
		e.ctx.this, e.ctx.index, e.ctx.total = oldThis, oldIndex, oldTotal
		if err != nil {
			return nil, err
		}
		if !result.Empty() {
			total = result[0]
		}
	}
	if total == nil {
		return types.Collection{}, nil
	}
	return types.Collection{total}, nil
}

// evaluateTrace logs %this under the given name and returns it unchanged;
// the optional second argument, if present, is a projection evaluated for
// its side effect only (spec.md section 4.5.15 "debug hook").
func (e *Evaluator) evaluateTrace(input types.Collection, args []ast.Node) (types.Collection, error) {
	name := "trace"
	if len(args) > 0 {
		nameCol, err := e.eval(args[0])
		if err != nil {
			return nil, err
		}
		if !nameCol.Empty() {
			if s, ok := nameCol[0].(types.String); ok {
				name = s.Value()
			}
		}
	}
	traced := input
	if len(args) > 1 {
		projected, err := e.evaluateSelect(input, args[1])
		if err != nil {
			return nil, err
		}
		traced = projected
	}
	if tracer := e.ctx.GetTracer(); tracer != nil {
		tracer(name, traced)
	}
	return input, nil
}

// evaluateDefineVariable binds args[0]'s value (a string name) to args[1]'s
// evaluated value for the remainder of the containing invocation chain,
// using the same copy-on-write Context derivation as WithThis. New relative
// to the teacher, which has no defineVariable (spec.md section 4.5.14).
func (e *Evaluator) evaluateDefineVariable(input types.Collection, args []ast.Node) (types.Collection, error) {
	if len(args) < 1 {
		return nil, InvalidArgumentsError("defineVariable", 1, len(args))
	}
	nameCol, err := e.eval(args[0])
	if err != nil {
		return nil, err
	}
	if nameCol.Empty() {
		return nil, InvalidArgumentsError("defineVariable", 1, 0)
	}
	name, ok := nameCol[0].(types.String)
	if !ok {
		return nil, TypeError("String", nameCol[0].Type(), "defineVariable")
	}

	value := input
	if len(args) > 1 {
		value, err = e.eval(args[1])
		if err != nil {
			return nil, err
		}
	}

	oldVars := e.ctx.variables
	e.ctx.variables = make(map[string]types.Collection, len(oldVars)+1)
	for k, v := range oldVars {
		e.ctx.variables[k] = v
	}
	e.ctx.variables[name.Value()] = value
	defer func() { e.ctx.variables = oldVars }()

	return input, nil
}

// typeSpecifierFromNode reconstructs a dotted type name (Patient,
// FHIR.Patient, System.Integer) from the parsed argument AST of a
// functional-form is()/as()/ofType() call.
func typeSpecifierFromNode(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Identifier:
		return v.Name
	case *ast.Path:
		base := typeSpecifierFromNode(v.Base)
		if base == "" {
			return v.Member
		}
		return base + "." + v.Member
	default:
		return ""
	}
}

// nonDomainResources contains FHIR resources that inherit directly from Resource,
// not from DomainResource. All other resources inherit from DomainResource.
var nonDomainResources = map[string]bool{
	"Bundle":     true,
	"Binary":     true,
	"Parameters": true,
}

// IsDomainResource returns true if the given resource type inherits from DomainResource.
// Bundle, Binary, and Parameters inherit directly from Resource, not DomainResource.
func IsDomainResource(resourceType string) bool {
	return !nonDomainResources[resourceType]
}

// IsSubtypeOf checks if actualType is a subtype of (or equal to) baseType.
// This handles the FHIR type hierarchy:
//
//	Resource
//	  └── DomainResource
//	        ├── Patient
//	        ├── Observation
//	        └── ... (most resources)
//	  └── Bundle, Binary, Parameters (directly inherit from Resource)
func IsSubtypeOf(actualType, baseType string) bool {
	if actualType == baseType {
		return true
	}
	if strings.EqualFold(actualType, baseType) {
		return true
	}
	if baseType == "Resource" || strings.EqualFold(baseType, "resource") {
		return isPossibleResourceType(actualType)
	}
	if baseType == "DomainResource" || strings.EqualFold(baseType, "domainresource") {
		return isPossibleResourceType(actualType) && IsDomainResource(actualType)
	}
	return false
}

// isPossibleResourceType checks if the type looks like a FHIR resource type.
// Resource types are PascalCase and are not primitive types.
func isPossibleResourceType(typeName string) bool {
	if typeName == "" {
		return false
	}
	primitiveTypes := map[string]bool{
		"Boolean": true, "String": true, "Integer": true, "Decimal": true,
		"Date": true, "DateTime": true, "Time": true, "Quantity": true,
		"Object": true,
	}
	if primitiveTypes[typeName] {
		return false
	}
	return typeName[0] >= 'A' && typeName[0] <= 'Z'
}

// TypeMatches checks if actualType matches the requested typeName.
// Handles case-insensitive comparison and FHIR type aliases.
// This function is exported for use by the is() function implementation.
func TypeMatches(actualType, typeName string) bool {
	if actualType == typeName {
		return true
	}
	actualLower := strings.ToLower(actualType)
	typeNameLower := strings.ToLower(typeName)
	if actualLower == typeNameLower {
		return true
	}
	if IsSubtypeOf(actualType, typeName) {
		return true
	}

	fhirToFHIRPath := map[string]string{
		"boolean": "Boolean", "string": "String", "integer": "Integer",
		"decimal": "Decimal", "date": "Date", "datetime": "DateTime",
		"time": "Time", "instant": "DateTime", "uri": "String", "url": "String",
		"canonical": "String", "base64binary": "String", "code": "String",
		"id": "String", "markdown": "String", "oid": "String", "uuid": "String",
		"positiveint": "Integer", "unsignedint": "Integer", "integer64": "Integer",
		"quantity": "Quantity", "simplequantity": "Quantity", "age": "Quantity",
		"count": "Quantity", "distance": "Quantity", "duration": "Quantity",
		"money": "Quantity",
	}

	if fhirPathType, ok := fhirToFHIRPath[typeNameLower]; ok {
		if actualType == fhirPathType {
			return true
		}
	}
	if fhirPathType, ok := fhirToFHIRPath[actualLower]; ok {
		if fhirPathType == typeName || strings.EqualFold(fhirPathType, typeName) {
			return true
		}
	}

	if strings.HasPrefix(typeNameLower, "system.") {
		systemType := typeName[7:]
		if strings.EqualFold(actualType, systemType) {
			return true
		}
	}
	if strings.HasPrefix(typeNameLower, "fhir.") {
		fhirType := typeName[5:]
		if strings.EqualFold(actualType, fhirType) {
			return true
		}
	}
	return false
}

// navigateMember navigates to a member of objects in the collection.
// Supports FHIR polymorphic elements (value[x] pattern) by consulting the
// context's ModelProvider for the candidate suffixes instead of a
// hardcoded table (spec.md section 4.4).
func (e *Evaluator) navigateMember(input types.Collection, name string) types.Collection {
	result := types.Collection{}
	provider := e.ctx.GetProvider()

	for _, item := range input {
		obj, ok := item.(*types.ObjectValue)
		if !ok {
			continue
		}

		if IsSubtypeOf(obj.Type(), name) {
			result = append(result, obj)
			continue
		}

		children := obj.GetCollection(name)
		if len(children) > 0 {
			result = append(result, children...)
			continue
		}

		result = append(result, e.resolvePolymorphicField(provider, obj, name)...)
	}

	return result
}

// resolvePolymorphicField attempts to resolve a polymorphic FHIR element
// (e.g. "value" -> "valueQuantity", "valueString", ...) using the
// suffixes the ModelProvider reports for obj's type, falling back to every
// suffix the provider knows about if it has no type-specific answer.
func (e *Evaluator) resolvePolymorphicField(provider model.Provider, obj *types.ObjectValue, name string) types.Collection {
	choicePaths := provider.GetChoiceTypePaths(obj.Type())
	suffixes, ok := choicePaths[name]
	if !ok {
		return types.Collection{}
	}
	for _, suffix := range suffixes {
		children := obj.GetCollection(name + suffix)
		if len(children) > 0 {
			return children
		}
	}
	return types.Collection{}
}
