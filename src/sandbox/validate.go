package sandbox

import (
	"fmt"
	"reflect"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// deniedNames are identifiers that give user code a path to dynamic
// execution, host introspection or IO. The runtime never binds most of these,
// but rejecting them statically keeps the failure a validation error instead
// of a runtime surprise.
var deniedNames = map[string]struct{}{
	"eval":           {},
	"Function":       {},
	"require":        {},
	"globalThis":     {},
	"process":        {},
	"fetch":          {},
	"XMLHttpRequest": {},
	"importScripts":  {},
	"Reflect":        {},
	"Proxy":          {},
}

// deniedProperties blocks the prototype-walk escape hatches.
var deniedProperties = map[string]struct{}{
	"constructor": {},
	"__proto__":   {},
	"prototype":   {},
}

// checkNode rejects denied identifiers and denied property accesses, in both
// the dot and the computed string-key spelling.
func checkNode(n ast.Node) error {
	switch node := n.(type) {
	case *ast.Identifier:
		name := node.Name.String()
		if _, denied := deniedNames[name]; denied {
			return fmt.Errorf("%w: forbidden name %q", StrategyValidationErr, name)
		}
	case *ast.DotExpression:
		name := node.Identifier.Name.String()
		if _, denied := deniedProperties[name]; denied {
			return fmt.Errorf("%w: forbidden property access %q", StrategyValidationErr, name)
		}
	case *ast.BracketExpression:
		if lit, ok := node.Member.(*ast.StringLiteral); ok {
			name := lit.Value.String()
			if _, denied := deniedProperties[name]; denied {
				return fmt.Errorf("%w: forbidden property access %q", StrategyValidationErr, name)
			}
		}
	}

	return nil
}

// walkNode traverses the parsed tree reflectively: the goja ast package
// exports only the node type definitions, no visitor, so traversal follows
// every exported pointer, interface, slice and struct field. Nodes appear
// behind the Expression/Statement interfaces as pointers, which is where the
// ast.Node assertion fires.
func walkNode(rv reflect.Value, check func(ast.Node) error) error {
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		if rv.CanInterface() {
			if node, ok := rv.Interface().(ast.Node); ok {
				if err := check(node); err != nil {
					return err
				}
			}
		}
		return walkNode(rv.Elem(), check)
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			field := rv.Field(i)
			if !field.CanInterface() {
				continue
			}
			if err := walkNode(field, check); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := walkNode(rv.Index(i), check); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateStrategyCode statically checks user code: it must parse as a
// script (module imports are a parse error), must not reference a denied
// name or property, and must declare a top-level function named "strategy".
// The code is never executed here.
func validateStrategyCode(code string) error {
	program, err := parser.ParseFile(nil, "strategy.js", code, 0)
	if err != nil {
		return fmt.Errorf("%w: syntax error: %v", StrategyValidationErr, err)
	}

	if err := walkNode(reflect.ValueOf(program), checkNode); err != nil {
		return err
	}

	for _, stmt := range program.Body {
		if decl, ok := stmt.(*ast.FunctionDeclaration); ok {
			if decl.Function.Name != nil && decl.Function.Name.Name.String() == "strategy" {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: strategy code must define a function named 'strategy'", StrategyValidationErr)
}
