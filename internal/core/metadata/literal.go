package metadata

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
)

// evalLiteral evaluates a restricted literal expression: basic literals,
// true/false/nil, signed numeric literals, slice and map composite
// literals, and parenthesized forms of those. Any expression that would
// require name resolution or evaluation (calls, selectors, identifiers,
// operators) is rejected so that parsing a marker file can never run code.
func evalLiteral(expr ast.Expr) (interface{}, error) {
	switch v := expr.(type) {
	case *ast.BasicLit:
		return evalBasicLit(v)

	case *ast.Ident:
		switch v.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nil":
			return nil, nil
		}
		return nil, fmt.Errorf("identifier %q is not a literal", v.Name)

	case *ast.UnaryExpr:
		return evalUnary(v)

	case *ast.ParenExpr:
		return evalLiteral(v.X)

	case *ast.CompositeLit:
		return evalComposite(v)
	}

	return nil, fmt.Errorf("unsupported expression %T", expr)
}

// evalBasicLit converts a single token literal into its Go value
func evalBasicLit(lit *ast.BasicLit) (interface{}, error) {
	switch lit.Kind {
	case token.STRING, token.CHAR:
		value, err := strconv.Unquote(lit.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid string literal %s: %w", lit.Value, err)
		}
		return value, nil

	case token.INT:
		value, err := strconv.ParseInt(lit.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %s: %w", lit.Value, err)
		}
		return int(value), nil

	case token.FLOAT:
		value, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float literal %s: %w", lit.Value, err)
		}
		return value, nil
	}

	return nil, fmt.Errorf("unsupported literal kind %s", lit.Kind)
}

// evalUnary handles signed numeric literals such as -1 or +2.5
func evalUnary(expr *ast.UnaryExpr) (interface{}, error) {
	if expr.Op != token.ADD && expr.Op != token.SUB {
		return nil, fmt.Errorf("unsupported unary operator %s", expr.Op)
	}

	operand, err := evalLiteral(expr.X)
	if err != nil {
		return nil, err
	}

	switch n := operand.(type) {
	case int:
		if expr.Op == token.SUB {
			return -n, nil
		}
		return n, nil
	case float64:
		if expr.Op == token.SUB {
			return -n, nil
		}
		return n, nil
	}

	return nil, fmt.Errorf("unary %s applied to non-numeric literal", expr.Op)
}

// evalComposite handles slice/array and string-keyed map literals,
// evaluating every element with the same restrictions
func evalComposite(lit *ast.CompositeLit) (interface{}, error) {
	switch lit.Type.(type) {
	case *ast.ArrayType:
		values := make([]interface{}, 0, len(lit.Elts))
		for _, elt := range lit.Elts {
			value, err := evalLiteral(elt)
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		}
		return values, nil

	case *ast.MapType:
		values := make(map[string]interface{}, len(lit.Elts))
		for _, elt := range lit.Elts {
			pair, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				return nil, fmt.Errorf("map literal element is not a key/value pair")
			}
			key, err := evalLiteral(pair.Key)
			if err != nil {
				return nil, err
			}
			keyString, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("map literal key %v is not a string", key)
			}
			value, err := evalLiteral(pair.Value)
			if err != nil {
				return nil, err
			}
			values[keyString] = value
		}
		return values, nil
	}

	return nil, fmt.Errorf("unsupported composite literal type %T", lit.Type)
}
