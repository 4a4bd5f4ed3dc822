// Package syntax turns Java source into a tree.Tree using tree-sitter.
package syntax

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/chris-regnier/chisel/internal/tree"
)

// namedKinds maps tree-sitter-java node types to tree kinds. Types missing
// here become tree.KindOther.
var namedKinds = map[string]tree.Kind{
	"program":                         tree.KindCompilationUnit,
	"package_declaration":             tree.KindPackageDeclaration,
	"import_declaration":              tree.KindImportDeclaration,
	"class_declaration":               tree.KindClassDeclaration,
	"interface_declaration":           tree.KindInterfaceDeclaration,
	"enum_declaration":                tree.KindEnumDeclaration,
	"record_declaration":              tree.KindRecordDeclaration,
	"annotation_type_declaration":     tree.KindAnnotationTypeDeclaration,
	"class_body":                      tree.KindClassBody,
	"interface_body":                  tree.KindClassBody,
	"annotation_type_body":            tree.KindClassBody,
	"enum_body":                       tree.KindEnumBody,
	"enum_body_declarations":          tree.KindEnumBodyDeclarations,
	"enum_constant":                   tree.KindEnumConstant,
	"field_declaration":               tree.KindFieldDeclaration,
	"constant_declaration":            tree.KindFieldDeclaration,
	"method_declaration":              tree.KindMethodDeclaration,
	"constructor_declaration":         tree.KindConstructorDeclaration,
	"compact_constructor_declaration": tree.KindConstructorDeclaration,
	"static_initializer":              tree.KindStaticInitializer,
	"formal_parameters":               tree.KindFormalParameters,
	"formal_parameter":                tree.KindFormalParameter,
	"spread_parameter":                tree.KindFormalParameter,
	"lambda_expression":               tree.KindLambdaExpression,
	"block":                           tree.KindBlock,
	"constructor_body":                tree.KindBlock,
	"if_statement":                    tree.KindIfStatement,
	"try_statement":                   tree.KindTryStatement,
	"try_with_resources_statement":    tree.KindTryStatement,
	"catch_clause":                    tree.KindCatchClause,
	"finally_clause":                  tree.KindFinallyClause,
	"switch_expression":               tree.KindSwitch,
	"switch_statement":                tree.KindSwitch,
	"switch_block":                    tree.KindSwitchBlock,
	"switch_block_statement_group":    tree.KindSwitchGroup,
	"switch_rule":                     tree.KindSwitchRule,
	"switch_label":                    tree.KindSwitchLabel,
	"for_statement":                   tree.KindForStatement,
	"enhanced_for_statement":          tree.KindForStatement,
	"while_statement":                 tree.KindWhileStatement,
	"do_statement":                    tree.KindDoStatement,
	"expression_statement":            tree.KindExpressionStatement,
	"local_variable_declaration":      tree.KindLocalVariableDeclaration,
	"variable_declarator":             tree.KindVariableDeclarator,
	"array_initializer":               tree.KindArrayInitializer,
	"array_creation_expression":       tree.KindArrayCreation,
	"object_creation_expression":      tree.KindObjectCreation,
	"method_invocation":               tree.KindMethodInvocation,
	"method_reference":                tree.KindMethodReference,
	"field_access":                    tree.KindFieldAccess,
	"argument_list":                   tree.KindArgumentList,
	"instanceof_expression":           tree.KindInstanceof,
	"record_pattern":                  tree.KindRecordPattern,
	"record_pattern_body":             tree.KindRecordPatternBody,
	"record_pattern_component":        tree.KindRecordPatternComponent,
	"type_pattern":                    tree.KindTypePattern,
	"pattern":                         tree.KindPattern,
	"generic_type":                    tree.KindGenericType,
	"type_arguments":                  tree.KindTypeArguments,
	"identifier":                      tree.KindIdentifier,
	"type_identifier":                 tree.KindTypeIdentifier,
	"scoped_identifier":               tree.KindScopedIdentifier,
	"scoped_type_identifier":          tree.KindScopedIdentifier,
	"line_comment":                    tree.KindLineComment,
	"block_comment":                   tree.KindBlockComment,
	"decimal_integer_literal":         tree.KindLiteral,
	"hex_integer_literal":             tree.KindLiteral,
	"octal_integer_literal":           tree.KindLiteral,
	"binary_integer_literal":          tree.KindLiteral,
	"decimal_floating_point_literal":  tree.KindLiteral,
	"hex_floating_point_literal":      tree.KindLiteral,
	"character_literal":               tree.KindLiteral,
	"string_literal":                  tree.KindLiteral,
	"text_block":                      tree.KindLiteral,
	"null_literal":                    tree.KindLiteral,
	"true":                            tree.KindLiteral,
	"false":                           tree.KindLiteral,
}

var tokenKinds = map[string]tree.Kind{
	",":  tree.KindComma,
	";":  tree.KindSemicolon,
	"{":  tree.KindLBrace,
	"}":  tree.KindRBrace,
	"(":  tree.KindLParen,
	")":  tree.KindRParen,
	"<":  tree.KindLAngle,
	">":  tree.KindRAngle,
	".":  tree.KindDot,
	"::": tree.KindDoubleColon,
}

// Parse parses Java source and converts it into a tree. Sources with syntax
// errors yield an error wrapping tree.ErrMalformedTree.
func Parse(ctx context.Context, path string, src []byte) (*tree.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	ts, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	root := ts.RootNode()
	cols := newColumns(src)
	if root.HasError() {
		pos := cols.firstError(root)
		return nil, fmt.Errorf("parsing %s: syntax error at %d:%d: %w", path, pos.Line, pos.Column, tree.ErrMalformedTree)
	}

	b := tree.NewBuilder(path)
	cols.convert(b, root, tree.NoNode, "")
	t, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

// columns maps tree-sitter byte columns to 1-based character columns.
type columns struct {
	src    []byte
	starts []int
}

func newColumns(src []byte) *columns {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &columns{src: src, starts: starts}
}

func (c *columns) point(p sitter.Point) tree.Position {
	row, col := int(p.Row), int(p.Column)
	if row < len(c.starts) {
		start := c.starts[row]
		end := min(start+col, len(c.src))
		col = utf8.RuneCount(c.src[start:end])
	}
	return tree.Position{Line: row + 1, Column: col + 1}
}

func (c *columns) convert(b *tree.Builder, n *sitter.Node, parent tree.NodeID, parentType string) {
	src := c.src
	kind := kindOf(n, parentType, src)
	text := ""
	if n.ChildCount() == 0 {
		text = n.Content(src)
	}
	id := b.Add(parent, kind, c.point(n.StartPoint()), text)
	b.SetEnd(id, c.point(n.EndPoint()))

	typ := n.Type()
	for i := 0; i < int(n.ChildCount()); i++ {
		c.convert(b, n.Child(i), id, typ)
	}
}

func kindOf(n *sitter.Node, parentType string, src []byte) tree.Kind {
	typ := n.Type()
	if !n.IsNamed() {
		if k, ok := tokenKinds[typ]; ok {
			return k
		}
		if r := []rune(typ); len(r) > 0 && unicode.IsLetter(r[0]) {
			return tree.KindKeyword
		}
		return tree.KindOperator
	}

	switch typ {
	case "class_body":
		if parentType == "object_creation_expression" {
			return tree.KindAnonymousClassBody
		}
	case "block":
		if parentType == "class_body" || parentType == "enum_body_declarations" {
			return tree.KindInstanceInitializer
		}
	case "comment":
		// Older grammars use a single comment node.
		if strings.HasPrefix(n.Content(src), "//") {
			return tree.KindLineComment
		}
		return tree.KindBlockComment
	}
	if k, ok := namedKinds[typ]; ok {
		return k
	}
	return tree.KindOther
}

// firstError locates the first ERROR or MISSING node in pre-order.
func (c *columns) firstError(n *sitter.Node) tree.Position {
	if n.Type() == "ERROR" || n.IsMissing() {
		return c.point(n.StartPoint())
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			return c.firstError(child)
		}
	}
	return c.point(n.StartPoint())
}
