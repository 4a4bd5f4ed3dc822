package tree

import (
	"fmt"
	"math/bits"
	"sort"
)

// Kind tags a node. The set is closed: every node produced by a parser adapter
// carries one of these values.
type Kind uint8

const (
	KindCompilationUnit Kind = iota
	KindPackageDeclaration
	KindImportDeclaration
	KindClassDeclaration
	KindInterfaceDeclaration
	KindEnumDeclaration
	KindRecordDeclaration
	KindAnnotationTypeDeclaration
	KindClassBody
	KindAnonymousClassBody
	KindEnumBody
	KindEnumBodyDeclarations
	KindEnumConstant
	KindFieldDeclaration
	KindMethodDeclaration
	KindConstructorDeclaration
	KindInstanceInitializer
	KindStaticInitializer
	KindFormalParameters
	KindFormalParameter
	KindLambdaExpression
	KindBlock
	KindIfStatement
	KindTryStatement
	KindCatchClause
	KindFinallyClause
	KindSwitch
	KindSwitchBlock
	KindSwitchGroup
	KindSwitchRule
	KindSwitchLabel
	KindForStatement
	KindWhileStatement
	KindDoStatement
	KindExpressionStatement
	KindLocalVariableDeclaration
	KindVariableDeclarator
	KindArrayInitializer
	KindArrayCreation
	KindObjectCreation
	KindMethodInvocation
	KindMethodReference
	KindFieldAccess
	KindArgumentList
	KindInstanceof
	KindRecordPattern
	KindRecordPatternBody
	KindRecordPatternComponent
	KindTypePattern
	KindPattern
	KindGenericType
	KindTypeArguments
	KindIdentifier
	KindTypeIdentifier
	KindScopedIdentifier
	KindLiteral
	KindLineComment
	KindBlockComment
	KindComma
	KindSemicolon
	KindLBrace
	KindRBrace
	KindLParen
	KindRParen
	KindLAngle
	KindRAngle
	KindDot
	KindDoubleColon
	KindKeyword
	KindOperator
	KindOther

	numKinds
)

var kindNames = [numKinds]string{
	KindCompilationUnit:           "compilation_unit",
	KindPackageDeclaration:        "package_declaration",
	KindImportDeclaration:         "import_declaration",
	KindClassDeclaration:          "class_declaration",
	KindInterfaceDeclaration:      "interface_declaration",
	KindEnumDeclaration:           "enum_declaration",
	KindRecordDeclaration:         "record_declaration",
	KindAnnotationTypeDeclaration: "annotation_type_declaration",
	KindClassBody:                 "class_body",
	KindAnonymousClassBody:        "anonymous_class_body",
	KindEnumBody:                  "enum_body",
	KindEnumBodyDeclarations:      "enum_body_declarations",
	KindEnumConstant:              "enum_constant",
	KindFieldDeclaration:          "field_declaration",
	KindMethodDeclaration:         "method_declaration",
	KindConstructorDeclaration:    "constructor_declaration",
	KindInstanceInitializer:       "instance_initializer",
	KindStaticInitializer:         "static_initializer",
	KindFormalParameters:          "formal_parameters",
	KindFormalParameter:           "formal_parameter",
	KindLambdaExpression:          "lambda_expression",
	KindBlock:                     "block",
	KindIfStatement:               "if_statement",
	KindTryStatement:              "try_statement",
	KindCatchClause:               "catch_clause",
	KindFinallyClause:             "finally_clause",
	KindSwitch:                    "switch",
	KindSwitchBlock:               "switch_block",
	KindSwitchGroup:               "switch_group",
	KindSwitchRule:                "switch_rule",
	KindSwitchLabel:               "switch_label",
	KindForStatement:              "for_statement",
	KindWhileStatement:            "while_statement",
	KindDoStatement:               "do_statement",
	KindExpressionStatement:       "expression_statement",
	KindLocalVariableDeclaration:  "local_variable_declaration",
	KindVariableDeclarator:        "variable_declarator",
	KindArrayInitializer:          "array_initializer",
	KindArrayCreation:             "array_creation_expression",
	KindObjectCreation:            "object_creation_expression",
	KindMethodInvocation:          "method_invocation",
	KindMethodReference:           "method_reference",
	KindFieldAccess:               "field_access",
	KindArgumentList:              "argument_list",
	KindInstanceof:                "instanceof_expression",
	KindRecordPattern:             "record_pattern",
	KindRecordPatternBody:         "record_pattern_body",
	KindRecordPatternComponent:    "record_pattern_component",
	KindTypePattern:               "type_pattern",
	KindPattern:                   "pattern",
	KindGenericType:               "generic_type",
	KindTypeArguments:             "type_arguments",
	KindIdentifier:                "identifier",
	KindTypeIdentifier:            "type_identifier",
	KindScopedIdentifier:          "scoped_identifier",
	KindLiteral:                   "literal",
	KindLineComment:               "line_comment",
	KindBlockComment:              "block_comment",
	KindComma:                     "comma",
	KindSemicolon:                 "semicolon",
	KindLBrace:                    "lbrace",
	KindRBrace:                    "rbrace",
	KindLParen:                    "lparen",
	KindRParen:                    "rparen",
	KindLAngle:                    "langle",
	KindRAngle:                    "rangle",
	KindDot:                       "dot",
	KindDoubleColon:               "double_colon",
	KindKeyword:                   "keyword",
	KindOperator:                  "operator",
	KindOther:                     "other",
}

var kindsByName map[string]Kind

func init() {
	kindsByName = make(map[string]Kind, numKinds)
	for k, name := range kindNames {
		kindsByName[name] = Kind(k)
	}
}

// NumKinds is the size of the Kind enumeration.
const NumKinds = int(numKinds)

func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Valid reports whether k is a member of the enumeration.
func (k Kind) Valid() bool { return k < numKinds }

// IsComment reports whether k is a line or block comment.
func (k Kind) IsComment() bool { return k == KindLineComment || k == KindBlockComment }

// IsToken reports whether k is a punctuation, keyword or operator token.
func (k Kind) IsToken() bool { return k >= KindComma && k <= KindOperator }

// ParseKind maps a configuration name such as "if_statement" to its Kind.
func ParseKind(name string) (Kind, error) {
	k, ok := kindsByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown node kind %q", name)
	}
	return k, nil
}

// KindSet is a fixed-size bitset of kinds.
type KindSet struct {
	words [2]uint64
}

// NewKindSet returns a set holding kinds.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns a copy of s that also holds k.
func (s KindSet) With(k Kind) KindSet {
	if !k.Valid() {
		return s
	}
	s.words[k/64] |= 1 << (k % 64)
	return s
}

// Has reports whether k is in s.
func (s KindSet) Has(k Kind) bool {
	if !k.Valid() {
		return false
	}
	return s.words[k/64]&(1<<(k%64)) != 0
}

// Union returns s ∪ o.
func (s KindSet) Union(o KindSet) KindSet {
	s.words[0] |= o.words[0]
	s.words[1] |= o.words[1]
	return s
}

// Len returns the number of kinds in s.
func (s KindSet) Len() int {
	return bits.OnesCount64(s.words[0]) + bits.OnesCount64(s.words[1])
}

// IsEmpty reports whether s holds no kinds.
func (s KindSet) IsEmpty() bool { return s.words == [2]uint64{} }

// Kinds lists the members of s in enumeration order.
func (s KindSet) Kinds() []Kind {
	out := make([]Kind, 0, s.Len())
	for k := Kind(0); k < numKinds; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Names lists the configuration names of the members of s, sorted.
func (s KindSet) Names() []string {
	kinds := s.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	sort.Strings(names)
	return names
}
