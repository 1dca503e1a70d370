package langs

import (
	golang "github.com/alexaandru/go-sitter-forest/go"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/python"
	"github.com/alexaandru/go-sitter-forest/rust"
	"github.com/alexaandru/go-sitter-forest/typescript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/sibyllinesoft/valknut/internal/ast"
)

// Short aliases for ast.Kind/ast.Role values, to keep the per-language
// mapping tables below readable.
const (
	KFunction  = ast.KindFunction
	KMethod    = ast.KindMethod
	KClass     = ast.KindClass
	KInterface = ast.KindInterface
	KLambda    = ast.KindLambda
	KBlock     = ast.KindBlock
	KIf        = ast.KindIf
	KLoop      = ast.KindLoop
	KSwitch    = ast.KindSwitch
	KCase      = ast.KindCase
	KTry       = ast.KindTry
	KCatch     = ast.KindCatch
	KReturn    = ast.KindReturn
	KBreak     = ast.KindBreak
	KContinue  = ast.KindContinue
	KThrow     = ast.KindThrow
	KAssign    = ast.KindAssignment
	KCall      = ast.KindCall
	KIdent     = ast.KindIdentifier
	KField     = ast.KindField
	KLit       = ast.KindLiteral
	KBinOp     = ast.KindBinaryOp
	KBoolOp    = ast.KindBooleanOp
	KUnaryOp   = ast.KindUnaryOp
	KTernary   = ast.KindTernary
	KImport    = ast.KindImport
	KComment   = ast.KindComment
	KAttribute = ast.KindAttribute
	KYield     = ast.KindYield
	KAwait     = ast.KindAwait
	KParameter = ast.KindParameter
	KParamList = ast.Kind("ParameterList")
)

// RoleT aliases ast.Role for brevity in the tables below.
type RoleT = ast.Role

const (
	RDecl = ast.RoleDeclaration
	RFunc = ast.RoleFunction
	RBody = ast.RoleBody
	ROp   = ast.RoleOperator
)

func builtinAdapters() []Adapter {
	return []Adapter{
		newTreeSitterAdapter(pythonLang()),
		newTreeSitterAdapter(javascriptLang()),
		newTreeSitterAdapter(typescriptLang()),
		newTreeSitterAdapter(rustLang()),
		newTreeSitterAdapter(goLang()),
	}
}

func pythonLang() treeSitterLang {
	return treeSitterLang{
		name:       "python",
		extensions: []string{".py", ".pyi"},
		getLanguage: func() *sitter.Language {
			return sitter.NewLanguage(python.GetLanguage())
		},
		kinds: kindTable{
			"module":                {kind: "Module"},
			"function_definition":   {kind: KFunction, roles: []RoleT{RDecl, RFunc}},
			"lambda":                {kind: KLambda},
			"class_definition":      {kind: KClass, roles: []RoleT{RDecl}},
			"parameters":            {kind: KParamList},
			"parameter":             {kind: KParameter},
			"default_parameter":     {kind: KParameter},
			"typed_parameter":       {kind: KParameter},
			"block":                 {kind: KBlock, roles: []RoleT{RBody}},
			"if_statement":          {kind: KIf},
			"elif_clause":           {kind: KIf},
			"for_statement":         {kind: KLoop},
			"while_statement":       {kind: KLoop},
			"try_statement":         {kind: KTry},
			"except_clause":         {kind: KCatch},
			"finally_clause":        {kind: KCatch},
			"with_statement":        {kind: KBlock},
			"match_statement":       {kind: KSwitch},
			"case_clause":           {kind: KCase},
			"return_statement":      {kind: KReturn},
			"break_statement":       {kind: KBreak},
			"continue_statement":    {kind: KContinue},
			"raise_statement":       {kind: KThrow},
			"assignment":            {kind: KAssign},
			"augmented_assignment":  {kind: KAssign},
			"call":                  {kind: KCall},
			"identifier":            {kind: KIdent},
			"attribute":             {kind: KField},
			"integer":                {kind: KLit},
			"float":                  {kind: KLit},
			"string":                 {kind: KLit},
			"true":                   {kind: KLit},
			"false":                  {kind: KLit},
			"none":                   {kind: KLit},
			"binary_operator":        {kind: KBinOp, roles: []RoleT{ROp}},
			"boolean_operator":       {kind: KBoolOp, roles: []RoleT{ROp}},
			"not_operator":           {kind: KUnaryOp, roles: []RoleT{ROp}},
			"unary_operator":         {kind: KUnaryOp, roles: []RoleT{ROp}},
			"conditional_expression": {kind: KTernary},
			"import_statement":       {kind: KImport},
			"import_from_statement":  {kind: KImport},
			"comment":                {kind: KComment},
			"decorator":              {kind: KAttribute},
		},
		functionTypes: []string{"function_definition"},
		callTypes:     []string{"call"},
		identTypes:    []string{"identifier"},
		controlTypes:  []string{"if_statement", "for_statement", "while_statement", "try_statement", "match_statement"},
	}
}

func javascriptLang() treeSitterLang {
	return treeSitterLang{
		name:       "javascript",
		extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		getLanguage: func() *sitter.Language {
			return sitter.NewLanguage(javascript.GetLanguage())
		},
		kinds: jsFamilyKinds(),
		functionTypes: []string{
			"function_declaration", "function", "arrow_function", "method_definition",
		},
		callTypes:    []string{"call_expression"},
		identTypes:   []string{"identifier", "property_identifier", "shorthand_property_identifier"},
		controlTypes: []string{"if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_statement", "try_statement"},
	}
}

func typescriptLang() treeSitterLang {
	l := treeSitterLang{
		name:       "typescript",
		extensions: []string{".ts", ".tsx"},
		getLanguage: func() *sitter.Language {
			return sitter.NewLanguage(typescript.GetLanguage())
		},
		kinds: jsFamilyKinds(),
		functionTypes: []string{
			"function_declaration", "function", "arrow_function", "method_definition",
		},
		callTypes:    []string{"call_expression"},
		identTypes:   []string{"identifier", "property_identifier", "shorthand_property_identifier"},
		controlTypes: []string{"if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_statement", "try_statement"},
	}

	l.kinds["interface_declaration"] = mappedKind{kind: KInterface, roles: []RoleT{RDecl}}
	l.kinds["type_alias_declaration"] = mappedKind{kind: "TypeAlias"}
	l.kinds["enum_declaration"] = mappedKind{kind: "Enum", roles: []RoleT{RDecl}}

	return l
}

func jsFamilyKinds() kindTable {
	return kindTable{
		"program":                       {kind: "Module"},
		"function_declaration":          {kind: KFunction, roles: []RoleT{RDecl, RFunc}},
		"function":                      {kind: KFunction, roles: []RoleT{RFunc}},
		"arrow_function":                {kind: KLambda, roles: []RoleT{RFunc}},
		"method_definition":             {kind: KMethod, roles: []RoleT{RDecl, RFunc}},
		"class_declaration":             {kind: KClass, roles: []RoleT{RDecl}},
		"class":                         {kind: KClass},
		"formal_parameters":             {kind: KParamList},
		"required_parameter":            {kind: KParameter},
		"optional_parameter":             {kind: KParameter},
		"statement_block":               {kind: KBlock, roles: []RoleT{RBody}},
		"if_statement":                  {kind: KIf},
		"for_statement":                 {kind: KLoop},
		"for_in_statement":              {kind: KLoop},
		"while_statement":               {kind: KLoop},
		"do_statement":                  {kind: KLoop},
		"switch_statement":              {kind: KSwitch},
		"switch_case":                   {kind: KCase},
		"switch_default":                {kind: KCase},
		"try_statement":                 {kind: KTry},
		"catch_clause":                  {kind: KCatch},
		"finally_clause":                {kind: KCatch},
		"return_statement":              {kind: KReturn},
		"break_statement":               {kind: KBreak},
		"continue_statement":            {kind: KContinue},
		"throw_statement":               {kind: KThrow},
		"assignment_expression":         {kind: KAssign},
		"variable_declarator":           {kind: KAssign},
		"call_expression":               {kind: KCall},
		"identifier":                    {kind: KIdent},
		"property_identifier":           {kind: KIdent},
		"shorthand_property_identifier": {kind: KIdent},
		"member_expression":             {kind: KField},
		"number":                        {kind: KLit},
		"string":                        {kind: KLit},
		"true":                          {kind: KLit},
		"false":                         {kind: KLit},
		"null":                          {kind: KLit},
		"undefined":                     {kind: KLit},
		"binary_expression":             {kind: KBinOp, roles: []RoleT{ROp}},
		"unary_expression":              {kind: KUnaryOp, roles: []RoleT{ROp}},
		"ternary_expression":            {kind: KTernary},
		"import_statement":              {kind: KImport},
		"import_specifier":              {kind: KImport},
		"comment":                       {kind: KComment},
		"yield_expression":              {kind: KYield},
		"await_expression":              {kind: KAwait},
	}
}

func rustLang() treeSitterLang {
	return treeSitterLang{
		name:       "rust",
		extensions: []string{".rs"},
		getLanguage: func() *sitter.Language {
			return sitter.NewLanguage(rust.GetLanguage())
		},
		kinds: kindTable{
			"source_file":           {kind: "Module"},
			"function_item":         {kind: KFunction, roles: []RoleT{RDecl, RFunc}},
			"closure_expression":    {kind: KLambda, roles: []RoleT{RFunc}},
			"impl_item":             {kind: KClass, roles: []RoleT{RDecl}},
			"struct_item":           {kind: "Struct", roles: []RoleT{RDecl}},
			"trait_item":            {kind: KInterface, roles: []RoleT{RDecl}},
			"enum_item":             {kind: "Enum", roles: []RoleT{RDecl}},
			"parameters":            {kind: KParamList},
			"parameter":             {kind: KParameter},
			"block":                 {kind: KBlock, roles: []RoleT{RBody}},
			"if_expression":         {kind: KIf},
			"if_let_expression":     {kind: KIf},
			"for_expression":        {kind: KLoop},
			"while_expression":      {kind: KLoop},
			"loop_expression":       {kind: KLoop},
			"match_expression":      {kind: KSwitch},
			"match_arm":             {kind: KCase},
			"return_expression":     {kind: KReturn},
			"break_expression":      {kind: KBreak},
			"continue_expression":   {kind: KContinue},
			"assignment_expression": {kind: KAssign},
			"let_declaration":       {kind: KAssign},
			"call_expression":       {kind: KCall},
			"identifier":            {kind: KIdent},
			"field_identifier":      {kind: KIdent},
			"field_expression":      {kind: KField},
			"integer_literal":       {kind: KLit},
			"float_literal":         {kind: KLit},
			"string_literal":        {kind: KLit},
			"boolean_literal":       {kind: KLit},
			"binary_expression":     {kind: KBinOp, roles: []RoleT{ROp}},
			"unary_expression":      {kind: KUnaryOp, roles: []RoleT{ROp}},
			"use_declaration":       {kind: KImport},
			"line_comment":          {kind: KComment},
			"block_comment":         {kind: KComment},
			"try_expression":        {kind: "Try"},
			"macro_invocation":      {kind: KCall},
		},
		functionTypes: []string{"function_item", "closure_expression"},
		callTypes:     []string{"call_expression", "macro_invocation"},
		identTypes:    []string{"identifier", "field_identifier"},
		controlTypes:  []string{"if_expression", "for_expression", "while_expression", "loop_expression", "match_expression"},
	}
}

func goLang() treeSitterLang {
	return treeSitterLang{
		name:       "go",
		extensions: []string{".go"},
		getLanguage: func() *sitter.Language {
			return sitter.NewLanguage(golang.GetLanguage())
		},
		kinds: kindTable{
			"source_file":                 {kind: "Module"},
			"function_declaration":        {kind: KFunction, roles: []RoleT{RDecl, RFunc}},
			"method_declaration":          {kind: KMethod, roles: []RoleT{RDecl, RFunc}},
			"func_literal":                {kind: KLambda, roles: []RoleT{RFunc}},
			"type_declaration":            {kind: "TypeDecl", roles: []RoleT{RDecl}},
			"struct_type":                 {kind: "Struct"},
			"interface_type":              {kind: KInterface},
			"parameter_list":               {kind: KParamList},
			"parameter_declaration":       {kind: KParameter},
			"block":                       {kind: KBlock, roles: []RoleT{RBody}},
			"if_statement":                {kind: KIf},
			"for_statement":               {kind: KLoop},
			"expression_switch_statement": {kind: KSwitch},
			"type_switch_statement":       {kind: KSwitch},
			"select_statement":            {kind: KSwitch},
			"communication_case":          {kind: KCase},
			"expression_case":             {kind: KCase},
			"default_case":                {kind: KCase},
			"type_case":                   {kind: KCase},
			"return_statement":            {kind: KReturn},
			"break_statement":             {kind: KBreak},
			"continue_statement":          {kind: KContinue},
			"assignment_statement":        {kind: KAssign},
			"short_var_declaration":       {kind: KAssign},
			"call_expression":             {kind: KCall},
			"identifier":                  {kind: KIdent},
			"field_identifier":            {kind: KIdent},
			"package_identifier":          {kind: KIdent},
			"selector_expression":         {kind: KField},
			"int_literal":                 {kind: KLit},
			"float_literal":               {kind: KLit},
			"imaginary_literal":           {kind: KLit},
			"rune_literal":                {kind: KLit},
			"interpreted_string_literal":  {kind: KLit},
			"raw_string_literal":          {kind: KLit},
			"true":                        {kind: KLit},
			"false":                       {kind: KLit},
			"nil":                         {kind: KLit},
			"binary_expression":           {kind: KBinOp, roles: []RoleT{ROp}},
			"unary_expression":            {kind: KUnaryOp, roles: []RoleT{ROp}},
			"import_declaration":          {kind: KImport},
			"import_spec":                 {kind: KImport},
			"comment":                     {kind: KComment},
			"defer_statement":             {kind: KCall},
			"go_statement":                {kind: KCall},
		},
		functionTypes: []string{"function_declaration", "method_declaration", "func_literal"},
		callTypes:     []string{"call_expression"},
		identTypes:    []string{"identifier", "field_identifier", "package_identifier"},
		controlTypes:  []string{"if_statement", "for_statement", "expression_switch_statement", "type_switch_statement", "select_statement"},
	}
}
