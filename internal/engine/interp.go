package engine

import (
	"fmt"

	"github.com/dekarrin/hoshi/internal/ast"
	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/source"
	"github.com/dekarrin/hoshi/internal/vmgen"
)

// Interpreter executes the AST-former/guard-action bytecode vmgen.CompileRule
// produces, once per reduce (spec §4.G: "rule_pc[rule] is the entry point
// executed on each reduce").
//
// Kind is tracked as an int on ast.Ast (spec §3's AST node shape mirrors the
// existing token/rule Kind-int convention in pdata.TokenInfo/RuleInfo).
// Resolving a kind name to its int is delegated to a grammar.KindMap (spec
// §6 "Kind map": caller-supplied, bijective, auto-assigns fresh ids for
// unmapped names), so a kind map supplied to Parser.Generate governs every
// AstNew the interpreter executes, instead of a private per-run registry.
type Interpreter struct {
	instrs   []vmgen.Instruction
	operands []int32
	strings  []string
	kinds    *grammar.KindMap
}

// NewInterpreter builds an Interpreter over a compiled rule-bytecode region
// (the concatenation of every vmgen.CompileRule program, as frozen into
// pdata.VMTables), resolving AstNew kind names against kinds. A nil kinds is
// replaced with a fresh empty KindMap, so every name is auto-assigned.
func NewInterpreter(instrs []vmgen.Instruction, operands []int32, strings []string, kinds *grammar.KindMap) *Interpreter {
	if kinds == nil {
		kinds = grammar.NewKindMap()
	}
	return &Interpreter{
		instrs:   instrs,
		operands: operands,
		strings:  strings,
		kinds:    kinds,
	}
}

// KindID returns the int id for kind name, per the interpreter's KindMap.
func (in *Interpreter) KindID(name string) int {
	return in.kinds.IDFor(name)
}

// KindName reverses KindID, for diagnostics and AstKind's string form.
func (in *Interpreter) KindName(id int) string {
	return in.kinds.NameFor(id)
}

// RunRule executes the rule bytecode starting at pc against the reduced
// production's RHS nodes, returning the formed AST node and whether its
// guard (if any) passed. A rule with no guard always reports pass=true.
func (in *Interpreter) RunRule(pc int, children []*ast.Ast, pos source.Position, offset int) (node *ast.Ast, pass bool, err error) {
	var stack []any
	push := func(v any) { stack = append(stack, v) }
	pop := func() (any, error) {
		if len(stack) == 0 {
			return nil, fmt.Errorf("interp: stack underflow at pc %d", pc)
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	pass = true

	for {
		if pc >= len(in.instrs) {
			return nil, false, fmt.Errorf("interp: ran off the end of the program")
		}
		instr := in.instrs[pc]
		ops := in.operands[instr.OperandOff : instr.OperandOff+instr.NumOperand]

		switch instr.Op {
		case vmgen.OpAstStart:
			pc++
			continue

		case vmgen.OpAstFinish:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_finish on non-node value %#v", v)
			}
			return n, pass, nil

		case vmgen.OpAstLoad:
			n := int(ops[0])
			if n < 1 || n > len(children) {
				return nil, false, fmt.Errorf("interp: ast_load $%d out of range (rule has %d children)", n, len(children))
			}
			push(children[n-1])

		case vmgen.OpAstIndex:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_index on non-node value %#v", v)
			}
			push(n.Child(int(ops[0])))

		case vmgen.OpAstLexeme:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_lexeme on non-node value %#v", v)
			}
			push(n.Lexeme)

		case vmgen.OpAstLexemeString:
			push(in.stringConst(int(ops[0])))

		case vmgen.OpAstNew:
			kind := in.stringConst(int(ops[0]))
			nargs := int(ops[1])
			kids := make([]*ast.Ast, nargs)
			for i := nargs - 1; i >= 0; i-- {
				v, err := pop()
				if err != nil {
					return nil, false, err
				}
				switch val := v.(type) {
				case *ast.Ast:
					kids[i] = val
				case string:
					kids[i] = ast.New(0, offset, pos, val)
				default:
					return nil, false, fmt.Errorf("interp: ast_new argument %d has unsupported type %#v", i, v)
				}
			}
			n := ast.New(in.KindID(kind), offset, pos, "")
			for _, k := range kids {
				if k == nil {
					continue
				}
				// A $N.M selector can hand back a node that is still
				// attached to the child it was lifted out of (AstIndex
				// just reads Children, it doesn't detach); re-parenting it
				// here is what AstNew's "build a node from these pieces"
				// is supposed to mean, so make room for the new owner.
				k.Detach()
				n.AddChild(k)
			}
			push(n)

		case vmgen.OpAstMergeChildren:
			// Splices a helper node's own children directly onto another
			// node, in order, re-parenting each one (spec §4.A's EBNF
			// repetition expansion: `X*`/`X+` must produce a flat list of
			// matched X's on the referencing node, not a nested wrapper
			// around a recursive helper nonterminal). Used only by the
			// cons-rule bytecode the extractor synthesizes for repetition,
			// never by a hand-written AST-former.
			src, err := pop()
			if err != nil {
				return nil, false, err
			}
			srcNode, ok := src.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_merge_children source is a non-node value %#v", src)
			}
			dst, err := pop()
			if err != nil {
				return nil, false, err
			}
			dstNode, ok := dst.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_merge_children destination is a non-node value %#v", dst)
			}
			for _, k := range append([]*ast.Ast(nil), srcNode.Children...) {
				k.Detach()
				dstNode.AddChild(k)
			}
			push(dstNode)

		case vmgen.OpAstForm:
			// AstNew already attached children and pushed the node; AstForm
			// is the no-op completion marker the compiler emits immediately
			// after, kept distinct so a future generator can insert
			// post-construction hooks without renumbering AstNew.

		case vmgen.OpAstChild:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_child on non-node value %#v", v)
			}
			push(n.Child(int(ops[0])))

		case vmgen.OpAstChildSlice:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_child_slice on non-node value %#v", v)
			}
			push(n.ChildSlice(int(ops[0]), int(ops[1])))

		case vmgen.OpAstKind:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_kind on non-node value %#v", v)
			}
			push(in.KindName(n.Kind))

		case vmgen.OpAstKindNum:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_kind_num on non-node value %#v", v)
			}
			push(int32(n.Kind))

		case vmgen.OpAstLocation:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_location on non-node value %#v", v)
			}
			push(fmt.Sprintf("%d:%d", n.Location.Line, n.Location.Column))

		case vmgen.OpAstLocationNum:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(*ast.Ast)
			if !ok {
				return nil, false, fmt.Errorf("interp: ast_location_num on non-node value %#v", v)
			}
			push(int32(n.Offset))

		case vmgen.OpAssign:
			push(ops[0])

		case vmgen.OpAdd, vmgen.OpSub, vmgen.OpMul, vmgen.OpDiv:
			r, err := pop()
			if err != nil {
				return nil, false, err
			}
			l, err := pop()
			if err != nil {
				return nil, false, err
			}
			lv, rv, ok := asInts(l, r)
			if !ok {
				return nil, false, fmt.Errorf("interp: arithmetic on non-numeric operands")
			}
			switch instr.Op {
			case vmgen.OpAdd:
				push(lv + rv)
			case vmgen.OpSub:
				push(lv - rv)
			case vmgen.OpMul:
				push(lv * rv)
			case vmgen.OpDiv:
				if rv == 0 {
					return nil, false, fmt.Errorf("interp: division by zero")
				}
				push(lv / rv)
			}

		case vmgen.OpNeg:
			v, err := pop()
			if err != nil {
				return nil, false, err
			}
			n, ok := v.(int32)
			if !ok {
				return nil, false, fmt.Errorf("interp: negate on non-numeric operand")
			}
			push(-n)

		case vmgen.OpBranchEq, vmgen.OpBranchNe, vmgen.OpBranchLt, vmgen.OpBranchLe, vmgen.OpBranchGt, vmgen.OpBranchGe:
			r, err := pop()
			if err != nil {
				return nil, false, err
			}
			l, err := pop()
			if err != nil {
				return nil, false, err
			}
			ok, err := compare(instr.Op, l, r)
			if err != nil {
				return nil, false, err
			}
			// A guard is a single top-level comparison with no further
			// control flow (spec leaves "guard action" semantics
			// unspecified beyond the opcode family): a failed comparison
			// marks this reduce's guard as failed but never redirects the
			// parse, since GLR/backtracking recovery is out of scope.
			pass = pass && ok

		case vmgen.OpDumpStack:
			// debug-only; no-op at this layer.

		default:
			return nil, false, fmt.Errorf("interp: unsupported opcode %s at pc %d", instr.Op, pc)
		}

		pc++
	}
}

func (in *Interpreter) stringConst(idx int) string {
	if idx < 0 || idx >= len(in.strings) {
		return ""
	}
	return in.strings[idx]
}

func asInts(l, r any) (int32, int32, bool) {
	lv, ok := toInt32(l)
	if !ok {
		return 0, 0, false
	}
	rv, ok := toInt32(r)
	if !ok {
		return 0, 0, false
	}
	return lv, rv, true
}

func toInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int:
		return int32(n), true
	default:
		return 0, false
	}
}

// compare evaluates one of the six compare-branch opcodes against two
// operand values. Ast nodes compare by Kind id; strings compare
// lexicographically; everything else is compared as int32.
func compare(op vmgen.Opcode, l, r any) (bool, error) {
	if ln, ok := l.(*ast.Ast); ok {
		if rn, ok := r.(*ast.Ast); ok {
			return compareOrdered(op, ln.Kind, rn.Kind), nil
		}
	}
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return compareOrdered(op, stringCmp(ls, rs), 0), nil
		}
	}
	lv, rv, ok := asInts(l, r)
	if !ok {
		return false, fmt.Errorf("interp: incomparable operand types %#v / %#v", l, r)
	}
	return compareOrdered(op, lv, rv), nil
}

func stringCmp(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareOrdered[T int | int32](op vmgen.Opcode, l, r T) bool {
	switch op {
	case vmgen.OpBranchEq:
		return l == r
	case vmgen.OpBranchNe:
		return l != r
	case vmgen.OpBranchLt:
		return l < r
	case vmgen.OpBranchLe:
		return l <= r
	case vmgen.OpBranchGt:
		return l > r
	case vmgen.OpBranchGe:
		return l >= r
	default:
		return false
	}
}
