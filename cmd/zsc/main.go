package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"zsc/builtins"
	"zsc/codegen"
	"zsc/parser"
	"zsc/types"
	"zsc/vm"
)

func main() {
	evalExpr := flag.String("eval", "", "Compile and run an expression (e.g., \"1 + 2 * 3\")")
	runProgram := flag.String("run", "", "Compile and run a statement sequence")
	file := flag.String("file", "", "Compile and run a script file")
	dialect := flag.String("dialect", "strict", "Compilation dialect: strict or lenient")
	class := flag.String("class", "", "Compile as a method of this class (e.g., Actor)")
	disasm := flag.Bool("disasm", false, "Print the compiled code instead of running it")
	dumpEnv := flag.String("dump-env", "", "Describe a class of the standard environment (e.g., Actor)")

	flag.Parse()

	env := builtins.NewEnv()

	if *dumpEnv != "" {
		dumpClass(env, *dumpEnv)
		return
	}

	d, err := parseDialect(*dialect)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var source, name string
	isExpr := false
	switch {
	case *evalExpr != "":
		source, name, isExpr = *evalExpr, "<eval>", true
	case *runProgram != "":
		source, name = *runProgram, "<run>"
	case *file != "":
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read script: %v", err)
		}
		source, name = string(data), *file
	default:
		flag.Usage()
		os.Exit(2)
	}

	body, err := parse(name, source, isExpr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}

	f, diag, err := compile(env, *class, name, body, d)
	for _, w := range diag.Warnings() {
		fmt.Fprintf(os.Stderr, "%v\n", w)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
		os.Exit(1)
	}

	if *disasm {
		fmt.Print(f.Disassemble())
		return
	}

	var args []vm.Param
	if *class != "" {
		args = []vm.Param{vm.AddrParam(newReceiver(env, *class))}
	}
	res, err := vm.Exec(f, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
	for _, p := range res {
		fmt.Printf("=> %s\n", formatParam(p))
	}
}

func parseDialect(name string) (codegen.Dialect, error) {
	switch name {
	case "strict":
		return codegen.DialectStrict, nil
	case "lenient":
		return codegen.DialectLenient, nil
	}
	return codegen.DialectStrict, fmt.Errorf("unknown dialect %q (want strict or lenient)", name)
}

func parse(name, source string, isExpr bool) (codegen.Expression, error) {
	if isExpr {
		e, err := parser.ParseExpressionString(name, source)
		if err != nil {
			return nil, err
		}
		return codegen.NewReturnStatement(e.Pos(), e), nil
	}
	return parser.ParseProgramString(name, source)
}

func compile(env *builtins.Env, className, name string, body codegen.Expression, d codegen.Dialect) (*vm.Function, *codegen.Diagnostics, error) {
	var cls *types.Class
	fn := &types.Function{Name: types.NewName(name), Flags: types.FlagStatic}
	if className != "" {
		cls = env.Table.Find(types.NewName(className))
		if cls == nil {
			return nil, &codegen.Diagnostics{}, fmt.Errorf("unknown class %q", className)
		}
		fn.Flags = types.FlagMethod
	}
	return codegen.CompileFunction(env.Table, cls, fn, nil, body, d)
}

func newReceiver(env *builtins.Env, className string) *vm.Object {
	cls := env.Table.Find(types.NewName(className))
	if cls == env.Actor {
		return env.NewActor()
	}
	return vm.NewObject(cls)
}

func formatParam(p vm.Param) string {
	switch p.RegType {
	case types.RegInt:
		return fmt.Sprintf("%d", p.I)
	case types.RegFloat:
		return fmt.Sprintf("%g", p.F)
	case types.RegString:
		return fmt.Sprintf("%q", p.S)
	case types.RegPointer:
		if p.A == nil {
			return "null"
		}
		return fmt.Sprintf("%v", p.A)
	}
	return fmt.Sprintf("%v", p)
}

// dumpClass prints the declared surface of one environment class.
func dumpClass(env *builtins.Env, name string) {
	cls := env.Table.Find(types.NewName(name))
	if cls == nil {
		fmt.Fprintf(os.Stderr, "Error: class %q not found\n", name)
		os.Exit(1)
	}

	fmt.Printf("=== Class %s ===\n", cls.Name)
	if cls.Parent != nil {
		fmt.Printf("Parent: %s\n", cls.Parent.Name)
	} else {
		fmt.Printf("Parent: (none)\n")
	}

	type row struct{ kind, name, detail string }
	var rows []row
	for _, s := range cls.Symbols() {
		switch sym := s.(type) {
		case *types.Field:
			var flags []string
			if sym.Flags&types.FlagReadOnly != 0 {
				flags = append(flags, "readonly")
			}
			if sym.Flags&types.FlagPrivate != 0 {
				flags = append(flags, "private")
			}
			if sym.Flags&types.FlagDeprecated != 0 {
				flags = append(flags, "deprecated")
			}
			rows = append(rows, row{"field", sym.Name.String(),
				fmt.Sprintf("%s %s", sym.Type, strings.Join(flags, ","))})
		case *types.ConstSymbol:
			rows = append(rows, row{"const", sym.Name.String(), sym.Value.String()})
		case *types.Function:
			rows = append(rows, row{"func", sym.Name.String(),
				fmt.Sprintf("%d params", len(sym.Params))})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].kind != rows[j].kind {
			return rows[i].kind < rows[j].kind
		}
		return rows[i].name < rows[j].name
	})
	for _, r := range rows {
		fmt.Printf("  %-6s %-20s %s\n", r.kind, r.name, strings.TrimSpace(r.detail))
	}
}
