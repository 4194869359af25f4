package conformance

import (
	"fmt"
	"math"
	"strings"

	"zsc/builtins"
	"zsc/codegen"
	"zsc/parser"
	"zsc/types"
	"zsc/vm"
)

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner compiles and executes conformance tests against the standard
// environment.
type Runner struct {
	env *builtins.Env
}

// NewRunner creates a test runner with a fresh environment
func NewRunner() *Runner {
	return &Runner{env: builtins.NewEnv()}
}

// Run executes a single test case
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}
	if test.Test.Code == "" && test.Test.Program == "" {
		return TestResult{Test: test, Skipped: true, SkipReason: "no code/program"}
	}

	passed, err := r.run(test)
	return TestResult{Test: test, Passed: passed, Error: err}
}

func (r *Runner) run(test LoadedTest) (bool, error) {
	tc := test.Test
	expect := tc.Expect

	dialect, err := resolveDialect(tc.Dialect, test.Suite.Dialect)
	if err != nil {
		return false, err
	}

	// Parse.
	var body codegen.Expression
	if tc.Program != "" {
		body, err = parser.ParseProgramString(tc.Name, tc.Program)
	} else {
		var e codegen.Expression
		if e, err = parser.ParseExpressionString(tc.Name, tc.Code); err == nil {
			body = codegen.NewReturnStatement(e.Pos(), e)
		}
	}
	if err != nil {
		if expect.Error != "" && strings.Contains(err.Error(), expect.Error) {
			return true, nil
		}
		return false, fmt.Errorf("parse error: %w", err)
	}

	// Compile, as a method of the named class or as a free function.
	var cls *types.Class
	clsName := tc.Class
	if clsName == "" {
		clsName = test.Suite.Class
	}
	if clsName != "" {
		if cls = r.env.Table.Find(types.NewName(clsName)); cls == nil {
			return false, fmt.Errorf("unknown test class %q", clsName)
		}
	}

	fn := &types.Function{Name: types.NewName(tc.Name)}
	if cls != nil {
		fn.Flags = types.FlagMethod
	} else {
		fn.Flags = types.FlagStatic
	}

	f, diag, err := codegen.CompileFunction(r.env.Table, cls, fn, nil, body, dialect)
	if err != nil {
		if expect.Error != "" && strings.Contains(err.Error(), expect.Error) {
			return true, nil
		}
		return false, fmt.Errorf("compile error: %w", err)
	}
	if expect.Warning != "" {
		if !warningMatches(diag, expect.Warning) {
			return false, fmt.Errorf("expected warning containing %q, got %v", expect.Warning, diag.Messages)
		}
	}

	// Execute.
	var args []vm.Param
	if cls != nil {
		args = []vm.Param{vm.AddrParam(r.newInstance(cls))}
	}
	res, err := vm.Exec(f, args)
	if err != nil {
		if expect.Error != "" && strings.Contains(err.Error(), expect.Error) {
			return true, nil
		}
		return false, fmt.Errorf("exec error: %w", err)
	}
	if expect.Error != "" {
		return false, fmt.Errorf("expected error containing %q, got %v", expect.Error, res)
	}

	return r.checkResult(expect, res)
}

// newInstance builds the receiver for a method-context test.
func (r *Runner) newInstance(cls *types.Class) *vm.Object {
	if cls == r.env.Actor {
		return r.env.NewActor()
	}
	return vm.NewObject(cls)
}

func resolveDialect(test, suite string) (codegen.Dialect, error) {
	name := test
	if name == "" {
		name = suite
	}
	switch name {
	case "", "strict":
		return codegen.DialectStrict, nil
	case "lenient":
		return codegen.DialectLenient, nil
	default:
		return codegen.DialectStrict, fmt.Errorf("unknown dialect %q", name)
	}
}

func warningMatches(diag *codegen.Diagnostics, want string) bool {
	for _, w := range diag.Warnings() {
		if strings.Contains(w.Msg, want) {
			return true
		}
	}
	return false
}

// checkResult checks the executed values against the expectation
func (r *Runner) checkResult(expect Expectation, res []vm.Param) (bool, error) {
	if expect.Void {
		if len(res) != 0 {
			return false, fmt.Errorf("expected no results, got %v", res)
		}
		return true, nil
	}
	if len(res) != 1 {
		return false, fmt.Errorf("expected one result, got %d", len(res))
	}
	p := res[0]

	if expect.Type != "" {
		want, ok := regTypeByName(expect.Type)
		if !ok {
			return false, fmt.Errorf("unknown result type %q", expect.Type)
		}
		if p.RegType != want {
			return false, fmt.Errorf("expected a %s result, got %s", expect.Type, regTypeName(p.RegType))
		}
	}

	if expect.Name != "" {
		if p.RegType != types.RegInt {
			return false, fmt.Errorf("expected name %q, got %s result", expect.Name, regTypeName(p.RegType))
		}
		if got := types.Name(p.I); got != types.NewName(expect.Name) {
			return false, fmt.Errorf("expected name %q, got %q", expect.Name, got)
		}
		return true, nil
	}

	if len(expect.Range) == 2 {
		v, err := numericResult(p)
		if err != nil {
			return false, err
		}
		if v < expect.Range[0] || v > expect.Range[1] {
			return false, fmt.Errorf("%v outside [%v, %v]", v, expect.Range[0], expect.Range[1])
		}
		return true, nil
	}

	if expect.Value != nil {
		return matchValue(expect.Value, p)
	}
	if expect.Type != "" || expect.Warning != "" {
		return true, nil
	}
	return false, fmt.Errorf("no expectation specified")
}

// matchValue compares a YAML scalar with a result value
func matchValue(want interface{}, p vm.Param) (bool, error) {
	switch v := want.(type) {
	case int:
		if p.RegType != types.RegInt {
			return false, fmt.Errorf("expected int %d, got %s result", v, regTypeName(p.RegType))
		}
		if p.I != int32(v) {
			return false, fmt.Errorf("expected %d, got %d", v, p.I)
		}
	case float64:
		if p.RegType != types.RegFloat {
			return false, fmt.Errorf("expected float %v, got %s result", v, regTypeName(p.RegType))
		}
		if math.Abs(p.F-v) > 1e-9 {
			return false, fmt.Errorf("expected %v, got %v", v, p.F)
		}
	case bool:
		want := int32(0)
		if v {
			want = 1
		}
		if p.RegType != types.RegInt || p.I != want {
			return false, fmt.Errorf("expected %v, got %v", v, p)
		}
	case string:
		if p.RegType != types.RegString {
			return false, fmt.Errorf("expected string %q, got %s result", v, regTypeName(p.RegType))
		}
		if p.S != v {
			return false, fmt.Errorf("expected %q, got %q", v, p.S)
		}
	default:
		return false, fmt.Errorf("unsupported expectation type %T", want)
	}
	return true, nil
}

func numericResult(p vm.Param) (float64, error) {
	switch p.RegType {
	case types.RegInt:
		return float64(p.I), nil
	case types.RegFloat:
		return p.F, nil
	}
	return 0, fmt.Errorf("expected a numeric result, got %s", regTypeName(p.RegType))
}

func regTypeByName(name string) (types.RegType, bool) {
	switch name {
	case "int":
		return types.RegInt, true
	case "float":
		return types.RegFloat, true
	case "string":
		return types.RegString, true
	case "pointer":
		return types.RegPointer, true
	}
	return 0, false
}

func regTypeName(rt types.RegType) string {
	switch rt {
	case types.RegInt:
		return "int"
	case types.RegFloat:
		return "float"
	case types.RegString:
		return "string"
	case types.RegPointer:
		return "pointer"
	}
	return fmt.Sprintf("unknown(%d)", rt)
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}
