package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Dialect     string     `yaml:"dialect,omitempty"` // strict|lenient, default for the suite
	Class       string     `yaml:"class,omitempty"`   // default compile-as-method class
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"`    // bool or reason string
	Dialect     string      `yaml:"dialect,omitempty"` // overrides the suite dialect
	Class       string      `yaml:"class,omitempty"`   // compile as a method of this class
	Code        string      `yaml:"code,omitempty"`    // expression (wrapped in return)
	Program     string      `yaml:"program,omitempty"` // explicit statements
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	Value   interface{} `yaml:"value,omitempty"`   // exact match (int, float, bool, string)
	Name    string      `yaml:"name,omitempty"`    // interned name result
	Type    string      `yaml:"type,omitempty"`    // int, float, string, pointer
	Error   string      `yaml:"error,omitempty"`   // substring of the parse/compile/exec error
	Warning string      `yaml:"warning,omitempty"` // substring of a compile warning
	Range   []float64   `yaml:"range,omitempty"`   // min, max for numeric results
	Void    bool        `yaml:"void,omitempty"`    // no result values
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}
