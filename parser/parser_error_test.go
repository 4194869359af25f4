package parser

import "testing"

func TestParseExpressionErrors(t *testing.T) {
	cases := []string{
		"1 +",
		"(1",
		"foo(1,",
		"1 ? 2",
		"[1]",
		"1 <> 2",
		"1 2",   // trailing input
		"@",     // illegal character
		`"oops`, // unterminated string
		"",
	}
	for _, src := range cases {
		if _, err := ParseExpressionString("test", src); err == nil {
			t.Errorf("%q: expected parse error", src)
		}
	}
}

func TestParseProgramErrors(t *testing.T) {
	cases := []string{
		"int;",
		"int x",
		"int x = ;",
		"if (1) return 1",
		"while 1 { }",
		"do i++; while true;",
		"for (;;",
		"break",
		"{ int x = 1;",
		"else;",
	}
	for _, src := range cases {
		if _, err := ParseProgramString("test", src); err == nil {
			t.Errorf("%q: expected parse error", src)
		}
	}
}
