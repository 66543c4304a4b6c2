package lexer

import (
	"testing"

	"github.com/wisplang/wisp/internal/token"
)

func TestScanToken(t *testing.T) {
	input := `var a = 1;
print "he" + "llo";
{ a = a + 10; }
!(5 - 4 >= 3 * 2 == !nil);
// a comment
<= >=`

	tests := []struct {
		expectedType   token.Type
		expectedLexeme string
	}{
		{token.Var, "var"},
		{token.Identifier, "a"},
		{token.Equal, "="},
		{token.Number, "1"},
		{token.Semicolon, ";"},
		{token.Print, "print"},
		{token.String, `"he"`},
		{token.Plus, "+"},
		{token.String, `"llo"`},
		{token.Semicolon, ";"},
		{token.LeftBrace, "{"},
		{token.Identifier, "a"},
		{token.Equal, "="},
		{token.Identifier, "a"},
		{token.Plus, "+"},
		{token.Number, "10"},
		{token.Semicolon, ";"},
		{token.RightBrace, "}"},
		{token.Bang, "!"},
		{token.LeftParen, "("},
		{token.Number, "5"},
		{token.Minus, "-"},
		{token.Number, "4"},
		{token.GreaterEqual, ">="},
		{token.Number, "3"},
		{token.Star, "*"},
		{token.Number, "2"},
		{token.EqualEqual, "=="},
		{token.Bang, "!"},
		{token.Nil, "nil"},
		{token.RightParen, ")"},
		{token.Semicolon, ";"},
		{token.LessEqual, "<="},
		{token.GreaterEqual, ">="},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.ScanToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("test[%d] - wrong type. expected=%s, got=%s (lexeme %q)",
				i, tt.expectedType, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("test[%d] - wrong lexeme. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestScanTokenIdempotentAtEOF(t *testing.T) {
	l := New("")
	first := l.ScanToken()
	second := l.ScanToken()
	if first.Type != token.EOF || second.Type != token.EOF {
		t.Fatalf("expected repeated EOF, got %s then %s", first.Type, second.Type)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"never closed`)
	tok := l.ScanToken()
	if tok.Type != token.Error {
		t.Fatalf("expected Error token, got %s", tok.Type)
	}
}

func TestLineTracking(t *testing.T) {
	l := New("1\n2\n3")
	var lines []int
	for {
		tok := l.ScanToken()
		if tok.Type == token.EOF {
			break
		}
		lines = append(lines, tok.Line)
	}
	want := []int{1, 2, 3}
	if len(lines) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("token %d: expected line %d, got %d", i, want[i], lines[i])
		}
	}
}
