package asm

import "testing"

func kinds(toks []Token) []TokenKind {
	k := make([]TokenKind, len(toks))
	for i, t := range toks {
		k[i] = t.Kind
	}
	return k
}

func TestTokenizeBasicInstruction(t *testing.T) {
	tz := NewTokenizer("SET A, 0x30 ; comment")
	toks, err := tz.TokenizeLine(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []TokenKind{TokBasicOp, TokRegister, TokComma, TokNumber, TokEOL}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if toks[3].Value != 0x30 {
		t.Errorf("literal value = 0x%x, want 0x30", toks[3].Value)
	}
}

func TestTokenizeLabelDefinitionAndBracket(t *testing.T) {
	tz := NewTokenizer(":loop SET [0x1000+I], [A]")
	toks, err := tz.TokenizeLine(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []TokenKind{
		TokColon, TokLabel, TokBasicOp,
		TokLBracket, TokNumber, TokPlus, TokRegister, TokRBracket,
		TokComma,
		TokLBracket, TokRegister, TokRBracket,
		TokEOL,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTokenizeNegativeDecimalLiteral(t *testing.T) {
	tz := NewTokenizer("DAT -1")
	toks, err := tz.TokenizeLine(0)
	if err != nil {
		t.Fatal(err)
	}
	if toks[1].Kind != TokNumber || toks[1].Value != -1 {
		t.Errorf("got %+v, want number -1", toks[1])
	}
}

func TestTokenizeStringLiteralWithEscapes(t *testing.T) {
	tz := NewTokenizer(`DAT "a\nb"`)
	toks, err := tz.TokenizeLine(0)
	if err != nil {
		t.Fatal(err)
	}
	if toks[1].Kind != TokString {
		t.Fatalf("got %v, want TokString", toks[1].Kind)
	}
	if toks[1].Str != "a\nb" {
		t.Errorf("decoded string = %q, want %q", toks[1].Str, "a\nb")
	}
}

func TestTokenizeUnclosedStringIsError(t *testing.T) {
	tz := NewTokenizer(`DAT "unterminated`)
	_, err := tz.TokenizeLine(0)
	if err == nil {
		t.Fatal("expected error for unclosed string literal")
	}
	asmErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("got error of type %T, want *Error", err)
	}
	if asmErr.Kind != UnclosedStringLiteral {
		t.Errorf("kind = %v, want UnclosedStringLiteral", asmErr.Kind)
	}
}

func TestTokenizeSpecialOpAndKeywords(t *testing.T) {
	tz := NewTokenizer("JSR POP")
	toks, err := tz.TokenizeLine(0)
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Kind != TokSpecialOp || toks[0].Text != "JSR" {
		t.Errorf("got %+v, want special op JSR", toks[0])
	}
	if toks[1].Kind != TokKeyword || toks[1].Text != "POP" {
		t.Errorf("got %+v, want keyword POP", toks[1])
	}
}

func TestTokenizeIllegalCharacter(t *testing.T) {
	tz := NewTokenizer("SET A, #")
	_, err := tz.TokenizeLine(0)
	if err == nil {
		t.Fatal("expected error for illegal character")
	}
	asmErr, ok := err.(*Error)
	if !ok || asmErr.Kind != IllegalCharacter {
		t.Fatalf("got %v, want IllegalCharacter", err)
	}
}
