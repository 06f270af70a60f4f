// Package asm implements the two-pass DCPU-16 assembler: a line-oriented
// tokenizer feeding a parser that emits a linear word image, backpatching
// forward label references once every line has been seen.
package asm

import (
	"fmt"
	"strings"

	"github.com/dcpu16vm/dcpu16"
)

const noLabel = -1

type unresolvedRef struct {
	emitAddr uint16
	labelID  int
	offset   int32
}

// Assembler holds the state accumulated across a single Assemble call: the
// emitted image, the label symbol table, and the backpatch list.
type Assembler struct {
	image []uint16
	pcAsm uint16

	labelToID     map[string]int
	idToLabel     []string
	labelAddr     map[int]uint16
	labelFirstUse map[int]Token

	unresolved []unresolvedRef
}

func newAssembler() *Assembler {
	return &Assembler{
		labelToID:     make(map[string]int),
		idToLabel:     nil,
		labelAddr:     make(map[int]uint16),
		labelFirstUse: make(map[int]Token),
	}
}

// Assemble translates src into a word image. The returned error, when
// non-nil, is always either an *Error or an error wrapping one via
// github.com/pkg/errors — callers that want the structured diagnostic
// should use errors.As.
func Assemble(src string) ([]uint16, error) {
	a := newAssembler()
	tok := NewTokenizer(src)

	for i := 0; i < tok.LineCount(); i++ {
		toks, err := tok.TokenizeLine(i)
		if err != nil {
			return nil, err
		}
		if err := a.parseLine(toks); err != nil {
			return nil, wrap(err, fmt.Sprintf("assembling line %d", i+1))
		}
	}

	if err := a.backpatch(); err != nil {
		return nil, err
	}
	return a.image, nil
}

func (a *Assembler) labelID(name string, tok Token) int {
	if id, ok := a.labelToID[name]; ok {
		return id
	}
	id := len(a.idToLabel)
	a.labelToID[name] = id
	a.idToLabel = append(a.idToLabel, name)
	a.labelFirstUse[id] = tok
	return id
}

func (a *Assembler) emit(word uint16) {
	a.image = append(a.image, word)
	a.pcAsm++
}

func (a *Assembler) emitLiteral(v int32) {
	a.emit(uint16(v))
}

func (a *Assembler) emitLabelRef(labelID int, offset int32) {
	a.unresolved = append(a.unresolved, unresolvedRef{emitAddr: a.pcAsm, labelID: labelID, offset: offset})
	a.emit(0)
}

func (a *Assembler) backpatch() error {
	for _, u := range a.unresolved {
		addr, ok := a.labelAddr[u.labelID]
		if !ok {
			first := a.labelFirstUse[u.labelID]
			err := newError(first.Line, first.Col, first.Length, UnknownLabel)
			err.Label = a.idToLabel[u.labelID]
			return err
		}
		a.image[u.emitAddr] = uint16(int32(addr) + u.offset)
	}
	return nil
}

// operand describes one fully-parsed value: either an immediate id with no
// extra word, an id with a literal extra word, or an id with an
// as-yet-unresolved label reference for its extra word.
type operand struct {
	id        uint16
	needsWord bool
	labelID   int // noLabel if this operand's extra word is a plain literal
	literal   int32
}

func (a *Assembler) emitOperand(op operand) {
	if !op.needsWord {
		return
	}
	if op.labelID != noLabel {
		a.emitLabelRef(op.labelID, op.literal)
	} else {
		a.emitLiteral(op.literal)
	}
}

func (a *Assembler) parseLine(toks []Token) error {
	idx := 0

	if toks[idx].Kind == TokColon {
		idx++
		if toks[idx].Kind != TokLabel {
			return newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExpectingLabel)
		}
		labelTok := toks[idx]
		id := a.labelID(labelTok.Text, labelTok)
		if _, defined := a.labelAddr[id]; !defined {
			a.labelAddr[id] = a.pcAsm
		}
		idx++
	}

	if toks[idx].Kind == TokEOL {
		return nil
	}

	switch toks[idx].Kind {
	case TokBasicOp:
		return a.parseBasicInstr(toks, idx)
	case TokSpecialOp:
		return a.parseSpecialInstr(toks, idx)
	case TokDat:
		return a.parseDat(toks, idx)
	default:
		return newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, IllegalLineStart)
	}
}

func (a *Assembler) parseBasicInstr(toks []Token, idx int) error {
	opName := toks[idx].Text
	opcode, ok := basicOpcode[opName]
	if !ok {
		return newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, IllegalLineStart)
	}
	idx++

	bOp, idx, err := a.parseValue(toks, idx, true)
	if err != nil {
		return wrap(err, "parsing b operand")
	}
	if toks[idx].Kind != TokComma {
		return newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExpectingComma)
	}
	idx++

	aOp, idx, err := a.parseValue(toks, idx, false)
	if err != nil {
		return wrap(err, "parsing a operand")
	}
	if toks[idx].Kind != TokEOL {
		return newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExtraTokens)
	}

	word := uint16(opcode) | (bOp.id << 5) | (aOp.id << 10)
	a.emit(word)
	a.emitOperand(aOp)
	a.emitOperand(bOp)
	return nil
}

func (a *Assembler) parseSpecialInstr(toks []Token, idx int) error {
	opName := toks[idx].Text
	special, ok := specialOpcode[opName]
	if !ok {
		return newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, IllegalLineStart)
	}
	idx++

	aOp, idx, err := a.parseValue(toks, idx, false)
	if err != nil {
		return wrap(err, "parsing operand")
	}
	if toks[idx].Kind != TokEOL {
		return newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExtraTokens)
	}

	word := uint16(dcpu16.EXT) | (uint16(special) << 5) | (aOp.id << 10)
	a.emit(word)
	a.emitOperand(aOp)
	return nil
}

func (a *Assembler) parseDat(toks []Token, idx int) error {
	idx++ // past DAT
	for {
		tok := toks[idx]
		switch tok.Kind {
		case TokNumber:
			a.emitLiteral(tok.Value)
			idx++
		case TokString:
			for _, r := range tok.Str {
				a.emitLiteral(int32(r) & 0xffff)
			}
			idx++
		case TokLabel:
			id := a.labelID(tok.Text, tok)
			a.emitLabelRef(id, 0)
			idx++
		default:
			return newError(tok.Line, tok.Col, tok.Length, ExpectingLiteral)
		}

		if toks[idx].Kind == TokComma {
			idx++
			continue
		}
		break
	}
	if toks[idx].Kind != TokEOL {
		return newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExtraTokens)
	}
	return nil
}

// parseValue parses one `value` production, returning the resolved operand
// and the index just past it. isB governs whether PUSH/PEEK-as-write and
// write-target restrictions apply (no inline short literals for b, and
// PUSH only legal as b / POP only legal as a).
func (a *Assembler) parseValue(toks []Token, idx int, isB bool) (operand, int, error) {
	tok := toks[idx]

	switch tok.Kind {
	case TokRegister:
		return operand{id: registerIndex(tok.Text)}, idx + 1, nil

	case TokNumber:
		return a.literalOperand(tok.Value, isB), idx + 1, nil

	case TokLabel:
		id := a.labelID(tok.Text, tok)
		return operand{id: 0x1f, needsWord: true, labelID: id}, idx + 1, nil

	case TokKeyword:
		switch tok.Text {
		case "PUSH":
			if !isB {
				return operand{}, idx, newError(tok.Line, tok.Col, tok.Length, IncorrectPushPop)
			}
			return operand{id: 0x18}, idx + 1, nil
		case "POP":
			if isB {
				return operand{}, idx, newError(tok.Line, tok.Col, tok.Length, IncorrectPushPop)
			}
			return operand{id: 0x18}, idx + 1, nil
		case "PEEK":
			return operand{id: 0x19}, idx + 1, nil
		case "SP":
			return operand{id: 0x1b}, idx + 1, nil
		case "PC":
			return operand{id: 0x1c}, idx + 1, nil
		case "EX":
			return operand{id: 0x1d}, idx + 1, nil
		case "PICK":
			idx++
			if toks[idx].Kind != TokNumber {
				return operand{}, idx, newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExpectingLiteral)
			}
			lit := toks[idx].Value
			idx++
			return operand{id: 0x1a, needsWord: true, labelID: noLabel, literal: lit}, idx, nil
		}
		return operand{}, idx, newError(tok.Line, tok.Col, tok.Length, ExpectingOperand)

	case TokLBracket:
		return a.parseBracket(toks, idx)

	default:
		return operand{}, idx, newError(tok.Line, tok.Col, tok.Length, ExpectingOperand)
	}
}

// literalOperand encodes a numeric literal, inlining it into the a-operand
// range 0x20-0x3f when it is -1..30 and the position allows it (a-operand
// only, never a write target).
func (a *Assembler) literalOperand(v int32, isB bool) operand {
	v16 := uint16(v)
	if !isB && (v16 == 0xffff || v16 <= 0x1e) {
		id := 0x20 + ((uint16(int16(v16)) + 1) & 0x3f)
		return operand{id: id}
	}
	return operand{id: 0x1f, needsWord: true, labelID: noLabel, literal: v}
}

func (a *Assembler) parseBracket(toks []Token, idx int) (operand, int, error) {
	open := toks[idx]
	idx++

	first := toks[idx]

	// [reg] or [reg + (num|label)]
	if first.Kind == TokRegister {
		reg := registerIndex(first.Text)
		idx++
		if toks[idx].Kind == TokRBracket {
			return operand{id: 0x08 + reg}, idx + 1, nil
		}
		if toks[idx].Kind != TokPlus {
			return operand{}, idx, newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExpectingRightBracket)
		}
		idx++
		op, idx, err := a.bracketOffset(toks, idx)
		if err != nil {
			return operand{}, idx, err
		}
		if toks[idx].Kind != TokRBracket {
			return operand{}, idx, newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExpectingRightBracket)
		}
		op.id = 0x10 + reg
		return op, idx + 1, nil
	}

	// [(num|label) + reg] or [lit] or [label] or [label+lit] or [lit+label]
	op, idx, err := a.bracketOffset(toks, idx)
	if err != nil {
		return operand{}, idx, err
	}
	if toks[idx].Kind == TokPlus {
		idx++
		if toks[idx].Kind != TokRegister {
			return operand{}, idx, newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExpectingOperand)
		}
		reg := registerIndex(toks[idx].Text)
		idx++
		if toks[idx].Kind != TokRBracket {
			return operand{}, idx, newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExpectingRightBracket)
		}
		op.id = 0x10 + reg
		return op, idx + 1, nil
	}
	if toks[idx].Kind != TokRBracket {
		return operand{}, idx, newError(toks[idx].Line, toks[idx].Col, toks[idx].Length, ExpectingRightBracket)
	}
	op.id = 0x1e
	_ = open
	return op, idx + 1, nil
}

// bracketOffset parses a bare numeric literal or label, or num+label /
// label+num, inside brackets, not yet knowing the eventual operand id
// (0x10+reg vs 0x1e is filled in by the caller). It returns an operand with
// id left at zero.
func (a *Assembler) bracketOffset(toks []Token, idx int) (operand, int, error) {
	tok := toks[idx]

	switch tok.Kind {
	case TokNumber:
		idx++
		if toks[idx].Kind == TokPlus {
			save := idx
			idx++
			if toks[idx].Kind == TokLabel {
				labelTok := toks[idx]
				id := a.labelID(labelTok.Text, labelTok)
				idx++
				return operand{needsWord: true, labelID: id, literal: tok.Value}, idx, nil
			}
			idx = save // '+' belongs to an outer [.. + reg]; don't consume it
		}
		return operand{needsWord: true, labelID: noLabel, literal: tok.Value}, idx, nil

	case TokLabel:
		labelTok := tok
		id := a.labelID(labelTok.Text, labelTok)
		idx++
		if toks[idx].Kind == TokPlus {
			save := idx
			idx++
			if toks[idx].Kind == TokNumber {
				lit := toks[idx].Value
				idx++
				return operand{needsWord: true, labelID: id, literal: lit}, idx, nil
			}
			idx = save
		}
		return operand{needsWord: true, labelID: id, literal: 0}, idx, nil

	default:
		return operand{}, idx, newError(tok.Line, tok.Col, tok.Length, ExpectingOperand)
	}
}

// registerID maps a register name to its operand-encoding index. This is
// not alphabetical (X,Y,Z,I,J don't follow A,B,C in the 5-bit field), so it
// must agree with the canonical table disasm.registerNames decodes from.
var registerID = map[string]uint16{
	"A": 0, "B": 1, "C": 2, "X": 3, "Y": 4, "Z": 5, "I": 6, "J": 7,
}

func registerIndex(name string) uint16 {
	return registerID[strings.ToUpper(name)]
}

var basicOpcode = map[string]int{
	"SET": dcpu16.SET, "ADD": dcpu16.ADD, "SUB": dcpu16.SUB, "MUL": dcpu16.MUL,
	"MLI": dcpu16.MLI, "DIV": dcpu16.DIV, "DVI": dcpu16.DVI, "MOD": dcpu16.MOD,
	"MDI": dcpu16.MDI, "AND": dcpu16.AND, "BOR": dcpu16.BOR, "XOR": dcpu16.XOR,
	"SHR": dcpu16.SHR, "ASR": dcpu16.ASR, "SHL": dcpu16.SHL,
	"IFB": dcpu16.IFB, "IFC": dcpu16.IFC, "IFE": dcpu16.IFE, "IFN": dcpu16.IFN,
	"IFG": dcpu16.IFG, "IFA": dcpu16.IFA, "IFL": dcpu16.IFL, "IFU": dcpu16.IFU,
	"ADX": dcpu16.ADX, "SBX": dcpu16.SBX, "STI": dcpu16.STI, "STD": dcpu16.STD,
}

var specialOpcode = map[string]int{
	"JSR": dcpu16.JSR, "INT": dcpu16.INT, "IAG": dcpu16.IAG, "IAS": dcpu16.IAS,
	"RFI": dcpu16.RFI, "IAQ": dcpu16.IAQ, "HWN": dcpu16.HWN, "HWQ": dcpu16.HWQ,
	"HWI": dcpu16.HWI,
}
