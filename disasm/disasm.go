// Package disasm renders DCPU-16 1.7 machine words back into assembly
// text, one instruction at a time, for the emulator's `-p` trace mode.
package disasm

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/dcpu16vm/dcpu16"
)

var registerNames = []string{"A", "B", "C", "X", "Y", "Z", "I", "J"}

var basicNames = map[uint16]string{
	dcpu16.SET: "SET", dcpu16.ADD: "ADD", dcpu16.SUB: "SUB", dcpu16.MUL: "MUL",
	dcpu16.MLI: "MLI", dcpu16.DIV: "DIV", dcpu16.DVI: "DVI", dcpu16.MOD: "MOD",
	dcpu16.MDI: "MDI", dcpu16.AND: "AND", dcpu16.BOR: "BOR", dcpu16.XOR: "XOR",
	dcpu16.SHR: "SHR", dcpu16.ASR: "ASR", dcpu16.SHL: "SHL",
	dcpu16.IFB: "IFB", dcpu16.IFC: "IFC", dcpu16.IFE: "IFE", dcpu16.IFN: "IFN",
	dcpu16.IFG: "IFG", dcpu16.IFA: "IFA", dcpu16.IFL: "IFL", dcpu16.IFU: "IFU",
	dcpu16.ADX: "ADX", dcpu16.SBX: "SBX", dcpu16.STI: "STI", dcpu16.STD: "STD",
}

var specialNames = map[uint16]string{
	dcpu16.JSR: "JSR", dcpu16.INT: "INT", dcpu16.IAG: "IAG", dcpu16.IAS: "IAS",
	dcpu16.RFI: "RFI", dcpu16.IAQ: "IAQ", dcpu16.HWN: "HWN", dcpu16.HWQ: "HWQ",
	dcpu16.HWI: "HWI",
}

// Instruction is one decoded instruction: either basic (B and A both set,
// A always present), special (only A set), or a reserved/DAT word
// (Mnemonic empty).
type Instruction struct {
	Addr     uint16
	Mnemonic string
	B        string // empty for special instructions
	A        string
	Raw      uint16 // the raw instruction word, used for DAT fallback
}

// Decode reads exactly one instruction starting at words[0], consuming 1-3
// words depending on its operands, and returns how many words it consumed.
// It never reads past len(words); an operand that would need a next word
// past the end of the slice is rendered as a literal 0 rather than
// panicking, since disassembly is a best-effort display operation.
func Decode(words []uint16, addr uint16) (Instruction, int) {
	if len(words) == 0 {
		return Instruction{Addr: addr}, 0
	}

	word := words[0]
	consumed := 1
	opcode := word & 0x001f
	bID := (word & 0x03e0) >> 5
	aID := (word & 0xfc00) >> 10

	next := func() uint16 {
		if consumed < len(words) {
			v := words[consumed]
			consumed++
			return v
		}
		consumed++
		return 0
	}

	if opcode == dcpu16.EXT {
		name, ok := specialNames[bID]
		if !ok {
			return Instruction{Addr: addr, Raw: word}, consumed
		}
		a := formatOperand(aID, true, next)
		return Instruction{Addr: addr, Mnemonic: name, A: a}, consumed
	}

	name, ok := basicNames[opcode]
	if !ok {
		return Instruction{Addr: addr, Raw: word}, consumed
	}
	a := formatOperand(aID, true, next)
	b := formatOperand(bID, false, next)
	return Instruction{Addr: addr, Mnemonic: name, B: b, A: a}, consumed
}

func formatOperand(id uint16, isA bool, next func() uint16) string {
	switch {
	case id <= 0x07:
		return registerNames[id]
	case id <= 0x0f:
		return fmt.Sprintf("[%s]", registerNames[id-0x08])
	case id <= 0x17:
		v := next()
		return fmt.Sprintf("[0x%x+%s]", v, registerNames[id-0x10])
	case id == 0x18:
		if isA {
			return "POP"
		}
		return "PUSH"
	case id == 0x19:
		return "PEEK"
	case id == 0x1a:
		v := next()
		return fmt.Sprintf("[SP+0x%x]", v)
	case id == 0x1b:
		return "SP"
	case id == 0x1c:
		return "PC"
	case id == 0x1d:
		return "EX"
	case id == 0x1e:
		v := next()
		return fmt.Sprintf("[0x%x]", v)
	case id == 0x1f:
		v := next()
		return fmt.Sprintf("0x%x", v)
	default: // 0x20-0x3f
		return fmt.Sprintf("0x%x", uint16(int16(id)-0x21))
	}
}

// Format renders ins as "MNEMONIC B, A", "MNEMONIC A", or "DAT 0xHHHH" for
// a reserved/unknown opcode word.
func Format(ins Instruction) string {
	switch {
	case ins.Mnemonic == "" && ins.B == "" && ins.A == "":
		return fmt.Sprintf("DAT 0x%04x", ins.Raw)
	case ins.B == "":
		return fmt.Sprintf("%s %s", ins.Mnemonic, ins.A)
	default:
		return fmt.Sprintf("%s %s, %s", ins.Mnemonic, ins.B, ins.A)
	}
}

// FormatColor is Format with ANSI styling — mnemonics bold cyan, registers
// yellow, immediates dimmed — applied when enable is true. The emulator's
// `-m/--no-color` flag passes enable=false to fall back to Format's plain
// text.
func FormatColor(ins Instruction, enable bool) string {
	if !enable {
		return Format(ins)
	}

	mnemonic := color.New(color.FgCyan, color.Bold)
	immediate := color.New(color.Faint)

	colorOperand := func(s string) string {
		if s == "" {
			return s
		}
		for _, r := range registerNames {
			if s == r || strings.Contains(s, "["+r+"]") || strings.Contains(s, "+"+r+"]") {
				return color.YellowString(s)
			}
		}
		switch s {
		case "SP", "PC", "EX", "PUSH", "POP", "PEEK":
			return color.YellowString(s)
		}
		return immediate.Sprint(s)
	}

	if ins.Mnemonic == "" && ins.B == "" && ins.A == "" {
		return immediate.Sprintf("DAT 0x%04x", ins.Raw)
	}
	if ins.B == "" {
		return fmt.Sprintf("%s %s", mnemonic.Sprint(ins.Mnemonic), colorOperand(ins.A))
	}
	return fmt.Sprintf("%s %s, %s", mnemonic.Sprint(ins.Mnemonic), colorOperand(ins.B), colorOperand(ins.A))
}
