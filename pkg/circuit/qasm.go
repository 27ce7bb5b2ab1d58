package circuit

import (
	"fmt"
	"strconv"
	"strings"
)

type qreg struct {
	offset int
	size   int
}

// ParseQASM parses the OpenQASM 2.0 subset produced by the corpus tooling:
// qreg/creg declarations, includes, barriers and the gates in the gate table.
func ParseQASM(src string) (*Circuit, error) {
	c := &Circuit{}
	regs := make(map[string]qreg)

	for _, stmt := range strings.Split(stripComments(src), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		name, rest := splitStatement(stmt)
		switch name {
		case "OPENQASM", "include", "creg", "barrier":
			continue
		case "qreg":
			reg, size, err := parseOperand(rest)
			if err != nil {
				return nil, err
			}
			if _, dup := regs[reg]; dup {
				return nil, fmt.Errorf("%w: duplicate qreg %q", ErrSyntax, reg)
			}
			regs[reg] = qreg{offset: c.NumQubits, size: size}
			c.NumQubits += size
			continue
		case "measure", "reset", "gate", "opaque", "if":
			return nil, fmt.Errorf("%w: %q statement", ErrUnsupported, name)
		}

		cmd, err := parseGate(stmt, regs)
		if err != nil {
			return nil, err
		}
		c.Commands = append(c.Commands, cmd)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseGate(stmt string, regs map[string]qreg) (Command, error) {
	var paramSrc string
	nameEnd := strings.IndexAny(stmt, " \t\n(")
	if nameEnd < 0 {
		return Command{}, fmt.Errorf("%w: gate %q has no operands", ErrSyntax, stmt)
	}
	name := stmt[:nameEnd]
	rest := stmt[nameEnd:]

	if strings.HasPrefix(strings.TrimSpace(rest), "(") {
		rest = strings.TrimSpace(rest)
		closeIdx := matchingParen(rest)
		if closeIdx < 0 {
			return Command{}, fmt.Errorf("%w: unbalanced parentheses in %q", ErrSyntax, stmt)
		}
		paramSrc = rest[1:closeIdx]
		rest = rest[closeIdx+1:]
	}

	def, ok := gatesByQASM[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: gate %q", ErrUnsupported, name)
	}

	cmd := Command{Op: def.tket}
	if paramSrc != "" {
		for _, p := range splitTopLevel(paramSrc) {
			v, err := evalParam(p)
			if err != nil {
				return Command{}, err
			}
			cmd.Params = append(cmd.Params, v/piRadians)
		}
	}
	if len(cmd.Params) != def.params {
		return Command{}, fmt.Errorf("%w: gate %s takes %d parameters, got %d", ErrSyntax, name, def.params, len(cmd.Params))
	}

	for _, operand := range strings.Split(rest, ",") {
		reg, idx, err := parseOperand(operand)
		if err != nil {
			return Command{}, err
		}
		r, ok := regs[reg]
		if !ok {
			return Command{}, fmt.Errorf("%w: undeclared register %q", ErrSyntax, reg)
		}
		if idx >= r.size {
			return Command{}, fmt.Errorf("%w: %s[%d] out of range", ErrSyntax, reg, idx)
		}
		cmd.Qubits = append(cmd.Qubits, r.offset+idx)
	}
	if len(cmd.Qubits) != def.qubits {
		return Command{}, fmt.Errorf("%w: gate %s takes %d qubits, got %d", ErrSyntax, name, def.qubits, len(cmd.Qubits))
	}
	return cmd, nil
}

// parseOperand parses "q[3]" into ("q", 3).
func parseOperand(s string) (string, int, error) {
	s = strings.TrimSpace(s)
	reg, idx, ok := strings.Cut(s, "[")
	if !ok || !strings.HasSuffix(idx, "]") {
		return "", 0, fmt.Errorf("%w: operand %q", ErrUnsupported, s)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(idx, "]"))
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("%w: operand %q", ErrSyntax, s)
	}
	return strings.TrimSpace(reg), n, nil
}

func splitStatement(stmt string) (string, string) {
	name, rest, _ := strings.Cut(stmt, " ")
	return name, strings.TrimSpace(rest)
}

func matchingParen(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripComments(src string) string {
	var b strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// EncodeQASM renders c as OpenQASM 2.0 over a single register named q.
func EncodeQASM(c *Circuit) (string, error) {
	var b strings.Builder
	b.WriteString("OPENQASM 2.0;\n")
	b.WriteString("include \"qelib1.inc\";\n")
	fmt.Fprintf(&b, "qreg q[%d];\n", c.NumQubits)

	for _, cmd := range c.Commands {
		def, ok := gatesByTket[cmd.Op]
		if !ok {
			return "", fmt.Errorf("%w: no QASM gate for %s", ErrUnsupported, cmd.Op)
		}
		b.WriteString(def.qasm)
		if len(cmd.Params) > 0 {
			params := make([]string, len(cmd.Params))
			for i, p := range cmd.Params {
				params[i] = formatHalfTurns(p)
			}
			fmt.Fprintf(&b, "(%s)", strings.Join(params, ","))
		}
		operands := make([]string, len(cmd.Qubits))
		for i, q := range cmd.Qubits {
			operands[i] = fmt.Sprintf("q[%d]", q)
		}
		fmt.Fprintf(&b, " %s;\n", strings.Join(operands, ","))
	}
	return b.String(), nil
}
