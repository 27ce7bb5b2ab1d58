package circuit

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// tketUnit is a register reference serialized as ["q", [3]].
type tketUnit struct {
	Reg   string
	Index []int
}

func (u tketUnit) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{u.Reg, u.Index})
}

func (u *tketUnit) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("unit reference must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &u.Reg); err != nil {
		return fmt.Errorf("unit register: %w", err)
	}
	if err := json.Unmarshal(raw[1], &u.Index); err != nil {
		return fmt.Errorf("unit index: %w", err)
	}
	return nil
}

func (u tketUnit) key() string {
	return fmt.Sprint(u.Reg, u.Index)
}

type tketOp struct {
	Type   string   `json:"type"`
	Params []string `json:"params,omitempty"`
}

type tketCommand struct {
	Args []tketUnit `json:"args"`
	Op   tketOp     `json:"op"`
}

type tketCircuit struct {
	Bits                []tketUnit      `json:"bits"`
	Commands            []tketCommand   `json:"commands"`
	CreatedQubits       []tketUnit      `json:"created_qubits"`
	DiscardedQubits     []tketUnit      `json:"discarded_qubits"`
	ImplicitPermutation [][2]tketUnit   `json:"implicit_permutation"`
	Phase               json.RawMessage `json:"phase"`
	Qubits              []tketUnit      `json:"qubits"`
}

// ParseJSON parses a tket circuit JSON document. Operation types missing from
// the gate table are kept verbatim so they can still take part in matching.
func ParseJSON(src string) (*Circuit, error) {
	var tc tketCircuit
	if err := json.Unmarshal([]byte(src), &tc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	index := make(map[string]int, len(tc.Qubits))
	for i, u := range tc.Qubits {
		index[u.key()] = i
	}

	c := &Circuit{NumQubits: len(tc.Qubits)}
	for i, tcmd := range tc.Commands {
		if tcmd.Op.Type == "" {
			return nil, fmt.Errorf("%w: command %d has no op type", ErrSyntax, i)
		}
		if tcmd.Op.Type == "Barrier" {
			continue
		}

		cmd := Command{Op: tcmd.Op.Type}
		for _, arg := range tcmd.Args {
			q, ok := index[arg.key()]
			if !ok {
				return nil, fmt.Errorf("%w: command %d argument %s is not a qubit", ErrUnsupported, i, arg.key())
			}
			cmd.Qubits = append(cmd.Qubits, q)
		}
		for _, p := range tcmd.Op.Params {
			v, err := evalParam(p)
			if err != nil {
				return nil, err
			}
			cmd.Params = append(cmd.Params, v)
		}
		if def, ok := gatesByTket[cmd.Op]; ok && (len(cmd.Qubits) != def.qubits || len(cmd.Params) != def.params) {
			return nil, fmt.Errorf("%w: command %d (%s) has %d qubits and %d params", ErrSyntax, i, cmd.Op, len(cmd.Qubits), len(cmd.Params))
		}
		c.Commands = append(c.Commands, cmd)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeJSON renders c as a tket circuit JSON document over register q.
func EncodeJSON(c *Circuit) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	tc := tketCircuit{
		Bits:                []tketUnit{},
		Commands:            make([]tketCommand, 0, len(c.Commands)),
		CreatedQubits:       []tketUnit{},
		DiscardedQubits:     []tketUnit{},
		ImplicitPermutation: make([][2]tketUnit, 0, c.NumQubits),
		Phase:               json.RawMessage(`"0.0"`),
		Qubits:              make([]tketUnit, 0, c.NumQubits),
	}
	for q := 0; q < c.NumQubits; q++ {
		u := tketUnit{Reg: "q", Index: []int{q}}
		tc.Qubits = append(tc.Qubits, u)
		tc.ImplicitPermutation = append(tc.ImplicitPermutation, [2]tketUnit{u, u})
	}
	for _, cmd := range c.Commands {
		tcmd := tketCommand{Op: tketOp{Type: cmd.Op}}
		for _, q := range cmd.Qubits {
			tcmd.Args = append(tcmd.Args, tketUnit{Reg: "q", Index: []int{q}})
		}
		for _, p := range cmd.Params {
			tcmd.Op.Params = append(tcmd.Op.Params, strconv.FormatFloat(p, 'g', -1, 64))
		}
		tc.Commands = append(tc.Commands, tcmd)
	}

	data, err := json.Marshal(tc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal circuit: %w", err)
	}
	return string(data), nil
}
