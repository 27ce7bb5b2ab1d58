package circuit

type gateDef struct {
	qasm   string
	tket   string
	qubits int
	params int
}

var gateDefs = []gateDef{
	{"h", "H", 1, 0},
	{"x", "X", 1, 0},
	{"y", "Y", 1, 0},
	{"z", "Z", 1, 0},
	{"s", "S", 1, 0},
	{"sdg", "Sdg", 1, 0},
	{"t", "T", 1, 0},
	{"tdg", "Tdg", 1, 0},
	{"rx", "Rx", 1, 1},
	{"ry", "Ry", 1, 1},
	{"rz", "Rz", 1, 1},
	{"u1", "U1", 1, 1},
	{"cx", "CX", 2, 0},
	{"cz", "CZ", 2, 0},
	{"swap", "SWAP", 2, 0},
	{"ccx", "CCX", 3, 0},
}

var (
	gatesByQASM = make(map[string]gateDef, len(gateDefs))
	gatesByTket = make(map[string]gateDef, len(gateDefs))
)

func init() {
	for _, g := range gateDefs {
		gatesByQASM[g.qasm] = g
		gatesByTket[g.tket] = g
	}
}
