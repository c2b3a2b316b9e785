package zdecode

import "fmt"

// VariableReader resolves a Z-Machine variable number to its current
// value: 0 pops the active routine's evaluation stack, 1-15 reads a
// local, 16-255 reads a global. Implemented by zcpu against the active
// call frame and memory.
type VariableReader func(variable uint8) (uint16, error)

// Resolve evaluates every operand's concrete 16-bit value, reading
// variables through readVar. Doing this immediately after Decode (before
// the instruction executes and can itself mutate the stack) is what
// makes operand evaluation order well-defined: each operand is fetched
// exactly once, left to right, at decode time.
func Resolve(operands []Operand, readVar VariableReader) ([]uint16, error) {
	values := make([]uint16, len(operands))
	for i, op := range operands {
		switch op.Type {
		case LargeConstant, SmallConstant:
			values[i] = op.Raw
		case Variable:
			v, err := readVar(uint8(op.Raw))
			if err != nil {
				return nil, fmt.Errorf("zdecode: resolving operand %d (variable %d): %w", i, op.Raw, err)
			}
			values[i] = v
		default:
			return nil, fmt.Errorf("zdecode: operand %d has invalid type %d", i, op.Type)
		}
	}
	return values, nil
}
