/*
Package puzzle implements the layered puzzle model: programs identified by
module hashes with curried arguments, typed conditions they emit, and a small
evaluator for the known module set.
*/
package puzzle

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/io"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

const (
	// MaxDepth is the maximum nesting of layers in a program.
	MaxDepth = 8
	// MaxArgs is the maximum number of curried arguments of one layer.
	MaxArgs = 16
	// MaxArgSize is the maximum size of one curried argument.
	MaxArgSize = 4096
)

// ErrTooDeep is returned when a program is nested deeper than MaxDepth.
var ErrTooDeep = errors.New("program is too deep")

// Program is a module with curried arguments and an optional inner program.
// The inner program is curried in as the last argument by its tree hash,
// so the hash of a layer only depends on the hash of what it wraps.
type Program struct {
	Mod   util.Bytes32
	Args  [][]byte
	Inner *Program
}

// Spend is an authorized (puzzle, solution) pair for one coin.
type Spend struct {
	Puzzle   *Program
	Solution []byte
}

// NewSpend returns a new Spend.
func NewSpend(p *Program, solution []byte) Spend {
	return Spend{Puzzle: p, Solution: solution}
}

// CurryHash returns the tree hash of mod with args curried in:
// sha256(0x02 ∥ mod ∥ sha256(0x01 ∥ arg1) ∥ ... ∥ sha256(0x01 ∥ argN)).
func CurryHash(mod util.Bytes32, args ...[]byte) util.Bytes32 {
	parts := make([][]byte, 0, len(args)+2)
	parts = append(parts, []byte{0x02}, mod[:])
	for _, a := range args {
		h := hash.Sha256Concat([]byte{0x01}, a)
		parts = append(parts, h[:])
	}
	return hash.Sha256Concat(parts...)
}

// Hash returns the tree hash of the program.
func (p *Program) Hash() util.Bytes32 {
	if p.Inner == nil {
		return CurryHash(p.Mod, p.Args...)
	}
	inner := p.Inner.Hash()
	args := make([][]byte, len(p.Args), len(p.Args)+1)
	copy(args, p.Args)
	return CurryHash(p.Mod, append(args, inner[:])...)
}

// Innermost returns the innermost program of the layer stack.
func (p *Program) Innermost() *Program {
	for p.Inner != nil {
		p = p.Inner
	}
	return p
}

// Bytes returns the serialized program (the puzzle reveal).
func (p *Program) Bytes() []byte {
	w := io.NewBufBinWriter()
	p.EncodeBinary(w.BinWriter)
	return w.Bytes()
}

// EncodeBinary implements the io.Serializable interface.
func (p *Program) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(p.Mod[:])
	w.WriteVarUint(uint64(len(p.Args)))
	for _, a := range p.Args {
		w.WriteVarBytes(a)
	}
	w.WriteBool(p.Inner != nil)
	if p.Inner != nil {
		p.Inner.EncodeBinary(w)
	}
}

// DecodeBinary implements the io.Serializable interface.
func (p *Program) DecodeBinary(r *io.BinReader) {
	p.decodeBinary(r, 0)
}

func (p *Program) decodeBinary(r *io.BinReader, depth int) {
	if depth >= MaxDepth {
		r.Err = ErrTooDeep
		return
	}
	r.ReadBytes(p.Mod[:])
	n := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	if n > MaxArgs {
		r.Err = fmt.Errorf("too many arguments: %d", n)
		return
	}
	p.Args = make([][]byte, n)
	for i := range p.Args {
		p.Args[i] = r.ReadVarBytes(MaxArgSize)
	}
	p.Inner = nil
	if r.ReadBool() {
		p.Inner = new(Program)
		p.Inner.decodeBinary(r, depth+1)
	}
}

// DecodeProgram deserializes a puzzle reveal. The whole buffer must be
// consumed.
func DecodeProgram(b []byte) (*Program, error) {
	var (
		p = new(Program)
		r = io.NewBinReaderFromBuf(b)
	)
	p.DecodeBinary(r)
	if r.Err != nil {
		return nil, fmt.Errorf("invalid program: %w", r.Err)
	}
	if r.Len() != 0 {
		return nil, errors.New("invalid program: trailing data")
	}
	return p, nil
}
