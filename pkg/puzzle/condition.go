package puzzle

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/io"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Opcode is a condition code.
type Opcode byte

// Condition codes. The ones below 100 are interpreted by the ledger, the
// rest are consumed by wrapping layers or asserted by the ledger for the
// asset puzzles of this module set.
const (
	OpRemark                      Opcode = 1
	OpAggSigMe                    Opcode = 50
	OpCreateCoin                  Opcode = 51
	OpReserveFee                  Opcode = 52
	OpCreateCoinAnnouncement      Opcode = 60
	OpAssertCoinAnnouncement      Opcode = 61
	OpAssertConcurrentSpend       Opcode = 64
	OpAssertBeforeSecondsAbsolute Opcode = 85

	OpRunTail               Opcode = 113
	OpMeltSingleton         Opcode = 114
	OpUpdateNftMetadata     Opcode = 115
	OpTransferNft           Opcode = 116
	OpUpdateDid             Opcode = 117
	OpAssertSingletonMelted Opcode = 118
	OpAssertPayment         Opcode = 119
)

const (
	// MaxConditions is the maximum number of conditions in one list.
	MaxConditions = 1024
	// MaxMemos is the maximum number of memos of one CREATE_COIN.
	MaxMemos = 8
)

// ErrUnknownOpcode is returned when decoding a condition with an unknown
// code.
var ErrUnknownOpcode = errors.New("unknown condition opcode")

// Condition is a directive emitted by a puzzle evaluation. The set of
// conditions is closed, every type is defined in this package.
type Condition interface {
	Opcode() Opcode
	encode(w *io.BinWriter)
}

type (
	// Remark is a no-op condition carrying arbitrary data.
	Remark struct {
		Data []byte
	}
	// AggSigMe requires a signature by PublicKey of
	// Message ∥ coin id ∥ AggSigMeExtraData.
	AggSigMe struct {
		PublicKey []byte
		Message   []byte
	}
	// CreateCoin creates a child coin.
	CreateCoin struct {
		PuzzleHash util.Bytes32
		Amount     uint64
		Memos      [][]byte
	}
	// ReserveFee asserts the bundle leaves at least Amount as fee.
	ReserveFee struct {
		Amount uint64
	}
	// CreateCoinAnnouncement announces Message on behalf of the coin.
	CreateCoinAnnouncement struct {
		Message []byte
	}
	// AssertCoinAnnouncement asserts an announcement with the given id
	// (see AnnouncementID) is made in the same bundle.
	AssertCoinAnnouncement struct {
		ID util.Bytes32
	}
	// AssertConcurrentSpend asserts the coin is spent in the same bundle.
	AssertConcurrentSpend struct {
		CoinID util.Bytes32
	}
	// AssertBeforeSecondsAbsolute asserts the ledger time is before Seconds.
	AssertBeforeSecondsAbsolute struct {
		Seconds uint64
	}
	// RunTail reveals and runs the token issuance program changing the
	// supply by Delta (positive issues, negative melts).
	RunTail struct {
		Tail     *Program
		Solution []byte
		Delta    int64
	}
	// MeltSingleton destroys the singleton, it doesn't recreate itself.
	MeltSingleton struct{}
	// UpdateNftMetadata updates NFT metadata of the next generation.
	UpdateNftMetadata struct {
		Updates []MetadataUpdate
	}
	// TransferNft sets (or clears with nil) the owner DID of the next
	// generation of NFT.
	TransferNft struct {
		Owner *util.Bytes32
	}
	// UpdateDid replaces the DID state of the next generation.
	UpdateDid struct {
		State DidState
	}
	// AssertSingletonMelted asserts the singleton with the given launcher
	// id is melted in the same bundle.
	AssertSingletonMelted struct {
		LauncherID util.Bytes32
	}
	// AssertPayment asserts the bundle creates a coin with the given
	// puzzle hash and amount.
	AssertPayment struct {
		PuzzleHash util.Bytes32
		Amount     uint64
	}
)

// AnnouncementID returns the id of the announcement made by the coin.
func AnnouncementID(coinID util.Bytes32, message []byte) util.Bytes32 {
	return hash.Sha256Concat(coinID[:], message)
}

// Opcode implements the Condition interface.
func (Remark) Opcode() Opcode { return OpRemark }

// Opcode implements the Condition interface.
func (AggSigMe) Opcode() Opcode { return OpAggSigMe }

// Opcode implements the Condition interface.
func (CreateCoin) Opcode() Opcode { return OpCreateCoin }

// Opcode implements the Condition interface.
func (ReserveFee) Opcode() Opcode { return OpReserveFee }

// Opcode implements the Condition interface.
func (CreateCoinAnnouncement) Opcode() Opcode { return OpCreateCoinAnnouncement }

// Opcode implements the Condition interface.
func (AssertCoinAnnouncement) Opcode() Opcode { return OpAssertCoinAnnouncement }

// Opcode implements the Condition interface.
func (AssertConcurrentSpend) Opcode() Opcode { return OpAssertConcurrentSpend }

// Opcode implements the Condition interface.
func (AssertBeforeSecondsAbsolute) Opcode() Opcode { return OpAssertBeforeSecondsAbsolute }

// Opcode implements the Condition interface.
func (RunTail) Opcode() Opcode { return OpRunTail }

// Opcode implements the Condition interface.
func (MeltSingleton) Opcode() Opcode { return OpMeltSingleton }

// Opcode implements the Condition interface.
func (UpdateNftMetadata) Opcode() Opcode { return OpUpdateNftMetadata }

// Opcode implements the Condition interface.
func (TransferNft) Opcode() Opcode { return OpTransferNft }

// Opcode implements the Condition interface.
func (UpdateDid) Opcode() Opcode { return OpUpdateDid }

// Opcode implements the Condition interface.
func (AssertSingletonMelted) Opcode() Opcode { return OpAssertSingletonMelted }

// Opcode implements the Condition interface.
func (AssertPayment) Opcode() Opcode { return OpAssertPayment }

func (c Remark) encode(w *io.BinWriter) { w.WriteVarBytes(c.Data) }
func (c ReserveFee) encode(w *io.BinWriter) { w.WriteU64BE(c.Amount) }
func (MeltSingleton) encode(*io.BinWriter) {}

func (c AggSigMe) encode(w *io.BinWriter) {
	w.WriteVarBytes(c.PublicKey)
	w.WriteVarBytes(c.Message)
}

func (c CreateCoin) encode(w *io.BinWriter) {
	w.WriteBytes(c.PuzzleHash[:])
	w.WriteU64BE(c.Amount)
	w.WriteVarUint(uint64(len(c.Memos)))
	for _, m := range c.Memos {
		w.WriteVarBytes(m)
	}
}

func (c CreateCoinAnnouncement) encode(w *io.BinWriter) { w.WriteVarBytes(c.Message) }
func (c AssertCoinAnnouncement) encode(w *io.BinWriter) { w.WriteBytes(c.ID[:]) }
func (c AssertConcurrentSpend) encode(w *io.BinWriter) { w.WriteBytes(c.CoinID[:]) }
func (c AssertSingletonMelted) encode(w *io.BinWriter) { w.WriteBytes(c.LauncherID[:]) }

func (c AssertBeforeSecondsAbsolute) encode(w *io.BinWriter) { w.WriteU64BE(c.Seconds) }

func (c RunTail) encode(w *io.BinWriter) {
	c.Tail.EncodeBinary(w)
	w.WriteVarBytes(c.Solution)
	w.WriteU64BE(uint64(c.Delta))
}

func (c UpdateNftMetadata) encode(w *io.BinWriter) {
	w.WriteVarUint(uint64(len(c.Updates)))
	for _, u := range c.Updates {
		w.WriteB(byte(u.Kind))
		w.WriteString(u.URI)
	}
}

func (c TransferNft) encode(w *io.BinWriter) { writeOptional(w, c.Owner) }
func (c UpdateDid) encode(w *io.BinWriter) { c.State.encode(w) }

func (c AssertPayment) encode(w *io.BinWriter) {
	w.WriteBytes(c.PuzzleHash[:])
	w.WriteU64BE(c.Amount)
}

func writeOptional(w *io.BinWriter, u *util.Bytes32) {
	w.WriteBool(u != nil)
	if u != nil {
		w.WriteBytes(u[:])
	}
}

func readOptional(r *io.BinReader) *util.Bytes32 {
	if !r.ReadBool() {
		return nil
	}
	var u util.Bytes32
	r.ReadBytes(u[:])
	return &u
}

// EncodeConditions serializes the condition list.
func EncodeConditions(conds []Condition) []byte {
	w := io.NewBufBinWriter()
	w.WriteVarUint(uint64(len(conds)))
	for _, c := range conds {
		w.WriteB(byte(c.Opcode()))
		c.encode(w.BinWriter)
	}
	return w.Bytes()
}

// DecodeConditions deserializes the condition list, the whole buffer must be
// consumed.
func DecodeConditions(b []byte) ([]Condition, error) {
	r := io.NewBinReaderFromBuf(b)
	n := r.ReadVarUint()
	if r.Err != nil {
		return nil, fmt.Errorf("invalid conditions: %w", r.Err)
	}
	if n > MaxConditions {
		return nil, fmt.Errorf("invalid conditions: too many (%d)", n)
	}
	conds := make([]Condition, 0, n)
	for i := uint64(0); i < n; i++ {
		c, err := decodeCondition(r)
		if err != nil {
			return nil, fmt.Errorf("invalid condition %d: %w", i, err)
		}
		conds = append(conds, c)
	}
	if r.Len() != 0 {
		return nil, errors.New("invalid conditions: trailing data")
	}
	return conds, nil
}

func decodeCondition(r *io.BinReader) (Condition, error) {
	var c Condition
	switch op := Opcode(r.ReadB()); op {
	case OpRemark:
		c = Remark{Data: r.ReadVarBytes()}
	case OpAggSigMe:
		c = AggSigMe{PublicKey: r.ReadVarBytes(), Message: r.ReadVarBytes()}
	case OpCreateCoin:
		var cc CreateCoin
		r.ReadBytes(cc.PuzzleHash[:])
		cc.Amount = r.ReadU64BE()
		n := r.ReadVarUint()
		if n > MaxMemos {
			return nil, fmt.Errorf("too many memos: %d", n)
		}
		if n > 0 {
			cc.Memos = make([][]byte, n)
			for i := range cc.Memos {
				cc.Memos[i] = r.ReadVarBytes()
			}
		}
		c = cc
	case OpReserveFee:
		c = ReserveFee{Amount: r.ReadU64BE()}
	case OpCreateCoinAnnouncement:
		c = CreateCoinAnnouncement{Message: r.ReadVarBytes()}
	case OpAssertCoinAnnouncement:
		var a AssertCoinAnnouncement
		r.ReadBytes(a.ID[:])
		c = a
	case OpAssertConcurrentSpend:
		var a AssertConcurrentSpend
		r.ReadBytes(a.CoinID[:])
		c = a
	case OpAssertBeforeSecondsAbsolute:
		c = AssertBeforeSecondsAbsolute{Seconds: r.ReadU64BE()}
	case OpRunTail:
		rt := RunTail{Tail: new(Program)}
		rt.Tail.DecodeBinary(r)
		rt.Solution = r.ReadVarBytes()
		rt.Delta = int64(r.ReadU64BE())
		c = rt
	case OpMeltSingleton:
		c = MeltSingleton{}
	case OpUpdateNftMetadata:
		n := r.ReadVarUint()
		if n > MaxConditions {
			return nil, fmt.Errorf("too many metadata updates: %d", n)
		}
		u := UpdateNftMetadata{Updates: make([]MetadataUpdate, n)}
		for i := range u.Updates {
			u.Updates[i].Kind = MetadataKind(r.ReadB())
			u.Updates[i].URI = r.ReadString()
		}
		c = u
	case OpTransferNft:
		c = TransferNft{Owner: readOptional(r)}
	case OpUpdateDid:
		var u UpdateDid
		u.State.decode(r)
		c = u
	case OpAssertSingletonMelted:
		var a AssertSingletonMelted
		r.ReadBytes(a.LauncherID[:])
		c = a
	case OpAssertPayment:
		var a AssertPayment
		r.ReadBytes(a.PuzzleHash[:])
		a.Amount = r.ReadU64BE()
		c = a
	default:
		if r.Err != nil {
			return nil, r.Err
		}
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, op)
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return c, nil
}
