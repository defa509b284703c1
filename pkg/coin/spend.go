package coin

import (
	"encoding/hex"

	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/io"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// CoinSpend is a coin together with the revealed puzzle and the solution
// that unlock it.
type CoinSpend struct {
	Coin         Coin
	PuzzleReveal []byte
	Solution     []byte
}

// SpendBundle is a set of coin spends submitted to the ledger atomically
// together with the signatures they require.
type SpendBundle struct {
	CoinSpends []CoinSpend
	Signatures [][]byte
}

type coinSpendAux struct {
	Coin         Coin   `json:"coin"`
	PuzzleReveal string `json:"puzzle_reveal"`
	Solution     string `json:"solution"`
}

type spendBundleAux struct {
	CoinSpends []CoinSpend `json:"coin_spends"`
	Signatures []string    `json:"signatures"`
}

// NewCoinSpend returns a new CoinSpend.
func NewCoinSpend(c Coin, puzzleReveal, solution []byte) CoinSpend {
	return CoinSpend{Coin: c, PuzzleReveal: puzzleReveal, Solution: solution}
}

// EncodeBinary implements the io.Serializable interface.
func (s *CoinSpend) EncodeBinary(w *io.BinWriter) {
	s.Coin.EncodeBinary(w)
	w.WriteVarBytes(s.PuzzleReveal)
	w.WriteVarBytes(s.Solution)
}

// DecodeBinary implements the io.Serializable interface.
func (s *CoinSpend) DecodeBinary(r *io.BinReader) {
	s.Coin.DecodeBinary(r)
	s.PuzzleReveal = r.ReadVarBytes()
	s.Solution = r.ReadVarBytes()
}

// MarshalJSON implements the json.Marshaler interface.
func (s CoinSpend) MarshalJSON() ([]byte, error) {
	return json.Marshal(coinSpendAux{
		Coin:         s.Coin,
		PuzzleReveal: hex.EncodeToString(s.PuzzleReveal),
		Solution:     hex.EncodeToString(s.Solution),
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *CoinSpend) UnmarshalJSON(data []byte) error {
	var (
		aux coinSpendAux
		err error
	)
	if err = json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Coin = aux.Coin
	if s.PuzzleReveal, err = hex.DecodeString(aux.PuzzleReveal); err != nil {
		return err
	}
	s.Solution, err = hex.DecodeString(aux.Solution)
	return err
}

// Removals returns ids of all coins spent by the bundle.
func (b *SpendBundle) Removals() []util.Bytes32 {
	res := make([]util.Bytes32, len(b.CoinSpends))
	for i := range b.CoinSpends {
		res[i] = b.CoinSpends[i].Coin.ID()
	}
	return res
}

// Hash returns the bundle hash, the sha256 of its binary encoding.
func (b *SpendBundle) Hash() util.Bytes32 {
	w := io.NewBufBinWriter()
	b.EncodeBinary(w.BinWriter)
	return hash.Sha256(w.Bytes())
}

// EncodeBinary implements the io.Serializable interface.
func (b *SpendBundle) EncodeBinary(w *io.BinWriter) {
	w.WriteVarUint(uint64(len(b.CoinSpends)))
	for i := range b.CoinSpends {
		b.CoinSpends[i].EncodeBinary(w)
	}
	w.WriteVarUint(uint64(len(b.Signatures)))
	for i := range b.Signatures {
		w.WriteVarBytes(b.Signatures[i])
	}
}

// DecodeBinary implements the io.Serializable interface.
func (b *SpendBundle) DecodeBinary(r *io.BinReader) {
	b.CoinSpends = io.ReadArray[CoinSpend](r)
	n := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	if n > io.MaxArraySize {
		r.Err = io.ErrTooBig
		return
	}
	b.Signatures = make([][]byte, n)
	for i := range b.Signatures {
		b.Signatures[i] = r.ReadVarBytes()
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (b SpendBundle) MarshalJSON() ([]byte, error) {
	aux := spendBundleAux{
		CoinSpends: b.CoinSpends,
		Signatures: make([]string, len(b.Signatures)),
	}
	if aux.CoinSpends == nil {
		aux.CoinSpends = []CoinSpend{}
	}
	for i := range b.Signatures {
		aux.Signatures[i] = hex.EncodeToString(b.Signatures[i])
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *SpendBundle) UnmarshalJSON(data []byte) error {
	var aux spendBundleAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.CoinSpends = aux.CoinSpends
	b.Signatures = make([][]byte, len(aux.Signatures))
	for i := range aux.Signatures {
		sig, err := hex.DecodeString(aux.Signatures[i])
		if err != nil {
			return err
		}
		b.Signatures[i] = sig
	}
	return nil
}
