package puzzle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/io"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// MetadataKind is the URI list an NFT metadata update is applied to.
type MetadataKind byte

// Metadata URI lists.
const (
	MetadataDataURI MetadataKind = iota
	MetadataMetaURI
	MetadataLicenseURI
)

// MaxURIs is the maximum number of URIs in one metadata list.
const MaxURIs = 64

// ErrInvalidArgs is returned when curried arguments can't be parsed into a
// layer state.
var ErrInvalidArgs = errors.New("invalid layer arguments")

// MetadataUpdate prepends URI to one of NFT metadata URI lists.
type MetadataUpdate struct {
	Kind MetadataKind
	URI  string
}

// NftMetadata is the standard NFT metadata.
type NftMetadata struct {
	EditionNumber uint64        `yaml:"EditionNumber"`
	EditionTotal  uint64        `yaml:"EditionTotal"`
	DataURIs      []string      `yaml:"DataURIs"`
	DataHash      *util.Bytes32 `yaml:"DataHash"`
	MetadataURIs  []string      `yaml:"MetadataURIs"`
	MetadataHash  *util.Bytes32 `yaml:"MetadataHash"`
	LicenseURIs   []string      `yaml:"LicenseURIs"`
	LicenseHash   *util.Bytes32 `yaml:"LicenseHash"`
}

// NftState is the state curried into the NFT state layer.
type NftState struct {
	Metadata          NftMetadata
	MetadataUpdaterPH util.Bytes32
	// Owner is the launcher id of the owner DID, nil if not owned.
	Owner      *util.Bytes32
	RoyaltyPH  util.Bytes32
	RoyaltyBps uint16
}

// DidState is the state curried into the DID layer.
type DidState struct {
	RecoveryListHash         *util.Bytes32
	NumVerificationsRequired uint64
	Metadata                 []byte
}

// OptionState is the state curried into the option contract layer, it
// binds the option singleton to its underlying coin.
type OptionState struct {
	UnderlyingCoinID util.Bytes32
}

// OptionTerms are curried into the underlying coin puzzle. The underlying
// can be claimed only while the option singleton (LauncherID) is melted
// and the strike is paid to the creator before Expiration.
type OptionTerms struct {
	LauncherID    util.Bytes32
	CreatorPH     util.Bytes32
	Expiration    uint64
	StrikeAssetID *util.Bytes32
	StrikeAmount  uint64
}

// LauncherSolution is the solution of a singleton launcher coin. Info is an
// opaque description of the launched singleton for observers of the
// ledger.
type LauncherSolution struct {
	SingletonPuzzleHash util.Bytes32
	Amount              uint64
	Info                []byte
}

// Apply returns a copy of the metadata with the update applied.
func (m NftMetadata) Apply(u MetadataUpdate) (NftMetadata, error) {
	var list *[]string
	switch u.Kind {
	case MetadataDataURI:
		list = &m.DataURIs
	case MetadataMetaURI:
		list = &m.MetadataURIs
	case MetadataLicenseURI:
		list = &m.LicenseURIs
	default:
		return m, fmt.Errorf("unknown metadata kind %d", u.Kind)
	}
	if u.URI == "" {
		return m, errors.New("empty metadata URI")
	}
	*list = append([]string{u.URI}, *list...)
	return m, nil
}

// Bytes returns the serialized metadata.
func (m NftMetadata) Bytes() []byte {
	w := io.NewBufBinWriter()
	m.encode(w.BinWriter)
	return w.Bytes()
}

func (m NftMetadata) encode(w *io.BinWriter) {
	w.WriteU64BE(m.EditionNumber)
	w.WriteU64BE(m.EditionTotal)
	for _, l := range []struct {
		uris []string
		hash *util.Bytes32
	}{{m.DataURIs, m.DataHash}, {m.MetadataURIs, m.MetadataHash}, {m.LicenseURIs, m.LicenseHash}} {
		w.WriteVarUint(uint64(len(l.uris)))
		for _, s := range l.uris {
			w.WriteString(s)
		}
		writeOptional(w, l.hash)
	}
}

func (m *NftMetadata) decode(r *io.BinReader) {
	m.EditionNumber = r.ReadU64BE()
	m.EditionTotal = r.ReadU64BE()
	for _, l := range []struct {
		uris *[]string
		hash **util.Bytes32
	}{{&m.DataURIs, &m.DataHash}, {&m.MetadataURIs, &m.MetadataHash}, {&m.LicenseURIs, &m.LicenseHash}} {
		n := r.ReadVarUint()
		if n > MaxURIs {
			r.Err = fmt.Errorf("too many URIs: %d", n)
			return
		}
		*l.uris = nil
		for i := uint64(0); i < n; i++ {
			*l.uris = append(*l.uris, r.ReadString())
		}
		*l.hash = readOptional(r)
	}
}

// DecodeNftMetadata deserializes metadata.
func DecodeNftMetadata(b []byte) (NftMetadata, error) {
	var (
		m NftMetadata
		r = io.NewBinReaderFromBuf(b)
	)
	m.decode(r)
	if r.Err == nil && r.Len() != 0 {
		r.Err = errors.New("trailing data")
	}
	return m, r.Err
}

func optionalBytes(u *util.Bytes32) []byte {
	if u == nil {
		return []byte{}
	}
	return u.BytesBE()
}

func parseOptional(b []byte) (*util.Bytes32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	u, err := util.Bytes32DecodeBytes(b)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func u64Bytes(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func parseU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: expected 8 bytes integer", ErrInvalidArgs)
	}
	return binary.BigEndian.Uint64(b), nil
}

// Args returns the curried arguments of the NFT state layer.
func (s NftState) Args() [][]byte {
	return [][]byte{
		s.Metadata.Bytes(),
		s.MetadataUpdaterPH.BytesBE(),
		optionalBytes(s.Owner),
		s.RoyaltyPH.BytesBE(),
		binary.BigEndian.AppendUint16(nil, s.RoyaltyBps),
	}
}

// ParseNftState restores the state from curried arguments.
func ParseNftState(args [][]byte) (NftState, error) {
	var (
		s   NftState
		err error
	)
	if len(args) != 5 || len(args[4]) != 2 {
		return s, fmt.Errorf("%w: nft state", ErrInvalidArgs)
	}
	if s.Metadata, err = DecodeNftMetadata(args[0]); err != nil {
		return s, fmt.Errorf("%w: metadata: %v", ErrInvalidArgs, err)
	}
	if s.MetadataUpdaterPH, err = util.Bytes32DecodeBytes(args[1]); err != nil {
		return s, fmt.Errorf("%w: updater: %v", ErrInvalidArgs, err)
	}
	if s.Owner, err = parseOptional(args[2]); err != nil {
		return s, fmt.Errorf("%w: owner: %v", ErrInvalidArgs, err)
	}
	if s.RoyaltyPH, err = util.Bytes32DecodeBytes(args[3]); err != nil {
		return s, fmt.Errorf("%w: royalty: %v", ErrInvalidArgs, err)
	}
	s.RoyaltyBps = binary.BigEndian.Uint16(args[4])
	return s, nil
}

// Args returns the curried arguments of the DID layer.
func (s DidState) Args() [][]byte {
	return [][]byte{
		optionalBytes(s.RecoveryListHash),
		u64Bytes(s.NumVerificationsRequired),
		s.Metadata,
	}
}

// ParseDidState restores the state from curried arguments.
func ParseDidState(args [][]byte) (DidState, error) {
	var (
		s   DidState
		err error
	)
	if len(args) != 3 {
		return s, fmt.Errorf("%w: did state", ErrInvalidArgs)
	}
	if s.RecoveryListHash, err = parseOptional(args[0]); err != nil {
		return s, fmt.Errorf("%w: recovery: %v", ErrInvalidArgs, err)
	}
	if s.NumVerificationsRequired, err = parseU64(args[1]); err != nil {
		return s, err
	}
	s.Metadata = args[2]
	return s, nil
}

func (s DidState) encode(w *io.BinWriter) {
	writeOptional(w, s.RecoveryListHash)
	w.WriteU64BE(s.NumVerificationsRequired)
	w.WriteVarBytes(s.Metadata)
}

func (s *DidState) decode(r *io.BinReader) {
	s.RecoveryListHash = readOptional(r)
	s.NumVerificationsRequired = r.ReadU64BE()
	s.Metadata = r.ReadVarBytes()
}

// Args returns the curried arguments of the option contract layer.
func (s OptionState) Args() [][]byte {
	return [][]byte{s.UnderlyingCoinID.BytesBE()}
}

// ParseOptionState restores the state from curried arguments.
func ParseOptionState(args [][]byte) (OptionState, error) {
	var s OptionState
	if len(args) != 1 {
		return s, fmt.Errorf("%w: option state", ErrInvalidArgs)
	}
	id, err := util.Bytes32DecodeBytes(args[0])
	if err != nil {
		return s, fmt.Errorf("%w: underlying: %v", ErrInvalidArgs, err)
	}
	s.UnderlyingCoinID = id
	return s, nil
}

// Args returns the curried arguments of the option underlying puzzle.
func (t OptionTerms) Args() [][]byte {
	return [][]byte{
		t.LauncherID.BytesBE(),
		t.CreatorPH.BytesBE(),
		u64Bytes(t.Expiration),
		optionalBytes(t.StrikeAssetID),
		u64Bytes(t.StrikeAmount),
	}
}

// ParseOptionTerms restores the terms from curried arguments.
func ParseOptionTerms(args [][]byte) (OptionTerms, error) {
	var (
		t   OptionTerms
		err error
	)
	if len(args) != 5 {
		return t, fmt.Errorf("%w: option terms", ErrInvalidArgs)
	}
	if t.LauncherID, err = util.Bytes32DecodeBytes(args[0]); err != nil {
		return t, fmt.Errorf("%w: launcher: %v", ErrInvalidArgs, err)
	}
	if t.CreatorPH, err = util.Bytes32DecodeBytes(args[1]); err != nil {
		return t, fmt.Errorf("%w: creator: %v", ErrInvalidArgs, err)
	}
	if t.Expiration, err = parseU64(args[2]); err != nil {
		return t, err
	}
	if t.StrikeAssetID, err = parseOptional(args[3]); err != nil {
		return t, fmt.Errorf("%w: strike asset: %v", ErrInvalidArgs, err)
	}
	if t.StrikeAmount, err = parseU64(args[4]); err != nil {
		return t, err
	}
	return t, nil
}

// StrikePuzzleHash returns the puzzle hash the strike must be paid to.
func (t OptionTerms) StrikePuzzleHash(c *Constants) util.Bytes32 {
	if t.StrikeAssetID == nil {
		return t.CreatorPH
	}
	return CatPuzzleHash(c, *t.StrikeAssetID, t.CreatorPH)
}

// Bytes returns the serialized launcher solution.
func (s LauncherSolution) Bytes() []byte {
	w := io.NewBufBinWriter()
	w.WriteBytes(s.SingletonPuzzleHash[:])
	w.WriteU64BE(s.Amount)
	w.WriteVarBytes(s.Info)
	return w.Bytes()
}

// DecodeLauncherSolution deserializes the launcher solution.
func DecodeLauncherSolution(b []byte) (LauncherSolution, error) {
	var (
		s LauncherSolution
		r = io.NewBinReaderFromBuf(b)
	)
	r.ReadBytes(s.SingletonPuzzleHash[:])
	s.Amount = r.ReadU64BE()
	s.Info = r.ReadVarBytes()
	if r.Err == nil && r.Len() != 0 {
		r.Err = errors.New("trailing data")
	}
	if r.Err != nil {
		return s, fmt.Errorf("invalid launcher solution: %w", r.Err)
	}
	return s, nil
}
