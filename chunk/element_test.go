package chunk

import (
	"testing"

	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/kysee/bitvm-bridge/bn254"
	"github.com/kysee/bitvm-bridge/hash"
)

func TestCompressedStateSerializeRoundTrip(t *testing.T) {
	// Hash form: 20 bytes.
	var elem fp.Element
	elem.SetUint64(77)
	h := hash.HashFqs([]fp.Element{elem})
	st := CompressedStateObject{Hash: &h}
	raw := st.Serialize()
	require.Len(t, raw, hash.TruncLen)
	back, err := DeserializeState(raw)
	require.NoError(t, err)
	require.True(t, st.Equal(back))

	// Raw form: 32 bytes.
	v := uint256.NewInt(1 << 40)
	st = CompressedStateObject{U256: v}
	raw = st.Serialize()
	require.Len(t, raw, 32)
	back, err = DeserializeState(raw)
	require.NoError(t, err)
	require.True(t, st.Equal(back))

	_, err = DeserializeState(make([]byte, 21))
	require.Error(t, err)
}

func TestElementProjections(t *testing.T) {
	var e ElemG2Eval
	e.T.X.C0.SetUint64(2)
	e.T.Y.C0.SetUint64(3)
	e.APlusB[0].C0.SetUint64(4)
	e.AB = bn254.Fq6One()
	e.P2LE[1].C1.SetUint64(5)

	el := ElemEval(e)

	// The three projections expose different preimages over the same
	// datum but an identical pair digest.
	for _, ty := range []ElementType{G2EvalPointType, G2EvalMulType, G2EvalType} {
		elems, hashes, err := el.PreimageFqs(ty)
		require.NoError(t, err)
		require.Equal(t, ty.HashPreimageFqs(), len(elems)+len(hashes), "type %s", ty)
	}
	h1, err := el.ToHash(G2EvalPointType)
	require.NoError(t, err)
	h2, err := el.ToHash(G2EvalMulType)
	require.NoError(t, err)
	require.True(t, h1.Equal(h2))

	// Projection over the wrong payload fails.
	_, err = ElemU256(uint256.NewInt(1)).ToHash(Fp6Type)
	require.ErrorIs(t, err, ErrElementTypeMismatch)
}

func TestElementRawCommitment(t *testing.T) {
	v := uint256.NewInt(123456789)
	st, err := ElemU256(v).ToHash(FieldElemType)
	require.NoError(t, err)
	require.NotNil(t, st.U256)
	require.True(t, v.Eq(st.U256))
}
