// Package chunk implements the compile-time segmentation of the Groth16
// verifier into taps, the assertion transcript layout, and the runtime
// disprove engine.
package chunk

import (
	"fmt"

	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"
	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"

	"github.com/kysee/bitvm-bridge/bn254"
	"github.com/kysee/bitvm-bridge/hash"
)

// ElementType tags the wire shape a value takes between chunks. A G2Eval
// datum travels under three projections, each with its own hash preimage
// layout.
type ElementType int

const (
	Fp6Type ElementType = iota
	G2EvalPointType
	G2EvalMulType
	G2EvalType
	FieldElemType
	ScalarElemType
	G1Type
)

func (t ElementType) String() string {
	switch t {
	case Fp6Type:
		return "Fp6"
	case G2EvalPointType:
		return "G2EvalPoint"
	case G2EvalMulType:
		return "G2EvalMul"
	case G2EvalType:
		return "G2Eval"
	case FieldElemType:
		return "FieldElem"
	case ScalarElemType:
		return "ScalarElem"
	case G1Type:
		return "G1"
	}
	return fmt.Sprintf("ElementType(%d)", int(t))
}

// HashPreimageFqs is the number of 32-byte slots in the type's hash
// preimage; raw field elements are committed directly and have none.
func (t ElementType) HashPreimageFqs() int {
	switch t {
	case Fp6Type:
		return 6
	case G1Type:
		return 2
	case G2EvalPointType:
		return 4 + 1
	case G2EvalMulType:
		return 14 + 1
	case G2EvalType:
		return 14 + 4 + 1
	default:
		return 0
	}
}

// IsRaw reports whether the value is committed as its own 256-bit image
// rather than through a hash.
func (t ElementType) IsRaw() bool {
	return t == FieldElemType || t == ScalarElemType
}

// ElemG2Eval bundles one dynamic Miller step: the evolved accumulator T
// and the line-evaluation block the step produced.
type ElemG2Eval struct {
	T bn254.G2Point
	// APlusB is the Karatsuba sum hint (a+b) for the sparse line pair.
	APlusB [2]bn254.Fq2
	// AB is 1 + ab*j^2, the cross product folded into Fq6.
	AB bn254.Fq6
	// P2LE is the line evaluated at the second pairing point.
	P2LE [2]bn254.Fq2
}

// HashT hashes the accumulator coordinates.
func (e ElemG2Eval) HashT() hash.Nibbles {
	return hash.HashFqs([]fp.Element{e.T.X.C0, e.T.X.C1, e.T.Y.C0, e.T.Y.C1})
}

// HashLE hashes the line-evaluation block.
func (e ElemG2Eval) HashLE() hash.Nibbles {
	elems := make([]fp.Element, 0, 14)
	for _, v := range e.APlusB {
		elems = append(elems, v.C0, v.C1)
	}
	elems = append(elems, e.AB.Coeffs()...)
	for _, v := range e.P2LE {
		elems = append(elems, v.C0, v.C1)
	}
	return hash.HashFqs(elems)
}

// Element is the tagged runtime value a segment produces.
type Element struct {
	Fp6    *bn254.Fq6
	G1     *bncurve.G1Affine
	U256   *uint256.Int
	G2Eval *ElemG2Eval
}

func ElemFp6(v bn254.Fq6) Element        { return Element{Fp6: &v} }
func ElemG1(v bncurve.G1Affine) Element  { return Element{G1: &v} }
func ElemU256(v *uint256.Int) Element    { return Element{U256: v} }
func ElemEval(v ElemG2Eval) Element      { return Element{G2Eval: &v} }
func ElemFq(v fp.Element) Element        { return Element{U256: bn254.FqToU256(v)} }

// CompressedStateObject is the committed image of an element: a truncated
// digest, or the raw 256-bit value for proof field elements.
type CompressedStateObject struct {
	Hash *hash.Nibbles
	U256 *uint256.Int
}

func (c CompressedStateObject) Equal(o CompressedStateObject) bool {
	switch {
	case c.Hash != nil && o.Hash != nil:
		return *c.Hash == *o.Hash
	case c.U256 != nil && o.U256 != nil:
		return c.U256.Eq(o.U256)
	}
	return false
}

// Serialize packs the state for Winternitz signing: 20 digest bytes or the
// full 32-byte value.
func (c CompressedStateObject) Serialize() []byte {
	if c.Hash != nil {
		t := c.Hash.TruncBytes()
		return t[:]
	}
	b := c.U256.Bytes32()
	return b[:]
}

// DeserializeState is the inverse of Serialize.
func DeserializeState(b []byte) (CompressedStateObject, error) {
	switch len(b) {
	case hash.TruncLen:
		var t [hash.TruncLen]byte
		copy(t[:], b)
		n := hash.NibblesFromTrunc(t)
		return CompressedStateObject{Hash: &n}, nil
	case 32:
		v := new(uint256.Int).SetBytes32(b)
		return CompressedStateObject{U256: v}, nil
	}
	return CompressedStateObject{}, fmt.Errorf("chunk: state object of %d bytes", len(b))
}

// ToHash compresses the element under the given wire type.
func (e Element) ToHash(t ElementType) (CompressedStateObject, error) {
	switch {
	case t.IsRaw():
		if e.U256 == nil {
			return CompressedStateObject{}, typeMismatch(t, e)
		}
		return CompressedStateObject{U256: e.U256}, nil
	case t == Fp6Type:
		if e.Fp6 == nil {
			return CompressedStateObject{}, typeMismatch(t, e)
		}
		h := hash.HashFqs(e.Fp6.Coeffs())
		return CompressedStateObject{Hash: &h}, nil
	case t == G1Type:
		if e.G1 == nil {
			return CompressedStateObject{}, typeMismatch(t, e)
		}
		h := hash.HashFqs([]fp.Element{e.G1.X, e.G1.Y})
		return CompressedStateObject{Hash: &h}, nil
	case t == G2EvalPointType || t == G2EvalMulType || t == G2EvalType:
		if e.G2Eval == nil {
			return CompressedStateObject{}, typeMismatch(t, e)
		}
		h := hash.HashNibbleBlocks([]hash.Nibbles{e.G2Eval.HashT(), e.G2Eval.HashLE()})
		return CompressedStateObject{Hash: &h}, nil
	}
	return CompressedStateObject{}, fmt.Errorf("chunk: unhandled element type %s", t)
}

// PreimageFqs returns the hash-preimage slots of the element under the
// projection t, in stack order bottom to top. Slots holding a nested hash
// come back as nil with the digest in hashes.
func (e Element) PreimageFqs(t ElementType) (elems []fp.Element, hashes []hash.Nibbles, err error) {
	switch t {
	case Fp6Type:
		if e.Fp6 == nil {
			return nil, nil, typeMismatch(t, e)
		}
		return e.Fp6.Coeffs(), nil, nil
	case G1Type:
		if e.G1 == nil {
			return nil, nil, typeMismatch(t, e)
		}
		return []fp.Element{e.G1.X, e.G1.Y}, nil, nil
	case G2EvalPointType:
		if e.G2Eval == nil {
			return nil, nil, typeMismatch(t, e)
		}
		g := e.G2Eval
		return []fp.Element{g.T.X.C0, g.T.X.C1, g.T.Y.C0, g.T.Y.C1},
			[]hash.Nibbles{g.HashLE()}, nil
	case G2EvalMulType:
		if e.G2Eval == nil {
			return nil, nil, typeMismatch(t, e)
		}
		g := e.G2Eval
		elems = make([]fp.Element, 0, 14)
		for _, v := range g.APlusB {
			elems = append(elems, v.C0, v.C1)
		}
		elems = append(elems, g.AB.Coeffs()...)
		for _, v := range g.P2LE {
			elems = append(elems, v.C0, v.C1)
		}
		return elems, []hash.Nibbles{g.HashT()}, nil
	case G2EvalType:
		if e.G2Eval == nil {
			return nil, nil, typeMismatch(t, e)
		}
		g := e.G2Eval
		elems = []fp.Element{g.T.X.C0, g.T.X.C1, g.T.Y.C0, g.T.Y.C1}
		for _, v := range g.APlusB {
			elems = append(elems, v.C0, v.C1)
		}
		elems = append(elems, g.AB.Coeffs()...)
		for _, v := range g.P2LE {
			elems = append(elems, v.C0, v.C1)
		}
		return elems, []hash.Nibbles{g.HashLE()}, nil
	case FieldElemType, ScalarElemType:
		if e.U256 == nil {
			return nil, nil, typeMismatch(t, e)
		}
		return []fp.Element{bn254.FqFromU256(e.U256)}, nil, nil
	}
	return nil, nil, fmt.Errorf("chunk: unhandled element type %s", t)
}

func typeMismatch(t ElementType, e Element) error {
	return fmt.Errorf("%w: projection %s over %s", ErrElementTypeMismatch, t, e.kind())
}

func (e Element) kind() string {
	switch {
	case e.Fp6 != nil:
		return "Fp6Data"
	case e.G1 != nil:
		return "G1Data"
	case e.U256 != nil:
		return "U256Data"
	case e.G2Eval != nil:
		return "G2EvalData"
	}
	return "Empty"
}

// U256OfFr converts a scalar to its committed integer image.
func U256OfFr(v fr.Element) *uint256.Int { return bn254.FrToU256(v) }
