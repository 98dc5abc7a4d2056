package groth16

import (
	"errors"
	"fmt"
	"math/big"

	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	gnarkgroth16 "github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"github.com/kysee/bitvm-bridge/bn254"
)

var ErrCurveMismatch = errors.New("groth16: verifying key is not on bn254")

// VerifyingKey is the subset of a Groth16 key the chunker consumes.
type VerifyingKey struct {
	Alpha bncurve.G1Affine
	Beta  bncurve.G2Affine
	Gamma bncurve.G2Affine
	Delta bncurve.G2Affine
	// K is gamma_abc_g1: vky0 followed by one basis point per public
	// input.
	K []bncurve.G1Affine
}

// Proof is a BN254 Groth16 proof.
type Proof struct {
	A bncurve.G1Affine
	B bncurve.G2Affine
	C bncurve.G1Affine
}

// RawProof bundles a proof with its public inputs, the shape the disprove
// engine replays.
type RawProof struct {
	Proof   Proof
	Publics []fr.Element
}

// VkFromGnark adapts a gnark verifying key.
func VkFromGnark(vk gnarkgroth16.VerifyingKey) (VerifyingKey, error) {
	cvk, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return VerifyingKey{}, ErrCurveMismatch
	}
	out := VerifyingKey{
		Alpha: cvk.G1.Alpha,
		Beta:  cvk.G2.Beta,
		Gamma: cvk.G2.Gamma,
		Delta: cvk.G2.Delta,
		K:     append([]bncurve.G1Affine(nil), cvk.G1.K...),
	}
	return out, nil
}

// ProofFromGnark adapts a gnark proof.
func ProofFromGnark(proof gnarkgroth16.Proof) (Proof, error) {
	cp, ok := proof.(*groth16bn254.Proof)
	if !ok {
		return Proof{}, ErrCurveMismatch
	}
	return Proof{A: cp.Ar, B: cp.Bs, C: cp.Krs}, nil
}

// Prepared carries every compile-time constant the segment driver bakes
// into taps: the negated key points, their full ATE line coefficient
// tables, the folded alpha/-beta Miller product, and the MSM window
// tables.
type Prepared struct {
	// Q1 pairs with alpha and is fully folded into P1Q1Ratio; Q2 pairs
	// with proof C, Q3 with the MSM output.
	Q1, Q2, Q3 bn254.G2Point

	// P1Q1Ratio is miller(alpha, -beta) in ratio form; the only piece of
	// the constant pair that enters the loop.
	P1Q1Ratio bn254.Fq6

	Q2Lines []bn254.LineFunc
	Q3Lines []bn254.LineFunc

	Vky0   bncurve.G1Affine
	Bases  []bncurve.G1Affine
	Tables [][]bncurve.G1Affine
}

// NumPublics is the public-input count bound to the key.
func (p *Prepared) NumPublics() int { return len(p.Bases) }

// Prepare derives all compile-time constants from vk.
func Prepare(vk VerifyingKey) (*Prepared, error) {
	if len(vk.K) < 2 {
		return nil, fmt.Errorf("groth16: key carries no public-input basis")
	}

	var q1aff, q2aff, q3aff bncurve.G2Affine
	q1aff.Neg(&vk.Beta)
	q2aff.Neg(&vk.Delta)
	q3aff.Neg(&vk.Gamma)

	out := &Prepared{
		Q1:   bn254.G2FromAffine(q1aff),
		Q2:   bn254.G2FromAffine(q2aff),
		Q3:   bn254.G2FromAffine(q3aff),
		Vky0: vk.K[0],
	}

	// The alpha/-beta pair is constant: fold its whole Miller value.
	f, err := bncurve.MillerLoop(
		[]bncurve.G1Affine{vk.Alpha},
		[]bncurve.G2Affine{q1aff},
	)
	if err != nil {
		return nil, fmt.Errorf("groth16: folding p1q1: %w", err)
	}
	out.P1Q1Ratio, err = bn254.RatioFromFq12(bn254.Fq12FromGT(f))
	if err != nil {
		return nil, fmt.Errorf("groth16: p1q1 has no ratio form: %w", err)
	}

	if out.Q2Lines, err = bn254.EllCoeffs(out.Q2); err != nil {
		return nil, fmt.Errorf("groth16: q2 line table: %w", err)
	}
	if out.Q3Lines, err = bn254.EllCoeffs(out.Q3); err != nil {
		return nil, fmt.Errorf("groth16: q3 line table: %w", err)
	}

	out.Bases = append([]bncurve.G1Affine(nil), vk.K[1:]...)
	out.Tables = make([][]bncurve.G1Affine, len(out.Bases))
	for i, base := range out.Bases {
		out.Tables[i] = windowTable(base)
	}
	return out, nil
}

// windowTable returns [0]base .. [15]base for the 4-bit MSM windows.
func windowTable(base bncurve.G1Affine) []bncurve.G1Affine {
	table := make([]bncurve.G1Affine, 1<<MSMWindowBits)
	for j := 1; j < len(table); j++ {
		table[j].ScalarMultiplication(&base, big.NewInt(int64(j)))
	}
	return table
}

// MSM evaluates vky0 + sum ks_i * bases_i, the pairing input P3.
func (p *Prepared) MSM(publics []fr.Element) (bncurve.G1Affine, error) {
	if len(publics) != len(p.Bases) {
		return bncurve.G1Affine{}, fmt.Errorf("groth16: %d public inputs against %d bases", len(publics), len(p.Bases))
	}
	acc := p.Vky0
	for i := range publics {
		var term, sum bncurve.G1Affine
		var k big.Int
		publics[i].BigInt(&k)
		term.ScalarMultiplication(&p.Bases[i], &k)
		sum.Add(&acc, &term)
		acc = sum
	}
	return acc, nil
}

// ValidProof checks the proof off-chain against the pairing equation; the
// disprove engine refuses to target a transcript backed by a valid proof.
func ValidProof(vk VerifyingKey, raw RawProof) (bool, error) {
	prep, err := Prepare(vk)
	if err != nil {
		return false, err
	}
	p3, err := prep.MSM(raw.Publics)
	if err != nil {
		return false, err
	}

	var q1, q2, q3 bncurve.G2Affine
	q1.Neg(&vk.Beta)
	q2.Neg(&vk.Delta)
	q3.Neg(&vk.Gamma)

	f, err := bncurve.MillerLoop(
		[]bncurve.G1Affine{vk.Alpha, raw.Proof.C, p3, raw.Proof.A},
		[]bncurve.G2Affine{q1, q2, q3, raw.Proof.B},
	)
	if err != nil {
		return false, err
	}
	// Valid iff the Miller output is an r-th residue.
	h := new(big.Int).Div(exp12(), bn254.RBig())
	return bn254.Fq12FromGT(f).Exp(h).Equal(bn254.Fq12One()), nil
}
