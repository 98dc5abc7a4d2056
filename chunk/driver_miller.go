package chunk

import (
	"fmt"

	"github.com/kysee/bitvm-bridge/bn254"
	"github.com/kysee/bitvm-bridge/scripts"
)

// addRatioProduct emits one ratio-form product acc*other as two taps: the
// committed cross product P = acc*other (a plain Fq6 identity), then the
// finishing tap binding the result through m + Q == acc + other with the
// numerator Q hinted in the witness. Splitting keeps both taps inside the
// weight budget.
func (d *driver) addRatioProduct(
	name string,
	st ScriptType,
	fID int,
	acc, other bn254.Fq6,
	otherParams []ParamRef,
	pushOther func(*scripts.Builder),
) (bn254.Fq6, int, error) {
	p := acc.Mul(other)
	pParams := append([]ParamRef{{fID, Fp6Type}}, otherParams...)
	pID, err := d.add(Segment{
		Name:       name + "_p",
		Type:       st,
		Params:     pParams,
		Result:     ElemFp6(p),
		ResultType: Fp6Type,
		Scr: d.tap(st, pParams, Fp6Type, func(b *scripts.Builder) {
			if pushOther != nil {
				pushOther(b)
			}
			fq6MulVerify(b)
		}),
	})
	if err != nil {
		return acc, 0, err
	}

	m, err := bn254.RatioMul(acc, other)
	if err != nil {
		return acc, 0, fmt.Errorf("chunk: %s: %w", name, err)
	}
	rParams := append([]ParamRef{{fID, Fp6Type}}, otherParams...)
	rParams = append(rParams, ParamRef{pID, Fp6Type})
	rID, err := d.add(Segment{
		Name:       name,
		Type:       st,
		Params:     rParams,
		Result:     ElemFp6(m),
		ResultType: Fp6Type,
		Scr: d.tap(st, rParams, Fp6Type, func(b *scripts.Builder) {
			if pushOther != nil {
				pushOther(b)
			}
			ratioMulFinishVerify(b)
		}),
	})
	if err != nil {
		return acc, 0, err
	}
	return m, rID, nil
}

// millerLoop drives the re-parameterized ATE loop: F accumulates the line
// evaluations interleaved with the residue-witness powers, T4 walks the
// dynamic pair. Returns the ids of the final F and T4 segments.
func (d *driver) millerLoop(ids inputIDs, msmID, fID, cRatioID, cInvRatioID int) (int, int, error) {
	// T4 starts at Q4.
	t4 := ElemG2Eval{T: d.in.Q4}
	t4Params := []ParamRef{
		{ids.q4[0], FieldElemType}, {ids.q4[1], FieldElemType},
		{ids.q4[2], FieldElemType}, {ids.q4[3], FieldElemType},
	}
	t4ID, err := d.add(Segment{
		Name:       "T4Init",
		Type:       PreMillerScript,
		Params:     t4Params,
		Result:     ElemEval(t4),
		ResultType: G2EvalPointType,
		Scr: d.tap(PreMillerScript, t4Params, G2EvalPointType, func(b *scripts.Builder) {
			tapT4Init(b)
		}),
	})
	if err != nil {
		return 0, 0, err
	}

	f := d.segs[fID].Result.Fp6
	if f == nil {
		return 0, 0, fmt.Errorf("chunk: miller loop seeded with a non-Fp6 segment")
	}
	acc := *f

	digits := bn254.AteLoopDigits()
	for i := len(digits) - 2; i >= 0; i-- {
		// Square the accumulator: a ratio product with itself.
		acc, fID, err = d.addRatioProduct(
			fmt.Sprintf("Sqr_F_i%d", i), MillerScript, fID, acc, acc, nil, nil)
		if err != nil {
			return 0, 0, err
		}

		// Tangent step on T4 plus the two fixed tangents.
		t4, fID, t4ID, acc, err = d.lineStep(fmt.Sprintf("i%d", i), t4, t4ID, fID, acc, msmID, ids, stepDouble)
		if err != nil {
			return 0, 0, err
		}

		if digits[i] != 0 {
			step := stepAddQ
			if digits[i] == -1 {
				step = stepAddNegQ
			}
			t4, fID, t4ID, acc, err = d.lineStep(fmt.Sprintf("i%d_add", i), t4, t4ID, fID, acc, msmID, ids, step)
			if err != nil {
				return 0, 0, err
			}

			// Residue-witness interleave: c_inv on +1, c on -1.
			mulID := cInvRatioID
			name := fmt.Sprintf("Mul_F_by_c_inv_i%d", i)
			if digits[i] == -1 {
				mulID = cRatioID
				name = fmt.Sprintf("Mul_F_by_c_i%d", i)
			}
			other := *d.segs[mulID].Result.Fp6
			acc, fID, err = d.addRatioProduct(name, MillerScript, fID, acc, other,
				[]ParamRef{{mulID, Fp6Type}}, nil)
			if err != nil {
				return 0, 0, err
			}
		}
	}
	return fID, t4ID, nil
}

type lineStepKind int

const (
	stepDouble lineStepKind = iota
	stepAddQ
	stepAddNegQ
	stepAddPsi
	stepAddPsi2
)

// lineStep performs one tangent or chord step of the dynamic pair and the
// matching fixed-base line folds: the point op becomes a G2EvalPoint
// segment, each line fold a split ratio product.
func (d *driver) lineStep(tag string, t4 ElemG2Eval, t4ID, fID int, acc bn254.Fq6, msmID int, ids inputIDs, kind lineStepKind) (ElemG2Eval, int, int, bn254.Fq6, error) {
	var hint bn254.G2LineHint
	var err error
	var name string
	switch kind {
	case stepDouble:
		hint, err = bn254.G2Double(t4.T)
		name = "Dbl_T_p4_" + tag
	case stepAddQ:
		hint, err = bn254.G2Add(t4.T, d.in.Q4)
		name = "DblAdd_T_p4_" + tag
	case stepAddNegQ:
		hint, err = bn254.G2Add(t4.T, d.in.Q4.Neg())
		name = "DblAdd_T_p4_" + tag
	case stepAddPsi:
		hint, err = bn254.G2Add(t4.T, d.in.Q4.Psi())
		name = "Frob_Add_T_p4_" + tag
	case stepAddPsi2:
		hint, err = bn254.G2Add(t4.T, d.in.Q4.Psi2().Neg())
		name = "Frob_Add_T_p4_" + tag
	}
	if err != nil {
		return t4, 0, 0, acc, fmt.Errorf("chunk: %s: %w", name, err)
	}

	// Dynamic line at P4, fixed lines at P2 and P3.
	l4 := bn254.LineFunc{Alpha: hint.Alpha, NegBeta: hint.NegBeta}
	r4, err := bn254.LineRatio(l4, d.in.P4.X, d.in.P4.Y)
	if err != nil {
		return t4, 0, 0, acc, fmt.Errorf("chunk: %s line at p4: %w", name, err)
	}
	l2 := d.prep.Q2Lines[d.lineIdx]
	l3 := d.prep.Q3Lines[d.lineIdx]
	r2, err := bn254.LineRatio(l2, d.in.P2.X, d.in.P2.Y)
	if err != nil {
		return t4, 0, 0, acc, fmt.Errorf("chunk: %s line at p2: %w", name, err)
	}
	p3 := d.segs[msmID].Result.G1
	r3, err := bn254.LineRatio(l3, p3.X, p3.Y)
	if err != nil {
		return t4, 0, 0, acc, fmt.Errorf("chunk: %s line at p3: %w", name, err)
	}
	d.lineIdx++

	// The evaluation block commits the dynamic line's Karatsuba pieces
	// and the P2 evaluation beside the evolved accumulator.
	next := ElemG2Eval{
		T:      hint.Out,
		APlusB: [2]bn254.Fq2{r4.B0, r4.B1},
		AB:     bn254.Fq6One().Add(r4.Square().MulByNonResidue()),
		P2LE:   [2]bn254.Fq2{r2.B0, r2.B1},
	}

	pointParams := []ParamRef{
		{t4ID, G2EvalPointType},
		{ids.p4x, FieldElemType}, {ids.p4y, FieldElemType},
	}
	if kind != stepDouble {
		pointParams = append(pointParams,
			ParamRef{ids.q4[0], FieldElemType}, ParamRef{ids.q4[1], FieldElemType},
			ParamRef{ids.q4[2], FieldElemType}, ParamRef{ids.q4[3], FieldElemType})
	}
	chord := kind != stepDouble
	newT4ID, err := d.add(Segment{
		Name:       name,
		Type:       MillerScript,
		Params:     pointParams,
		Result:     ElemEval(next),
		ResultType: G2EvalPointType,
		Scr: d.tap(MillerScript, pointParams, G2EvalPointType, func(b *scripts.Builder) {
			if chord {
				bn254.G2ChordVerify(b)
			} else {
				bn254.G2TangentVerify(b)
			}
			tapLineBlockHash(b)
		}),
	})
	if err != nil {
		return t4, 0, 0, acc, err
	}

	// Fold the three lines, one split ratio product each.
	folds := []struct {
		suffix string
		ratio  bn254.Fq6
		params []ParamRef
		push   func(*scripts.Builder)
	}{
		{"le4", r4, []ParamRef{{newT4ID, G2EvalMulType}}, nil},
		{"le2", r2, []ParamRef{{ids.p2x, FieldElemType}, {ids.p2y, FieldElemType}},
			func(b *scripts.Builder) {
				bn254.Fq2Push(b, l2.Alpha)
				bn254.Fq2Push(b, l2.NegBeta)
			}},
		{"le3", r3, []ParamRef{{msmID, G1Type}},
			func(b *scripts.Builder) {
				bn254.Fq2Push(b, l3.Alpha)
				bn254.Fq2Push(b, l3.NegBeta)
			}},
	}
	for _, fold := range folds {
		acc, fID, err = d.addRatioProduct(
			fmt.Sprintf("SS_%s_%s", tag, fold.suffix), MillerScript,
			fID, acc, fold.ratio, fold.params, fold.push)
		if err != nil {
			return t4, 0, 0, acc, err
		}
	}
	return next, fID, newT4ID, acc, nil
}

// postMiller folds the residue-witness Frobenius powers, wi, the baked
// p1q1 product, and the two Frobenius chord steps.
func (d *driver) postMiller(ids inputIDs, msmID, fID, t4ID int) (int, error) {
	cInv := d.in.CInv

	frobs := []struct {
		name   string
		coeffs [12]int
		value  bn254.Fq12
	}{
		{"Frob_CInv_p", ids.cInv, cInv.Frobenius(1)},
		{"Frob_C_p2", ids.c, d.in.C.Frobenius(2)},
		{"Frob_CInv_p3", ids.cInv, cInv.Frobenius(3)},
		{"Hash_Wi", ids.w, d.in.Wi},
	}

	acc := *d.segs[fID].Result.Fp6
	for _, frb := range frobs {
		ratio, err := bn254.RatioFromFq12(frb.value)
		if err != nil {
			return 0, fmt.Errorf("chunk: %s has no ratio form: %w", frb.name, err)
		}
		params := make([]ParamRef, 12)
		for i, id := range frb.coeffs {
			params[i] = ParamRef{id, FieldElemType}
		}
		ratioID, err := d.add(Segment{
			Name:       frb.name,
			Type:       PostMillerScript,
			Params:     params,
			Result:     ElemFp6(ratio),
			ResultType: Fp6Type,
			Scr: d.tap(PostMillerScript, params, Fp6Type, func(b *scripts.Builder) {
				fq6MulVerify(b)
			}),
		})
		if err != nil {
			return 0, err
		}

		acc, fID, err = d.addRatioProduct("Mul_F_"+frb.name, PostMillerScript,
			fID, acc, ratio, []ParamRef{{ratioID, Fp6Type}}, nil)
		if err != nil {
			return 0, err
		}
	}

	// The folded alpha/-beta pair enters once, as a baked constant.
	p1q1 := d.prep.P1Q1Ratio
	var err error
	acc, fID, err = d.addRatioProduct("Mul_F_P1Q1", PostMillerScript,
		fID, acc, p1q1, nil, func(b *scripts.Builder) {
			bn254.Fq6Push(b, p1q1)
		})
	if err != nil {
		return 0, err
	}

	// Frobenius chord steps close the dynamic pair's walk.
	t4 := *d.segs[t4ID].Result.G2Eval
	t4, fID, t4ID, acc, err = d.lineStep("frob1", t4, t4ID, fID, acc, msmID, ids, stepAddPsi)
	if err != nil {
		return 0, err
	}
	_, fID, _, _, err = d.lineStep("frob2", t4, t4ID, fID, acc, msmID, ids, stepAddPsi2)
	if err != nil {
		return 0, err
	}
	return fID, nil
}

// finalVerify emits ChunkFinalVerify: the tap that succeeds only when the
// accumulated F differs from one, exposing an invalid assertion chain.
func (d *driver) finalVerify(fID int) error {
	params := []ParamRef{{fID, Fp6Type}}
	_, err := d.add(Segment{
		Name:   "ChunkFinalVerify",
		Type:   FinalScript,
		Params: params,
		Scr: d.tap(FinalScript, params, 0, func(b *scripts.Builder) {
			tapFNotOneFinal(b)
		}),
	})
	return err
}
