package chunk

import (
	"fmt"

	bncurve "github.com/consensys/gnark-crypto/ecc/bn254"
	fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"
	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"

	"github.com/kysee/bitvm-bridge/bn254"
	"github.com/kysee/bitvm-bridge/groth16"
	"github.com/kysee/bitvm-bridge/scripts"
)

// InputProof is the runtime tuple the operator commits: the two runtime G1
// points, proof element B, the residue witness pair and the public inputs.
type InputProof struct {
	P2   bncurve.G1Affine // proof C
	P4   bncurve.G1Affine // proof A
	Q4   bn254.G2Point    // proof B
	C    bn254.Fq12
	CInv bn254.Fq12 // committed separately; Verify_C_Mul_CInv polices it
	Wi   bn254.Fq12
	Ks   []fr.Element
}

// MSMWindowsPerSegment splits each scalar's 64-window walk across taps so
// every tap stays inside the weight budget: one 4-bit window's doublings
// and table add already carry two dozen field multiplications.
const MSMWindowsPerSegment = 1

// driver walks the verifier once, recording a segment for every
// intermediate value. The same walk serves compile time (mock input) and
// runtime (operator input); determinism is what lets the transcript line
// up with the tap set.
type driver struct {
	prep *groth16.Prepared
	in   InputProof
	segs []Segment
	log  zerolog.Logger

	// emit controls opcode materialization: the replay paths only need
	// values and wiring, so they skip building megabytes of script.
	emit bool

	// Fixed-base line cursors; both tables advance in lockstep with the
	// dynamic pair's walk.
	lineIdx int
}

func (d *driver) add(s Segment) (int, error) {
	s.ID = len(d.segs)
	for _, p := range s.Params {
		if p.ID < 0 || p.ID >= s.ID {
			return 0, fmt.Errorf("chunk: segment %q references %d out of order", s.Name, p.ID)
		}
		producer := d.segs[p.ID]
		if !projectionCompatible(producer.ResultType, p.Type) {
			return 0, fmt.Errorf("%w: %q consumes %s as %s", ErrElementTypeMismatch,
				s.Name, producer.ResultType, p.Type)
		}
	}
	if s.Type.EmitsTap() && s.Scr != nil {
		if err := s.checkBudget(); err != nil {
			return 0, err
		}
	}
	d.segs = append(d.segs, s)
	return s.ID, nil
}

// projectionCompatible accepts exact matches plus the three projections of
// a G2Eval datum.
func projectionCompatible(produced, consumed ElementType) bool {
	if produced == consumed {
		return true
	}
	evalKinds := map[ElementType]bool{
		G2EvalPointType: true, G2EvalMulType: true, G2EvalType: true,
	}
	return evalKinds[produced] && evalKinds[consumed]
}

func paramTypes(params []ParamRef) []ElementType {
	out := make([]ElementType, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

// tap assembles the standard tap skeleton around a core, or skips the
// build entirely on replay-only walks.
func (d *driver) tap(st ScriptType, params []ParamRef, outType ElementType, core func(*scripts.Builder)) scripts.Script {
	if !d.emit || !st.EmitsTap() {
		return nil
	}
	b := scripts.NewBuilder()
	// The locking prefix leaves every committed value on the altstack;
	// the hashing routine re-derives and checks their digests, restoring
	// the preimages to the main stack in parameter order for the core.
	b.Script(hashMessages(paramTypes(params)))
	core(b)
	if st != FinalScript {
		tapOutputHash(b, outType)
	}
	return b.Done()
}

// GenerateSegments runs the whole chunked verifier over in and returns the
// segment list in traversal order.
func GenerateSegments(prep *groth16.Prepared, in InputProof, log zerolog.Logger) ([]Segment, error) {
	return generateSegments(prep, in, log, false)
}

// GenerateSegmentsWithScripts also materializes every tap's opcode
// payload; only the compile-time emitters need it.
func GenerateSegmentsWithScripts(prep *groth16.Prepared, in InputProof, log zerolog.Logger) ([]Segment, error) {
	return generateSegments(prep, in, log, true)
}

func generateSegments(prep *groth16.Prepared, in InputProof, log zerolog.Logger, emit bool) ([]Segment, error) {
	if len(in.Ks) != prep.NumPublics() {
		return nil, fmt.Errorf("chunk: %d public inputs against %d bases", len(in.Ks), prep.NumPublics())
	}
	d := &driver{prep: prep, in: in, log: log, emit: emit}

	ids, err := d.inputSegments()
	if err != nil {
		return nil, err
	}
	if err := d.finalScriptChecks(ids); err != nil {
		return nil, err
	}
	msmID, err := d.msmSegments(ids)
	if err != nil {
		return nil, err
	}
	fID, cRatioID, cInvRatioID, err := d.preMiller(ids)
	if err != nil {
		return nil, err
	}
	fID, t4ID, err := d.millerLoop(ids, msmID, fID, cRatioID, cInvRatioID)
	if err != nil {
		return nil, err
	}
	fID, err = d.postMiller(ids, msmID, fID, t4ID)
	if err != nil {
		return nil, err
	}
	if err := d.finalVerify(fID); err != nil {
		return nil, err
	}

	d.log.Debug().Int("segments", len(d.segs)).Msg("segment enumeration complete")
	return d.segs, nil
}

// inputIDs names the NonDeterministic input segments.
type inputIDs struct {
	ks         []int
	p2x, p2y   int
	p4x, p4y   int
	q4         [4]int // x0 x1 y0 y1
	c, cInv, w [12]int
}

func (d *driver) inputSegments() (inputIDs, error) {
	var ids inputIDs
	addU256 := func(name string, t ElementType, e Element) (int, error) {
		return d.add(Segment{Name: name, Type: NonDeterministic, Result: e, ResultType: t})
	}

	for i, k := range d.in.Ks {
		id, err := addU256(fmt.Sprintf("GrothPubs_%d", i), ScalarElemType, ElemU256(U256OfFr(k)))
		if err != nil {
			return ids, err
		}
		ids.ks = append(ids.ks, id)
	}

	var err error
	if ids.p2x, err = addU256("GrothP2x", FieldElemType, ElemFq(d.in.P2.X)); err != nil {
		return ids, err
	}
	if ids.p2y, err = addU256("GrothP2y", FieldElemType, ElemFq(d.in.P2.Y)); err != nil {
		return ids, err
	}
	if ids.p4x, err = addU256("GrothP4x", FieldElemType, ElemFq(d.in.P4.X)); err != nil {
		return ids, err
	}
	if ids.p4y, err = addU256("GrothP4y", FieldElemType, ElemFq(d.in.P4.Y)); err != nil {
		return ids, err
	}

	q4Fqs := [4]struct {
		name string
		v    bn254.Fq2
		c1   bool
	}{
		{"GrothQ4x0", d.in.Q4.X, false},
		{"GrothQ4x1", d.in.Q4.X, true},
		{"GrothQ4y0", d.in.Q4.Y, false},
		{"GrothQ4y1", d.in.Q4.Y, true},
	}
	for i, q := range q4Fqs {
		v := q.v.C0
		if q.c1 {
			v = q.v.C1
		}
		if ids.q4[i], err = addU256(q.name, FieldElemType, ElemFq(v)); err != nil {
			return ids, err
		}
	}

	cCoeffs := fq12Coeffs(d.in.C)
	cInvCoeffs := fq12Coeffs(d.in.CInv)
	wCoeffs := fq12Coeffs(d.in.Wi)
	for i := 0; i < 12; i++ {
		if ids.c[i], err = addU256(fmt.Sprintf("GrothC_%d", i), FieldElemType, ElemFq(cCoeffs[i])); err != nil {
			return ids, err
		}
		if ids.cInv[i], err = addU256(fmt.Sprintf("GrothCInv_%d", i), FieldElemType, ElemFq(cInvCoeffs[i])); err != nil {
			return ids, err
		}
		if ids.w[i], err = addU256(fmt.Sprintf("GrothWi_%d", i), FieldElemType, ElemFq(wCoeffs[i])); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

func fq12Coeffs(z bn254.Fq12) [12]fp.Element {
	var out [12]fp.Element
	c0 := z.C0.Coeffs()
	c1 := z.C1.Coeffs()
	for i := 0; i < 6; i++ {
		out[i] = c0[i]
		out[6+i] = c1[i]
	}
	return out
}
