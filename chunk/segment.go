package chunk

import (
	"errors"
	"fmt"

	"github.com/kysee/bitvm-bridge/scripts"
)

var (
	// ErrChunkOverBudget flags a tap whose script plus worst-case witness
	// exceeds the consensus weight limit; fatal at compile time.
	ErrChunkOverBudget = errors.New("chunk: tap exceeds the 4 MB budget")

	// ErrElementTypeMismatch flags a consumer whose declared parameter
	// type disagrees with the producer's result; fatal at compile time.
	ErrElementTypeMismatch = errors.New("chunk: element type mismatch")
)

// TapBudget is the per-tap script+witness ceiling.
const TapBudget = 4 << 20

// MaxStackDepth bounds the interpreter stack a tap may use.
const MaxStackDepth = 1000

// ScriptType classifies a segment's role in the tap set.
type ScriptType int

const (
	// NonDeterministic segments carry committed inputs; they emit no tap.
	NonDeterministic ScriptType = iota
	PreMillerScript
	MillerScript
	PostMillerScript
	// FinalScript taps succeed only when the relation they check is
	// violated; their results are never hashed.
	FinalScript
)

func (t ScriptType) String() string {
	switch t {
	case NonDeterministic:
		return "NonDeterministic"
	case PreMillerScript:
		return "PreMillerScript"
	case MillerScript:
		return "MillerScript"
	case PostMillerScript:
		return "PostMillerScript"
	case FinalScript:
		return "FinalScript"
	}
	return fmt.Sprintf("ScriptType(%d)", int(t))
}

// EmitsTap reports whether the segment owns a tapscript.
func (t ScriptType) EmitsTap() bool { return t != NonDeterministic }

// ParamRef names an upstream segment output and the projection under
// which this segment consumes it.
type ParamRef struct {
	ID   int
	Type ElementType
}

// Segment is the unit of chunking.
type Segment struct {
	ID   int
	Name string
	Type ScriptType

	Params []ParamRef

	Result     Element
	ResultType ElementType

	Scr scripts.Script
}

// OutputState compresses the segment result for commitment; FinalScript
// segments have none.
func (s *Segment) OutputState() (CompressedStateObject, error) {
	if s.Type == FinalScript {
		return CompressedStateObject{}, fmt.Errorf("chunk: segment %q is final and has no output", s.Name)
	}
	return s.Result.ToHash(s.ResultType)
}

// checkBudget validates the compile-time tap invariants.
func (s *Segment) checkBudget() error {
	witnessBound := 0
	for _, p := range s.Params {
		// Worst case: every preimage slot plus its Winternitz envelope.
		witnessBound += (p.Type.HashPreimageFqs() + 1) * 32 * 4
	}
	if s.Scr.Size()+witnessBound > TapBudget {
		return fmt.Errorf("%w: %q is %d bytes", ErrChunkOverBudget, s.Name, s.Scr.Size()+witnessBound)
	}
	return nil
}
