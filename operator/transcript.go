package operator

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kysee/bitvm-bridge/chunk"
	"github.com/kysee/bitvm-bridge/types"
)

// transcriptFile is the on-disk form of a signed assertion transcript:
// one witness-item list per commitment, in commitment order.
type transcriptFile struct {
	Commitments [][]types.HexBytes `json:"commitments"`
}

// SaveAssertions writes the transcript as JSON; challengers feed the same
// file into ValidateAssertions.
func SaveAssertions(path string, assertions chunk.Assertions) error {
	tf := transcriptFile{Commitments: make([][]types.HexBytes, len(assertions))}
	for i, witness := range assertions {
		items := make([]types.HexBytes, len(witness))
		for j, item := range witness {
			items[j] = types.HexBytes(item)
		}
		tf.Commitments[i] = items
	}

	data, err := json.MarshalIndent(&tf, "", "  ")
	if err != nil {
		return fmt.Errorf("operator: encoding transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("operator: writing transcript %s: %w", path, err)
	}
	return nil
}

// LoadAssertions reads a transcript written by SaveAssertions.
func LoadAssertions(path string) (chunk.Assertions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("operator: reading transcript %s: %w", path, err)
	}

	var tf transcriptFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("operator: parsing transcript: %w", err)
	}

	out := make(chunk.Assertions, len(tf.Commitments))
	for i, items := range tf.Commitments {
		witness := make([][]byte, len(items))
		for j, item := range items {
			witness[j] = item
		}
		out[i] = witness
	}
	return out, nil
}
