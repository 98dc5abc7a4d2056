package groth16

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	gnarkgroth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	circuit "github.com/kysee/bitvm-bridge/circuits"
)

// SetupPegOutCircuit compiles the peg-out circuit and produces its Groth16
// keys, caching the artifacts under rootDir/.build so operators and
// challengers derive the identical tap set.
func SetupPegOutCircuit(rootDir string) (constraint.ConstraintSystem, gnarkgroth16.ProvingKey, gnarkgroth16.VerifyingKey, error) {
	buildDir := filepath.Join(rootDir, ".build")
	_ = os.MkdirAll(buildDir, 0755)

	ccsPath := filepath.Join(buildDir, "PegOutCircuit.ccs")
	pkPath := filepath.Join(buildDir, "PegOutCircuit.pk")
	vkPath := filepath.Join(buildDir, "PegOutCircuit.vk")

	if ccs, pk, vk, err := loadArtifacts(ccsPath, pkPath, vkPath); err == nil {
		return ccs, pk, vk, nil
	}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit.PegOutCircuit{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("compiling peg-out circuit: %w", err)
	}
	pk, vk, err := gnarkgroth16.Setup(ccs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("groth16 setup: %w", err)
	}

	for _, a := range []struct {
		path string
		v    io.WriterTo
	}{{ccsPath, ccs}, {pkPath, pk}, {vkPath, vk}} {
		if err := saveArtifact(a.path, a.v); err != nil {
			return nil, nil, nil, err
		}
	}
	return ccs, pk, vk, nil
}

func saveArtifact(path string, v io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := v.WriteTo(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func loadArtifacts(ccsPath, pkPath, vkPath string) (constraint.ConstraintSystem, gnarkgroth16.ProvingKey, gnarkgroth16.VerifyingKey, error) {
	ccs := gnarkgroth16.NewCS(ecc.BN254)
	pk := gnarkgroth16.NewProvingKey(ecc.BN254)
	vk := gnarkgroth16.NewVerifyingKey(ecc.BN254)

	for _, a := range []struct {
		path string
		v    io.ReaderFrom
	}{{ccsPath, ccs}, {pkPath, pk}, {vkPath, vk}} {
		f, err := os.Open(a.path)
		if err != nil {
			return nil, nil, nil, err
		}
		_, err = a.v.ReadFrom(f)
		f.Close()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("reading %s: %w", a.path, err)
		}
	}
	return ccs, pk, vk, nil
}
