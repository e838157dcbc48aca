package initwfn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryConstructorBuildsAUsableInitWFn(t *testing.T) {
	constructors := map[string]func() (*InitWFn, error){
		"GlorotU":  func() (*InitWFn, error) { return NewGlorotU(1.0) },
		"GlorotN":  func() (*InitWFn, error) { return NewGlorotN(1.0) },
		"Zeroes":   func() (*InitWFn, error) { return NewZeroes() },
		"Ones":     func() (*InitWFn, error) { return NewOnes() },
		"Constant": func() (*InitWFn, error) { return NewConstant(3.0) },
		"HeU":      func() (*InitWFn, error) { return NewHeU(1.0) },
		"HeN":      func() (*InitWFn, error) { return NewHeN(1.0) },
		"Gaussian": func() (*InitWFn, error) { return NewGaussian(0, 1) },
		"Uniform":  func() (*InitWFn, error) { return NewUniform(-1, 1) },
	}

	for name, ctor := range constructors {
		w, err := ctor()
		require.NoErrorf(t, err, "%s", name)
		assert.NotNilf(t, w.InitWFn(), "%s", name)
	}
}

func TestValidTypeRejectsMismatchedConfig(t *testing.T) {
	_, err := newInitWFn(GlorotU, ZeroesConfig{})
	assert.Error(t, err)
}
