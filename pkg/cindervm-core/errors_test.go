package cindervm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	cindervm "github.com/cindervm/cindervm-core/pkg/cindervm-core"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	a := &cindervm.Error{Kind: cindervm.ErrArithmetic, Message: "div by zero"}
	b := &cindervm.Error{Kind: cindervm.ErrArithmetic, Message: "different message, same kind"}
	c := &cindervm.Error{Kind: cindervm.ErrTypeMismatch, Message: "not the same kind"}

	require.True(t, errors.Is(a, b))
	require.False(t, errors.Is(a, c))
}

func TestNewVMRejectsInvalidConfig(t *testing.T) {
	cfg := cindervm.DefaultConfig().WithInitialHeapObjects(0)
	_, err := cindervm.NewVM(cfg)
	require.Error(t, err)
}
