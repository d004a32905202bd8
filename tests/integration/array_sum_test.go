package integration_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	cindervm "github.com/cindervm/cindervm-core/pkg/cindervm-core"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/native"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// Scenario 3: building an array<Int32> natively and reducing it with a
// hand-assembled bytecode loop over locals, jumps, and array ops.
func TestArraySumRoundtrip(t *testing.T) {
	vm, err := cindervm.NewVM(nil)
	require.NoError(t, err)

	values := []int32{1, 2, 3, 4, 5}
	require.NoError(t, vm.RegisterNative("MakeArray", "()array<Int32>", func(it *cindervm.Context, args []cindervm.Value) ([]cindervm.Value, error) {
		v, err := native.NewArray(it, program.Scalar(program.TypeInt32), 0)
		if err != nil {
			return nil, err
		}
		arr, _ := v.AsArray()
		for _, n := range values {
			if err := native.ArrayPush(it, arr, heap.Int32(n)); err != nil {
				return nil, err
			}
		}
		return []cindervm.Value{v}, nil
	}))

	p := program.NewProgram()
	makeArray := program.NewNativeFunction("MakeArray", native.Key("MakeArray", "()array<Int32>"), nil, program.ArrayOf(program.Scalar(program.TypeInt32)))
	require.NoError(t, p.AddFunction(makeArray))

	params := []program.Parameter{{Name: "xs", Type: program.ArrayOf(program.Scalar(program.TypeInt32))}}
	localTypes := []program.TypeDescriptor{program.Scalar(program.TypeInt32), program.Scalar(program.TypeInt32)} // locals: 1=i, 2=acc
	b := program.NewFunctionBuilder("Sum", params, program.Scalar(program.TypeInt32), localTypes)
	zero := b.AddConst(program.ConstInt32Val(0))
	one := b.AddConst(program.ConstInt32Val(1))

	b.Emit(program.OpLoadConst, zero)
	b.Emit(program.OpStoreLocal, 1)
	b.Emit(program.OpLoadConst, zero)
	b.Emit(program.OpStoreLocal, 2)

	loopStart := b.Here()
	b.Emit(program.OpLoadLocal, 1)
	b.Emit(program.OpLoadLocal, 0)
	b.Emit(program.OpArrayLen)
	b.Emit(program.OpLt)
	exitJump := b.Emit(program.OpJumpIfFalse, 0)

	b.Emit(program.OpLoadLocal, 2)
	b.Emit(program.OpLoadLocal, 0)
	b.Emit(program.OpLoadLocal, 1)
	b.Emit(program.OpLoadElem)
	b.Emit(program.OpAdd)
	b.Emit(program.OpStoreLocal, 2)

	b.Emit(program.OpLoadLocal, 1)
	b.Emit(program.OpLoadConst, one)
	b.Emit(program.OpAdd)
	b.Emit(program.OpStoreLocal, 1)

	backJump := b.Emit(program.OpJump, 0)
	b.Patch(backJump, int32(loopStart-backJump))

	exitTarget := b.Here()
	b.Patch(exitJump, int32(exitTarget-exitJump))
	b.Emit(program.OpLoadLocal, 2)
	b.Emit(program.OpReturn)

	require.NoError(t, p.AddFunction(b.Build()))
	require.NoError(t, vm.LoadProgram(p))

	arr, err := vm.Invoke("MakeArray", nil)
	require.NoError(t, err)

	result, err := vm.Invoke("Sum", []cindervm.Value{arr})
	require.NoError(t, err)
	require.EqualValues(t, 15, result.AsInt32())
}
