package integration_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	cindervm "github.com/cindervm/cindervm-core/pkg/cindervm-core"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/native"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// Scenario 2: class B extends A, both overriding f(); invoking f()
// through a B instance picks B's override, never A's.
func TestClassInheritanceDispatchesOverride(t *testing.T) {
	vm, err := cindervm.NewVM(nil)
	require.NoError(t, err)

	p := program.NewProgram()
	a := program.NewClass("A", nil)
	b := program.NewClass("B", a)

	fA := program.NewFunctionBuilder("A::f", []program.Parameter{{Name: "self", Type: program.ClassType("A")}}, program.Scalar(program.TypeInt32), nil)
	one := fA.AddConst(program.ConstInt32Val(1))
	fA.Emit(program.OpLoadConst, one)
	fA.Emit(program.OpReturn)

	fB := program.NewFunctionBuilder("B::f", []program.Parameter{{Name: "self", Type: program.ClassType("B")}}, program.Scalar(program.TypeInt32), nil)
	two := fB.AddConst(program.ConstInt32Val(2))
	fB.Emit(program.OpLoadConst, two)
	fB.Emit(program.OpReturn)

	a.DeclareSlot("f", "()Int32", fA.Build())
	b.DeclareSlot("f", "()Int32", fB.Build())

	require.NoError(t, p.AddClass(a))
	require.NoError(t, p.AddClass(b))

	require.NoError(t, vm.RegisterNative("NewB", "()B", func(it *cindervm.Context, args []cindervm.Value) ([]cindervm.Value, error) {
		v, err := native.NewInstance(it, "B")
		if err != nil {
			return nil, err
		}
		return []cindervm.Value{v}, nil
	}))
	newB := program.NewNativeFunction("NewB", native.Key("NewB", "()B"), nil, program.ClassType("B"))
	require.NoError(t, p.AddFunction(newB))

	require.NoError(t, vm.LoadProgram(p))

	receiver, err := vm.Invoke("NewB", nil)
	require.NoError(t, err)

	result, err := vm.InvokeMethod(receiver, "f", "()Int32", nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, result.AsInt32())
}
