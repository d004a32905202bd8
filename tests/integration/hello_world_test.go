package integration_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	cindervm "github.com/cindervm/cindervm-core/pkg/cindervm-core"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/native"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// Scenario 1: a main function whose only call is to a host-registered
// native Log function.
func TestHelloWorldThroughNativeLog(t *testing.T) {
	vm, err := cindervm.NewVM(nil)
	require.NoError(t, err)

	var lines []string
	require.NoError(t, vm.RegisterNative("Log", "(String)Unit", func(it *cindervm.Context, args []cindervm.Value) ([]cindervm.Value, error) {
		msg, err := native.Arg(args, 0).String()
		if err != nil {
			return nil, err
		}
		lines = append(lines, msg)
		return []cindervm.Value{{}}, nil
	}))

	p := program.NewProgram()
	logFn := program.NewNativeFunction("Log", native.Key("Log", "(String)Unit"),
		[]program.Parameter{{Name: "msg", Type: program.Scalar(program.TypeString)}}, program.Scalar(program.TypeUnit))
	require.NoError(t, p.AddFunction(logFn))
	logIdx := len(p.Functions) - 1

	b := program.NewFunctionBuilder("main", nil, program.Scalar(program.TypeUnit), nil)
	msg := b.AddConst(program.ConstStringVal("Hello world"))
	b.Emit(program.OpLoadConst, msg)
	b.Emit(program.OpCallStatic, int32(logIdx))
	b.Emit(program.OpPop)
	b.Emit(program.OpReturnVoid)
	require.NoError(t, p.AddFunction(b.Build()))

	require.NoError(t, vm.LoadProgram(p))

	_, err = vm.Invoke("main", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Hello world"}, lines)
}
