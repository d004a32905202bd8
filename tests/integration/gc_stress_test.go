package integration_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	cindervm "github.com/cindervm/cindervm-core/pkg/cindervm-core"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/native"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// Scenario 6: allocate 100,000 strings retaining only every tenth; after
// draining the collector, the live object count equals the retained set
// (plus its one backing array) and none of the retained references
// dangle.
func TestGCStressRetainsEveryTenthString(t *testing.T) {
	const total = 100000
	const keepEvery = 10

	vm, err := cindervm.NewVM(nil)
	require.NoError(t, err)

	require.NoError(t, vm.RegisterNative("StressAllocate", "()array<String>", func(it *cindervm.Context, args []cindervm.Value) ([]cindervm.Value, error) {
		retained, err := native.NewArray(it, program.Scalar(program.TypeString), 0)
		if err != nil {
			return nil, err
		}
		// Never unpinned: retained is this function's return value, and
		// the test keeps draining the collector with it afterward, so
		// the pin needs to outlive the native call itself.
		it.Heap().PinForNative(retained)
		arr, _ := retained.AsArray()
		for i := 0; i < total; i++ {
			v, err := native.NewString(it, fmt.Sprintf("item-%d", i))
			if err != nil {
				return nil, err
			}
			if i%keepEvery == 0 {
				if err := native.ArrayPush(it, arr, v); err != nil {
					return nil, err
				}
			}
		}
		return []cindervm.Value{retained}, nil
	}))

	require.NoError(t, vm.RegisterNative("VerifyRetained", "(array<String>)Unit", func(it *cindervm.Context, args []cindervm.Value) ([]cindervm.Value, error) {
		arr, _ := args[0].AsArray()
		for i := 0; i < native.ArrayLen(arr); i++ {
			v, err := native.ArrayGet(it, arr, i)
			if err != nil {
				return nil, err
			}
			want := fmt.Sprintf("item-%d", i*keepEvery)
			if got := v.AsString().String(); got != want {
				return nil, fmt.Errorf("retained[%d] = %q, want %q", i, got, want)
			}
		}
		return []cindervm.Value{}, nil
	}))

	p := program.NewProgram()
	stress := program.NewNativeFunction("StressAllocate", native.Key("StressAllocate", "()array<String>"), nil, program.ArrayOf(program.Scalar(program.TypeString)))
	require.NoError(t, p.AddFunction(stress))
	verify := program.NewNativeFunction("VerifyRetained", native.Key("VerifyRetained", "(array<String>)Unit"),
		[]program.Parameter{{Name: "xs", Type: program.ArrayOf(program.Scalar(program.TypeString))}}, program.Scalar(program.TypeUnit))
	require.NoError(t, p.AddFunction(verify))
	require.NoError(t, vm.LoadProgram(p))

	retained, err := vm.Invoke("StressAllocate", nil)
	require.NoError(t, err)

	arr, _ := retained.AsArray()
	retainedLen := native.ArrayLen(arr)
	require.Equal(t, total/keepEvery, retainedLen)

	for i := 0; i < 4*total; i++ {
		vm.Step()
	}

	stats := vm.Stats()
	require.Equal(t, retainedLen+1, stats.Live, "live objects should be exactly the retained strings plus their array")

	_, err = vm.Invoke("VerifyRetained", []cindervm.Value{retained})
	require.NoError(t, err, "a retained reference dangled after collection")
}
