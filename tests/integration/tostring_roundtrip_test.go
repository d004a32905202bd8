package integration_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	cindervm "github.com/cindervm/cindervm-core/pkg/cindervm-core"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// ToString has a canonical textual form for every scalar Kind; this
// walks a table of representative values through a single-instruction
// stringify function and checks the rendering, rather than hand-writing
// one test per width.
func TestToStringCanonicalRenderings(t *testing.T) {
	cases := []struct {
		name  string
		typ   program.TypeDescriptor
		value func() heap.Value
		want  string
	}{
		{"bool true", program.Scalar(program.TypeBool), func() heap.Value { return heap.Bool(true) }, "true"},
		{"int32 negative", program.Scalar(program.TypeInt32), func() heap.Value { return heap.Int32(-7) }, "-7"},
		{"int64 large", program.Scalar(program.TypeInt64), func() heap.Value { return heap.Int64(1 << 40) }, "1099511627776"},
		{"uint8 max", program.Scalar(program.TypeUint8), func() heap.Value { return heap.Uint8(255) }, "255"},
		{"float32 fraction", program.Scalar(program.TypeFloat32), func() heap.Value { return heap.Float32(2.5) }, "2.5"},
		{"float64 fraction", program.Scalar(program.TypeFloat64), func() heap.Value { return heap.Float64(3.25) }, "3.25"},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vm, err := cindervm.NewVM(nil)
			require.NoError(t, err)

			name := "Stringify"
			params := []program.Parameter{{Name: "v", Type: tc.typ}}
			b := program.NewFunctionBuilder(name, params, program.Scalar(program.TypeString), nil)
			b.Emit(program.OpLoadLocal, 0)
			b.Emit(program.OpToString)
			b.Emit(program.OpReturn)

			p := program.NewProgram()
			require.NoError(t, p.AddFunction(b.Build()))
			require.NoError(t, vm.LoadProgram(p))

			result, err := vm.Invoke(name, []cindervm.Value{tc.value()})
			require.NoError(t, err)
			require.Equal(t, tc.want, result.AsString().String(), "case %d: %s", i, tc.name)
		})
	}
}
