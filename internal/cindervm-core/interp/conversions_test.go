package interp

import (
	"math"
	"testing"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// convertF64ToI32Fn builds: fn(f Float64) Int32 { return Int32(f) }
func convertF64ToI32Fn() *program.Function {
	params := []program.Parameter{{Name: "f", Type: program.Scalar(program.TypeFloat64)}}
	b := program.NewFunctionBuilder("ToInt32", params, program.Scalar(program.TypeInt32), nil)
	target := b.AddType(program.Scalar(program.TypeInt32))
	b.Emit(program.OpLoadLocal, 0)
	b.Emit(program.OpConvert, target)
	b.Emit(program.OpReturn)
	return b.Build()
}

func TestConvertNaNAndOutOfRangeFloatYieldZero(t *testing.T) {
	fn := convertF64ToI32Fn()

	cases := []struct {
		name string
		in   float64
	}{
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
		{"too large", 1e300},
		{"too negative", -1e300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it, _, _ := newTestInterp()
			result, err := it.Invoke(fn, []heap.Value{heap.Float64(tc.in)})
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if result.AsInt32() != 0 {
				t.Fatalf("ToInt32(%v) = %d, want 0", tc.in, result.AsInt32())
			}
		})
	}
}

func TestConvertInRangeFloatTruncates(t *testing.T) {
	it, _, _ := newTestInterp()
	fn := convertF64ToI32Fn()
	result, err := it.Invoke(fn, []heap.Value{heap.Float64(41.9)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.AsInt32() != 41 {
		t.Fatalf("ToInt32(41.9) = %d, want 41", result.AsInt32())
	}
}
