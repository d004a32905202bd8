package main

import (
	"flag"
	"fmt"
	"os"

	cindervm "github.com/cindervm/cindervm-core/pkg/cindervm-core"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/native"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// cindervm-demo loads one of a small set of bundled bytecode scenarios
// and runs it through the pkg/cindervm-core facade: "hello" prints the
// line its program logs, "counter" prints a one-line summary with the
// heap's live object count. VM creation, registration and invocation go
// through the facade; the internal program package assembles the demo
// programs, and the native package's Arg/Key/NewInstance helpers are
// used by the registered handlers.

type stdoutSink struct{}

func (stdoutSink) LogLine(line string) { fmt.Println("log:", line) }

func main() {
	scenario := flag.String("scenario", "hello", "which bundled scenario to run: hello, counter")
	flag.Parse()

	vm, err := cindervm.NewVM(nil)
	if err != nil {
		fatal(fmt.Sprintf("failed to create VM: %v", err))
	}

	switch *scenario {
	case "hello":
		runHello(vm)
	case "counter":
		runCounter(vm)
	default:
		fatal(fmt.Sprintf("unknown scenario %q (want hello or counter)", *scenario))
	}
}

func runHello(vm cindervm.VM) {
	if err := vm.RegisterNative("Log", "(String)Unit", func(it *cindervm.Context, args []cindervm.Value) ([]cindervm.Value, error) {
		msg, err := native.Arg(args, 0).String()
		if err != nil {
			return nil, err
		}
		stdoutSink{}.LogLine(msg)
		return nil, nil
	}); err != nil {
		fatal(fmt.Sprintf("RegisterNative(Log): %v", err))
	}

	p := program.NewProgram()
	logFn := program.NewNativeFunction("Log", native.Key("Log", "(String)Unit"),
		[]program.Parameter{{Name: "msg", Type: program.Scalar(program.TypeString)}}, program.Scalar(program.TypeUnit))
	if err := p.AddFunction(logFn); err != nil {
		fatal(fmt.Sprintf("AddFunction(Log): %v", err))
	}

	b := program.NewFunctionBuilder("main", nil, program.Scalar(program.TypeUnit), nil)
	greeting := b.AddConst(program.ConstStringVal("Hello from cindervm-demo"))
	b.Emit(program.OpLoadConst, greeting)
	b.Emit(program.OpCallStatic, 0)
	b.Emit(program.OpPop)
	b.Emit(program.OpReturnVoid)
	if err := p.AddFunction(b.Build()); err != nil {
		fatal(fmt.Sprintf("AddFunction(main): %v", err))
	}

	if err := vm.LoadProgram(p); err != nil {
		fatal(fmt.Sprintf("LoadProgram: %v", err))
	}
	if _, err := vm.Invoke("main", nil); err != nil {
		fatal(fmt.Sprintf("Invoke(main): %v", err))
	}
}

func runCounter(vm cindervm.VM) {
	p := program.NewProgram()
	counter := program.NewClass("Counter", nil)
	valueField := counter.AddField(program.FieldDescriptor{
		Name:    "value",
		Type:    program.Scalar(program.TypeInt32),
		Default: program.ZeroLiteral(program.Scalar(program.TypeInt32)),
	})

	inc := program.NewFunctionBuilder("Counter::Increment", []program.Parameter{{Name: "self", Type: program.ClassType("Counter")}}, program.Scalar(program.TypeUnit), nil)
	one := inc.AddConst(program.ConstInt32Val(1))
	inc.Emit(program.OpLoadLocal, 0)
	inc.Emit(program.OpLoadLocal, 0)
	inc.Emit(program.OpLoadField, int32(valueField))
	inc.Emit(program.OpLoadConst, one)
	inc.Emit(program.OpAdd)
	inc.Emit(program.OpStoreField, int32(valueField))
	inc.Emit(program.OpReturnVoid)
	counter.DeclareSlot("Increment", "()Unit", inc.Build())

	if err := p.AddClass(counter); err != nil {
		fatal(fmt.Sprintf("AddClass(Counter): %v", err))
	}

	if err := vm.RegisterNative("NewCounter", "()Counter", func(it *cindervm.Context, args []cindervm.Value) ([]cindervm.Value, error) {
		v, err := native.NewInstance(it, "Counter")
		if err != nil {
			return nil, err
		}
		return []cindervm.Value{v}, nil
	}); err != nil {
		fatal(fmt.Sprintf("RegisterNative(NewCounter): %v", err))
	}
	newCounter := program.NewNativeFunction("NewCounter", native.Key("NewCounter", "()Counter"), nil, program.ClassType("Counter"))
	if err := p.AddFunction(newCounter); err != nil {
		fatal(fmt.Sprintf("AddFunction(NewCounter): %v", err))
	}

	if err := vm.LoadProgram(p); err != nil {
		fatal(fmt.Sprintf("LoadProgram: %v", err))
	}

	receiver, err := vm.Invoke("NewCounter", nil)
	if err != nil {
		fatal(fmt.Sprintf("Invoke(NewCounter): %v", err))
	}

	for i := 0; i < 3; i++ {
		if _, err := vm.InvokeMethod(receiver, "Increment", "()Unit", nil); err != nil {
			fatal(fmt.Sprintf("InvokeMethod(Increment): %v", err))
		}
	}

	stats := vm.Stats()
	fmt.Printf("counter incremented 3 times; heap has %d live object(s)\n", stats.Live)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "cindervm-demo: error:", msg)
	os.Exit(1)
}
