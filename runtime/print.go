package runtime

import (
	"bufio"
	"io"
	"os"
	"sync"
)

// Output is buffered: tight print loops in compiled code would otherwise
// pay a syscall per value. Flush is called by the driver after a run and
// may be called at any time.
var (
	outMu  sync.Mutex
	outBuf = bufio.NewWriter(os.Stdout)
)

// SetOutput redirects print output, flushing anything pending first.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	outBuf.Flush()
	outBuf = bufio.NewWriter(w)
}

// Flush drains the print buffer.
func Flush() {
	outMu.Lock()
	defer outMu.Unlock()
	outBuf.Flush()
}

func writeString(s string) {
	outMu.Lock()
	defer outMu.Unlock()
	outBuf.WriteString(s)
}

// PrintString writes s without a newline.
func PrintString(s string) { writeString(s) }

// PrintlnString writes s followed by a newline.
func PrintlnString(s string) { writeString(s + "\n") }

// PrintInt writes an integer followed by a newline.
func PrintInt(i int64) { writeString(IntToString(i) + "\n") }

// PrintFloat writes a float followed by a newline.
func PrintFloat(f float64) { writeString(FloatToString(f) + "\n") }

// PrintBool writes True or False followed by a newline.
func PrintBool(b bool) { writeString(BoolToString(b) + "\n") }

// PrintValue writes a tagged value followed by a newline.
func PrintValue(v *Value) { writeString(ToString(v) + "\n") }
