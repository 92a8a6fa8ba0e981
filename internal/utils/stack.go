package utils

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/artcraftzone/hierlog/pkg/types"
)

// Locate returns the call site depth frames above its caller.
// Depth 0 is the function calling Locate, depth 1 is that function's caller,
// and so on. It returns nil when the stack is not that deep.
//
// Example:
//
//	func (l *Logger) Info(args ...interface{}) {
//		site := utils.Locate(1) // the code that called Info
//		...
//	}
func Locate(depth int) *types.CallSite {
	if depth < 0 {
		depth = 0
	}

	pc, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return nil
	}

	function := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = shortFunctionName(fn.Name())
	}

	return &types.CallSite{
		File:     filepath.Base(file),
		Function: function,
		Line:     line,
	}
}

// shortFunctionName strips the import path from a fully qualified function
// name, so "github.com/x/y/pkg.(*T).Method" becomes "(*T).Method".
func shortFunctionName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
