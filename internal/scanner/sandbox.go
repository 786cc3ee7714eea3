package scanner

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// Evaluator is the capability interface for dynamic string extraction.
// Implementations evaluate one JavaScript expression in isolation and
// return its string value. Any failure means "no result" to callers.
type Evaluator interface {
	Evaluate(expr string) (string, error)
}

// NoEvaluator is the default: dynamic evaluation disabled, every
// expression yields nothing. The pipeline is fully functional without a
// script engine behind it.
type NoEvaluator struct{}

func (NoEvaluator) Evaluate(string) (string, error) {
	return "", fmt.Errorf("dynamic evaluation disabled")
}

// GojaEvaluator runs expressions in an embedded goja runtime. The runtime
// has no host bindings, so evaluated code cannot touch the process.
type GojaEvaluator struct {
	mu sync.Mutex
	vm *goja.Runtime
}

func NewGojaEvaluator() *GojaEvaluator {
	return &GojaEvaluator{vm: goja.New()}
}

func (g *GojaEvaluator) Evaluate(expr string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	val, err := g.vm.RunString(expr)
	if err != nil {
		return "", err
	}
	str, ok := val.Export().(string)
	if !ok {
		return "", fmt.Errorf("expression is not a string")
	}
	return str, nil
}

// SandboxAvailable probes whether the embedded runtime can evaluate a
// trivial expression. A failure here downgrades exec mode to regex-only
// extraction instead of aborting the run.
func SandboxAvailable() (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	val, err := NewGojaEvaluator().Evaluate(`"ok"`)
	return err == nil && val == "ok"
}

var (
	// var NAME = "literal";
	varAssignRe = regexp.MustCompile(`(?s)(?:var|let|const)\s+[A-Za-z0-9_$]+\s*=\s*("[^"\\]*"|'[^'\\]*')\s*;`)
	// "/fragment" + expr [+ expr ...]
	concatRe = regexp.MustCompile(`(["']/[^\n"']+["'](?:\s*\+\s*[^\n;)]+)+)`)
)

// EvaluateStrings heuristically locates string assignments and simple
// concatenation expressions in JS source and evaluates them, keeping
// results that look like paths or URLs. Per-expression errors are
// swallowed; a disabled evaluator degrades to no results.
func EvaluateStrings(eval Evaluator, source string) []string {
	var out []string
	seen := make(map[string]struct{})
	keep := func(val string, requireMarker bool) {
		if len(val) <= 3 {
			return
		}
		if requireMarker &&
			!strings.Contains(val, "http") && !strings.Contains(val, "/") && !strings.Contains(val, "api") {
			return
		}
		if _, ok := seen[val]; ok {
			return
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}

	for _, m := range varAssignRe.FindAllStringSubmatch(source, -1) {
		if val, err := eval.Evaluate(m[1]); err == nil {
			keep(val, true)
		}
	}
	// Concatenations that begin with a path literal are kept on length
	// alone; the leading "/" already marks them as path-like.
	for _, m := range concatRe.FindAllStringSubmatch(source, -1) {
		if val, err := eval.Evaluate(m[1]); err == nil {
			keep(val, false)
		}
	}
	return out
}
