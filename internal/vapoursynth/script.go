package vapoursynth

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/five82/avdecode/internal/frame"
)

// EscapePythonString escapes s for use between double quotes in a Python
// string literal. Every path or value embedded in generated script text goes
// through it.
func EscapePythonString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func quote(s string) string {
	return `"` + EscapePythonString(s) + `"`
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// variable is a script global with its value rendered as a Python literal.
type variable struct {
	name    string
	literal string
}

// pythonLiteral renders strings, booleans, integers and floats.
func pythonLiteral(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return quote(v), nil
	case bool:
		if v {
			return "True", nil
		}
		return "False", nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return floatLiteral(float64(v)), nil
	case float64:
		return floatLiteral(v), nil
	default:
		return "", fmt.Errorf("unsupported variable type %T", value)
	}
}

func floatLiteral(v float64) string {
	switch {
	case math.IsNaN(v):
		return `float("nan")`
	case math.IsInf(v, 1):
		return `float("inf")`
	case math.IsInf(v, -1):
		return `float("-inf")`
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// NodeModifier rewrites the output node of an evaluated script. It runs once,
// before the first frame is read.
type NodeModifier func(g *Graph) error

// Graph collects the operations a NodeModifier applies to the output node.
// Each operation is an assignment to clip; core and vs are in scope.
type Graph struct {
	input      frame.VideoDetails
	statements []string
}

// Input returns the details of the node before modification.
func (g *Graph) Input() frame.VideoDetails {
	return g.input
}

// Apply replaces the node with expr, for example
// "core.std.AddBorders(clip, left=8)".
func (g *Graph) Apply(expr string) {
	if expr = strings.TrimSpace(expr); expr != "" {
		g.statements = append(g.statements, "clip = "+expr)
	}
}

// Trim keeps frames first through last inclusive.
func (g *Graph) Trim(first, last int) {
	g.Apply(fmt.Sprintf("core.std.Trim(clip, first=%d, last=%d)", first, last))
}

// Resize rescales the node with the bicubic resizer.
func (g *Graph) Resize(width, height int) {
	g.Apply(fmt.Sprintf("core.resize.Bicubic(clip, width=%d, height=%d)", width, height))
}

// Gray keeps only the luma plane.
func (g *Graph) Gray() {
	g.Apply("core.std.ShufflePlanes(clip, planes=0, colorfamily=vs.GRAY)")
}

// Statements returns the collected operations in order.
func (g *Graph) Statements() []string {
	return append([]string(nil), g.statements...)
}

// wrapperScript evaluates scriptPath with vars as initial globals, then
// applies statements to output 0 and republishes it.
func wrapperScript(scriptPath string, vars []variable, statements []string) string {
	var b strings.Builder
	b.WriteString("import runpy\nimport sys\n\nimport vapoursynth as vs\n\ncore = vs.core\n")
	fmt.Fprintf(&b, "sys.path.insert(0, %s)\n\n", quote(filepath.Dir(scriptPath)))

	b.WriteString("init_globals = {\n")
	for _, v := range vars {
		fmt.Fprintf(&b, "    %s: %s,\n", quote(v.name), v.literal)
	}
	b.WriteString("}\n")
	fmt.Fprintf(&b, "runpy.run_path(%s, init_globals=init_globals, run_name=\"__vapoursynth__\")\n\n", quote(scriptPath))

	b.WriteString("clip = vs.get_output(0)\n")
	b.WriteString("if isinstance(clip, getattr(vs, \"VideoOutputTuple\", ())):\n    clip = clip.clip\n")
	for _, st := range statements {
		b.WriteString(st + "\n")
	}
	b.WriteString("clip.set_output(0)\n")
	return b.String()
}
