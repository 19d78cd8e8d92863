package tokenizer

import (
	"github.com/yuin/goldmark/ast"
)

// Handler reacts to one enter or exit event during compilation.
type Handler func(ctx *Context, t Token)

// Handlers maps token kinds to their enter and exit handlers. Kinds without
// a handler are skipped.
type Handlers struct {
	Enter map[Kind]Handler
	Exit  map[Kind]Handler
}

// Context is the tree builder owned by one compilation. The last pushed node
// is the current insertion point.
type Context struct {
	// Source is the scanned input.
	Source []byte
	// Base is the absolute offset of Source within the document source.
	Base  int
	stack []ast.Node
	root  ast.Node
}

// Push attaches n to the current node (if any) and makes it current.
func (c *Context) Push(n ast.Node) {
	if top := c.Top(); top != nil {
		top.AppendChild(top, n)
	} else if c.root == nil {
		c.root = n
	}
	c.stack = append(c.stack, n)
}

// Pop finishes the current node.
func (c *Context) Pop() ast.Node {
	n := len(c.stack)
	if n == 0 {
		return nil
	}
	top := c.stack[n-1]
	c.stack = c.stack[:n-1]
	return top
}

// Top returns the current node, or nil when the stack is empty.
func (c *Context) Top() ast.Node {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Serialize returns the text covered by t.
func (c *Context) Serialize(t Token) string {
	return string(t.Slice(c.Source))
}

// Compile replays events through handlers and returns the outermost node
// that was pushed.
func Compile(source []byte, base int, events Events, h Handlers) ast.Node {
	ctx := &Context{Source: source, Base: base}
	for _, ev := range events {
		var fn Handler
		switch ev.Type {
		case EventEnter:
			fn = h.Enter[ev.Token.Kind]
		case EventExit:
			fn = h.Exit[ev.Token.Kind]
		}
		if fn != nil {
			fn(ctx, ev.Token)
		}
	}
	return ctx.root
}
