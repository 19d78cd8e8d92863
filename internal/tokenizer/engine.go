package tokenizer

import "fmt"

// Kind names a token type, e.g. "wikiLink" or "highlightData".
type Kind string

// Token delimits a span of the scanned input. Offsets are byte offsets
// relative to the start of the scanned input.
type Token struct {
	Kind  Kind
	Start int
	End   int
	// Embed is set on tokens opened with EnterEmbed.
	Embed bool
}

// EventType tells whether an event opens or closes a token.
type EventType uint8

const (
	EventEnter EventType = iota + 1
	EventExit
)

// Event is one entry of the balanced enter/exit stream produced by a scan.
type Event struct {
	Type  EventType
	Token Token
}

// Events is the ordered event stream of one successful scan.
type Events []Event

// Result is what a scanner returns for each code it is fed.
type Result uint8

const (
	// Continue asks for the next code. If the scanner did not consume the
	// current code it is fed again.
	Continue Result = iota
	// OK ends the scan successfully; everything consumed so far is the span.
	OK
	// NOK abandons the scan; the caller falls back to other matchers.
	NOK
)

// Scanner is one matcher invocation. Implementations keep their own state
// enum and counters, so a fresh Scanner is created for every scan.
type Scanner interface {
	Step(fx *Effects, code Code) Result
}

// maxStall bounds consecutive steps that do not consume input.
const maxStall = 8

// Effects is the engine handle passed to scanners.
type Effects struct {
	src      []byte
	pos      int
	consumed bool
	open     []Token
	events   Events
}

// Enter opens a token of kind at the cursor.
func (fx *Effects) Enter(kind Kind) {
	fx.enter(Token{Kind: kind, Start: fx.pos})
}

// EnterEmbed opens a token of kind flagged as the embed form of a construct.
func (fx *Effects) EnterEmbed(kind Kind) {
	fx.enter(Token{Kind: kind, Start: fx.pos, Embed: true})
}

func (fx *Effects) enter(t Token) {
	fx.open = append(fx.open, t)
	fx.events = append(fx.events, Event{Type: EventEnter, Token: t})
}

// Exit closes the innermost open token, which must be of kind.
func (fx *Effects) Exit(kind Kind) {
	n := len(fx.open)
	if n == 0 || fx.open[n-1].Kind != kind {
		panic(fmt.Sprintf("tokenizer: exit %q does not match open token", kind))
	}
	t := fx.open[n-1]
	fx.open = fx.open[:n-1]
	t.End = fx.pos
	fx.events = append(fx.events, Event{Type: EventExit, Token: t})
}

// Consume advances the cursor past code, which must be the current code.
func (fx *Effects) Consume(code Code) {
	if code == CodeEOF {
		panic("tokenizer: cannot consume end of input")
	}
	if fx.consumed {
		panic("tokenizer: code consumed twice")
	}
	_, w := decode(fx.src, fx.pos)
	fx.pos += w
	fx.consumed = true
}

// Scan runs s over src from its first byte. On success it returns the
// balanced event stream and the number of bytes the span covers.
func Scan(src []byte, s Scanner) (Events, int, bool) {
	fx := &Effects{src: src}
	stall := 0
	for {
		code, _ := decode(src, fx.pos)
		fx.consumed = false
		switch s.Step(fx, code) {
		case OK:
			if len(fx.open) != 0 {
				return nil, 0, false
			}
			return fx.events, fx.pos, true
		case NOK:
			return nil, 0, false
		}
		if fx.consumed {
			stall = 0
			continue
		}
		stall++
		if stall > maxStall {
			return nil, 0, false
		}
	}
}

// Slice returns the bytes of src covered by t.
func (t Token) Slice(src []byte) []byte {
	return src[t.Start:t.End]
}
