package sandbox

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type Selector [4]byte

// SelectorOf derives a message selector from the message name.
func SelectorOf(name string) Selector {
	var s Selector
	copy(s[:], chainhash.HashB([]byte(name))[:4])
	return s
}

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

type Handler func(env *Env, input []byte) ([]byte, error)

type Message struct {
	Name    string
	Payable bool
	Handler Handler
}

// Program is the code deployed at an account. Messages are dispatched by selector; anything unmatched goes to
// the fallback when one is set.
type Program struct {
	Name        string
	Constructor func(env *Env) error
	messages    map[Selector]Message
	fallback    *Message
}

func NewProgram(name string) *Program {
	return &Program{Name: name, messages: make(map[Selector]Message)}
}

func (p *Program) WithConstructor(fn func(env *Env) error) *Program {
	p.Constructor = fn
	return p
}

func (p *Program) WithMessage(name string, payable bool, handler Handler) *Program {
	p.messages[SelectorOf(name)] = Message{Name: name, Payable: payable, Handler: handler}
	return p
}

func (p *Program) WithFallback(payable bool, handler Handler) *Program {
	p.fallback = &Message{Name: "fallback", Payable: payable, Handler: handler}
	return p
}

func (p *Program) lookup(selector Selector) (Message, bool) {
	if msg, ok := p.messages[selector]; ok {
		return msg, true
	}
	if p.fallback != nil {
		return *p.fallback, true
	}
	return Message{}, false
}
