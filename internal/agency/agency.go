// Package agency implements the policy objects that resolve sub-paths
// rooted at a receiver into sub-receivers (spec §4.2): Agency is a
// collection of Agents, each mapping one URL segment pattern to a
// constructor/destructor of sub-receivers.
package agency

// Path is an ordered sequence of non-empty segments.
type Path []string

// Resolution is what an Agency returns for a successful sub-path match
// (spec §4.2 contract).
type Resolution struct {
	Receiver       any
	TypeID         string
	Agency         Agency
	ConsumedPrefix Path
	RemainingTail  Path
}

// Agency resolves one step of a path against a receiver, declining
// (ok=false) if no agent under it matches.
type Agency interface {
	Resolve(receiver any, tail Path) (Resolution, bool)
}

// Installer is an optional capability an Agency implements when it
// wants to announce sub-bindings as soon as it is wired to a receiver
// (spec §4.3 rule 4, "the agency is immediately wired up via a weak
// installer that enqueues further installs as deferred callbacks").
// enqueue never blocks and may be called synchronously during the
// agency's own construction.
type Installer interface {
	Install(enqueue func(func()))
}

// Match is what a single Agent returns (spec §4.2).
type Match struct {
	ConsumedPrefix Path
	RemainingTail  Path
	Receiver       any
	SubAgency      Agency
}

// Listener observes sub-receivers already present and later created
// under an Agent, in insertion order, until it returns done=true (spec
// §9: "a boolean return [means] 'remove me' ... keep this semantics
// verbatim").
type Listener func(receiver any) (done bool)

// Agent is one entry of an Agency: it recognises a segment pattern and
// produces (or recycles) the sub-receiver behind it.
type Agent interface {
	ServiceType() string
	Match(container any, subpath Path) (Match, bool)
	Register(container any, listener Listener)
}

// Chain builds an Agency out of an ordered list of agents, trying each
// in turn and returning the first Match (spec §4.2: "given a receiver
// and a non-empty path tail, an agency may produce a Resolution, or
// null if no agent matches").
type Chain struct {
	Agents []Agent
}

// NewChain builds a fixed Agency from agents, tried in order.
func NewChain(agents ...Agent) Chain {
	return Chain{Agents: append([]Agent(nil), agents...)}
}

func (c Chain) Resolve(receiver any, tail Path) (Resolution, bool) {
	if len(tail) == 0 {
		return Resolution{}, false
	}
	for _, a := range c.Agents {
		m, ok := a.Match(receiver, tail)
		if !ok {
			continue
		}
		return Resolution{
			Receiver:       m.Receiver,
			TypeID:         a.ServiceType(),
			Agency:         m.SubAgency,
			ConsumedPrefix: m.ConsumedPrefix,
			RemainingTail:  m.RemainingTail,
		}, true
	}
	return Resolution{}, false
}
