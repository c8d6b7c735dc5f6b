package ban

// Kind enumerates the socket layer's possible responses to a request, the
// tagged variant spec's design notes call for in place of a bare enum plus
// a side-channel message lookup.
type Kind int

const (
	// Ok allows the request through.
	Ok Kind = iota
	// FirstBan means this is the first (or a periodic reminder) response
	// after crossing the hammering threshold: the caller should send Msg to
	// the peer and close the connection cleanly.
	FirstBan
	// ForceClose means the peer is already banned and this is not a
	// reminder turn: the caller should silently half-close and quarantine
	// the socket via Engine.Force.
	ForceClose
	// BanWithMessage means the address was force-banned with a custom
	// reason (via Engine.Record); the caller should surface Msg on every
	// request, not just the first.
	BanWithMessage
)

// Decision is the outcome of Engine.Allow. It carries any message by value,
// so there is no way to call Msg on a Decision that doesn't have one.
type Decision struct {
	Kind Kind
	Msg  string
}

func decisionOk() Decision                { return Decision{Kind: Ok} }
func decisionFirstBan(msg string) Decision { return Decision{Kind: FirstBan, Msg: msg} }
func decisionForceClose() Decision        { return Decision{Kind: ForceClose} }
func decisionBanWithMessage(msg string) Decision {
	return Decision{Kind: BanWithMessage, Msg: msg}
}
