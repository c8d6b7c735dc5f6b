// Package ban implements the hammering detector: a per-address leaky-bucket
// rate limiter with exponential ban back-off, backed by an aging.Table for
// storage and a scheduler.Queue for the decay-expiry/unban timer every
// tracked record carries.
package ban

import (
	"fmt"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/gtknet/ward/aging"
	"github.com/gtknet/ward/common/fdlimit"
	"github.com/gtknet/ward/common/mclock"
	"github.com/gtknet/ward/config"
	"github.com/gtknet/ward/event"
	"github.com/gtknet/ward/log"
	"github.com/gtknet/ward/metrics"
	"github.com/gtknet/ward/scheduler"
	"github.com/google/uuid"
)

// record is one tracked address. Exactly one of its two timer kinds is
// ever armed: a decay-expiry callout while not banned, or an unban callout
// while banned.
type record struct {
	addr     netip.Addr
	counter  float64
	created  mclock.AbsTime
	banDelay time.Duration
	banCount uint32
	banned   bool
	msg      string
	callout  *scheduler.Callout
}

// Socket is the narrow capability Engine.Force needs: shrink buffers,
// half-close for reading, and hand over the underlying fd. *net.TCPConn
// satisfies this interface directly.
type Socket interface {
	SetReadBuffer(bytes int) error
	SetWriteBuffer(bytes int) error
	CloseRead() error
	File() (*os.File, error)
}

// Engine is the hammering ban detector. It is infallible at its public
// surface: every operation returns a Decision or a plain value, never an
// error.
type Engine struct {
	mu sync.Mutex

	cfg       config.Ban
	clock     mclock.Clock
	rate      float64 // MaxRequests per second of Period
	whitelist Whitelist

	table      *aging.Table[netip.Addr, *record]
	callouts   *scheduler.Queue
	quarantine *QuarantineFifo

	Events *event.FeedOf[Event]

	cOk, cFirstBan, cForceClose, cBanMsg metrics.Counter
}

// New constructs an Engine. A nil whitelist exempts no address.
func New(cfg config.Ban, clock mclock.Clock, whitelist Whitelist) *Engine {
	if whitelist == nil {
		whitelist = noWhitelist{}
	}
	e := &Engine{
		cfg:        cfg,
		clock:      clock,
		rate:       float64(cfg.MaxRequests) / cfg.Period().Seconds(),
		whitelist:  whitelist,
		callouts:   scheduler.New(clock),
		quarantine: NewQuarantineFifo(quarantineCapacity(cfg), clock),
		Events:     new(event.FeedOf[Event]),
		cOk:        metrics.GetOrRegisterCounter("ban/allow/ok", nil),
		cFirstBan:  metrics.GetOrRegisterCounter("ban/allow/first_ban", nil),
		cForceClose: metrics.GetOrRegisterCounter("ban/allow/force_close", nil),
		cBanMsg:    metrics.GetOrRegisterCounter("ban/allow/ban_with_message", nil),
	}
	e.table = aging.New[netip.Addr, *record]("ban", cfg.MaxDelay()*2, cfg.GCTick(), clock, true, e.dropRecord)
	return e
}

func quarantineCapacity(cfg config.Ban) int {
	cur, err := fdlimit.Current()
	if err != nil || cur <= 0 {
		cur = cfg.MaxFdsAbs
	}
	capByRatio := cur * cfg.MaxFdsRatioPct / 100
	cap := capByRatio
	if cfg.MaxFdsAbs > 0 && cfg.MaxFdsAbs < cap {
		cap = cfg.MaxFdsAbs
	}
	if cap < 1 {
		cap = 1
	}
	return cap
}

// dropRecord is the aging.Table kv-dropper: it runs when onDecayTimer
// removes a never-banned record, when the table's own coarse TTL safety net
// reclaims a record left resident (a once-banned record gone silent), and
// at Close. In every case the record's callout, if still armed, is
// cancelled.
func (e *Engine) dropRecord(_ netip.Addr, r *record) {
	if r.callout != nil {
		e.callouts.Cancel(r.callout)
	}
}

// Allow is the socket layer's entry point, run once per accepted request.
func (e *Engine) Allow(addr netip.Addr) Decision {
	if !addr.IsValid() || e.whitelist.Check(addr) {
		return decisionOk()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.table.TouchGet(addr)
	if !ok {
		r = &record{addr: addr, counter: 1, created: e.clock.Now()}
		e.table.Insert(addr, r)
		e.armDecayLocked(r)
		e.cOk.Inc(1)
		return decisionOk()
	}

	if r.banned {
		return e.allowBannedLocked(r)
	}

	now := e.clock.Now()
	r.counter = decay(r.counter, now.Sub(r.created), e.rate)
	r.counter++
	r.created = now

	if r.counter <= float64(e.cfg.MaxRequests) {
		e.rearmDecayLocked(r)
		e.cOk.Inc(1)
		return decisionOk()
	}
	return e.banLocked(r)
}

func (e *Engine) allowBannedLocked(r *record) Decision {
	if r.msg != "" {
		e.cBanMsg.Inc(1)
		return decisionBanWithMessage(r.msg)
	}
	r.banCount++
	if r.banCount%uint32(e.cfg.RemindEvery) == 0 {
		e.cFirstBan.Inc(1)
		return decisionFirstBan(genericBanMessage(r.banDelay))
	}
	e.cForceClose.Inc(1)
	return decisionForceClose()
}

func (e *Engine) banLocked(r *record) Decision {
	delay := nextBanDelay(r.banDelay, e.cfg)
	r.banned = true
	r.banDelay = delay
	r.banCount = 0
	r.msg = ""
	e.armUnbanLocked(r)
	e.cFirstBan.Inc(1)
	msg := genericBanMessage(delay)
	e.publish(Event{ID: uuid.New(), Addr: r.addr, Kind: EventBanned, Delay: delay, Msg: msg})
	log.Warn("ban: address banned", "addr", r.addr, "delay", delay)
	return decisionFirstBan(msg)
}

// Record force-bans addr for MaxDelay seconds with a custom reason,
// preserving any existing record's ban_count.
func (e *Engine) Record(addr netip.Addr, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	r, ok := e.table.TouchGet(addr)
	if !ok {
		r = &record{addr: addr, created: now}
		e.table.Insert(addr, r)
	}
	r.banned = true
	r.msg = msg
	r.banDelay = e.cfg.MaxDelay()
	r.created = now
	if r.callout != nil {
		e.callouts.Cancel(r.callout)
	}
	r.callout = e.callouts.Schedule(now.Add(r.banDelay), func() { e.onUnbanTimer(r) })

	e.publish(Event{ID: uuid.New(), Addr: addr, Kind: EventRecorded, Delay: r.banDelay, Msg: msg})
	log.Warn("ban: address force-banned", "addr", addr, "msg", msg)
}

// Force shrinks sock's buffers, half-closes it for reading and transfers
// its fd into the QuarantineFifo. Called by the socket layer after Allow
// returns ForceClose.
func (e *Engine) Force(sock Socket) {
	sock.SetReadBuffer(512)
	sock.SetWriteBuffer(512)
	sock.CloseRead()
	f, err := sock.File()
	if err != nil {
		log.Warn("ban: could not extract fd for quarantine", "err", err)
		return
	}
	e.quarantine.Push(f)
}

// IsBanned reports whether addr currently carries an active ban.
func (e *Engine) IsBanned(addr netip.Addr) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.table.Get(addr)
	return ok && r.banned
}

// Delay returns addr's current ban duration, or 0 if it has never been
// banned.
func (e *Engine) Delay(addr netip.Addr) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.table.Get(addr)
	if !ok {
		return 0
	}
	return r.banDelay
}

// Message returns addr's custom ban reason, if Record set one.
func (e *Engine) Message(addr netip.Addr) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.table.Get(addr)
	if !ok || r.msg == "" {
		return "", false
	}
	return r.msg, true
}

// Quarantine returns the engine's QuarantineFifo.
func (e *Engine) Quarantine() *QuarantineFifo {
	return e.quarantine
}

// Subscribe registers ch to receive ban state transition Events.
func (e *Engine) Subscribe(ch chan<- Event) event.Subscription {
	return e.Events.Subscribe(ch)
}

func (e *Engine) publish(ev Event) {
	e.Events.Send(ev)
}

// Close cancels every pending callout and releases the quarantine FIFO.
func (e *Engine) Close() {
	e.table.Close()
	e.quarantine.Close()
}

func (e *Engine) armDecayLocked(r *record) {
	r.callout = e.callouts.Schedule(e.decayDeadline(r), func() { e.onDecayTimer(r) })
}

func (e *Engine) rearmDecayLocked(r *record) {
	if r.callout == nil {
		e.armDecayLocked(r)
		return
	}
	e.callouts.Reschedule(r.callout, e.decayDeadline(r))
}

func (e *Engine) decayDeadline(r *record) mclock.AbsTime {
	secs := r.counter / e.rate
	return r.created.Add(time.Duration(secs * float64(time.Second)))
}

func (e *Engine) armUnbanLocked(r *record) {
	if r.callout != nil {
		e.callouts.Cancel(r.callout)
	}
	r.callout = e.callouts.Schedule(e.clock.Now().Add(r.banDelay), func() { e.onUnbanTimer(r) })
}

// onDecayTimer fires once a not-banned record's leaky bucket has decayed
// to zero. A record that has never been banned is removed outright. A
// record that has, at least once, carries its ban_delay as escalation
// memory for the next offense and is left resident with a zero counter and
// no armed timer instead of being forgotten — otherwise a quiet attacker
// could reset their own back-off by waiting out exactly one decay period.
// The aging.Table backstop GC still reclaims it after prolonged inactivity.
func (e *Engine) onDecayTimer(r *record) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r.counter = 0
	r.callout = nil
	if r.banDelay == 0 {
		e.table.Remove(r.addr)
	}
}

// onUnbanTimer fires when a ban's delay has elapsed. The ban is lifted and
// the counter is decayed by the elapsed time since the ban began; if it
// survives, a fresh decay-expiry timer is armed. If it has decayed to zero
// the record is left resident (see onDecayTimer) rather than removed, so
// ban_delay still doubles on the attacker's next offense.
func (e *Engine) onUnbanTimer(r *record) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	r.counter = decay(r.counter, now.Sub(r.created), e.rate)
	r.created = now
	r.banned = false
	r.msg = ""
	r.callout = nil
	e.publish(Event{ID: uuid.New(), Addr: r.addr, Kind: EventUnbanned, Delay: 0})
	if r.counter <= 0 {
		return
	}
	e.armDecayLocked(r)
}

func decay(counter float64, elapsed time.Duration, rate float64) float64 {
	c := counter - elapsed.Seconds()*rate
	if c < 0 {
		return 0
	}
	return c
}

func nextBanDelay(prev time.Duration, cfg config.Ban) time.Duration {
	next := prev * 2
	if prev == 0 {
		next = cfg.InitialDelay()
	}
	if max := cfg.MaxDelay(); next > max {
		next = max
	}
	return next
}

func genericBanMessage(delay time.Duration) string {
	return fmt.Sprintf("banned for %d seconds: excessive request rate", int(delay.Seconds()))
}
