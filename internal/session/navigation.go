package session

import "time"

// NavigationStrategy decides how the session manager hands control to the
// application shell after an admin login. It exists so the cookie-timing
// workaround below stays out of the core login logic.
type NavigationStrategy interface {
	Navigate(path string)
}

// ImmediateNavigation forwards the target path to the shell right away. This
// is the default strategy.
type ImmediateNavigation struct {
	Go func(path string)
}

// Navigate invokes the shell callback synchronously.
func (n ImmediateNavigation) Navigate(path string) {
	if n.Go != nil {
		n.Go(path)
	}
}

// DelayedNavigation is a compatibility shim for runtimes where the session
// cookie set by login is not yet visible to an immediately-following request.
// It waits a fixed interval before navigating. The delay is a heuristic, not
// a guarantee; a proper fix would await confirmed cookie propagation.
type DelayedNavigation struct {
	Delay time.Duration
	Go    func(path string)
}

// Navigate schedules the shell callback after the configured delay.
func (n DelayedNavigation) Navigate(path string) {
	delay := n.Delay
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	time.AfterFunc(delay, func() {
		if n.Go != nil {
			n.Go(path)
		}
	})
}
