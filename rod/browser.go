package rod

import (
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultRecycleAfter is the number of renders after which the browser is
// replaced with a fresh process.
const DefaultRecycleAfter = 75

// browser owns one headless Chrome process and replaces it after a fixed
// number of renders, since Chrome's memory baseline grows with every page.
type browser struct {
	mu           sync.Mutex
	current      *rod.Browser
	launcher     *launcher.Launcher
	renders      int
	recycleAfter int
	closed       bool
}

func newBrowser(recycleAfter int) (*browser, error) {
	b := &browser{recycleAfter: recycleAfter}
	if err := b.launch(); err != nil {
		return nil, err
	}
	return b, nil
}

// acquire returns the browser to render the next page with, recycling it
// first when its render budget is spent.
func (b *browser) acquire() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("browser closed")
	}
	if b.recycleAfter > 0 && b.renders >= b.recycleAfter {
		b.recycle()
	}
	b.renders++
	return b.current, nil
}

func (b *browser) launch() error {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	current := rod.New().ControlURL(u)
	if err := current.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	b.current = current
	b.launcher = l
	return nil
}

// recycle swaps in a fresh browser. The old one is kept if the launch fails.
// Must be called with mu held.
func (b *browser) recycle() {
	old, oldLauncher := b.current, b.launcher
	if err := b.launch(); err != nil {
		b.current, b.launcher = old, oldLauncher
		return
	}
	_ = old.Close()
	oldLauncher.Kill()
	b.renders = 0
}

func (b *browser) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.current != nil {
		err = b.current.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}

func (b *browser) pid() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.launcher == nil {
		return 0
	}
	return b.launcher.PID()
}
