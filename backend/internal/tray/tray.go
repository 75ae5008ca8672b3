// Package tray shows a system tray icon with shortcuts to open the web
// client and to stop the server.
package tray

import (
	"log/slog"
	"os/exec"
	"runtime"
	"sync"

	"fyne.io/systray"
	"go.uber.org/atomic"
)

// Options configure the tray.
type Options struct {
	Title string
	// URL is what "Open Browser" opens.
	URL string
	// OnExit is called once when "Exit" is clicked.
	OnExit func()
	Icon   []byte
	Logger *slog.Logger
}

// Tray manages the system tray icon and menu
type Tray struct {
	opts         Options
	log          *slog.Logger
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuCopy     *systray.MenuItem
	menuExit     *systray.MenuItem
}

func New(opts Options) *Tray {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = "TouchRemote"
	}
	return &Tray{opts: opts, log: opts.Logger}
}

// Supported reports whether a tray can be shown on this platform.
func Supported() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray, for shutdowns that did not start from the menu.
func (t *Tray) Quit() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

func (t *Tray) onReady() {
	if t.opts.Icon != nil {
		systray.SetIcon(t.opts.Icon)
	}
	systray.SetTitle(t.opts.Title)
	systray.SetTooltip(t.opts.Title + " - " + t.opts.URL)

	t.menuOpen = systray.AddMenuItem("Open Browser", "Open the control surface")
	t.menuCopy = systray.AddMenuItem(t.opts.URL, "Address for phones and tablets on this network")
	t.menuCopy.Disable()
	systray.AddSeparator()
	t.menuExit = systray.AddMenuItem("Exit", "Stop the server")

	go t.handleMenuClicks()

	t.log.Info("system tray initialized")
}

// handleMenuClicks processes menu item clicks without blocking
func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				t.openBrowser()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				if t.opts.OnExit != nil {
					t.once.Do(t.opts.OnExit)
				}
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.log.Info("system tray exiting")
}

func (t *Tray) openBrowser() {
	name, args := browserCommand(runtime.GOOS, t.opts.URL)
	if err := exec.Command(name, args...).Start(); err != nil {
		t.log.Warn("failed to open browser", "url", t.opts.URL, "error", err)
	}
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	}
	return "xdg-open", []string{url}
}
