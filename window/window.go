// Package window はオペレーター画面を専用のブラウザウィンドウで表示します。
package window

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Window はオペレーター画面をアプリモードで開いたブラウザです。
type Window struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// Open はタブやアドレスバーのない Chromium 系ブラウザで url を開きます。
// Leakless(false) はセキュリティソフトにブロックされる補助バイナリを使わないための設定です。
func Open(ctx context.Context, url string) (*Window, error) {
	l := launcher.New().
		Headless(false).
		Leakless(false).
		Set("app", url).
		Set("window-size", "360,420")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return &Window{launcher: l, browser: browser}, nil
}

// Close はブラウザを閉じ、プロファイルディレクトリを削除します。
func (w *Window) Close() error {
	err := w.browser.Close()
	w.launcher.Cleanup()
	return err
}

// OpenSystemBrowser は OS の既定ブラウザで url を開きます。
func OpenSystemBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
