//go:build e2e

// Package e2e provides end-to-end browser tests for the Feligres web UI.
//
// Test organization:
// - e2e_test.go: TestMain, shared helpers, constants, dashboard tests
// - auth_test.go: login, logout and session tests
// - personas_test.go: persona registration, search and view mode tests
// - contabilidad_test.go: actividades, transacciones and anulación tests
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseURL       = "http://127.0.0.1:18080"
	testDBPath    = "/tmp/feligres-e2e.db"
	testUploads   = "/tmp/feligres-e2e-uploads"
	testBinary    = "/tmp/feligres-e2e"
	adminEmail    = "admin@e2e.test"
	adminPassword = "testpass123" //nolint:gosec // test password for e2e tests
)

var (
	pw        *playwright.Playwright
	serverCmd *exec.Cmd
)

func TestMain(m *testing.M) {
	// clean old test data
	_ = os.Remove(testDBPath)
	_ = os.RemoveAll(testUploads)

	// build test binary
	ctx := context.Background()
	build := exec.CommandContext(ctx, "go", "build", "-o", testBinary, "./app")
	build.Dir = ".."
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Printf("failed to build: %v\n", err)
		os.Exit(1)
	}

	serverCmd = exec.CommandContext(ctx, testBinary,
		"--listen=127.0.0.1:18080",
		"--db.dsn="+testDBPath,
		"--uploads.dir="+testUploads,
		"--web.secret=e2e-secret-0123456789",
		"--web.login-rate=50",
		"--admin.email="+adminEmail,
		"--admin.password="+adminPassword,
		"--admin.name=Admin E2E",
		"--seed.file=../catalog.example.yml",
		"--notify.host=e2e-test",
	)
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr
	if err := serverCmd.Start(); err != nil {
		fmt.Printf("failed to start server: %v\n", err)
		os.Exit(1)
	}

	if err := waitForServer(baseURL+"/ping", 30*time.Second); err != nil {
		fmt.Printf("server not ready: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		fmt.Printf("failed to install playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	var err error
	pw, err = playwright.Run()
	if err != nil {
		fmt.Printf("failed to start playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	code := m.Run()

	// cleanup
	_ = pw.Stop()
	_ = serverCmd.Process.Kill()
	_ = os.Remove(testDBPath)
	_ = os.RemoveAll(testUploads)

	os.Exit(code)
}

func waitForServer(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready after %v", timeout)
		default:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody) // #nosec G107 - test url
			if err != nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			resp, err := client.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func newPage(t *testing.T) playwright.Page {
	t.Helper()
	headless := os.Getenv("E2E_HEADLESS") != "false"
	slowMo := 0.0
	if !headless {
		slowMo = 50 // 50ms slowdown for UI mode
	}
	brow, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		SlowMo:   playwright.Float(slowMo),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = brow.Close() })

	// isolated context per test, cookies are not shared
	ctx, err := brow.NewContext()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	page, err := ctx.NewPage()
	require.NoError(t, err)

	// forms with data-confirm ask before submitting
	page.OnDialog(func(d playwright.Dialog) { _ = d.Accept() })
	return page
}

// login signs in as the bootstrap admin and waits for the dashboard
func login(t *testing.T, page playwright.Page) {
	t.Helper()
	_, err := page.Goto(baseURL + "/login")
	require.NoError(t, err)
	require.NoError(t, page.Locator("input[name='email']").Fill(adminEmail))
	require.NoError(t, page.Locator("input[name='password']").Fill(adminPassword))
	require.NoError(t, page.Locator("button[type='submit']").Click())
	require.NoError(t, page.WaitForURL(baseURL+"/"))
	waitVisible(t, page.Locator(".topbar"))
}

func waitVisible(t *testing.T, loc playwright.Locator) {
	t.Helper()
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	})
	require.NoError(t, err)
}

func textOf(t *testing.T, loc playwright.Locator) string {
	t.Helper()
	text, err := loc.TextContent()
	require.NoError(t, err)
	return text
}

// uniqueSuffix keeps names distinct between test runs sharing one database
func uniqueSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000_000)
}

// --- dashboard tests ---

func TestDashboard_PageLoads(t *testing.T) {
	page := newPage(t)
	login(t, page)

	title, err := page.Title()
	require.NoError(t, err)
	assert.Equal(t, "Inicio · Feligres", title)

	for _, link := range []string{"/personas", "/contabilidad", "/contabilidad/actividades", "/usuarios"} {
		visible, err := page.Locator(".topbar nav a[href='" + link + "']").IsVisible()
		require.NoError(t, err)
		assert.True(t, visible, "nav link %s should be visible for admin", link)
	}

	assert.Contains(t, textOf(t, page.Locator("footer")), "e2e-test")
	assert.Contains(t, textOf(t, page.Locator(".topbar .user")), "Admin E2E")
}

func TestDashboard_NavigatesSections(t *testing.T) {
	page := newPage(t)
	login(t, page)

	tests := []struct {
		link, url, heading string
	}{
		{link: "/personas", url: baseURL + "/personas", heading: "Personas"},
		{link: "/contabilidad", url: baseURL + "/contabilidad", heading: "Contabilidad"},
		{link: "/contabilidad/actividades", url: baseURL + "/contabilidad/actividades", heading: "Actividades"},
		{link: "/contabilidad/categorias", url: baseURL + "/contabilidad/categorias", heading: "Categorías"},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			require.NoError(t, page.Locator(".topbar nav a[href='"+tt.link+"']").Click())
			require.NoError(t, page.WaitForURL(tt.url))
			assert.Equal(t, tt.heading, textOf(t, page.Locator("main h1")))
			class, err := page.Locator(".topbar nav a[href='" + tt.link + "']").GetAttribute("class")
			require.NoError(t, err)
			assert.Equal(t, "active", class)
		})
	}
}
