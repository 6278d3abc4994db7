//go:build e2e

package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_LoginPageDisplays(t *testing.T) {
	page := newPage(t)
	_, err := page.Goto(baseURL + "/login")
	require.NoError(t, err)

	title, err := page.Title()
	require.NoError(t, err)
	assert.Equal(t, "Iniciar sesión · Feligres", title)

	for _, sel := range []string{".login-card", "input[name='email']", "input[name='password']", "button[type='submit']"} {
		visible, err := page.Locator(sel).IsVisible()
		require.NoError(t, err)
		assert.True(t, visible, "%s should be visible", sel)
	}
}

func TestAuth_LoginValid(t *testing.T) {
	page := newPage(t)
	login(t, page)

	assert.Equal(t, baseURL+"/", page.URL(), "should be redirected to dashboard")
	visible, err := page.Locator("a[href='/logout']").IsVisible()
	require.NoError(t, err)
	assert.True(t, visible, "logout link should be visible after login")
}

func TestAuth_LoginInvalid(t *testing.T) {
	page := newPage(t)
	_, err := page.Goto(baseURL + "/login")
	require.NoError(t, err)

	require.NoError(t, page.Locator("input[name='email']").Fill(adminEmail))
	require.NoError(t, page.Locator("input[name='password']").Fill("wrongpassword"))
	require.NoError(t, page.Locator("button[type='submit']").Click())

	errBox := page.Locator(".login-card .alert-error")
	waitVisible(t, errBox)
	assert.Equal(t, "Credenciales inválidas", textOf(t, errBox))

	// email is kept, password is not
	value, err := page.Locator("input[name='email']").InputValue()
	require.NoError(t, err)
	assert.Equal(t, adminEmail, value)
	value, err = page.Locator("input[name='password']").InputValue()
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestAuth_ProtectedPagesRedirect(t *testing.T) {
	page := newPage(t)

	for _, path := range []string{"/", "/personas", "/contabilidad", "/contabilidad/actividades"} {
		t.Run(path, func(t *testing.T) {
			_, err := page.Goto(baseURL + path)
			require.NoError(t, err)
			require.NoError(t, page.WaitForURL(baseURL+"/login**"))
			waitVisible(t, page.Locator(".login-card"))
		})
	}
}

func TestAuth_Logout(t *testing.T) {
	page := newPage(t)
	login(t, page)

	require.NoError(t, page.Locator("a[href='/logout']").Click())
	require.NoError(t, page.WaitForURL(baseURL+"/login**"))

	// session cookie is gone, protected pages bounce back to login
	_, err := page.Goto(baseURL + "/personas")
	require.NoError(t, err)
	require.NoError(t, page.WaitForURL(baseURL+"/login**"))
}

func TestAuth_SessionSurvivesReload(t *testing.T) {
	page := newPage(t)
	login(t, page)

	_, err := page.Reload(playwright.PageReloadOptions{WaitUntil: playwright.WaitUntilStateLoad})
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/", page.URL())
	waitVisible(t, page.Locator(".topbar"))
}
