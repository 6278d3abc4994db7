//go:build e2e

package e2e

import (
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createActividad registers an actividad and returns its name
func createActividad(t *testing.T, page playwright.Page, meta string) string {
	t.Helper()
	name := "Bazar " + uniqueSuffix()

	_, err := page.Goto(baseURL + "/contabilidad/actividades/nueva")
	require.NoError(t, err)
	require.NoError(t, page.Locator("input[name='nombre']").Fill(name))
	require.NoError(t, page.Locator("textarea[name='descripcion']").Fill("bazar de fin de año"))
	require.NoError(t, page.Locator("input[name='fecha_inicio']").Fill("2024-11-01"))
	require.NoError(t, page.Locator("input[name='meta']").Fill(meta))
	require.NoError(t, page.Locator("form.form button[type='submit']").Click())
	require.NoError(t, page.WaitForURL(baseURL+"/contabilidad/actividades?**"))
	return name
}

func TestActividades_CreateShowsProgress(t *testing.T) {
	page := newPage(t)
	login(t, page)

	name := createActividad(t, page, "200000")
	assert.Equal(t, "¡Actividad registrada con éxito!", textOf(t, page.Locator(".alert-success")))

	card := page.Locator("article.actividad", playwright.PageLocatorOptions{HasText: name})
	waitVisible(t, card)
	assert.Contains(t, textOf(t, card), "$ 0 de $ 200.000 (0%)")
}

func TestActividades_DuplicateNameRejected(t *testing.T) {
	page := newPage(t)
	login(t, page)
	name := createActividad(t, page, "1000")

	_, err := page.Goto(baseURL + "/contabilidad/actividades/nueva")
	require.NoError(t, err)
	require.NoError(t, page.Locator("input[name='nombre']").Fill(name))
	require.NoError(t, page.Locator("input[name='fecha_inicio']").Fill("2024-11-01"))
	require.NoError(t, page.Locator("input[name='meta']").Fill("1000"))
	require.NoError(t, page.Locator("form.form button[type='submit']").Click())

	errBox := page.Locator(".alert-error")
	waitVisible(t, errBox)
	assert.Equal(t, "Ya existe una actividad con este nombre", textOf(t, errBox))
}

func TestContabilidad_TransaccionLifecycle(t *testing.T) {
	page := newPage(t)
	login(t, page)
	actividad := createActividad(t, page, "200000")

	// open the actividad and register an ingreso from there
	require.NoError(t, page.Locator("article.actividad h2 a", playwright.PageLocatorOptions{HasText: actividad}).Click())
	require.NoError(t, page.WaitForURL(baseURL+"/contabilidad/actividades/*"))
	assert.Equal(t, actividad, textOf(t, page.Locator("main h1")))
	require.NoError(t, page.Locator("a", playwright.PageLocatorOptions{HasText: "Registrar transacción"}).Click())
	require.NoError(t, page.WaitForURL(baseURL+"/contabilidad/transacciones/nueva?**"))

	selected, err := page.Locator("select[name='actividad_id'] option:checked").TextContent()
	require.NoError(t, err)
	assert.Equal(t, actividad, selected, "actividad preselected from query")

	_, err = page.Locator("select[name='tipo']").SelectOption(playwright.SelectOptionValues{Values: &[]string{"ingreso"}})
	require.NoError(t, err)
	_, err = page.Locator("select[name='categoria_id']").SelectOption(
		playwright.SelectOptionValues{Labels: &[]string{"Diezmos (Ingreso)"}})
	require.NoError(t, err)
	require.NoError(t, page.Locator("input[name='monto']").Fill("50000"))
	require.NoError(t, page.Locator("textarea[name='descripcion']").Fill("venta de empanadas"))
	require.NoError(t, page.Locator("form.form button[type='submit']").Click())

	require.NoError(t, page.WaitForURL(baseURL+"/contabilidad?**"))
	assert.Equal(t, "Transacción registrada exitosamente ✅", textOf(t, page.Locator(".alert-success")))

	row := page.Locator("#transacciones-list tbody tr", playwright.PageLocatorOptions{HasText: actividad})
	waitVisible(t, row)
	rowText := textOf(t, row)
	assert.Contains(t, rowText, "$ 50.000")
	assert.Contains(t, rowText, "Diezmos")
	assert.Contains(t, rowText, "Activa")

	// detail page with receipts
	require.NoError(t, row.Locator("a").First().Click())
	require.NoError(t, page.WaitForURL(baseURL+"/contabilidad/transacciones/*"))
	numero := textOf(t, page.Locator("article.detail dd").First())
	assert.True(t, strings.HasPrefix(numero, "ING"), numero)

	pdfURL, err := page.Locator("a", playwright.PageLocatorOptions{HasText: "Comprobante PDF"}).GetAttribute("href")
	require.NoError(t, err)
	resp, err := page.Request().Get(baseURL + pdfURL)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status())
	assert.Equal(t, "application/pdf", resp.Headers()["content-type"])

	// annul as admin
	require.NoError(t, page.Locator("input[name='motivo']").Fill("registro duplicado"))
	require.NoError(t, page.Locator("button", playwright.PageLocatorOptions{HasText: "Anular"}).Click())
	require.NoError(t, page.WaitForURL(baseURL+"/contabilidad/transacciones/*?**"))
	assert.Equal(t, "Transacción anulada", textOf(t, page.Locator(".alert-success")))
	assert.Contains(t, textOf(t, page.Locator("article.detail")), "Anulada: registro duplicado")
	count, err := page.Locator("input[name='motivo']").Count()
	require.NoError(t, err)
	assert.Zero(t, count, "anular form hidden once annulled")

	// annulled transacciones don't count toward the actividad
	_, err = page.Goto(baseURL + "/contabilidad/actividades")
	require.NoError(t, err)
	card := page.Locator("article.actividad", playwright.PageLocatorOptions{HasText: actividad})
	assert.Contains(t, textOf(t, card), "$ 0 de $ 200.000 (0%)")
}

func TestContabilidad_FilterByTipo(t *testing.T) {
	page := newPage(t)
	login(t, page)

	_, err := page.Goto(baseURL + "/contabilidad")
	require.NoError(t, err)
	_, err = page.Locator("form.filters select[name='tipo']").SelectOption(
		playwright.SelectOptionValues{Values: &[]string{"egreso"}})
	require.NoError(t, err)

	// htmx reloads the list on change, no ingreso rows remain
	require.NoError(t, page.Locator("#transacciones-list").WaitFor())
	_, err = page.WaitForFunction(
		`() => document.querySelectorAll("#transacciones-list tbody tr.ingreso").length === 0`, nil)
	require.NoError(t, err)
}

func TestCategorias_PageListsCatalog(t *testing.T) {
	page := newPage(t)
	login(t, page)

	_, err := page.Goto(baseURL + "/contabilidad/categorias")
	require.NoError(t, err)
	body := textOf(t, page.Locator("main"))
	for _, name := range []string{"Diezmos", "Ofrendas", "Servicios públicos"} {
		assert.Contains(t, body, name)
	}
}
