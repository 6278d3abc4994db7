package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/feligres/feligres/app/store"
)

// ComprobantePDF writes a one-transaccion receipt in A4 with a page/time footer
func ComprobantePDF(w io.Writer, t store.Transaccion, generated time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // core fonts are cp1252
	pdf.SetTitle(tr("Comprobante "+numeroOrID(t)), false)
	pdf.SetAuthor("feligres", false)
	pdf.AliasNbPages("")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(85, 10, generated.Format("02/01/2006 15:04:05"), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(0, 10, tr("COMPROBANTE DE TRANSACCIÓN"), "", 1, "C", false, 0, "")
	pdf.SetDrawColor(30, 64, 175)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, 32, 190, 32)
	pdf.SetY(40)

	pdf.SetFontSize(12)
	pdf.SetTextColor(0, 0, 0)
	row := func(label, value string, bold bool) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(60, 7, tr(label), "", 0, "L", false, 0, "")
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 12)
		pdf.CellFormat(0, 7, tr(value), "", 1, "L", false, 0, "")
	}

	row("Número de Transacción:", "#"+numeroOrID(t), true)
	row("Fecha y Hora:", FormatFecha(t.Fecha), false)
	row("Tipo:", t.Tipo.Label(), false)
	row("Monto:", FormatCOP(t.Monto), true)
	row("Categoría:", orNA(t.CategoriaNombre), false)
	if t.ActividadNombre != "" {
		row("Actividad:", t.ActividadNombre, false)
	}
	if t.PersonaNombre != "" {
		row("Persona:", t.PersonaNombre, false)
	}
	row("Estado:", t.Estado.Label(), false)
	if t.IsAnulada() && t.MotivoAnulacion != "" {
		row("Motivo de anulación:", t.MotivoAnulacion, false)
	}

	if t.Descripcion != "" {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, tr("Descripción:"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(170, 7, tr(t.Descripcion), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf for %s: %w", t.ID, err)
	}
	return nil
}

// ComprobanteFileName is the download name of a receipt with the given extension
func ComprobanteFileName(t store.Transaccion, ext string) string {
	return "transaccion_" + numeroOrID(t) + "." + ext
}

func numeroOrID(t store.Transaccion) string {
	if t.NumeroTransaccion != "" {
		return t.NumeroTransaccion
	}
	return t.ID
}
