package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/feligres/feligres/app/store"
)

// ComprobanteXLSX writes a single transaccion as a Campo/Valor sheet named "Transacción"
func ComprobanteXLSX(w io.Writer, t store.Transaccion) error {
	rows := [][]any{
		{"Campo", "Valor"},
		{"Número de Transacción", numeroOrID(t)},
		{"Fecha", FormatFecha(t.Fecha)},
		{"Tipo", t.Tipo.Label()},
		{"Monto", t.Monto.InexactFloat64()},
		{"Categoría", orNA(t.CategoriaNombre)},
		{"Actividad", orNA(t.ActividadNombre)},
		{"Persona", orNA(t.PersonaNombre)},
		{"Estado", t.Estado.Label()},
		{"Descripción", t.Descripcion},
	}
	if t.IsAnulada() {
		rows = append(rows, []any{"Motivo de anulación", t.MotivoAnulacion})
	}
	return writeSheet(w, "Transacción", []float64{20, 30}, rows)
}

// TransaccionesXLSX writes a list of transacciones, one row each
func TransaccionesXLSX(w io.Writer, list []store.Transaccion) error {
	rows := make([][]any, 0, len(list)+1)
	rows = append(rows, []any{"Número", "Fecha", "Tipo", "Monto", "Categoría", "Actividad", "Persona", "Estado", "Descripción"})
	for _, t := range list {
		rows = append(rows, []any{numeroOrID(t), FormatFecha(t.Fecha), t.Tipo.Label(), t.Monto.InexactFloat64(),
			t.CategoriaNombre, t.ActividadNombre, t.PersonaNombre, t.Estado.Label(), t.Descripcion})
	}
	return writeSheet(w, "Transacciones", []float64{14, 18, 10, 14, 22, 22, 28, 10, 40}, rows)
}

// PersonasXLSX writes a list of personas, one row each
func PersonasXLSX(w io.Writer, list []store.Persona) error {
	rows := make([][]any, 0, len(list)+1)
	rows = append(rows, []any{"Nombre completo", "Tipo ID", "Número ID", "Teléfono", "Email", "Sede",
		"Departamento", "Municipio", "Edad"})
	for _, p := range list {
		var edad any = ""
		if p.Edad != nil {
			edad = *p.Edad
		}
		rows = append(rows, []any{p.NombreCompleto(), p.TipoID, p.NumeroID, p.Telefono, p.Email, p.SedeNombre,
			p.Departamento, p.Municipio, edad})
	}
	return writeSheet(w, "Personas", []float64{32, 8, 16, 16, 28, 18, 18, 18, 6}, rows)
}

// writeSheet renders rows into a single-sheet workbook with a bold header row
func writeSheet(w io.Writer, sheet string, widths []float64, rows [][]any) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", closeErr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to get column name: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set width of %s: %w", col, err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to get cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return fmt.Errorf("failed to get cell name: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
