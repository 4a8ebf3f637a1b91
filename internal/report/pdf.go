package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/vigia-platform/vigia/internal/analyzer"
)

// RenderPDF formats the assembled report as an A4 PDF.
func RenderPDF(data *Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, tr("VIGIA - Relatório de Confiabilidade"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Gerado em %s | Janela de %.0f h | %d eventos",
			data.GeneratedAt.Format("02/01/2006 15:04"), data.WindowHours, data.Events)),
			"", 1, "L", false, 0, "")
		pdf.Ln(3)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	sectionTitle := func(title string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(0, 7, tr(title), "", 1, "L", true, 0, "")
		pdf.Ln(1)
	}
	tableHeader := func(widths []float64, labels []string) {
		pdf.SetFont("Helvetica", "B", 8)
		for i, label := range labels {
			pdf.CellFormat(widths[i], 6, tr(label), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	cell := func(w float64, s string) {
		pdf.CellFormat(w, 6, tr(s), "1", 0, "L", false, 0, "")
	}

	if len(data.TopEquipment) > 0 {
		sectionTitle("Equipamentos críticos")
		widths := []float64{35, 25, 25, 18, 22, 45}
		tableHeader(widths, []string{"Equipamento", "Frota", "Parada (h)", "Falhas", "MTTR (h)", "Item mais frequente"})
		for _, row := range data.TopEquipment {
			cell(widths[0], row.Equipment)
			cell(widths[1], row.Fleet)
			cell(widths[2], fmt.Sprintf("%.1f", row.DowntimeHours))
			cell(widths[3], fmt.Sprintf("%d", row.Occurrences))
			cell(widths[4], fmt.Sprintf("%.1f", row.MTTRHours))
			cell(widths[5], row.TopItem)
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	writeHierarchy := func(title string, rows []analyzer.HierarchyKPI) {
		if len(rows) == 0 {
			return
		}
		sectionTitle(title)
		widths := []float64{70, 30, 30, 20, 20}
		tableHeader(widths, []string{"Grupo", "Total (h)", "MTTR (h)", "Falhas", "Equip."})
		for _, row := range rows {
			cell(widths[0], row.Group)
			cell(widths[1], fmt.Sprintf("%.1f", row.TotalHours))
			cell(widths[2], fmt.Sprintf("%.1f", row.MTTRHours))
			cell(widths[3], fmt.Sprintf("%d", row.Occurrences))
			cell(widths[4], fmt.Sprintf("%d", row.EquipmentCount))
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}
	writeHierarchy("Sistemas mais impactados", data.Systems)
	writeHierarchy("Conjuntos mais impactados", data.Assemblies)
	writeHierarchy("Itens mais impactados", data.Items)

	if len(data.Timeline) > 0 {
		sectionTitle("Maiores paradas")
		widths := []float64{35, 40, 30, 30, 20, 20}
		tableHeader(widths, []string{"Equipamento", "Item", "Início", "Fim", "Horas", "Impacto"})
		for _, ev := range data.Timeline {
			cell(widths[0], ev.Equipment)
			cell(widths[1], ev.Item)
			cell(widths[2], ev.Start.Format("02/01 15:04"))
			cell(widths[3], ev.End.Format("02/01 15:04"))
			cell(widths[4], fmt.Sprintf("%.1f", ev.DurationHours))
			cell(widths[5], impactLabel(ev.Impact))
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	if len(data.Causes) > 0 {
		sectionTitle("Principais causas e recomendações")
		for i, cause := range data.Causes {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s (%d ocorrências)", i+1, cause.Cause, cause.Occurrences)), "", "L", false)
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 5, tr(cause.Recommendation), "", "L", false)
			pdf.Ln(2)
		}
		pdf.Ln(2)
	}

	if len(data.Availability) > 0 {
		sectionTitle("Disponibilidade física")
		widths := []float64{45, 35, 35, 30, 25}
		tableHeader(widths, []string{"Equipamento", "DF indicador (%)", "DF estimada (%)", "Meta (%)", "Gap (%)"})
		for _, row := range data.Availability {
			cell(widths[0], row.Equipment)
			if row.HasIndicator {
				cell(widths[1], fmt.Sprintf("%.1f", row.IndicatorDF))
			} else {
				cell(widths[1], "-")
			}
			cell(widths[2], fmt.Sprintf("%.1f", row.EstimatedDF))
			cell(widths[3], fmt.Sprintf("%.1f", row.TargetDF))
			cell(widths[4], fmt.Sprintf("%.1f", row.GapDF))
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	if len(data.SectionErrors) > 0 {
		sectionTitle("Seções não geradas")
		pdf.SetFont("Helvetica", "", 8)
		for name, msg := range data.SectionErrors {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s: %s", name, msg)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func impactLabel(impact string) string {
	switch impact {
	case "high":
		return "Alto"
	case "medium":
		return "Médio"
	default:
		return "Baixo"
	}
}
