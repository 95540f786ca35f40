package app

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const invoicesSheet = "Фактури"

func (s *appService) ExportInvoicesExcel(ctx context.Context, companyID, startDate, endDate string) ([]byte, error) {
	invoices, err := s.ListInvoices(ctx, ListInvoicesRequest{
		CompanyID: companyID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		return nil, err
	}

	companyName := ""
	if c, err := s.company.Get(ctx, companyID); err == nil {
		companyName = c.Name
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	title := "Справка за фактури"
	if companyName != "" {
		title = fmt.Sprintf("Справка за фактури - %s", companyName)
	}
	f.SetCellValue(invoicesSheet, "A1", title)
	f.SetCellValue(invoicesSheet, "A2", fmt.Sprintf("Генерирано на: %s", time.Now().Format("02.01.2006 15:04")))
	f.MergeCell(invoicesSheet, "A1", "G1")
	f.MergeCell(invoicesSheet, "A2", "G2")

	headers := []string{"Дата", "Доставчик", "№ Фактура", "Сума без ДДС", "ДДС", "Обща сума", "Бележки"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(invoicesSheet, cell, h)
	}
	if headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"8B5CF6"}, Pattern: 1},
	}); err == nil {
		f.SetCellStyle(invoicesSheet, "A4", "G4", headerStyle)
	}

	totalNet := decimal.Zero
	totalVAT := decimal.Zero
	totalGross := decimal.Zero
	for i, inv := range invoices {
		row := i + 5
		notes := ""
		if inv.Notes != nil {
			notes = *inv.Notes
		}
		values := []any{
			inv.Date.Format("02.01.2006"),
			inv.Supplier,
			inv.InvoiceNumber,
			inv.AmountWithoutVAT.InexactFloat64(),
			inv.VATAmount.InexactFloat64(),
			inv.TotalAmount.InexactFloat64(),
			notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(invoicesSheet, cell, v)
		}
		totalNet = totalNet.Add(inv.AmountWithoutVAT)
		totalVAT = totalVAT.Add(inv.VATAmount)
		totalGross = totalGross.Add(inv.TotalAmount)
	}

	totalRow := len(invoices) + 5
	f.SetCellValue(invoicesSheet, fmt.Sprintf("C%d", totalRow), "ОБЩО:")
	f.SetCellValue(invoicesSheet, fmt.Sprintf("D%d", totalRow), totalNet.InexactFloat64())
	f.SetCellValue(invoicesSheet, fmt.Sprintf("E%d", totalRow), totalVAT.InexactFloat64())
	f.SetCellValue(invoicesSheet, fmt.Sprintf("F%d", totalRow), totalGross.InexactFloat64())

	widths := []float64{12, 30, 15, 15, 12, 15, 25}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(invoicesSheet, col, col, w)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

const statsSheet = "Статистика"

func (s *appService) ExportStatisticsExcel(ctx context.Context, companyID, startDate, endDate string) ([]byte, error) {
	sum, err := s.GetSummary(ctx, companyID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	companyName := ""
	if c, err := s.company.Get(ctx, companyID); err == nil {
		companyName = c.Name
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", statsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	title := "Финансова статистика"
	if companyName != "" {
		title = fmt.Sprintf("Финансова статистика - %s", companyName)
	}
	f.SetCellValue(statsSheet, "A1", title)
	f.SetCellValue(statsSheet, "A2", fmt.Sprintf("Генерирано: %s", time.Now().Format("02.01.2006 15:04")))
	f.MergeCell(statsSheet, "A1", "B1")

	f.SetCellValue(statsSheet, "A4", "Показател")
	f.SetCellValue(statsSheet, "B4", "Стойност")
	if headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"10B981"}, Pattern: 1},
	}); err == nil {
		f.SetCellStyle(statsSheet, "A4", "B4", headerStyle)
	}

	rows := []struct {
		label string
		value any
	}{
		{"Общо приходи", sum.TotalIncome.InexactFloat64()},
		{"Общо разходи", sum.TotalExpense.InexactFloat64()},
		{"Печалба", sum.Profit.InexactFloat64()},
		{"ДДС за плащане", sum.VATToPay.InexactFloat64()},
		{"Брой фактури", sum.InvoiceCount},
	}
	for i, r := range rows {
		f.SetCellValue(statsSheet, fmt.Sprintf("A%d", i+5), r.label)
		f.SetCellValue(statsSheet, fmt.Sprintf("B%d", i+5), r.value)
	}

	f.SetColWidth(statsSheet, "A", "A", 25)
	f.SetColWidth(statsSheet, "B", "B", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
