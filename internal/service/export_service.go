package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	exportHeaderFill     = "366092"
	exportDishHeaderFill = "DCE6F1"
	exportColumnWidth    = 20
	exportMaxColumnWidth = 50
)

type ExportService struct {
	menuSvc    *MenuService
	financeSvc *FinanceService
	logger     *zap.Logger
}

func NewExportService(menuSvc *MenuService, financeSvc *FinanceService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		menuSvc:    menuSvc,
		financeSvc: financeSvc,
		logger:     logger,
	}
}

func (s *ExportService) MenuWorkbook(ctx context.Context) ([]byte, error) {
	entries, err := s.menuSvc.Menu(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const sheet = "Меню и себестоимость"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	w := &sheetWriter{f: f, sheet: sheet}
	headers := []string{
		"ID", "Название блюда", "Категория", "Цена продажи",
		"Себестоимость", "Прибыль с порции", "Наценка %", "Маржа %",
	}
	w.setRow(1, headers)

	for i, entry := range entries {
		row := i + 2
		w.setCell(1, row, entry.Dish.ID)
		w.setCell(2, row, entry.Dish.Name)
		w.setCell(3, row, entry.Dish.Category)
		w.setCell(4, row, decimalCell(entry.Dish.Price))
		w.setCell(5, row, decimalCell(entry.Cost))
		w.setCell(6, row, decimalCell(entry.Margin))
		w.setCell(7, row, decimalCell(entry.MarkupPct))
		w.setCell(8, row, decimalCell(entry.MarginPct))
	}
	if w.err != nil {
		return nil, fmt.Errorf("failed to fill menu sheet: %w", w.err)
	}

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header row: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "H", exportColumnWidth); err != nil {
		return nil, fmt.Errorf("failed to set column widths: %w", err)
	}

	return workbookBytes(f)
}

func (s *ExportService) TechCardsWorkbook(ctx context.Context) ([]byte, error) {
	entries, err := s.menuSvc.Menu(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const sheet = "Техкарты"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, err
	}
	dishStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{exportDishHeaderFill}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dish style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create bold style: %w", err)
	}

	w := &sheetWriter{f: f, sheet: sheet}
	row := 1
	for _, entry := range entries {
		w.setCell(1, row, fmt.Sprintf("Блюдо: %s", entry.Dish.Name))
		w.styleCell(1, row, dishStyle)
		row++

		w.setRow(row, []string{"Ингредиент", "Единица измерения", "Количество", "Цена за единицу", "Сумма"})
		w.styleRange(1, row, 5, row, headerStyle)
		row++

		for _, item := range entry.Components {
			w.setCell(1, row, item.IngredientName)
			w.setCell(2, row, item.IngredientUnit)
			w.setCell(3, row, decimalCell(item.Quantity))
			w.setCell(4, row, decimalCell(item.PricePerUnit))
			w.setCell(5, row, decimalCell(item.Cost()))
			row++
		}

		w.setCell(4, row, "Итого себестоимость:")
		w.styleCell(4, row, boldStyle)
		w.setCell(5, row, decimalCell(entry.Cost))
		w.styleCell(5, row, boldStyle)
		row += 2
	}
	if w.err != nil {
		return nil, fmt.Errorf("failed to fill tech cards sheet: %w", w.err)
	}

	if err := f.SetColWidth(sheet, "A", "E", exportColumnWidth); err != nil {
		return nil, fmt.Errorf("failed to set column widths: %w", err)
	}

	return workbookBytes(f)
}

func (s *ExportService) FinancialReportWorkbook(ctx context.Context, from, to time.Time) ([]byte, error) {
	report, err := s.financeSvc.Report(ctx, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create bold style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}

	const summarySheet = "Сводка"
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	w := &sheetWriter{f: f, sheet: summarySheet}
	w.setCell(1, 1, "Финансовый отчет")
	w.styleCell(1, 1, titleStyle)
	w.setCell(1, 2, reportPeriodLabel(from, to))

	summaryRows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Выручка", report.Revenue},
		{"Себестоимость проданных товаров", report.CostOfGoods},
		{"Валовая прибыль", report.GrossProfit},
		{"Расходы", report.ExpenseTotal},
		{"Чистая прибыль", report.NetProfit},
	}
	for i, sr := range summaryRows {
		row := i + 4
		w.setCell(1, row, sr.label)
		w.styleCell(1, row, boldStyle)
		w.setCell(2, row, decimalCell(sr.value))
	}

	const categorySheet = "Расходы по категориям"
	if _, err := f.NewSheet(categorySheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	w.sheet = categorySheet
	w.setRow(1, []string{"Категория", "Сумма"})
	w.styleRange(1, 1, 2, 1, boldStyle)
	for i, ct := range report.ExpensesByCategory {
		w.setCell(1, i+2, ct.Category)
		w.setCell(2, i+2, decimalCell(ct.Total))
	}

	const expenseSheet = "Детальные расходы"
	if _, err := f.NewSheet(expenseSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	w.sheet = expenseSheet
	w.setRow(1, []string{"Дата", "Категория", "Сумма", "Описание"})
	w.styleRange(1, 1, 4, 1, boldStyle)
	for i, expense := range report.Expenses {
		row := i + 2
		w.setCell(1, row, expense.SpentOn.Format("2006-01-02"))
		w.setCell(2, row, expense.Category)
		w.setCell(3, row, decimalCell(expense.Amount))
		description := ""
		if expense.Description != nil {
			description = *expense.Description
		}
		w.setCell(4, row, description)
	}

	const salesSheet = "Продажи"
	if _, err := f.NewSheet(salesSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	w.sheet = salesSheet
	w.setRow(1, []string{"Дата", "Блюдо", "Количество", "Сумма"})
	w.styleRange(1, 1, 4, 1, boldStyle)
	for i, sale := range report.Sales {
		row := i + 2
		w.setCell(1, row, sale.SoldOn.Format("2006-01-02"))
		w.setCell(2, row, sale.DishName)
		w.setCell(3, row, sale.Quantity)
		w.setCell(4, row, decimalCell(sale.Total))
	}
	if w.err != nil {
		return nil, fmt.Errorf("failed to fill report sheets: %w", w.err)
	}

	for _, sheet := range f.GetSheetList() {
		if err := autoFitColumns(f, sheet); err != nil {
			return nil, fmt.Errorf("failed to fit columns on %s: %w", sheet, err)
		}
	}

	return workbookBytes(f)
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) setCell(col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell, value)
}

func (w *sheetWriter) setRow(row int, values []string) {
	for i, value := range values {
		w.setCell(i+1, row, value)
	}
}

func (w *sheetWriter) styleCell(col, row, styleID int) {
	w.styleRange(col, row, col, row, styleID)
}

func (w *sheetWriter) styleRange(fromCol, fromRow, toCol, toRow, styleID int) {
	if w.err != nil {
		return
	}
	start, err := excelize.CoordinatesToCellName(fromCol, fromRow)
	if err != nil {
		w.err = err
		return
	}
	end, err := excelize.CoordinatesToCellName(toCol, toRow)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, start, end, styleID)
}

func newHeaderStyle(f *excelize.File) (int, error) {
	styleID, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{exportHeaderFill}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return styleID, nil
}

func autoFitColumns(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}

	widths := map[int]float64{}
	for _, row := range rows {
		for col, value := range row {
			width := float64(len([]rune(value))) + 2
			if width > widths[col] {
				widths[col] = width
			}
		}
	}

	for col, width := range widths {
		if width > exportMaxColumnWidth {
			width = exportMaxColumnWidth
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func decimalCell(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func reportPeriodLabel(from, to time.Time) string {
	if from.IsZero() && to.IsZero() {
		return "За весь период"
	}
	if from.IsZero() {
		return fmt.Sprintf("Период: по %s", to.Format("2006-01-02"))
	}
	if to.IsZero() {
		return fmt.Sprintf("Период: с %s", from.Format("2006-01-02"))
	}
	return fmt.Sprintf("Период: %s - %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
}
