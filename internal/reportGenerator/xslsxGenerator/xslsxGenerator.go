package xslsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/utils"
	"github.com/xuri/excelize/v2"
)

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

func (g *XSLSXGenerator) Generate(ctx context.Context, report model.SectorReport) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	if report.Sector == "" {
		return nil, "", errors.New("empty report sector")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", report.Sector))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := g.fillSheet(ctx, f, report); err != nil {
		return nil, "", err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XSLSXGenerator) fillSheet(ctx context.Context, f *excelize.File, report model.SectorReport) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.fillSheet"

	sheetName := report.Sector
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	// sector averages
	err = f.MergeCell(sheetName, "A1", "F1")
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Sector summary")

	styleID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "sector")
	_ = f.SetCellStr(sheetName, "B2", "records")
	_ = f.SetCellStr(sheetName, "C2", "avg price")
	_ = f.SetCellStr(sheetName, "D2", "avg market cap")
	_ = f.SetCellStr(sheetName, "E2", "avg beta")
	_ = f.SetCellStr(sheetName, "F2", "generated at")

	_ = f.SetCellStr(sheetName, "A3", report.Stats.Sector)
	_ = f.SetCellInt(sheetName, "B3", int64(report.Stats.Records))
	if report.Stats.AvgPrice.Valid {
		_ = f.SetCellValue(sheetName, "C3", report.Stats.AvgPrice.Decimal.InexactFloat64())
	}
	if report.Stats.AvgMarketCap.Valid {
		_ = f.SetCellValue(sheetName, "D3", report.Stats.AvgMarketCap.Decimal.InexactFloat64())
	}
	if report.Stats.AvgBeta != nil {
		_ = f.SetCellValue(sheetName, "E3", *report.Stats.AvgBeta)
	}
	_ = f.SetCellStr(sheetName, "F3", report.GeneratedAt.Format("2006-01-02 15:04"))

	// per ticker breakdown
	err = f.MergeCell(sheetName, "A5", "F5")
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A5", "Tickers")

	styleID, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#d9ead3"},
		},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "A5", "A5", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A6", "ticker")
	_ = f.SetCellStr(sheetName, "B6", "latest date")
	_ = f.SetCellStr(sheetName, "C6", "latest price")
	_ = f.SetCellStr(sheetName, "D6", "avg price")
	_ = f.SetCellStr(sheetName, "E6", "avg market cap")
	_ = f.SetCellStr(sheetName, "F6", "beta")

	for i, ticker := range report.Tickers {
		row := i + 7
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), ticker.Ticker)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), ticker.LatestDate.Format(time.DateOnly))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), ticker.LatestPrice.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), ticker.AvgPrice.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), ticker.AvgMarketCap.InexactFloat64())
		if ticker.Beta != nil {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), *ticker.Beta)
		}
	}

	return nil
}
