package handler

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportHandler 导出某个用户的支出明细
type ExportHandler struct {
	Expenditures *service.ExpenditureService
	Users        *service.UserService
	Log          *zap.Logger
}

func NewExportHandler(expenditures *service.ExpenditureService, users *service.UserService, log *zap.Logger) *ExportHandler {
	return &ExportHandler{Expenditures: expenditures, Users: users, Log: log.Named("handler.export")}
}

var exportHeaders = []string{"UUID", "Date", "Name", "Category", "Cost", "Place"}

func exportRow(e *models.Expenditure) []string {
	return []string{
		e.UUID,
		e.Date.UTC().Format(util.DateLayout),
		csvText(e.Name),
		string(e.Category),
		strconv.FormatFloat(e.Cost, 'f', 2, 64),
		csvText(e.Place),
	}
}

// csvText 以 = + - @ 开头的文本加 ' 前缀，防止表格软件当作公式执行
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}

// Export ?format=csv|xlsx，支持 date_from / date_to / search
func (h *ExportHandler) Export(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	owner, ok := pathUser(c, h.Users, user, h.Log)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		validationFailed(c)
		return
	}

	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		validationFailed(c)
		return
	}

	list, err := h.Expenditures.ListAll(c.Request.Context(), service.ExpenditureQuery{
		OwnerID:  owner.ID,
		Search:   c.Query("search"),
		DateFrom: from,
		DateTo:   to,
	})
	if err != nil {
		Fail(c, h.Log, err)
		return
	}

	filename := fmt.Sprintf("expenditures_%s", time.Now().Format("20060102"))
	if format == "xlsx" {
		h.writeXLSX(c, filename, list)
		return
	}
	h.writeCSV(c, filename, list)
}

func (h *ExportHandler) writeCSV(c *gin.Context, filename string, list []models.Expenditure) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// UTF-8 BOM（让 Excel 正确识别编码）
	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write(exportHeaders)
	for i := range list {
		_ = writer.Write(exportRow(&list[i]))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.Log.Warn("write csv", zap.Error(err))
	}
}

func (h *ExportHandler) writeXLSX(c *gin.Context, filename string, list []models.Expenditure) {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Expenditures"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		Fail(c, h.Log, fmt.Errorf("create sheet: %w", err))
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	// 表头
	for i, title := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, title)
	}

	for idx := range list {
		e := &list[idx]
		row := idx + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), e.UUID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), e.Date.UTC().Format(util.DateLayout))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), e.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), string(e.Category))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), e.Cost)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), e.Place)
	}

	// 列宽
	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "C", 30)
	_ = f.SetColWidth(sheetName, "D", "D", 10)
	_ = f.SetColWidth(sheetName, "E", "E", 12)
	_ = f.SetColWidth(sheetName, "F", "F", 30)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	if err := f.Write(c.Writer); err != nil {
		h.Log.Warn("write xlsx", zap.Error(err))
	}
}
