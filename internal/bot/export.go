package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
)

// handleExportCommand: /export [дней], выгрузка записей в Excel.
func (b *Bot) handleExportCommand(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID

	if !b.isAdmin(message.From.ID) {
		b.sendMessage(chatID, "Команда доступна только администраторам.")
		return
	}

	days := b.sched.Policy().DaysAhead
	if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
		parsed, err := strconv.Atoi(arg)
		if err != nil || parsed <= 0 {
			b.sendMessage(chatID, "Использование: /export [количество дней]")
			return
		}
		days = parsed
	}

	path, err := b.exportToExcel(ctx, days)
	if err != nil {
		b.logger.Error().Err(err).Msg("Export failed")
		b.sendMessage(chatID, "❌ Не удалось сформировать выгрузку.")
		return
	}
	defer os.Remove(path)

	if _, err := b.tg.SendDocument(chatID, path); err != nil {
		b.logger.Error().Err(err).Str("path", path).Msg("Failed to send export file")
		b.sendMessage(chatID, "❌ Не удалось отправить файл выгрузки.")
	}
}

// exportToExcel выгружает записи ближайших days дней в xlsx-файл.
func (b *Bot) exportToExcel(ctx context.Context, days int) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	today := b.sched.Today()
	from, _, err := b.sched.DayBoundsUTC(today)
	if err != nil {
		return "", err
	}
	lastDate, err := b.sched.AddDays(today, days)
	if err != nil {
		return "", err
	}
	_, to, err := b.sched.DayBoundsUTC(lastDate)
	if err != nil {
		return "", err
	}

	orders, err := b.repo.ListOrdersWithUsers(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("error getting orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Записи"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Записи: %s — %s", today, lastDate))
	_ = f.MergeCell(sheetName, "A1", "E1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"№", "Дата", "Время", "Клиент", "Создана"}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, order := range orders {
		rowNum := i + 3
		nickname := order.TgNickname
		if nickname == "" {
			nickname = fmt.Sprintf("user_%d", order.UserID)
		}
		values := []any{
			order.ID,
			b.sched.LocalDate(order.StartAt),
			b.sched.LocalSlot(order.StartAt),
			"@" + nickname,
			order.CreatedAt.Format("02.01.2006 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "E", 20)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("orders_%s_%s.xlsx", today, time.Now().Format("150405"))
	fullPath := filepath.Join(b.config.Exports.Path, fileName)
	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return fullPath, nil
}
