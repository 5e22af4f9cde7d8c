// Команда report превращает журнал разобранных постов (JSON Lines)
// в таблицу XLSX для ручного анализа.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"

	"telegram-post-parser/internal/adapters/sink"
	"telegram-post-parser/internal/domain"
)

const sheetName = "Posts"

var columns = []string{
	"Chat", "Type", "Msg ID", "Date", "Sender", "Text",
	"URLs", "Hashtags", "Mentions", "Media", "Size", "Method", "Link",
}

func main() {
	in := flag.String("in", "parsed_posts.json", "путь к журналу JSON Lines")
	out := flag.String("out", "parsed_posts.xlsx", "путь к итоговому XLSX")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*in, *out); err != nil {
		slog.Error("report generation failed", "error", err)
		os.Exit(1)
	}
}

func run(inPath, outPath string) error {
	posts, err := sink.ReadAll(inPath)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return fmt.Errorf("журнал %s пуст", inPath)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	// Ширина колонок подгоняется под самое широкое значение;
	// runewidth учитывает двухколоночные символы CJK и эмодзи.
	widths := make([]int, len(columns))
	for i, title := range columns {
		widths[i] = runewidth.StringWidth(title)
	}

	writeRow(f, 1, columns, widths)
	for i, post := range posts {
		writeRow(f, i+2, postRow(post), widths)
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if width > 60 {
			width = 60
		}
		if err := f.SetColWidth(sheetName, col, col, float64(width+2)); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.SaveAs(outPath); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	slog.Info("Report written", "path", outPath, "posts", len(posts))
	return nil
}

// writeRow пишет строку значений и обновляет максимальные ширины колонок.
func writeRow(f *excelize.File, row int, values []string, widths []int) {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			continue
		}
		_ = f.SetCellValue(sheetName, cell, value)
		if w := runewidth.StringWidth(value); w > widths[i] {
			widths[i] = w
		}
	}
}

// postRow собирает значения колонок для одного поста.
func postRow(post domain.ParsedPost) []string {
	chat := post.ChatTitle
	if chat == "" {
		chat = post.ChatUsername
	}

	size := ""
	if post.MediaFileSize > 0 {
		size = strconv.FormatInt(post.MediaFileSize, 10)
	}

	text := post.RawText
	if runes := []rune(text); len(runes) > 200 {
		text = string(runes[:200]) + "…"
	}

	return []string{
		chat,
		post.ChatType,
		strconv.Itoa(post.MessageID),
		post.Date,
		post.SenderName,
		text,
		strings.Join(post.URLs, "\n"),
		strings.Join(post.Hashtags, " "),
		strings.Join(post.Mentions, " "),
		post.MediaType,
		size,
		post.DownloadMethod,
		post.PublicLink,
	}
}
