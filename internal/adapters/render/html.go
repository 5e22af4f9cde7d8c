// Package render строит HTML-сводку разобранного поста для лог-чата.
package render

import (
	"fmt"
	"html"
	"strings"

	"telegram-post-parser/internal/domain"
)

// textPreviewLimit ограничивает длину превью исходного текста в сводке.
const textPreviewLimit = 1000

// HTMLRenderer реализует ports.Renderer. Сводка собирается из секций:
// текст, источник, пересылка, корзины сущностей, медиа, ссылка на оригинал.
// Пустые секции опускаются целиком.
type HTMLRenderer struct{}

// NewHTMLRenderer создает новый HTMLRenderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

// Render возвращает HTML-сводку поста.
func (r *HTMLRenderer) Render(post *domain.ParsedPost) string {
	sec := make([]string, 0, 32)
	sec = append(sec, "<b>📨 New Parsed Message </b>\n")

	sec = append(sec, "<b>📝 Text: </b>")
	if post.RawText != "" {
		sec = append(sec, "<pre>"+esc(truncate(post.RawText, textPreviewLimit))+"</pre>")
	} else {
		sec = append(sec, "<i>— no text —</i>")
	}

	title := post.ChatTitle
	if title == "" {
		title = "DM"
	}
	sec = append(sec, fmt.Sprintf("\n<b>📡 %s: </b> <a href='https://t.me/%s'>%s</a>",
		esc(capitalize(post.ChatType)), post.ChatUsername, esc(title)))
	if post.Date != "" {
		sec = append(sec, "<b>🕐 Date:</b> "+esc(prefix(post.Date, 16)))
	}

	if post.ForwardedFrom != "" {
		sec = append(sec, "<b>↩️ Fwd:</b>  "+esc(post.ForwardedFrom))
	}
	if post.ReplyToMessageID != 0 {
		sec = append(sec, fmt.Sprintf("<b>💬 Reply to:</b>  #%d", post.ReplyToMessageID))
	}

	sec = append(sec, renderList("🔗 URLs", post.URLs, 12, 0)...)
	sec = append(sec, renderTags("#️⃣ Hashtags", post.Hashtags)...)
	sec = append(sec, renderTags("👤 Mentions", post.Mentions)...)
	sec = append(sec, renderList("✉️ Emails", post.Emails, 10, 0)...)
	sec = append(sec, renderList("🅱️ Bold", post.BoldTexts, 8, 100)...)
	sec = append(sec, renderList("🔤 Italic", post.ItalicTexts, 8, 100)...)
	sec = append(sec, renderList("⎁ Underline", post.UnderlineTexts, 6, 100)...)
	sec = append(sec, renderList("🪧 Strike", post.StrikethroughTexts, 6, 100)...)
	sec = append(sec, renderCode("💻 Code", post.CodeFragments, 5)...)
	sec = append(sec, renderList("🫣 Spoiler", post.SpoilerTexts, 5, 80)...)

	if post.HasWebpagePreview && post.WebpageURL != "" {
		sec = append(sec, "<b>🌐 Preview:</b>  "+esc(post.WebpageURL))
	}

	if post.DownloadedPath != "" {
		sec = append(sec, "<b>💾 Saved:</b>  <code>"+esc(post.DownloadedPath)+"</code>")
	}
	if post.DownloadMethod != "" {
		sec = append(sec, "<b>📤 Attach:</b>  "+esc(post.DownloadMethod))
	}

	if post.GroupedID != 0 {
		sec = append(sec, fmt.Sprintf("<b>🗂 Album:</b>  <code>%d</code>", post.GroupedID))
	}

	if post.ChatUsername != "" {
		link := domain.PublicLink(post.ChatUsername, post.MessageID)
		sec = append(sec, "", fmt.Sprintf("<a href=\"%s\">🔗 Open original</a>", link))
	}

	return strings.Join(sec, "\n")
}

// renderList выводит корзину столбиком с ограничением количества и длины.
func renderList(label string, items []string, limit, trim int) []string {
	if len(items) == 0 {
		return nil
	}
	out := []string{"", fmt.Sprintf("<b>%s (%d):</b>", label, len(items))}
	for _, item := range items[:min(limit, len(items))] {
		if trim > 0 {
			item = truncate(item, trim)
		}
		out = append(out, "  • "+esc(item))
	}
	if len(items) > limit {
		out = append(out, fmt.Sprintf("  <i>… +%d more</i>", len(items)-limit))
	}
	return out
}

// renderTags выводит корзину одной строкой: теги и упоминания короткие.
func renderTags(label string, items []string) []string {
	if len(items) == 0 {
		return nil
	}
	escaped := make([]string, len(items))
	for i, item := range items {
		escaped[i] = esc(item)
	}
	return []string{"", fmt.Sprintf("<b>%s (%d):</b>", label, len(items)),
		"  " + strings.Join(escaped, "  ")}
}

// renderCode выводит фрагменты кода в моноширинных блоках.
func renderCode(label string, items []string, limit int) []string {
	if len(items) == 0 {
		return nil
	}
	out := []string{"", fmt.Sprintf("<b>%s (%d):</b>", label, len(items))}
	for _, c := range items[:min(limit, len(items))] {
		out = append(out, "  • <code>"+esc(truncate(c, 120))+"</code>")
	}
	return out
}

func esc(s string) string {
	return html.EscapeString(s)
}

// truncate обрезает строку до limit рун с маркером многоточия.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

// prefix обрезает строку до limit рун без маркера.
func prefix(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// capitalize поднимает первую букву: "channel" -> "Channel".
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
