// Package message renders dictation sentences as Telegram HTML messages.
package message

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/edgard/dictant/internal/sentence"
)

// Mode selects which half of a dictation is rendered.
type Mode string

// Message modes.
const (
	Task   Mode = "task"
	Answer Mode = "answer"
)

// Encouragement replaces the explanation when a sentence has none.
const Encouragement = "Сравни со своим вариантом: порядок слов и время глагола важнее дословности."

// policy strips all markup and escapes entities. Safe for concurrent use.
var policy = bluemonday.StrictPolicy()

// Sanitize makes untrusted text safe to embed in a Telegram HTML message.
func Sanitize(text string) string {
	return strings.TrimSpace(policy.Sanitize(text))
}

// Render formats s for the daily dictation in the given mode. Unknown modes
// render as a task.
func Render(s sentence.Sentence, mode Mode) string {
	f := fieldsOf(s)
	if mode == Answer {
		return renderAnswer(f, "📝 <b>ПРОВЕРКА ДИКТАНТА</b>")
	}
	return renderTask(f, "📝 <b>ДИКТАНТ ДНЯ</b>", "⏳ <b>Ответ придет вечером</b>")
}

// RenderDemo formats s for a demo run, where the answer follows shortly after
// the task.
func RenderDemo(s sentence.Sentence, mode Mode) string {
	f := fieldsOf(s)
	if mode == Answer {
		return renderAnswer(f, "📝 <b>ПРОВЕРКА ТЕСТОВОГО ДИКТАНТА</b>")
	}
	return renderTask(f, "📝 <b>ТЕСТОВЫЙ ДИКТАНТ</b>", "⏳ <b>Проверка через минуту</b>")
}

type fields struct {
	en, ru, topic, difficulty, explanation string
}

func fieldsOf(s sentence.Sentence) fields {
	f := fields{
		en:          Sanitize(s.EN),
		ru:          Sanitize(s.RU),
		topic:       Sanitize(s.Topic),
		difficulty:  Sanitize(s.Difficulty),
		explanation: Sanitize(s.Explanation),
	}
	if f.topic == "" {
		f.topic = sentence.DefaultTopic
	}
	if f.difficulty == "" {
		f.difficulty = sentence.DefaultDifficulty
	}
	return f
}

func renderTask(f fields, header, footer string) string {
	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString("<b>Тема:</b> " + f.topic + "\n")
	b.WriteString("<b>Сложность:</b> " + f.difficulty + "\n\n")
	b.WriteString("🇬🇧 <b>Переведи на русский:</b>\n")
	b.WriteString("<i>" + f.en + "</i>\n\n")
	b.WriteString(footer)
	return b.String()
}

func renderAnswer(f fields, header string) string {
	explanation := f.explanation
	if explanation == "" {
		explanation = Encouragement
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString("🇬🇧 <b>Было:</b> " + f.en + "\n")
	b.WriteString("🇷🇺 <b>Правильный перевод:</b>\n")
	b.WriteString("<i>" + f.ru + "</i>\n\n")
	b.WriteString("💡 <b>Пояснение:</b>\n")
	b.WriteString(explanation + "\n\n")
	b.WriteString("📊 <b>Разбор:</b>\n")
	b.WriteString("• Тема: " + f.topic + "\n")
	b.WriteString("• Сложность: " + f.difficulty + "\n\n")
	b.WriteString("💪 Как твой вариант? Напиши в комментариях!")
	return b.String()
}
