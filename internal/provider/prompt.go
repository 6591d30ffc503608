package provider

import (
	"fmt"
	"math/rand/v2"
)

// SystemInstruction frames every generation request.
const SystemInstruction = `Ты преподаватель английского языка для русскоговорящих учеников. ` +
	`Ты составляешь короткие предложения для ежедневного диктанта-перевода и отвечаешь только JSON.`

// sentencePrompt asks for a single record. The format argument is the topic hint.
const sentencePrompt = `Придумай одно естественное английское предложение (6-14 слов) на тему "%s" для перевода на русский.

Верни ТОЛЬКО JSON-объект без markdown и комментариев:
{
  "en": "английское предложение",
  "ru": "точный перевод на русский",
  "topic": "тема с подходящим эмодзи в начале",
  "difficulty": "легко | средне | сложно",
  "explanation": "2-3 предложения на русском о ключевой грамматике или лексике"
}`

// Topics seeds generation with variety.
var Topics = []string{
	"Путешествия",
	"Работа",
	"Еда",
	"Покупки",
	"Погода",
	"Здоровье",
	"Семья",
	"Технологии",
	"Спорт",
	"Учёба",
	"Город",
	"Хобби",
}

// BuildPrompt renders the generation prompt for topic.
func BuildPrompt(topic string) string {
	return fmt.Sprintf(sentencePrompt, topic)
}

// RandomTopic picks a topic hint.
func RandomTopic() string {
	return Topics[rand.IntN(len(Topics))]
}
