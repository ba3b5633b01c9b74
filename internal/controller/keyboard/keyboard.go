// Package keyboard сборка inline и reply клавиатур бота
package keyboard

import "github.com/go-telegram/bot/models"

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Row добавляет ряд кнопок, пустой ряд пропускается
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: b.rows}
}

// Button inline кнопка с callback data
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callbackData}
}

// Choices reply клавиатура, по одному варианту в ряд, скрывается после выбора
func Choices(options []string) *models.ReplyKeyboardMarkup {
	rows := make([][]models.KeyboardButton, 0, len(options))
	for _, opt := range options {
		rows = append(rows, []models.KeyboardButton{{Text: opt}})
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:        rows,
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

// WebApp reply клавиатура с одной кнопкой мини-приложения
func WebApp(text, url string) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{{
			{Text: text, WebApp: &models.WebAppInfo{URL: url}},
		}},
		ResizeKeyboard: true,
	}
}

// Remove убирает reply клавиатуру
func Remove() *models.ReplyKeyboardRemove {
	return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
}
