package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "damage-vision/internal/application"
	"damage-vision/internal/container"
	"damage-vision/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для поиска повреждений автомобиля по фото.

📸 Отправьте мне фото машины, и я определю марку, модель и повреждённые детали.

📋 Команды:
/check — начать проверку
/last — повторить последний результат
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото автомобиля
2️⃣ Бот проанализирует изображение
3️⃣ Вы получите результат: марка, модель, список повреждений и фото с рамками

💡 Рекомендации:
• Снимайте при хорошем освещении
• Повреждённая деталь должна быть целиком в кадре

📋 Команды:
/check — начать проверку
/last — повторить последний результат
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте фото автомобиля для проверки."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото автомобиля."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Анализирую изображение..."
	msgNoDamage        = "✅ Повреждения не обнаружены."
	msgNoLastReport    = "🗂 Пока нет ни одного результата. Отправьте фото."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
)

// Bot представляет Telegram-бота
type Bot struct {
	api *tgbotapi.BotAPI
	app *container.Container
}

// NewBot создаёт нового бота
func NewBot(token string, appContainer *container.Container) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api: api,
		app: appContainer,
	}, nil
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID, ok := senderOf(msg)
	if !ok {
		// сообщения каналов приходят без From
		return
	}

	user, err := b.app.UserService.Get(ctx, userID, chatID)
	if err != nil {
		log.Printf("Error getting user: %v", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// senderOf возвращает ID отправителя и чата, если оба известны
func senderOf(msg *tgbotapi.Message) (userID, chatID int64, ok bool) {
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return 0, 0, false
	}
	return msg.From.ID, msg.Chat.ID, true
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		b.setState(ctx, user, entity.StateMainMenu)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		if _, err := b.app.UserService.BeginCheck(ctx, user.ID, user.ChatID); err != nil {
			log.Printf("Error saving user: %v", err)
		}
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "cancel":
		if _, err := b.app.UserService.Cancel(ctx, user.ID, user.ChatID); err != nil {
			log.Printf("Error saving user: %v", err)
		}
		b.sendMessage(msg.Chat.ID, msgCancelled)

	case "last":
		if user.LastReport == nil {
			b.sendMessage(msg.Chat.ID, msgNoLastReport)
			return
		}
		b.sendReport(msg.Chat.ID, user.LastReport)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	b.setState(ctx, user, entity.StateProcessing)
	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(photo.FileID)
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		b.finish(ctx, user, nil)
		return
	}

	out := b.app.DetectionService.DetectImage(ctx, imageData)
	if out.Failed() {
		log.Printf("Detection failed (%s): %v", app.KindOf(out.Err), out.Err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		b.finish(ctx, user, nil)
		return
	}

	b.sendReport(msg.Chat.ID, out.Report)
	b.finish(ctx, user, out.Report)
}

func (b *Bot) setState(ctx context.Context, user *entity.User, state entity.UserState) {
	if _, err := b.app.UserService.SetState(ctx, user.ID, user.ChatID, state); err != nil {
		log.Printf("Error saving user: %v", err)
	}
}

func (b *Bot) finish(ctx context.Context, user *entity.User, report *entity.Report) {
	if _, err := b.app.UserService.Finish(ctx, user.ID, user.ChatID, report); err != nil {
		log.Printf("Error saving user: %v", err)
	}
}

// sendReport отправляет фото с рамками и подпись, а без картинки только текст
func (b *Bot) sendReport(chatID int64, report *entity.Report) {
	caption := formatReport(report)
	if report.Visual == nil {
		b.sendMessage(chatID, caption)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "damage.png", Bytes: report.Visual})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		log.Printf("Error sending photo: %v", err)
		b.sendMessage(chatID, caption)
	}
}

// formatReport собирает текст результата для чата
func formatReport(r *entity.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🚗 %s %s\n", r.Brand, r.Model)
	if len(r.Parts) == 0 {
		sb.WriteString(msgNoDamage)
		return sb.String()
	}

	fmt.Fprintf(&sb, "🔍 Найдено повреждений: %d\n", len(r.Parts))
	for i, p := range r.Parts {
		fmt.Fprintf(&sb, "%d. %s (%.0f%%)\n", i+1, p.Caption(), p.Conf*100)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
