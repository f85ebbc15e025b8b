package telegramcrm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
	"github.com/filtra-ar/filtrabot/internal/domain/repository"
	"github.com/filtra-ar/filtrabot/pkg/logger"
)

var timeNow = time.Now

// returnBotButtonID matches the conversation engine's return-to-bot
// button so operator messages carry the same exit.
const returnBotButtonID = "btn_return_bot"

// TopicStore persists the identity <-> forum topic mapping.
type TopicStore interface {
	GetTopic(ctx context.Context, identity string) (int, bool, error)
	SetTopic(ctx context.Context, identity string, topicID int) error
	FindIdentityByTopic(ctx context.Context, topicID int) (string, bool, error)
}

// CRM mirrors every conversation into a Telegram forum group, one topic
// per client, and relays operator replies back out through the channel.
// Implements repository.OperatorLog.
type CRM struct {
	bot       *tgbotapi.BotAPI
	groupID   int64
	topics    TopicStore
	sessions  repository.SessionRepository
	messenger repository.Messenger
}

func New(token string, groupID int64, topics TopicStore, sessions repository.SessionRepository, messenger repository.Messenger) (*CRM, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	logger.InfoLogger.Printf("✅ CRM authorized on account %s", bot.Self.UserName)
	return &CRM{bot: bot, groupID: groupID, topics: topics, sessions: sessions, messenger: messenger}, nil
}

// Log sends one mirror entry into the client's topic, creating the
// topic (plus the pinned client card) on first contact.
func (c *CRM) Log(ctx context.Context, identity, text string, tier repository.MirrorTier) error {
	topicID, err := c.ensureTopic(ctx, identity, "📱 "+identity)
	if err != nil {
		return err
	}

	if tier == repository.TierUrgent {
		// Operators close topics when done; an urgent entry reopens so
		// the alert is not buried in a closed thread.
		if _, err := c.rawRequest("reopenForumTopic", map[string]string{
			"chat_id":           strconv.FormatInt(c.groupID, 10),
			"message_thread_id": strconv.Itoa(topicID),
		}); err != nil {
			logger.ErrorLogger.Printf("reopen topic %d: %v", topicID, err)
		}
	}

	_, err = c.sendToTopic(topicID, text, tier == repository.TierSilent)
	return err
}

// ensureTopic returns the existing topic for identity or creates one,
// posting and pinning the client card.
func (c *CRM) ensureTopic(ctx context.Context, identity, name string) (int, error) {
	if id, ok, err := c.topics.GetTopic(ctx, identity); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}

	result, err := c.rawRequest("createForumTopic", map[string]string{
		"chat_id": strconv.FormatInt(c.groupID, 10),
		"name":    name,
	})
	if err != nil {
		return 0, fmt.Errorf("create topic for %s: %w", identity, err)
	}
	var topic struct {
		MessageThreadID int `json:"message_thread_id"`
	}
	if err := json.Unmarshal(result, &topic); err != nil {
		return 0, fmt.Errorf("decode topic for %s: %w", identity, err)
	}

	if err := c.topics.SetTopic(ctx, identity, topic.MessageThreadID); err != nil {
		return 0, err
	}

	cardID, err := c.sendToTopic(topic.MessageThreadID, clientCard(identity), true)
	if err != nil {
		logger.ErrorLogger.Printf("client card %s: %v", identity, err)
		return topic.MessageThreadID, nil
	}
	if _, err := c.rawRequest("pinChatMessage", map[string]string{
		"chat_id":              strconv.FormatInt(c.groupID, 10),
		"message_id":           strconv.Itoa(cardID),
		"disable_notification": "true",
	}); err != nil {
		logger.ErrorLogger.Printf("pin card %s: %v", identity, err)
	}
	return topic.MessageThreadID, nil
}

func clientCard(identity string) string {
	return "👤 Cliente\n📞 +" + identity + "\n💬 wa.me/" + identity
}

// sendToTopic posts into a forum thread and returns the message id.
// Raw call: the library's MessageConfig predates message_thread_id.
func (c *CRM) sendToTopic(topicID int, text string, silent bool) (int, error) {
	params := map[string]string{
		"chat_id":           strconv.FormatInt(c.groupID, 10),
		"message_thread_id": strconv.Itoa(topicID),
		"text":              text,
	}
	if silent {
		params["disable_notification"] = "true"
	}
	result, err := c.rawRequest("sendMessage", params)
	if err != nil {
		return 0, err
	}
	var msg struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(result, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (c *CRM) rawRequest(method string, params map[string]string) (json.RawMessage, error) {
	values := make(tgbotapi.Params, len(params))
	for k, v := range params {
		values[k] = v
	}
	resp, err := c.bot.MakeRequest(method, values)
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Run consumes group updates until ctx is done, relaying operator
// messages typed inside a client topic back to that client over the
// primary channel. The client is switched to human mode so the engine
// stays out of the way.
func (c *CRM) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := c.bot.GetUpdatesChan(cfg)
	defer c.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil || msg.Chat.ID != c.groupID || msg.From == nil || msg.From.IsBot {
				continue
			}
			if msg.IsCommand() {
				c.handleCommand(ctx, msg)
				continue
			}
			c.relayOperatorMessage(ctx, msg)
		}
	}
}

// handleCommand processes operator commands. /new <phone> opens a
// topic and an outbound conversation before the client ever writes in.
func (c *CRM) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "new":
		args := strings.Fields(msg.CommandArguments())
		if len(args) == 0 {
			c.replyInThread(msg, "Uso: /new <teléfono> [nombre]")
			return
		}
		identity := strings.TrimPrefix(args[0], "+")
		name := identity
		if len(args) > 1 {
			name = strings.Join(args[1:], " ") + " " + identity
		}
		if _, err := c.ensureTopic(ctx, identity, "📱 "+name); err != nil {
			logger.ErrorLogger.Printf("/new %s: %v", identity, err)
			c.replyInThread(msg, "❌ No pude crear el tema: "+err.Error())
			return
		}
		c.markHuman(ctx, identity)
		c.replyInThread(msg, "✅ Tema creado. Escribí acá y le llega al cliente.")
	}
}

// relayOperatorMessage maps the thread back to a client and forwards
// the text. The library's update struct predates message_thread_id, but
// topic messages implicitly reply to the topic's service message, whose
// id equals the thread id.
func (c *CRM) relayOperatorMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.ReplyToMessage == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	topicID := msg.ReplyToMessage.MessageID

	identity, ok, err := c.topics.FindIdentityByTopic(ctx, topicID)
	if err != nil {
		logger.ErrorLogger.Printf("resolve topic %d: %v", topicID, err)
		return
	}
	if !ok {
		return
	}

	c.markHuman(ctx, identity)

	if err := c.messenger.SendButtons(ctx, identity, msg.Text, []repository.Button{
		{ID: returnBotButtonID, Title: "🤖 Volver al bot"},
	}); err != nil {
		logger.ErrorLogger.Printf("relay to %s: %v", identity, err)
		c.replyInThread(msg, "❌ No se pudo entregar: "+err.Error())
		return
	}
	if err := c.sessions.LogEvent(ctx, identity, "operator_reply", msg.Text); err != nil {
		logger.ErrorLogger.Printf("log operator reply %s: %v", identity, err)
	}
}

// markHuman flips the session to human mode so the engine forwards
// instead of answering while the operator drives the conversation.
func (c *CRM) markHuman(ctx context.Context, identity string) {
	sess, err := c.sessions.Get(ctx, identity)
	if err != nil {
		logger.ErrorLogger.Printf("load session %s: %v", identity, err)
		return
	}
	if sess == nil {
		sess = entity.NewSession(identity, timeNow())
	}
	sess.Mode = entity.ModeHuman
	sess.LastActiveAt = timeNow()
	if err := c.sessions.Save(ctx, sess); err != nil {
		logger.ErrorLogger.Printf("save session %s: %v", identity, err)
	}
}

func (c *CRM) replyInThread(msg *tgbotapi.Message, text string) {
	topicID := 0
	if msg.ReplyToMessage != nil {
		topicID = msg.ReplyToMessage.MessageID
	}
	if topicID > 0 {
		if _, err := c.sendToTopic(topicID, text, true); err != nil {
			logger.ErrorLogger.Printf("reply in thread %d: %v", topicID, err)
		}
		return
	}
	reply := tgbotapi.NewMessage(c.groupID, text)
	reply.ReplyToMessageID = msg.MessageID
	if _, err := c.bot.Send(reply); err != nil {
		logger.ErrorLogger.Printf("reply in group: %v", err)
	}
}
