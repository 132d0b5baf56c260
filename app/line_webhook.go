package app

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

const lineGreeting = "友だち追加ありがとうございます！離乳食のことなら何でも聞いてくださいね。" +
	"「5ヶ月」「アレルギー」などのキーワードでお答えします。"

// lineReplyFor picks a canned guidance reply by keyword. Unmatched text
// gets a generic pointer to the app.
func lineReplyFor(text string) string {
	switch {
	case strings.Contains(text, "アレルギー"), strings.Contains(strings.ToLower(text), "allergy"):
		return "アレルギーが心配な食材は、平日の午前中にごく少量から試しましょう。" +
			"発疹や嘔吐があればすぐに小児科へ。詳しくはアプリのAI相談をどうぞ。"
	case reAgeSingle.MatchString(text):
		lo, hi := classifyAgeRange(text)
		return buildAgeGuidance(lo, hi)
	case strings.Contains(text, "レシピ"):
		return "アプリの「レシピ検索」で、おうちにある食材から離乳食レシピを提案できます。"
	default:
		return "ご質問ありがとうございます。月齢(例:「7ヶ月」)やキーワードを送っていただくと、合った情報をお届けします。"
	}
}

func buildAgeGuidance(lo, hi int) string {
	switch {
	case hi <= 6:
		return "5〜6ヶ月はごっくん期。なめらかにすりつぶした10倍がゆから、1日1さじずつ始めましょう。"
	case hi <= 8:
		return "7〜8ヶ月はもぐもぐ期。舌でつぶせる豆腐くらいの固さ、1日2回食が目安です。"
	case hi <= 11:
		return "9〜11ヶ月はかみかみ期。バナナくらいの固さ、1日3回食で手づかみ食べも。"
	default:
		return "12ヶ月以降はぱくぱく期。薄味の幼児食へ少しずつ移行していきましょう。"
	}
}

// LineWebhook receives Messaging API events. The platform redelivers on
// non-2xx, so every outcome (bad signature included) acknowledges 200.
func LineWebhook(bot *linebot.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		okBody := gin.H{"status": "ok"}

		if bot == nil {
			log.Printf("line webhook received but bot not configured")
			c.JSON(http.StatusOK, okBody)
			return
		}

		events, err := bot.ParseRequest(c.Request)
		if err != nil {
			if err == linebot.ErrInvalidSignature {
				log.Printf("line webhook signature mismatch")
			} else {
				log.Printf("line webhook parse failed: %v", err)
			}
			c.JSON(http.StatusOK, okBody)
			return
		}

		for _, event := range events {
			switch event.Type {
			case linebot.EventTypeMessage:
				msg, ok := event.Message.(*linebot.TextMessage)
				if !ok {
					continue
				}
				reply := lineReplyFor(msg.Text)
				if _, err := bot.ReplyMessage(event.ReplyToken, linebot.NewTextMessage(reply)).Do(); err != nil {
					log.Printf("line reply failed: %v", err)
				}
			case linebot.EventTypeFollow:
				if _, err := bot.ReplyMessage(event.ReplyToken, linebot.NewTextMessage(lineGreeting)).Do(); err != nil {
					log.Printf("line greeting failed: %v", err)
				}
			default:
				// Other event types are ignored.
			}
		}

		c.JSON(http.StatusOK, okBody)
	}
}
