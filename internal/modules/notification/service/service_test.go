package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf16"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []domain.Outbound
	err  error
}

func (d *recordingDispatcher) Deliver(_ context.Context, msg domain.Outbound) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return d.err
}

type recordingMirror struct {
	got []domain.Notification
	err error
}

func (m *recordingMirror) Publish(_ context.Context, n domain.Notification) error {
	m.got = append(m.got, n)
	return m.err
}

const giveaway = `🎉 抽奖活动
抽奖创建时间：2024-05-01 12:00:00
创建者：@lucky_boss
奖品：
USDT × 10
会员 x 2

参与设置
自动开奖人数：100
参与关键词：「冲冲冲」`

const redPacket = `红包活动已创建
总金额：500
数量：20份
发送 恭喜发财 进行领取`

func TestParseGiveaway(t *testing.T) {
	lottery, ok := ParseLottery(giveaway)
	require.True(t, ok)

	assert.Equal(t, "2024-05-01 12:00:00", lottery.CreatedAt)
	assert.Equal(t, "@lucky_boss", lottery.Creator)
	assert.Equal(t, 100, lottery.AutoOpenCount)
	assert.Equal(t, "冲冲冲", lottery.Keyword)
	assert.False(t, lottery.RedPacket)
	assert.Equal(t, []domain.Prize{{Name: "USDT", Count: 10}, {Name: "会员", Count: 2}}, lottery.Prizes)
}

func TestParseRedPacket(t *testing.T) {
	lottery, ok := ParseLottery(redPacket)
	require.True(t, ok)

	assert.True(t, lottery.RedPacket)
	assert.Equal(t, "恭喜发财", lottery.Keyword)
	assert.Equal(t, []domain.Prize{{Name: "红包 500", Count: 20}}, lottery.Prizes)
}

func TestParseLotteryIgnoresOrdinaryText(t *testing.T) {
	_, ok := ParseLottery("hello 红包 world")
	assert.False(t, ok)
}

func TestFormatAlertEscapesMarkdown(t *testing.T) {
	text := Format(domain.Notification{
		ChatID:     "1234567890",
		ChatTitle:  "Deals_and.Steals",
		MessageID:  42,
		SenderName: "Bob (admin)",
		Text:       "price: 1.5!",
	})

	assert.Contains(t, text, "Deals\\_and\\.Steals")
	assert.Contains(t, text, "Bob \\(admin\\)")
	assert.Contains(t, text, "https://t\\.me/c/1234567890/42")
	assert.True(t, strings.HasSuffix(text, "price: 1\\.5\\!"))
}

func TestFormatAlertBodyFitsInUTF16Units(t *testing.T) {
	body := func(text string) string {
		out := Format(domain.Notification{ChatID: "1", MessageID: 2, Text: text})
		_, after, found := strings.Cut(out, "*Message:*\n")
		require.True(t, found)
		return after
	}

	emoji := body(strings.Repeat("😀", 3000))
	assert.True(t, strings.HasSuffix(emoji, "…"))
	assert.Len(t, utf16.Encode([]rune(strings.TrimSuffix(emoji, "…"))), maxBodyUnits)

	dots := body(strings.Repeat(".", 3000))
	assert.Equal(t, strings.Repeat("\\.", maxBodyUnits/2)+"…", dots)

	short := body("😀 ok")
	assert.Equal(t, "😀 ok", short)
}

func TestFormatLotteryCard(t *testing.T) {
	lottery, _ := ParseLottery(giveaway)
	text := Format(domain.Notification{ChatID: "55", ChatTitle: "Lucky", MessageID: 7, Lottery: lottery})

	assert.Contains(t, text, "Giveaway alert")
	assert.Contains(t, text, "`冲冲冲`")
	assert.Contains(t, text, "USDT × 10")
	assert.Contains(t, text, "100 participants")
	assert.Contains(t, text, "https://t\\.me/c/55/7")
}

func TestNotifyDeliversOnceAndMirrors(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	mirror := &recordingMirror{}
	svc := New(dispatcher, "-100999", "-100888", nil)
	svc.AddMirror(mirror)

	require.NoError(t, svc.Notify(context.Background(), domain.Notification{ChatID: "1", MessageID: 2, Text: "hi"}))

	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "-100999", dispatcher.sent[0].ChatID)
	assert.True(t, dispatcher.sent[0].Markdown)
	assert.Len(t, mirror.got, 1)
	assert.Equal(t, Stats{Delivered: 1, Mirrored: 1}, svc.Stats())
}

func TestNotifyFailureIsReportedNotRetried(t *testing.T) {
	dispatcher := &recordingDispatcher{err: errors.New("chat not found")}
	mirror := &recordingMirror{err: errors.New("nats down")}
	svc := New(dispatcher, "-100999", "-100888", nil)
	svc.AddMirror(mirror)

	err := svc.Notify(context.Background(), domain.Notification{ChatID: "1", MessageID: 2})
	require.Error(t, err)
	assert.Len(t, dispatcher.sent, 1)
	assert.Equal(t, Stats{Failed: 1}, svc.Stats())
}

func TestOperatorUsesAdminChatWithoutMarkdown(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc := New(dispatcher, "-100999", "-100888", nil)

	require.NoError(t, svc.Operator(context.Background(), "code please"))
	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, domain.Outbound{ChatID: "-100888", Text: "code please"}, dispatcher.sent[0])
}
