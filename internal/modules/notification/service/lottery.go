package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/domain"
	"github.com/samber/lo"
)

// Labels used by the giveaway bots whose announcements we recognize.
var lotteryMarkers = []string{"抽奖创建时间", "参与关键词", "自动开奖人数", "红包活动已创建"}

var (
	createdAtRe     = regexp.MustCompile(`抽奖创建时间[：:](.+)`)
	creatorRe       = regexp.MustCompile(`创建者[：:](.+)`)
	autoOpenRe      = regexp.MustCompile(`自动开奖人数[：:]\s*(\d+)`)
	keywordRe       = regexp.MustCompile(`参与关键词[：:]「(.+?)」`)
	prizeHeaderRe   = regexp.MustCompile(`奖品[：:]|总金额[：:]`)
	prizeLineRe     = regexp.MustCompile(`(\S.*?)\s*[*×x]\s*(\d+)`)
	redAmountRe     = regexp.MustCompile(`总金额[：:]\s*(\d+)`)
	redCountRe      = regexp.MustCompile(`数量[：:]\s*(\d+)份`)
	redPasswordRe   = regexp.MustCompile(`发送\s+(.+?)\s+进行领取`)
	prizeSectionEnd = []string{"参与设置", "抽奖设置"}
)

// ParseLottery extracts a structured card from a giveaway or red packet
// announcement. ok is false when text is not such an announcement.
func ParseLottery(text string) (*domain.Lottery, bool) {
	if !lo.SomeBy(lotteryMarkers, func(marker string) bool { return strings.Contains(text, marker) }) {
		return nil, false
	}

	lottery := &domain.Lottery{
		CreatedAt: firstGroup(createdAtRe, text),
		Creator:   firstGroup(creatorRe, text),
		Keyword:   firstGroup(keywordRe, text),
		RedPacket: strings.Contains(text, "红包活动已创建"),
	}
	if n, err := strconv.Atoi(firstGroup(autoOpenRe, text)); err == nil {
		lottery.AutoOpenCount = n
	}

	lines := strings.Split(text, "\n")
	if lottery.RedPacket {
		lottery.Prizes = redPacketPrizes(lines)
		if password := firstGroup(redPasswordRe, text); password != "" {
			lottery.Keyword = password
		}
	} else {
		lottery.Prizes = prizeList(lines)
	}

	return lottery, true
}

func prizeList(lines []string) []domain.Prize {
	var prizes []domain.Prize
	inSection := false
	for _, line := range lines {
		if prizeHeaderRe.MatchString(line) {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if strings.TrimSpace(line) == "" || lo.SomeBy(prizeSectionEnd, func(end string) bool { return strings.Contains(line, end) }) {
			inSection = false
			continue
		}

		m := prizeLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		count, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		prizes = append(prizes, domain.Prize{Name: strings.TrimSpace(m[1]), Count: count})
	}
	return prizes
}

// A red packet announcement carries a total amount and a share count
// somewhere after the amount header.
func redPacketPrizes(lines []string) []domain.Prize {
	_, start, found := lo.FindIndexOf(lines, func(line string) bool { return prizeHeaderRe.MatchString(line) })
	if !found {
		return nil
	}

	var amount, count string
	for _, line := range lines[start:] {
		if m := redAmountRe.FindStringSubmatch(line); m != nil {
			amount = m[1]
		}
		if m := redCountRe.FindStringSubmatch(line); m != nil {
			count = m[1]
		}
	}
	n, err := strconv.Atoi(count)
	if amount == "" || err != nil {
		return nil
	}
	return []domain.Prize{{Name: "红包 " + amount, Count: n}}
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
