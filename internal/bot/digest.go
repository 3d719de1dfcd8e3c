package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/patterneng/internal/catalog"
)

// Digest summarizes a learner's study state for chat messages.
type Digest struct {
	LearnerID      string
	Completed      int
	TotalSentences int
	ClearedDays    []int // without the implicit day 0
	NextDay        int   // first day not cleared yet, 0 when all are
	WrongPending   int
}

type ProgressReader interface {
	CompletedCount(ctx context.Context, learnerID string) (int, error)
	ClearedDays(ctx context.Context, learnerID string) ([]int, error)
}

type ReviewReader interface {
	WrongCount(ctx context.Context, learnerID string) (int, error)
}

// Digester builds digests from the progress and review services.
type Digester struct {
	catalog  *catalog.Catalog
	progress ProgressReader
	review   ReviewReader
	total    int
}

func NewDigester(c *catalog.Catalog, progress ProgressReader, review ReviewReader) *Digester {
	total := 0
	for _, d := range c.Days() {
		total += c.TotalExamples(d.Day)
	}
	return &Digester{catalog: c, progress: progress, review: review, total: total}
}

func (d *Digester) Digest(ctx context.Context, learnerID string) (*Digest, error) {
	completed, err := d.progress.CompletedCount(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	cleared, err := d.progress.ClearedDays(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	wrong, err := d.review.WrongCount(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	out := &Digest{
		LearnerID:      learnerID,
		Completed:      completed,
		TotalSentences: d.total,
		WrongPending:   wrong,
	}
	done := make(map[int]bool, len(cleared))
	for _, day := range cleared {
		if day == 0 {
			continue
		}
		done[day] = true
		out.ClearedDays = append(out.ClearedDays, day)
	}
	for _, day := range d.catalog.Days() {
		if !done[day.Day] {
			out.NextDay = day.Day
			break
		}
	}
	return out, nil
}

// Text renders the digest as a chat message body.
func (d *Digest) Text() string {
	var b strings.Builder
	b.WriteString("📊 학습 현황\n\n")
	fmt.Fprintf(&b, "완료한 문장: %d / %d\n", d.Completed, d.TotalSentences)

	if len(d.ClearedDays) == 0 {
		b.WriteString("클리어한 Day: 아직 없음\n")
	} else {
		days := make([]string, 0, len(d.ClearedDays))
		for _, day := range d.ClearedDays {
			days = append(days, fmt.Sprintf("%d", day))
		}
		fmt.Fprintf(&b, "클리어한 Day: %s\n", strings.Join(days, ", "))
	}

	if d.NextDay > 0 {
		fmt.Fprintf(&b, "다음 목표: Day %d\n", d.NextDay)
	} else {
		b.WriteString("모든 Day 클리어! 🎉\n")
	}
	fmt.Fprintf(&b, "복습할 오답: %d개", d.WrongPending)
	return b.String()
}
