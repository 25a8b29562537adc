package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"github.com/google/uuid"
)

const defaultOrderCodeAttempts = 3

// OrderCodeGenerator は注文コードを作る。
// 候補: ORD + base36(unix ms) + "-" + ランダム4桁。重複なら数回やり直し、
// 最後は秒+ミリ秒だけのコード。それも埋まっていれば競合として返す。
type OrderCodeGenerator struct {
	attempts int
	suffix   func() string
}

func NewOrderCodeGenerator() *OrderCodeGenerator {
	return &OrderCodeGenerator{
		attempts: defaultOrderCodeAttempts,
		suffix:   randomSuffix,
	}
}

func randomSuffix() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:4])
}

func (g *OrderCodeGenerator) candidate(now time.Time) string {
	return "ORD" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + "-" + g.suffix()
}

func fallbackOrderCode(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("ORD%s%03d", now.Format("060102150405"), now.Nanosecond()/int(time.Millisecond))
}

func (g *OrderCodeGenerator) Generate(ctx context.Context, orders repo.OrderRepository, now time.Time) (string, error) {
	for i := 0; i < g.attempts; i++ {
		code := g.candidate(now)
		exists, err := orders.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	code := fallbackOrderCode(now)
	exists, err := orders.ExistsByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errConflict(CodeOrderCodeConflict, "could not allocate order code, please retry")
	}
	return code, nil
}
