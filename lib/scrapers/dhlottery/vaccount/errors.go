package vaccount

import (
	"dhapi/lib/scrapers/dhlottery/waitqueue"
	"fmt"
	"strings"
)

// ResolutionFailed means every strategy ran without producing a valid
// account.
type ResolutionFailed struct {
	Attempted []string
	// one entry per attempted strategy, "<strategy>: <reason>"
	Reasons []string
	// at least one strategy ended on the holding page
	Blocked bool
}

func (e *ResolutionFailed) Error() string {
	msg := "가상계좌를 할당하지 못했습니다."
	if e.Blocked {
		msg += " 결제 시스템 대기열로 인해 지연되고 있습니다. 잠시 후 다시 시도해주세요."
	}
	if len(e.Reasons) > 0 {
		msg += fmt.Sprintf(" (%s)", strings.Join(e.Reasons, "; "))
	}
	return msg
}

func (e *ResolutionFailed) Unwrap() error {
	if e.Blocked {
		return waitqueue.ErrQueueBlocked
	}
	return nil
}
