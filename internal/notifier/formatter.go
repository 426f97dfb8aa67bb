package notifier

import (
	"fmt"
	"strings"

	"EtfSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// reasonText maps reason codes to the human-readable line in alerts.
func reasonText(reason model.ReasonCode) string {
	switch reason {
	case model.ReasonThresholdMet:
		return "价格跌破动态阈值，逢低买入"
	case model.ReasonWaitPeriodExpired:
		return "等待期届满，强制买入"
	case model.ReasonStillWaiting:
		return "价格高于阈值且未到等待期，继续观望"
	default:
		return string(reason)
	}
}

// FormatBuyAlert formats a freshly decided BUY into a Telegram message.
func FormatBuyAlert(ticker string, price decimal.Decimal, d *model.Decision) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ <b>买入提醒</b> | %s\n\n", ticker))
	b.WriteString(fmt.Sprintf("当前价格: %s\n", price.StringFixed(2)))
	b.WriteString(fmt.Sprintf("动态阈值: %s (σ=%.4f)\n", d.ThresholdUsed.StringFixed(2), d.Sigma))
	b.WriteString(fmt.Sprintf("已等待天数: %d\n\n", d.DaysWaited))
	b.WriteString(fmt.Sprintf("原因: %s", reasonText(d.Reason)))
	return b.String()
}

// FormatRecoveredBuyAlert re-announces a BUY that was decided on a previous
// run but whose notification may never have gone out.
func FormatRecoveredBuyAlert(state *model.InvestmentState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ <b>买入提醒（补发）</b> | %s\n\n", state.Ticker))
	b.WriteString(fmt.Sprintf("买入价格: %s\n", state.BaselinePrice.StringFixed(2)))
	b.WriteString(fmt.Sprintf("决策日期: %s\n\n", state.BaselineDate.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("原因: %s", reasonText(model.ReasonCode(state.LastReason))))
	return b.String()
}

// FormatStatus formats the current investment state for the /status command.
func FormatStatus(state *model.InvestmentState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>投资状态</b> | %s\n\n", state.Ticker))
	b.WriteString(fmt.Sprintf("基准价格: %s\n", state.BaselinePrice.StringFixed(2)))
	b.WriteString(fmt.Sprintf("基准日期: %s\n", state.BaselineDate.Format("2006-01-02")))
	if !state.LastDecisionDate.IsZero() {
		b.WriteString(fmt.Sprintf("最近决策: %s (%s)\n", state.LastDecisionDate.Format("2006-01-02"), state.LastAction))
	}
	b.WriteString(fmt.Sprintf("价格窗口: %d 个样本\n", len(state.RecentPrices)))
	b.WriteString(fmt.Sprintf("状态: %s\n", state.Status))
	if !state.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("更新时间: %s\n", state.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatOutcome summarizes an invocation result for the /run command reply.
func FormatOutcome(ticker string, out *model.Outcome) string {
	if out.NoOp {
		return fmt.Sprintf("⏳ %s 今日已完成决策: %s，本次为空转", ticker, out.Action)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>决策结果</b> | %s\n\n", ticker))
	b.WriteString(fmt.Sprintf("动作: %s\n", out.Action))
	b.WriteString(fmt.Sprintf("已等待天数: %d\n", out.DaysWaited))
	b.WriteString(fmt.Sprintf("原因: %s", reasonText(out.Reason)))
	if out.Recovered {
		b.WriteString("\n（恢复了上次未完成的买入周期）")
	}
	return b.String()
}
