package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
// 彩色输出工具
// ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorWarning = color.New(color.FgYellow).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
	colorFaint   = color.New(color.Faint).SprintFunc()
)

// Output 面向终端用户的输出，日志走 corelog
// 可被多个 goroutine 同时使用
type Output struct {
	mu sync.Mutex
	w  io.Writer
}

// NewOutput 创建输出工具，w 为空时写到 stdout
// 非终端输出自动关闭颜色
func NewOutput(w io.Writer, noColor bool) *Output {
	if w == nil {
		w = os.Stdout
	}
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		noColor = true
	}
	color.NoColor = noColor
	return &Output{w: w}
}

// Writer 底层输出
func (o *Output) Writer() io.Writer {
	return o.w
}

func (o *Output) print(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	io.WriteString(o.w, s)
}

// Success 输出成功消息
func (o *Output) Success(format string, args ...interface{}) {
	o.print(fmt.Sprintf("%s %s\n", colorSuccess("✓"), fmt.Sprintf(format, args...)))
}

// Error 输出错误消息
func (o *Output) Error(format string, args ...interface{}) {
	o.print(fmt.Sprintf("%s %s\n", colorError("✗"), fmt.Sprintf(format, args...)))
}

// Warning 输出警告消息
func (o *Output) Warning(format string, args ...interface{}) {
	o.print(fmt.Sprintf("%s %s\n", colorWarning("!"), fmt.Sprintf(format, args...)))
}

// Info 输出信息消息
func (o *Output) Info(format string, args ...interface{}) {
	o.print(colorInfo(fmt.Sprintf(format, args...)) + "\n")
}

// Plain 输出普通消息（无颜色）
func (o *Output) Plain(format string, args ...interface{}) {
	o.print(fmt.Sprintf(format+"\n", args...))
}

// Header 输出标题，形如 === Bridge Running ===
func (o *Output) Header(title string) {
	o.print("\n" + colorBold("=== "+title+" ===") + "\n")
}

// KeyValue 输出键值对
func (o *Output) KeyValue(key, value string) {
	o.print(fmt.Sprintf("  %-16s %s\n", colorBold(key+":"), value))
}

// Separator 输出分隔线
func (o *Output) Separator() {
	o.print(colorFaint(strings.Repeat("━", 60)) + "\n")
}

// FormatBytes 格式化字节数
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration 格式化时长
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
}
