package version

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const banner = `
██╗     ██╗███╗   ██╗███████╗██╗      ██████╗  █████╗ ██████╗
██║     ██║████╗  ██║██╔════╝██║     ██╔═══██╗██╔══██╗██╔══██╗
██║     ██║██╔██╗ ██║█████╗  ██║     ██║   ██║███████║██║  ██║
██║     ██║██║╚██╗██║██╔══╝  ██║     ██║   ██║██╔══██║██║  ██║
███████╗██║██║ ╚████║███████╗███████╗╚██████╔╝██║  ██║██████╔╝
╚══════╝╚═╝╚═╝  ╚═══╝╚══════╝╚══════╝ ╚═════╝ ╚═╝  ╚═╝╚═════╝
`

// ANSI 颜色码
const (
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// Setting 启动时展示的运行参数
type Setting struct {
	Name  string
	Value string
}

// PrintBanner 打印启动 Banner、版本信息和运行参数到 stderr
func PrintBanner(settings ...Setting) {
	// 检测是否为终端，非终端不输出颜色
	isTTY := term.IsTerminal(int(os.Stderr.Fd()))

	rows := append([]Setting{
		{"Version:", Version},
		{"Commit:", Commit},
		{"Build Time:", BuildTime},
	}, settings...)

	if isTTY {
		fmt.Fprintf(os.Stderr, "%s%s%s", colorCyan, banner, colorReset)
		fmt.Fprintf(os.Stderr, "  %sEndpoint Selection & Failover%s\n\n", colorYellow, colorReset)
	} else {
		fmt.Fprint(os.Stderr, banner)
		fmt.Fprint(os.Stderr, "  Endpoint Selection & Failover\n\n")
	}
	for _, row := range rows {
		if isTTY {
			fmt.Fprintf(os.Stderr, "%-14s %s%s%s\n", row.Name, colorGreen, row.Value, colorReset)
		} else {
			fmt.Fprintf(os.Stderr, "%-14s %s\n", row.Name, row.Value)
		}
	}
	fmt.Fprintln(os.Stderr)
}
